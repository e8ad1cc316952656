package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fenilsonani/junk-sweeper/internal/ui/styles"
)

const (
	// MinTerminalWidth is the minimum recommended terminal width
	MinTerminalWidth = 80
	// MinTerminalHeight is the minimum recommended terminal height
	MinTerminalHeight = 24

	// reservedLines covers title, filter line, status bar and help
	reservedLines = 10
)

// TruncatePath shortens path to maxWidth cells. The file name is kept and
// leading directories are dropped first, e.g. ".../cache/c.bin".
func TruncatePath(path string, maxWidth int) string {
	if lipgloss.Width(path) <= maxWidth {
		return path
	}
	if maxWidth < 8 {
		return "..."
	}

	name := filepath.Base(path)
	if lipgloss.Width(name)+4 > maxWidth {
		return "..." + tail(name, maxWidth-3)
	}

	parts := strings.Split(filepath.Dir(path), string(filepath.Separator))
	out := name
	for i := len(parts) - 1; i >= 0; i-- {
		next := parts[i] + string(filepath.Separator) + out
		if lipgloss.Width(next)+4 > maxWidth {
			break
		}
		out = next
	}
	return "..." + string(filepath.Separator) + out
}

func tail(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// CalculatePageSize returns the number of list rows that fit on screen
func CalculatePageSize(terminalHeight int) int {
	pageSize := terminalHeight - reservedLines
	if pageSize < 5 {
		pageSize = 5
	}
	return pageSize
}

// ScrollOffset returns the first visible row so that cursor stays on a page
// of pageSize rows, moving offset as little as possible
func ScrollOffset(cursor, offset, total, pageSize int) int {
	if pageSize <= 0 || total <= pageSize {
		return 0
	}
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+pageSize {
		offset = cursor - pageSize + 1
	}
	if last := total - pageSize; offset > last {
		offset = last
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

// IsTerminalTooSmall checks if the terminal is below minimum recommended size
func IsTerminalTooSmall(width, height int) bool {
	return width < MinTerminalWidth || height < MinTerminalHeight
}

// GetSizeWarningBanner returns a warning banner if terminal is too small.
// A zero size means no WindowSizeMsg has arrived yet.
func GetSizeWarningBanner(width, height int) string {
	if width == 0 && height == 0 {
		return ""
	}
	if !IsTerminalTooSmall(width, height) {
		return ""
	}

	warning := fmt.Sprintf("⚠️  Terminal too small! Recommended: %dx%d or larger", MinTerminalWidth, MinTerminalHeight)
	warning += styles.DimStyle.Render(" (current: ") +
		styles.WarningStyle.Render(fmt.Sprintf("%dx%d", width, height)) +
		styles.DimStyle.Render(")")

	return styles.WarningStyle.Render(warning) + "\n\n"
}
