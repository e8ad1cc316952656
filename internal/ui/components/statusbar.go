package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fenilsonani/junk-sweeper/internal/ui/styles"
	"github.com/fenilsonani/junk-sweeper/pkg/utils"
)

// Shortcut is one key hint shown on the right of the status bar
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the line at the bottom of the list views
type StatusBar struct {
	viewName  string
	selected  int
	total     int
	size      int64
	filter    string
	shortcuts []Shortcut
}

// NewStatusBar creates a new status bar
func NewStatusBar() *StatusBar {
	return &StatusBar{}
}

// SetView sets the current view name
func (s *StatusBar) SetView(viewName string) {
	s.viewName = viewName
}

// SetSelection sets the selection count, total, and size
func (s *StatusBar) SetSelection(selected, total int, size int64) {
	s.selected = selected
	s.total = total
	s.size = size
}

// SetFilter sets the active filter description; empty hides it
func (s *StatusBar) SetFilter(desc string) {
	s.filter = desc
}

// SetShortcuts sets the key hints, shown in the given order
func (s *StatusBar) SetShortcuts(shortcuts ...Shortcut) {
	s.shortcuts = shortcuts
}

// Render renders the status bar with the given width
func (s *StatusBar) Render(width int) string {
	if width <= 0 {
		width = 80
	}

	var parts []string
	if s.viewName != "" {
		parts = append(parts, styles.BoldStyle.Render(s.viewName))
	}
	if s.total > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d selected", s.selected, s.total))
	}
	if s.size > 0 {
		parts = append(parts, styles.FileSizeStyle.Render(utils.FormatBytes(s.size)))
	}
	if s.filter != "" {
		parts = append(parts, styles.CategoryStyle.Render(s.filter))
	}
	left := strings.Join(parts, " • ")

	hints := make([]string, 0, len(s.shortcuts))
	for _, sc := range s.shortcuts {
		hints = append(hints, fmt.Sprintf("%s:%s", styles.DimStyle.Render(sc.Key), sc.Desc))
	}

	// Drop hints from the end until both sides fit
	right := strings.Join(hints, " ")
	for len(hints) > 0 && lipgloss.Width(left)+lipgloss.Width(right)+3 > width {
		hints = hints[:len(hints)-1]
		right = strings.Join(hints, " ")
	}

	spacing := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if spacing < 1 {
		spacing = 1
	}

	return RenderSimple(left+strings.Repeat(" ", spacing)+right, width)
}

// RenderSimple renders a status bar holding just a message
func RenderSimple(message string, width int) string {
	if width <= 0 {
		width = 80
	}
	return styles.StatusBarStyle.Width(width).Render(message)
}
