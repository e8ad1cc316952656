package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/junk-sweeper/internal/cleaner"
	events "github.com/fenilsonani/junk-sweeper/internal/progress"
	"github.com/fenilsonani/junk-sweeper/internal/ui/styles"
	"github.com/fenilsonani/junk-sweeper/pkg/utils"
)

// SummaryViewModel handles the summary/results view. result is nil when
// the delete was rejected as a whole; terminal then carries the error.
type SummaryViewModel struct {
	result   *cleaner.DeleteResult
	terminal events.Event
	width    int
	height   int
}

// NewSummaryViewModel creates a new summary view model
func NewSummaryViewModel(result *cleaner.DeleteResult, terminal events.Event, width, height int) *SummaryViewModel {
	return &SummaryViewModel{
		result:   result,
		terminal: terminal,
		width:    width,
		height:   height,
	}
}

// SetSize updates the layout for the terminal size
func (m *SummaryViewModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Init initializes the summary view
func (m *SummaryViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *SummaryViewModel) Update(msg tea.Msg) (*SummaryViewModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		return m, func() tea.Msg { return BackToListMsg{} }
	}
	return m, nil
}

// View renders the summary view
func (m *SummaryViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("✨ Cleanup Summary"))
	b.WriteString("\n\n")

	if m.result == nil {
		b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("✗ Nothing was deleted: %v", m.terminal.Err)))
		b.WriteString("\n")
	} else {
		r := m.result
		if r.FailedCount > 0 {
			b.WriteString(styles.WarningStyle.Render("⚠ " + r.Summary()))
		} else {
			b.WriteString(styles.SuccessStyle.Render("✓ " + r.Summary()))
		}
		b.WriteString("\n")

		label := "Space freed"
		if r.DryRun {
			label = "Space that would be freed"
		}
		b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("%s: %s", label, utils.FormatBytes(r.ReclaimedBytes))))
		b.WriteString("\n")

		if r.FailedCount > 0 {
			b.WriteString("\n")
			b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("✗ %d files could not be deleted", r.FailedCount)))
			b.WriteString("\n")
			b.WriteString(cleaner.FormatErrorSummary(r.Failures))
		}

		if r.DryRun {
			b.WriteString("\n")
			b.WriteString(styles.InfoStyle.Render("Note: This was a dry run. No files were actually deleted."))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("Press enter to return to the list, q to exit"))

	return b.String()
}
