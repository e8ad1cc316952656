package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	events "github.com/fenilsonani/junk-sweeper/internal/progress"
	"github.com/fenilsonani/junk-sweeper/internal/scanner"
	"github.com/fenilsonani/junk-sweeper/internal/ui/styles"
	uiutils "github.com/fenilsonani/junk-sweeper/internal/ui/utils"
	"github.com/fenilsonani/junk-sweeper/pkg/utils"
)

// CleanupViewModel handles the cleanup progress view
type CleanupViewModel struct {
	total     int
	bytes     int64
	dryRun    bool
	spinner   spinner.Model
	bar       progress.Model
	processed int
	percent   int
	current   string
	startTime time.Time
	width     int
	height    int
}

// NewCleanupViewModel creates a new cleanup view model for a delete of
// entries that has already been started
func NewCleanupViewModel(entries []scanner.Entry, dryRun bool, width, height int) *CleanupViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	m := &CleanupViewModel{
		total:     len(entries),
		dryRun:    dryRun,
		spinner:   s,
		bar:       progress.New(progress.WithDefaultGradient()),
		startTime: time.Now(),
	}
	for _, e := range entries {
		m.bytes += e.Size
	}
	m.SetSize(width, height)
	return m
}

// Init initializes the cleanup view
func (m *CleanupViewModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// SetSize updates the layout for the terminal size
func (m *CleanupViewModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.bar.Width = 40
	if width > 0 && width-10 < m.bar.Width {
		m.bar.Width = width - 10
	}
}

// HandleEvent records a delete event
func (m *CleanupViewModel) HandleEvent(e events.Event) {
	switch e.Kind {
	case events.KindStarted:
		m.startTime = e.Time
	case events.KindItem:
		m.current = e.Path
	case events.KindProgress:
		m.processed++
		m.percent = e.Percent
	}
}

// Processed returns the number of entries handled so far
func (m *CleanupViewModel) Processed() int {
	return m.processed
}

// Update handles messages
func (m *CleanupViewModel) Update(msg tea.Msg) (*CleanupViewModel, tea.Cmd) {
	if msg, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the cleanup view
func (m *CleanupViewModel) View() string {
	var b strings.Builder

	title := "🗑️  Cleaning Up"
	if m.dryRun {
		title += " (dry run)"
	}
	b.WriteString(styles.TitleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(m.spinner.View())
	b.WriteString(" Deleting files... ")
	b.WriteString(styles.DimStyle.Render(fmt.Sprintf("(%s)", events.FormatDuration(time.Since(m.startTime)))))
	b.WriteString("\n\n")

	b.WriteString(m.bar.ViewAs(float64(m.percent) / 100))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Progress: %d/%d files (%s selected)",
		m.processed, m.total, utils.FormatBytes(m.bytes)))
	b.WriteString("\n")
	if m.current != "" {
		b.WriteString(styles.DimStyle.Render("Current: "))
		b.WriteString(styles.FilePathStyle.Render(uiutils.TruncatePath(m.current, 60)))
		b.WriteString("\n")
	}

	return b.String()
}
