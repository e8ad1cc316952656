package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	events "github.com/fenilsonani/junk-sweeper/internal/progress"
	"github.com/fenilsonani/junk-sweeper/internal/session"
	"github.com/fenilsonani/junk-sweeper/internal/ui/styles"
	uiutils "github.com/fenilsonani/junk-sweeper/internal/ui/utils"
	"github.com/fenilsonani/junk-sweeper/pkg/utils"
)

// ScanViewModel shows a running scan. Counts come from the session's live
// partial result; percent and current path come from progress events.
type ScanViewModel struct {
	session   *session.Session
	title     string
	spinner   spinner.Model
	bar       progress.Model
	startTime time.Time
	percent   int
	current   string
	width     int
	height    int
}

// NewScanViewModel creates a new scan view model
func NewScanViewModel(sess *session.Session, title string, width, height int) *ScanViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	m := &ScanViewModel{
		session:   sess,
		title:     title,
		spinner:   s,
		bar:       progress.New(progress.WithDefaultGradient()),
		startTime: time.Now(),
	}
	m.SetSize(width, height)
	return m
}

// Init starts the spinner
func (m *ScanViewModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// SetSize updates the layout for the terminal size
func (m *ScanViewModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.bar.Width = 40
	if width > 0 && width-10 < m.bar.Width {
		m.bar.Width = width - 10
	}
}

// HandleEvent records a scan event
func (m *ScanViewModel) HandleEvent(e events.Event) {
	switch e.Kind {
	case events.KindStarted:
		m.startTime = e.Time
	case events.KindProgress:
		m.percent = e.Percent
		if e.Path != "" {
			m.current = e.Path
		}
	case events.KindItem:
		m.current = e.Path
	}
}

// Percent returns the last reported scan percent
func (m *ScanViewModel) Percent() int {
	return m.percent
}

// Update handles messages
func (m *ScanViewModel) Update(msg tea.Msg) (*ScanViewModel, tea.Cmd) {
	if msg, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the scan view
func (m *ScanViewModel) View() string {
	var b strings.Builder

	b.WriteString(uiutils.GetSizeWarningBanner(m.width, m.height))
	b.WriteString(styles.TitleStyle.Render("🔍 Scanning " + m.title))
	b.WriteString("\n\n")

	elapsed := time.Since(m.startTime)
	b.WriteString(m.spinner.View())
	b.WriteString(" Scanning... ")
	b.WriteString(styles.DimStyle.Render(fmt.Sprintf("(%s)", events.FormatDuration(elapsed))))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(float64(m.percent) / 100))
	b.WriteString("\n\n")

	if m.current != "" {
		b.WriteString(styles.DimStyle.Render("Current: "))
		b.WriteString(styles.FilePathStyle.Render(uiutils.TruncatePath(m.current, 60)))
		b.WriteString("\n\n")
	}

	live := m.session.Live()
	if live != nil && live.TotalCount > 0 {
		b.WriteString(styles.SubtitleStyle.Render("Found so far:"))
		b.WriteString("\n")
		for i := range live.Categories {
			cat := &live.Categories[i]
			if len(cat.Entries) == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("  %s %s: %s files, %s\n",
				styles.GetCategoryIcon(cat.Kind),
				styles.CategoryStyle.Render(cat.Name),
				styles.BoldStyle.Render(utils.FormatCount(len(cat.Entries))),
				styles.FileSizeStyle.Render(utils.FormatBytes(cat.TotalSize())),
			))
		}
		b.WriteString("\n")
		b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("Total: %s files, %s",
			utils.FormatCount(live.TotalCount),
			utils.FormatBytes(live.TotalSize))))
	}

	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render("Press ctrl+c to cancel"))

	return b.String()
}
