package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/junk-sweeper/internal/platform"
	"github.com/fenilsonani/junk-sweeper/internal/progress"
	"github.com/fenilsonani/junk-sweeper/internal/session"
	"github.com/fenilsonani/junk-sweeper/internal/ui/styles"
)

// ViewState represents the current view in the app
type ViewState int

const (
	ViewScanning ViewState = iota
	ViewCategorySelection
	ViewConfirmation
	ViewCleaning
	ViewSummary
	ViewHelp
)

// Options configures the app model
type Options struct {
	Title   string                // heading of the list view, e.g. "Junk Files"
	DryRun  bool                  // deletes only report what they would free
	Storage *platform.StorageInfo // usage of the scanned volume, may be nil
}

// AppModel is the root model for the interactive TUI. All scanning and
// deleting goes through the session; the model only reacts to its events.
type AppModel struct {
	// Current state
	state         ViewState
	previousState ViewState // For back navigation

	// Shared data
	session *session.Session
	events  <-chan progress.Event
	opts    Options

	// View models
	scanView     *ScanViewModel
	categoryView *CategoryViewModel
	confirmView  *ConfirmViewModel
	cleanupView  *CleanupViewModel
	summaryView  *SummaryViewModel

	// UI state
	width  int
	height int
	err    error
}

// NewAppModel creates a new app model. events must be a subscription to
// the sink the session is attached to.
func NewAppModel(sess *session.Session, events <-chan progress.Event, opts Options) *AppModel {
	if opts.Title == "" {
		opts.Title = "Junk Files"
	}
	return &AppModel{
		state:   ViewScanning,
		session: sess,
		events:  events,
		opts:    opts,
	}
}

// State returns the current view
func (m *AppModel) State() ViewState {
	return m.state
}

// Init starts the first scan and begins listening for session events
func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(m.startScan(), WaitForEvent(m.events))
}

// WaitForEvent returns a command that delivers the next session event
func WaitForEvent(ch <-chan progress.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return EventsClosedMsg{}
		}
		return EventMsg{Event: e}
	}
}

func (m *AppModel) startScan() tea.Cmd {
	if _, err := m.session.StartScan(); err != nil {
		if m.categoryView != nil {
			m.categoryView.SetNotice(err.Error())
			return nil
		}
		m.err = err
		return nil
	}
	m.scanView = NewScanViewModel(m.session, m.opts.Title, m.width, m.height)
	m.state = ViewScanning
	return m.scanView.Init()
}

// Update handles messages
func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == ViewHelp {
			m.state = m.previousState
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			// A delete runs to completion so its result is never lost
			if m.state != ViewCleaning {
				m.session.Cancel()
				return m, tea.Quit
			}
			return m, nil
		case "?":
			m.previousState = m.state
			m.state = ViewHelp
			return m, nil
		case "esc":
			if m.state == ViewConfirmation {
				m.state = ViewCategorySelection
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case EventMsg:
		return m, tea.Batch(WaitForEvent(m.events), m.handleEvent(msg.Event))

	case EventsClosedMsg:
		return m, tea.Quit

	case RescanMsg:
		return m, m.startScan()

	case ConfirmRequestMsg:
		entries := m.session.VisibleSelected()
		if len(entries) == 0 {
			m.categoryView.SetNotice("Nothing selected")
			return m, nil
		}
		m.confirmView = NewConfirmViewModel(entries, m.opts.DryRun, m.width, m.height)
		m.state = ViewConfirmation
		return m, nil

	case ConfirmedMsg:
		if _, err := m.session.StartDelete(); err != nil {
			m.categoryView.SetNotice(err.Error())
			m.state = ViewCategorySelection
			return m, nil
		}
		m.cleanupView = NewCleanupViewModel(m.confirmView.entries, m.opts.DryRun, m.width, m.height)
		m.state = ViewCleaning
		return m, m.cleanupView.Init()

	case ReviewSelectionMsg:
		m.state = ViewCategorySelection
		return m, nil

	case BackToListMsg:
		m.categoryView.Refresh()
		m.state = ViewCategorySelection
		return m, nil
	}

	// Delegate to current view
	return m.delegateUpdate(msg)
}

// handleEvent routes one session event. Terminal events arrive after the
// session has committed them, so the views can read the new state directly.
func (m *AppModel) handleEvent(e progress.Event) tea.Cmd {
	switch e.Op {
	case progress.OpScan:
		if m.scanView != nil {
			m.scanView.HandleEvent(e)
		}
		if !e.Terminal() {
			return nil
		}
		if m.categoryView == nil {
			m.categoryView = NewCategoryViewModel(m.session, m.opts, m.width, m.height)
		}
		m.categoryView.Refresh()
		if e.Kind == progress.KindError {
			m.categoryView.SetNotice(fmt.Sprintf("Scan failed: %v", e.Err))
		}
		m.state = ViewCategorySelection

	case progress.OpDelete:
		if m.cleanupView != nil {
			m.cleanupView.HandleEvent(e)
		}
		if !e.Terminal() {
			return nil
		}
		result := m.session.LastDelete()
		if e.Kind == progress.KindError {
			result = nil
		}
		m.summaryView = NewSummaryViewModel(result, e, m.width, m.height)
		m.state = ViewSummary
	}
	return nil
}

func (m *AppModel) resize() {
	if m.scanView != nil {
		m.scanView.SetSize(m.width, m.height)
	}
	if m.categoryView != nil {
		m.categoryView.SetSize(m.width, m.height)
	}
	if m.confirmView != nil {
		m.confirmView.SetSize(m.width, m.height)
	}
	if m.cleanupView != nil {
		m.cleanupView.SetSize(m.width, m.height)
	}
	if m.summaryView != nil {
		m.summaryView.SetSize(m.width, m.height)
	}
}

// delegateUpdate delegates the update to the current view
func (m *AppModel) delegateUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.state {
	case ViewScanning:
		if m.scanView != nil {
			m.scanView, cmd = m.scanView.Update(msg)
		}
	case ViewCategorySelection:
		if m.categoryView != nil {
			m.categoryView, cmd = m.categoryView.Update(msg)
		}
	case ViewConfirmation:
		if m.confirmView != nil {
			m.confirmView, cmd = m.confirmView.Update(msg)
		}
	case ViewCleaning:
		if m.cleanupView != nil {
			m.cleanupView, cmd = m.cleanupView.Update(msg)
		}
	case ViewSummary:
		if m.summaryView != nil {
			m.summaryView, cmd = m.summaryView.Update(msg)
		}
	}

	return m, cmd
}

// View renders the current view
func (m *AppModel) View() string {
	if m.err != nil {
		return "Error: " + m.err.Error() + "\n\nPress q to quit."
	}

	switch m.state {
	case ViewScanning:
		if m.scanView != nil {
			return m.scanView.View()
		}
	case ViewCategorySelection:
		if m.categoryView != nil {
			return m.categoryView.View()
		}
	case ViewConfirmation:
		if m.confirmView != nil {
			return m.confirmView.View()
		}
	case ViewCleaning:
		if m.cleanupView != nil {
			return m.cleanupView.View()
		}
	case ViewSummary:
		if m.summaryView != nil {
			return m.summaryView.View()
		}
	case ViewHelp:
		return m.renderHelp()
	}

	return "Loading..."
}

// renderHelp renders the help view with context-aware content
func (m *AppModel) renderHelp() string {
	var b strings.Builder

	var viewName, helpContent string
	switch m.previousState {
	case ViewScanning:
		viewName = "Scan View"
		helpContent = helpForScan
	case ViewCategorySelection:
		viewName = m.opts.Title
		helpContent = helpForCategory
	case ViewConfirmation:
		viewName = "Confirmation"
		helpContent = helpForConfirm
	case ViewCleaning:
		viewName = "Cleanup"
		helpContent = helpForCleanup
	case ViewSummary:
		viewName = "Summary"
		helpContent = helpForSummary
	}

	b.WriteString(styles.TitleStyle.Render(fmt.Sprintf("Help - %s", viewName)))
	b.WriteString("\n\n")
	b.WriteString(helpContent)
	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render("Press any key to close"))

	return b.String()
}

const helpForScan = `Scanning storage for files that can be cleaned.

Actions:
  ctrl+c  - Cancel scan and exit
  q       - Cancel scan and exit

The scan will automatically proceed to the file list when complete.`

const helpForCategory = `Select the files you want to delete.

Navigation:
  ↑/k     - Move up
  ↓/j     - Move down
  →/l     - Expand category
  ←/h     - Collapse category
  g/G     - Go to top / bottom

Selection:
  space   - Toggle category or file
  a       - Select all, or clear when everything is selected

Filters:
  t       - Cycle file type
  s       - Cycle minimum size
  m       - Cycle modified within

Actions:
  enter   - Review and delete the visible selection
  i       - Show details
  r       - Rescan
  q       - Quit`

const helpForConfirm = `Review and confirm your deletion choices.

Navigation:
  ←/→/h/l - Switch between buttons

Actions:
  enter   - Confirm selection
  y       - Yes, proceed
  n       - No, go back
  e       - Edit selection (go back)
  esc     - Go back

Warning: Deleted files cannot be recovered!`

const helpForCleanup = `Deleting selected files. This may take a moment.

Progress will be shown in real-time.
The operation will proceed to the summary when complete.`

const helpForSummary = `Cleanup operation complete. Review the results.

Actions:
  enter   - Back to the file list
  q       - Exit application`

// EventMsg carries one session event into the update loop
type EventMsg struct {
	Event progress.Event
}

// EventsClosedMsg reports that the event subscription ended
type EventsClosedMsg struct{}

// ConfirmRequestMsg asks to review the visible selection before deleting
type ConfirmRequestMsg struct{}

// ConfirmedMsg starts the delete of the reviewed entries
type ConfirmedMsg struct{}

// ReviewSelectionMsg returns from the confirmation to the list
type ReviewSelectionMsg struct{}

// RescanMsg starts a new scan, keeping the current selection
type RescanMsg struct{}

// BackToListMsg returns from the summary to the list
type BackToListMsg struct{}
