package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fenilsonani/junk-sweeper/internal/progress"
	"github.com/fenilsonani/junk-sweeper/internal/session"
	"github.com/fenilsonani/junk-sweeper/internal/ui/models"
)

// RunInteractive runs the TUI over sess until the user quits. The session
// is detached on return.
func RunInteractive(sess *session.Session, opts models.Options) error {
	reporter := progress.NewReporter()
	events := reporter.Subscribe()
	if err := sess.Attach(reporter); err != nil {
		return fmt.Errorf("failed to attach to session: %w", err)
	}

	// Closing the reporter first releases a supervisor blocked on a full
	// subscription, so Detach can wait for it
	defer func() {
		reporter.Close()
		sess.Detach()
	}()

	m := models.NewAppModel(sess, events, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running interactive mode: %w", err)
	}

	return nil
}
