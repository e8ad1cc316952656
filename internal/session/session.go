// Package session supervises the scan and delete tasks behind one screen.
// It runs at most one task at a time, commits finished results into a
// selection model before the terminal event is forwarded, and stops event
// delivery on Detach.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/fenilsonani/junk-sweeper/internal/cleaner"
	"github.com/fenilsonani/junk-sweeper/internal/filter"
	"github.com/fenilsonani/junk-sweeper/internal/progress"
	"github.com/fenilsonani/junk-sweeper/internal/scanner"
	"github.com/fenilsonani/junk-sweeper/internal/selection"
)

var (
	// ErrBusy is returned when a scan or delete is already in flight
	ErrBusy = errors.New("session: a scan or delete is already running")
	// ErrDetached is returned once the session has been detached
	ErrDetached = errors.New("session: detached")
)

// Options configures a Session
type Options struct {
	Engine  *scanner.Engine
	Source  scanner.Source
	Cleaner *cleaner.Cleaner
	Logger  *zap.Logger

	// SelectAllAfterScan selects every entry and expands non-empty
	// categories when a scan completes, instead of keeping the previous
	// selection.
	SelectAllAfterScan bool

	// Now is the clock used by filters. Defaults to time.Now.
	Now func() time.Time
}

// Session owns the selection, the active filter and the running task of
// one screen
type Session struct {
	engine    *scanner.Engine
	source    scanner.Source
	cleaner   *cleaner.Cleaner
	logger    *zap.Logger
	selectAll bool
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup
	sel    *selection.Model

	mu         sync.Mutex
	gate       *progress.Gate
	detached   bool
	scan       *scanner.Task
	del        *cleaner.Task
	filter     filter.Filter
	lastDelete *cleaner.DeleteResult
	lastScan   error
}

// New creates a session. Events are discarded until Attach is called.
func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		engine:    opts.Engine,
		source:    opts.Source,
		cleaner:   opts.Cleaner,
		logger:    opts.Logger,
		selectAll: opts.SelectAllAfterScan,
		now:       opts.Now,
		ctx:       ctx,
		cancel:    cancel,
		sel:       selection.New(nil),
		gate:      progress.NewGate(progress.Discard),
	}
}

// Attach routes events to sink, replacing any previous sink. The sink must
// not call Detach from inside Publish.
func (s *Session) Attach(sink progress.Sink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached {
		return ErrDetached
	}
	s.gate.Close()
	s.gate = progress.NewGate(sink)
	return nil
}

// Detach cancels every task, stops event delivery and waits for the task
// goroutines to exit. The session cannot be used afterwards.
func (s *Session) Detach() {
	s.mu.Lock()
	if s.detached {
		s.mu.Unlock()
		return
	}
	s.detached = true
	s.cancel()
	s.gate.Close()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Debug("session detached")
}

// Busy reports whether a scan or delete is running
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busyLocked()
}

func (s *Session) busyLocked() bool {
	return s.scan != nil || s.del != nil
}

// Cancel stops the running task, if any. A canceled task publishes no
// terminal event.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scan != nil {
		s.scan.Cancel()
	}
	if s.del != nil {
		s.del.Cancel()
	}
}

// Wait blocks until every task started so far has been committed
func (s *Session) Wait() {
	s.wg.Wait()
}

// publish forwards e through the current gate without holding s.mu, so the
// sink may call back into the session
func (s *Session) publish(e progress.Event) {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	gate.Publish(e)
}

// relay forwards non-terminal events and hands the terminal one to the
// supervisor through held
func (s *Session) relay(held chan<- progress.Event) progress.Sink {
	return progress.SinkFunc(func(e progress.Event) {
		if e.Terminal() {
			held <- e
			return
		}
		s.publish(e)
	})
}

// =============================================================================
// Scanning
// =============================================================================

// StartScan starts a scan of the session's source and returns its task ID
func (s *Session) StartScan() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached {
		return "", ErrDetached
	}
	if s.busyLocked() {
		return "", ErrBusy
	}

	held := make(chan progress.Event, 1)
	task := s.engine.Scan(s.ctx, s.source, s.relay(held))
	s.scan = task

	s.wg.Go(func() {
		s.superviseScan(task, held)
	})
	return task.ID(), nil
}

func (s *Session) superviseScan(task *scanner.Task, held <-chan progress.Event) {
	result, err := task.Wait()

	if errors.Is(err, context.Canceled) {
		s.mu.Lock()
		s.scan = nil
		s.mu.Unlock()
		s.logger.Debug("scan canceled", zap.String("task", task.ID()))
		return
	}

	terminal := <-held

	s.mu.Lock()
	s.scan = nil
	s.lastScan = err
	if err == nil {
		if s.selectAll {
			s.sel.Reset(result)
			s.sel.SelectAll()
			s.sel.ExpandNonEmpty()
		} else {
			s.sel.Rebase(result)
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("scan failed", zap.String("task", task.ID()), zap.Error(err))
	}
	s.publish(terminal)
}

// Live returns the running scan's partial result, or the committed result
// when no scan is running
func (s *Session) Live() *scanner.ScanResult {
	s.mu.Lock()
	task := s.scan
	s.mu.Unlock()

	if task != nil {
		return task.Snapshot()
	}
	return s.sel.Snapshot()
}

// LastScanError returns the fault of the last finished scan, or nil
func (s *Session) LastScanError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastScan
}

// =============================================================================
// Selection and filtering
// =============================================================================

// Selection returns the session's selection model
func (s *Session) Selection() *selection.Model {
	return s.sel
}

// SetFilter changes the active filter. Selection is kept for entries
// hidden by the filter.
func (s *Session) SetFilter(f filter.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

// Filter returns the active filter
func (s *Session) Filter() filter.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// View returns the committed result narrowed by the active filter
func (s *Session) View() *scanner.ScanResult {
	snap := s.sel.Snapshot()
	f := s.Filter()
	if f.IsZero() || snap == nil {
		return snap
	}
	return filter.Apply(snap, f, s.now())
}

// VisibleSelected returns the selected entries that pass the active filter
func (s *Session) VisibleSelected() []scanner.Entry {
	view := s.View()
	if view == nil {
		return nil
	}

	var out []scanner.Entry
	for _, e := range view.Entries() {
		if e.Selected {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// Deleting
// =============================================================================

// StartDelete deletes the visible selected entries and returns the task ID.
// An empty selection is reported by the delete task as a batch fault.
func (s *Session) StartDelete() (string, error) {
	entries := s.VisibleSelected()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.detached {
		return "", ErrDetached
	}
	if s.busyLocked() {
		return "", ErrBusy
	}

	held := make(chan progress.Event, 1)
	task := s.cleaner.Delete(s.ctx, entries, s.relay(held))
	s.del = task

	s.wg.Go(func() {
		s.superviseDelete(task, held)
	})
	return task.ID(), nil
}

func (s *Session) superviseDelete(task *cleaner.Task, held <-chan progress.Event) {
	result, err := task.Wait()
	canceled := errors.Is(err, context.Canceled)

	// Files removed before a cancel are gone either way
	if result != nil {
		evicted := s.sel.Evict(result.Evicted)
		s.logger.Debug("delete committed",
			zap.String("task", task.ID()),
			zap.Int("evicted", evicted),
			zap.Bool("canceled", canceled))
	}

	s.mu.Lock()
	s.del = nil
	if result != nil {
		s.lastDelete = result
	}
	s.mu.Unlock()

	if canceled {
		return
	}
	s.publish(<-held)
}

// LastDelete returns the result of the last delete that produced one
func (s *Session) LastDelete() *cleaner.DeleteResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDelete
}
