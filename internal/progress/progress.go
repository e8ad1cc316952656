package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fenilsonani/junk-sweeper/pkg/utils"
)

// Op is the operation an event belongs to
type Op string

const (
	OpScan   Op = "scan"
	OpDelete Op = "delete"
)

// Kind is the event type
type Kind int

const (
	KindStarted Kind = iota
	KindItem
	KindProgress
	KindCompleted
	KindError
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindStarted:
		return "started"
	case KindItem:
		return "item"
	case KindProgress:
		return "progress"
	case KindCompleted:
		return "completed"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a single progress notification. Fields are populated by kind:
// Item carries Path; Progress carries Percent and Path; Completed carries
// Count, Bytes and Failed; Error carries Err.
type Event struct {
	TaskID  string
	Op      Op
	Kind    Kind
	Path    string
	Percent int
	Count   int
	Bytes   int64
	Failed  int
	Err     error
	Time    time.Time
}

// Terminal reports whether e ends its task's event stream
func (e Event) Terminal() bool {
	return e.Kind == KindCompleted || e.Kind == KindError
}

// Sink receives progress events. Publish is called from task goroutines and
// must not block for long.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to a Sink
type SinkFunc func(Event)

// Publish calls f(e)
func (f SinkFunc) Publish(e Event) {
	f(e)
}

// Discard drops every event
var Discard Sink = SinkFunc(func(Event) {})

// Sequence wraps sink for a single task. It stamps events with the task ID
// and time, clamps Percent to [0,100] and never lets it decrease, and drops
// everything after the first terminal event. Once ctx is done only a
// terminal event gets through.
func Sequence(ctx context.Context, taskID string, op Op, sink Sink) Sink {
	if sink == nil {
		sink = Discard
	}
	return &sequencer{ctx: ctx, taskID: taskID, op: op, sink: sink}
}

type sequencer struct {
	mu      sync.Mutex
	ctx     context.Context
	taskID  string
	op      Op
	sink    Sink
	percent int
	done    bool
}

func (s *sequencer) Publish(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return
	}
	if !e.Terminal() && s.ctx.Err() != nil {
		return
	}

	e.TaskID = s.taskID
	e.Op = s.op
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	if e.Percent < 0 {
		e.Percent = 0
	}
	if e.Percent > 100 {
		e.Percent = 100
	}
	if e.Percent < s.percent {
		e.Percent = s.percent
	}
	s.percent = e.Percent

	if e.Terminal() {
		s.done = true
	}
	s.sink.Publish(e)
}

// FormatScanProgress returns a human-readable scan progress string
func FormatScanProgress(e Event, found int, size int64, elapsed time.Duration) string {
	switch e.Kind {
	case KindStarted:
		return "Starting scan..."
	case KindItem, KindProgress:
		return fmt.Sprintf("Scanning... %d%% Found %d files (%s) [%s]",
			e.Percent,
			found,
			utils.FormatBytes(size),
			FormatDuration(elapsed))
	case KindCompleted:
		return fmt.Sprintf("Scan complete: %d files (%s) in %s",
			e.Count,
			utils.FormatBytes(e.Bytes),
			FormatDuration(elapsed))
	case KindError:
		return fmt.Sprintf("Scan error: %v", e.Err)
	default:
		return "Scanning..."
	}
}

// FormatCleanProgress returns a human-readable delete progress string
func FormatCleanProgress(e Event, elapsed time.Duration) string {
	switch e.Kind {
	case KindStarted:
		return "Preparing cleanup..."
	case KindItem, KindProgress:
		eta := ""
		if e.Percent > 0 && e.Percent < 100 {
			remaining := elapsed * time.Duration(100-e.Percent) / time.Duration(e.Percent)
			eta = fmt.Sprintf(" ETA: %s", FormatDuration(remaining))
		}
		return fmt.Sprintf("Cleaning... %d%%%s", e.Percent, eta)
	case KindCompleted:
		msg := fmt.Sprintf("Cleanup complete: %d files deleted (%s) in %s",
			e.Count,
			utils.FormatBytes(e.Bytes),
			FormatDuration(elapsed))
		if e.Failed > 0 {
			msg += fmt.Sprintf(", %d failed", e.Failed)
		}
		return msg
	case KindError:
		return fmt.Sprintf("Cleanup error: %v", e.Err)
	default:
		return "Preparing cleanup..."
	}
}

// FormatDuration formats duration in human-readable format
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
