package scanner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fenilsonani/junk-sweeper/internal/classifier"
	"github.com/fenilsonani/junk-sweeper/internal/progress"
)

// Emitter receives what a Source finds. Percent values are in [0,100].
type Emitter interface {
	Found(e Entry)
	Progress(percent int, currentPath string)
}

// Source enumerates candidate entries. A terminal failure is returned as a
// *ScanFault; unreadable files below a root are skipped by the source.
type Source interface {
	Enumerate(ctx context.Context, em Emitter) error
}

// Grouping assigns the category an entry is merged into
type Grouping func(e Entry) classifier.CategoryID

// ByClassifier groups entries by file classification
func ByClassifier(c *classifier.Classifier) Grouping {
	return func(e Entry) classifier.CategoryID {
		return c.Classify(classifier.Meta{
			Path:    e.Path,
			Name:    e.Name,
			Size:    e.Size,
			ModTime: e.ModTime,
		})
	}
}

// ByCaptureDate groups entries by the calendar day of ModTime in loc
func ByCaptureDate(loc *time.Location) Grouping {
	if loc == nil {
		loc = time.Local
	}
	return func(e Entry) classifier.CategoryID {
		if e.ModTime.IsZero() {
			return classifier.UnknownDate
		}
		return classifier.DateBucket(e.ModTime.In(loc))
	}
}

// Engine runs scans. It holds no per-scan state and may start any number of
// tasks; serialising them is the caller's concern.
type Engine struct {
	group  Grouping
	logger *zap.Logger
}

// New creates a scan engine grouping by classification
func New(c *classifier.Classifier, logger *zap.Logger) *Engine {
	if c == nil {
		c = classifier.New(classifier.DefaultRules())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{group: ByClassifier(c), logger: logger}
}

// WithGrouping returns a copy of the engine using g
func (en *Engine) WithGrouping(g Grouping) *Engine {
	cp := *en
	cp.group = g
	return &cp
}

// Scan starts enumerating src in the background and returns its task.
// Events go to sink in order: started, items and progress, then exactly one
// of completed or error. A canceled scan publishes nothing further and its
// partial result is discarded.
func (en *Engine) Scan(ctx context.Context, src Source, sink progress.Sink) *Task {
	ctx, cancel := context.WithCancel(ctx)

	id := uuid.NewString()
	t := &Task{
		id:     id,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		live:   NewResult(id),
		seen:   make(map[string]struct{}),
		group:  en.group,
		logger: en.logger.With(zap.String("task", id)),
	}
	t.live.Status = StatusRunning
	t.live.StartedAt = time.Now()
	t.sink = progress.Sequence(ctx, id, progress.OpScan, sink)

	go t.run(ctx, src)
	return t
}

// Task is one running or finished scan
type Task struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
	group  Grouping
	logger *zap.Logger
	sink   progress.Sink
	ctx    context.Context

	mu     sync.RWMutex
	live   *ScanResult
	seen   map[string]struct{}
	result *ScanResult
	err    error
}

// ID returns the task identifier carried by its events
func (t *Task) ID() string {
	return t.id
}

// Cancel stops the scan. It is safe to call more than once.
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed when the task has finished
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the scan finishes. A completed scan returns its result
// and nil; a failed scan returns the partial result and the fault; a
// canceled scan returns nil and context.Canceled.
func (t *Task) Wait() (*ScanResult, error) {
	<-t.done
	return t.result.Clone(), t.err
}

// Snapshot returns a copy of the result as it stands now
func (t *Task) Snapshot() *ScanResult {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.live.Clone()
}

func (t *Task) run(ctx context.Context, src Source) {
	t.sink.Publish(progress.Event{Kind: progress.KindStarted})
	t.logger.Debug("scan started")

	err := src.Enumerate(ctx, taskEmitter{t})

	t.mu.Lock()
	t.live.FinishedAt = time.Now()

	switch {
	case ctx.Err() != nil:
		t.live.Status = StatusCanceled
		t.err = context.Canceled
		t.mu.Unlock()
		t.cancel()
		close(t.done)
		t.logger.Debug("scan canceled")
		return

	case err != nil:
		var fault *ScanFault
		if !errors.As(err, &fault) {
			fault = &ScanFault{Root: "scan", Err: err}
		}
		t.live.Status = StatusErrored
		t.live.Err = fault
		t.result = t.live.Clone()
		t.err = fault
		t.mu.Unlock()
		close(t.done)

		t.logger.Warn("scan failed", zap.Error(fault))
		t.sink.Publish(progress.Event{Kind: progress.KindError, Err: fault})
		t.cancel()
		return

	default:
		t.live.Status = StatusCompleted
		t.result = t.live.Clone()
		count, size := t.live.TotalCount, t.live.TotalSize
		t.mu.Unlock()
		close(t.done)

		// The task context stays live until the closing events are out
		t.logger.Debug("scan completed", zap.Int("files", count), zap.Int64("bytes", size))
		t.sink.Publish(progress.Event{Kind: progress.KindProgress, Percent: 100})
		t.sink.Publish(progress.Event{Kind: progress.KindCompleted, Count: count, Bytes: size})
		t.cancel()
	}
}

type taskEmitter struct{ t *Task }

func (em taskEmitter) Found(e Entry) { em.t.found(e) }
func (em taskEmitter) Progress(percent int, p string) { em.t.progress(percent, p) }

// found classifies e and merges it into the live result. Paths already seen
// are ignored.
func (t *Task) found(e Entry) {
	if t.ctx.Err() != nil {
		return
	}
	if e.Size < 0 {
		e.Size = 0
	}
	e.Selected = false
	e.Category = t.group(e)

	t.mu.Lock()
	if _, dup := t.seen[e.Path]; dup {
		t.mu.Unlock()
		return
	}
	t.seen[e.Path] = struct{}{}
	t.live.Add(e)
	t.mu.Unlock()

	t.sink.Publish(progress.Event{Kind: progress.KindItem, Path: e.Path})
}

func (t *Task) progress(percent int, currentPath string) {
	if t.ctx.Err() != nil {
		return
	}
	t.sink.Publish(progress.Event{Kind: progress.KindProgress, Percent: percent, Path: currentPath})
}
