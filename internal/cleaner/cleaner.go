package cleaner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/fenilsonani/junk-sweeper/internal/progress"
	"github.com/fenilsonani/junk-sweeper/internal/scanner"
	"github.com/fenilsonani/junk-sweeper/internal/security"
)

// Index is the media index a deleted entry must be removed from. A missing
// record is reported as mediaindex.ErrRecordNotFound.
type Index interface {
	Remove(ctx context.Context, id string) error
}

// DefaultRetryDelays are the waits between attempts on a busy file
var DefaultRetryDelays = []time.Duration{
	100 * time.Millisecond,
	500 * time.Millisecond,
	2 * time.Second,
}

// DeleteResult represents the outcome of a delete operation.
// SuccessCount + FailedCount always equals the number of requested entries.
type DeleteResult struct {
	ID             string
	SuccessCount   int
	FailedCount    int
	ReclaimedBytes int64 // sizes of confirmed deletions only
	RequestedBytes int64
	Deleted        []string
	Evicted        []string // paths no longer on disk, to drop from snapshots
	Failures       []*DeletionError
	DryRun         bool
}

// Summary returns a one-line outcome, e.g. "Failed to delete 2 items"
func (r *DeleteResult) Summary() string {
	if r.FailedCount > 0 {
		return fmt.Sprintf("Failed to delete %d items", r.FailedCount)
	}
	verb := "Deleted"
	if r.DryRun {
		verb = "Would delete"
	}
	return fmt.Sprintf("%s %d items", verb, r.SuccessCount)
}

// Cleaner handles file deletion with safeguards
type Cleaner struct {
	fs          afero.Fs
	index       Index
	validator   *security.PathValidator
	logger      *zap.Logger
	manifest    *DeletionManifest
	dryRun      bool
	retryDelays []time.Duration
}

// New creates a new Cleaner on fs. A nil validator allows every absolute
// path.
func New(fs afero.Fs, validator *security.PathValidator, logger *zap.Logger) *Cleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{
		fs:          fs,
		validator:   validator,
		logger:      logger,
		manifest:    NewDeletionManifest(),
		retryDelays: DefaultRetryDelays,
	}
}

// SetIndex sets the media index entries with an IndexID are removed from
func (c *Cleaner) SetIndex(idx Index) {
	c.index = idx
}

// SetDryRun makes deletes count without removing anything
func (c *Cleaner) SetDryRun(dryRun bool) {
	c.dryRun = dryRun
}

// SetRetryDelays sets the waits between attempts on a busy file. The number
// of attempts is len(delays).
func (c *Cleaner) SetRetryDelays(delays []time.Duration) {
	c.retryDelays = delays
}

// GetManifest returns the deletion manifest
func (c *Cleaner) GetManifest() *DeletionManifest {
	return c.manifest
}

// SaveManifest saves the deletion manifest to a file
func (c *Cleaner) SaveManifest(path string) error {
	return c.manifest.Save(path)
}

// Task is one running or finished delete
type Task struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
	result *DeleteResult
	err    error
}

// ID returns the task identifier carried by its events
func (t *Task) ID() string {
	return t.id
}

// Cancel stops the delete after the current entry
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed when the task has finished
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the delete finishes. A batch fault returns no result.
// A canceled delete returns the partial result and context.Canceled.
func (t *Task) Wait() (*DeleteResult, error) {
	<-t.done
	return t.result, t.err
}

// Delete removes entries in the background and returns its task. Per-entry
// failures are collected in the result and never stop the batch. Events go
// to sink in order: started, items and progress, then exactly one of
// completed or error. The entries slice is only read.
func (c *Cleaner) Delete(ctx context.Context, entries []scanner.Entry, sink progress.Sink) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go c.run(ctx, t, entries, progress.Sequence(ctx, t.id, progress.OpDelete, sink))
	return t
}

func (c *Cleaner) run(ctx context.Context, t *Task, entries []scanner.Entry, sink progress.Sink) {
	defer t.cancel()
	logger := c.logger.With(zap.String("task", t.id))

	sink.Publish(progress.Event{Kind: progress.KindStarted})

	if err := validateBatch(entries); err != nil {
		t.err = err
		close(t.done)
		logger.Warn("delete rejected", zap.Error(err))
		sink.Publish(progress.Event{Kind: progress.KindError, Err: err})
		return
	}

	result := &DeleteResult{
		ID:       t.id,
		DryRun:   c.dryRun,
		Deleted:  []string{},
		Evicted:  []string{},
		Failures: []*DeletionError{},
	}
	for _, e := range entries {
		result.RequestedBytes += e.Size
	}

	total := len(entries)
	for i, e := range entries {
		if ctx.Err() != nil {
			break
		}

		sink.Publish(progress.Event{Kind: progress.KindItem, Path: e.Path})

		delErr, gone := c.deleteEntry(ctx, e)
		if gone {
			result.Evicted = append(result.Evicted, e.Path)
		}
		if delErr != nil {
			result.FailedCount++
			result.Failures = append(result.Failures, delErr)
			logger.Debug("delete failed",
				zap.String("path", e.Path),
				zap.Stringer("reason", delErr.Reason),
				zap.Error(delErr.Original))
		} else {
			result.SuccessCount++
			result.ReclaimedBytes += e.Size
			result.Deleted = append(result.Deleted, e.Path)
		}

		if ctx.Err() == nil {
			sink.Publish(progress.Event{Kind: progress.KindProgress, Percent: (i + 1) * 100 / total, Path: e.Path})
		}
	}

	t.result = result
	if ctx.Err() != nil {
		t.err = context.Canceled
		close(t.done)
		logger.Info("delete canceled",
			zap.Int("deleted", result.SuccessCount),
			zap.Int("failed", result.FailedCount))
		return
	}
	close(t.done)

	logger.Info("delete completed",
		zap.Int("deleted", result.SuccessCount),
		zap.Int("failed", result.FailedCount),
		zap.Int64("reclaimed", result.ReclaimedBytes),
		zap.Bool("dry_run", result.DryRun))

	sink.Publish(progress.Event{
		Kind:   progress.KindCompleted,
		Count:  result.SuccessCount,
		Bytes:  result.ReclaimedBytes,
		Failed: result.FailedCount,
	})
}

// validateBatch rejects requests that cannot be processed entry by entry
func validateBatch(entries []scanner.Entry) error {
	if len(entries) == 0 {
		return &BatchFault{Err: ErrEmptyBatch}
	}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Path == "" || !filepath.IsAbs(e.Path) {
			return &BatchFault{Path: e.Path, Err: errors.New("path must be absolute")}
		}
		if _, dup := seen[e.Path]; dup {
			return &BatchFault{Path: e.Path, Err: errors.New("duplicate path")}
		}
		seen[e.Path] = struct{}{}
	}
	return nil
}

// deleteEntry removes one entry. gone reports whether the path is no longer
// on disk afterwards, whatever the outcome.
func (c *Cleaner) deleteEntry(ctx context.Context, e scanner.Entry) (delErr *DeletionError, gone bool) {
	if c.validator != nil {
		validate := c.validator.ValidatePathForDeletion
		if _, onDisk := c.fs.(*afero.OsFs); onDisk {
			validate = c.validator.ValidateResolvedPath
		}
		if err := validate(e.Path); err != nil {
			return &DeletionError{Path: e.Path, Reason: ErrorInvalidPath, Original: err}, false
		}
	}

	// Use Lstat to not follow symlinks
	info, err := lstat(c.fs, e.Path)
	if err != nil {
		delErr := CategorizeError(e.Path, err)
		return delErr, delErr.Reason == ErrorFileNotFound
	}

	if err := SpecialFileError(info.Mode()); err != nil {
		reason := ErrorInvalidPath
		if info.IsDir() {
			reason = ErrorIsDirectory
		}
		return &DeletionError{Path: e.Path, Reason: reason, Original: err}, false
	}

	if c.dryRun {
		return nil, false
	}

	if delErr := c.removeWithRetry(ctx, e.Path); delErr != nil {
		return delErr, delErr.Reason == ErrorFileNotFound
	}
	c.manifest.Add(e.Path, e.Size, string(e.Category))

	// The file is gone; finish the item even if the batch was canceled
	if e.IndexID != "" && c.index != nil {
		if err := c.index.Remove(context.WithoutCancel(ctx), e.IndexID); err != nil {
			return CategorizeError(e.Path, err), true
		}
	}

	return nil, true
}

// removeWithRetry attempts to delete a file with retries for transient errors
func (c *Cleaner) removeWithRetry(ctx context.Context, path string) *DeletionError {
	attempts := len(c.retryDelays)
	if attempts == 0 {
		attempts = 1
	}

	var lastErr *DeletionError
	for attempt := 0; attempt < attempts; attempt++ {
		err := c.fs.Remove(path)
		if err == nil {
			return nil
		}

		lastErr = CategorizeError(path, err)
		if !lastErr.Retryable {
			return lastErr
		}

		// On last attempt, don't sleep
		if attempt < attempts-1 {
			timer := time.NewTimer(c.retryDelays[attempt])
			select {
			case <-ctx.Done():
				timer.Stop()
				return lastErr
			case <-timer.C:
			}
		}
	}

	return lastErr
}
