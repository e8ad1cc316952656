package scanner

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/junk-sweeper/internal/classifier"
	"github.com/fenilsonani/junk-sweeper/internal/mediaindex"
	"github.com/fenilsonani/junk-sweeper/internal/progress"
	"github.com/fenilsonani/junk-sweeper/internal/testutil"
	"github.com/fenilsonani/junk-sweeper/pkg/utils"
)

type eventLog struct {
	mu     sync.Mutex
	events []progress.Event
}

func (l *eventLog) Publish(e progress.Event) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) all() []progress.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]progress.Event, len(l.events))
	copy(out, l.events)
	return out
}

// waitTerminal waits until the terminal event has been delivered
func (l *eventLog) waitTerminal(t *testing.T) progress.Event {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		events := l.all()
		if n := len(events); n > 0 && events[n-1].Terminal() {
			return events[n-1]
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no terminal event")
	return progress.Event{}
}

func assertEventOrder(t *testing.T, events []progress.Event) {
	t.Helper()
	require.NotEmpty(t, events)
	assert.Equal(t, progress.KindStarted, events[0].Kind)

	terminals := 0
	last := 0
	for _, e := range events {
		if e.Terminal() {
			terminals++
		}
		assert.GreaterOrEqual(t, e.Percent, last, "percent must be monotonic")
		last = e.Percent
	}
	assert.Equal(t, 1, terminals)
	assert.True(t, events[len(events)-1].Terminal())
}

func newEngine() *Engine {
	return New(classifier.New(classifier.DefaultRules()), nil)
}

// =============================================================================
// Directory Scans
// =============================================================================

func TestScanDirectoryTotals(t *testing.T) {
	f := testutil.NewMemFixture(t)
	f.CreateSizedFile("tmp/a.tmp", 1024)
	f.CreateSizedFile("tmp/b.tmp", 2048)
	f.CreateSizedFile("logs/app.log", 4096)

	log := &eventLog{}
	task := newEngine().Scan(context.Background(), &DirSource{Fs: f.Fs, Roots: []string{f.RootDir}}, log)

	result, err := task.Wait()
	require.NoError(t, err)
	log.waitTerminal(t)

	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, 3, result.TotalCount)
	assert.Equal(t, int64(7168), result.TotalSize)

	temp := result.Category(classifier.TempFiles)
	require.NotNil(t, temp)
	assert.Equal(t, int64(3072), temp.TotalSize())
	assert.Equal(t, "Temp Files", temp.Name)

	logs := result.Category(classifier.LogFiles)
	require.NotNil(t, logs)
	assert.Equal(t, int64(4096), logs.TotalSize())

	// Category totals add up to the result total
	var sum int64
	for i := range result.Categories {
		sum += result.Categories[i].TotalSize()
	}
	assert.Equal(t, result.TotalSize, sum)

	events := log.all()
	assertEventOrder(t, events)
	final := events[len(events)-1]
	assert.Equal(t, progress.KindCompleted, final.Kind)
	assert.Equal(t, 3, final.Count)
	assert.Equal(t, int64(7168), final.Bytes)
	assert.Equal(t, task.ID(), final.TaskID)
}

func TestScanCategoryOrder(t *testing.T) {
	f := testutil.NewMemFixture(t)
	f.CreateSizedFile("misc/notes.bin", 10)
	f.CreateSizedFile("DCIM/Camera/a.jpg", 10)
	f.CreateSizedFile("Android/data/com.example/cache/c.bin", 10)
	f.CreateSizedFile("big.bin", int(11*utils.MB))

	result, err := newEngine().Scan(context.Background(), &DirSource{Fs: f.Fs, Roots: []string{f.RootDir}}, nil).Wait()
	require.NoError(t, err)

	var ids []classifier.CategoryID
	for _, c := range result.Categories {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []classifier.CategoryID{
		classifier.AppCache,
		classifier.Images,
		classifier.LargeFiles,
		classifier.Other,
	}, ids)
}

func TestScanMissingRootIsSkipped(t *testing.T) {
	f := testutil.NewMemFixture(t)
	f.CreateSizedFile("tmp/a.tmp", 10)

	result, err := newEngine().Scan(context.Background(), &DirSource{
		Fs:    f.Fs,
		Roots: []string{"/does/not/exist", f.TempDir},
	}, nil).Wait()

	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalCount)
}

func TestScanEmptyRoots(t *testing.T) {
	f := testutil.NewMemFixture(t)

	log := &eventLog{}
	result, err := newEngine().Scan(context.Background(), &DirSource{Fs: f.Fs, Roots: nil}, log).Wait()

	require.NoError(t, err)
	assert.Zero(t, result.TotalCount)
	assert.Equal(t, progress.KindCompleted, log.waitTerminal(t).Kind)
}

func TestScanRootPermissionDenied(t *testing.T) {
	f := testutil.NewMemFixture(t)
	f.CreateSizedFile("tmp/a.tmp", 10)
	fs := testutil.NewFaultFs(f.Fs)
	fs.Fail(testutil.OpStat, f.RootDir, os.ErrPermission)

	log := &eventLog{}
	result, err := newEngine().Scan(context.Background(), &DirSource{Fs: fs, Roots: []string{f.RootDir}}, log).Wait()

	var fault *ScanFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, f.RootDir, fault.Root)
	assert.True(t, errors.Is(err, os.ErrPermission))

	require.NotNil(t, result, "partial result stays valid")
	assert.Equal(t, StatusErrored, result.Status)

	terminal := log.waitTerminal(t)
	assert.Equal(t, progress.KindError, terminal.Kind)
	assert.ErrorAs(t, terminal.Err, &fault)
	assertEventOrder(t, log.all())
}

func TestScanUnreadableSubdirIsSkipped(t *testing.T) {
	f := testutil.NewMemFixture(t)
	f.CreateSizedFile("tmp/a.tmp", 10)
	f.CreateSizedFile("private/secret.log", 10)
	fs := testutil.NewFaultFs(f.Fs)
	fs.Fail(testutil.OpOpen, f.Path("private"), os.ErrPermission)

	result, err := newEngine().Scan(context.Background(), &DirSource{Fs: fs, Roots: []string{f.RootDir}}, nil).Wait()

	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalCount)
	assert.Nil(t, result.Category(classifier.LogFiles))
}

func TestScanExcludePatterns(t *testing.T) {
	f := testutil.NewMemFixture(t)
	f.CreateSizedFile("tmp/a.tmp", 10)
	f.CreateSizedFile("tmp/keep.tmp", 10)
	f.CreateSizedFile("Documents/private/x.pdf", 10)

	result, err := newEngine().Scan(context.Background(), &DirSource{
		Fs:      f.Fs,
		Roots:   []string{f.RootDir},
		Exclude: []string{"keep.*", "private"},
	}, nil).Wait()

	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalCount)
	assert.Equal(t, f.Path("tmp/a.tmp"), result.Entries()[0].Path)
}

func TestScanOnRealFilesystem(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateSizedFile("Download/setup.apk", 100)
	f.CreateSymlink(f.Path("Download/setup.apk"), "Download/link.apk")

	result, err := newEngine().Scan(context.Background(), &DirSource{Fs: f.Fs, Roots: []string{f.RootDir}}, nil).Wait()

	require.NoError(t, err)
	require.Equal(t, 1, result.TotalCount, "symlinks are not reported")
	assert.Equal(t, classifier.ApkFiles, result.Entries()[0].Category)
}

// =============================================================================
// Task Lifecycle
// =============================================================================

// scriptSource emits a fixed list of entries, then optionally blocks or
// fails with fail
type scriptSource struct {
	entries []Entry
	emitted chan struct{}
	block   bool
	fail    error
}

func (s *scriptSource) Enumerate(ctx context.Context, em Emitter) error {
	for i, e := range s.entries {
		em.Found(e)
		em.Progress((i+1)*50/len(s.entries), e.Path)
	}
	if s.emitted != nil {
		close(s.emitted)
	}
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.fail
}

func TestScanDuplicatePathsIgnored(t *testing.T) {
	src := &scriptSource{entries: []Entry{
		{Path: "/s/a.tmp", Name: "a.tmp", Size: 10},
		{Path: "/s/a.tmp", Name: "a.tmp", Size: 10},
		{Path: "/s/b.tmp", Name: "b.tmp", Size: 5},
	}}

	result, err := newEngine().Scan(context.Background(), src, nil).Wait()

	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalCount)
	assert.Equal(t, int64(15), result.TotalSize)
}

func TestScanSnapshotWhileRunning(t *testing.T) {
	src := &scriptSource{
		entries: []Entry{{Path: "/s/a.tmp", Name: "a.tmp", Size: 10}},
		emitted: make(chan struct{}),
		block:   true,
	}

	task := newEngine().Scan(context.Background(), src, nil)
	<-src.emitted

	snap := task.Snapshot()
	assert.Equal(t, StatusRunning, snap.Status)
	assert.Equal(t, 1, snap.TotalCount)

	// Snapshots are copies
	snap.Categories[0].Entries[0].Selected = true
	assert.False(t, task.Snapshot().Categories[0].Entries[0].Selected)

	task.Cancel()
	task.Wait()
}

func TestScanCancelDiscardsResult(t *testing.T) {
	src := &scriptSource{
		entries: []Entry{{Path: "/s/a.tmp", Name: "a.tmp", Size: 10}},
		emitted: make(chan struct{}),
		block:   true,
	}

	log := &eventLog{}
	task := newEngine().Scan(context.Background(), src, log)
	<-src.emitted
	before := len(log.all())

	task.Cancel()
	result, err := task.Wait()

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)

	select {
	case <-task.Done():
	default:
		t.Fatal("Done should be closed after Wait")
	}

	time.Sleep(20 * time.Millisecond)
	events := log.all()
	assert.Len(t, events, before, "no events after cancel")
	for _, e := range events {
		assert.False(t, e.Terminal())
	}
}

func TestScanCancelWhileClassifyingDropsItem(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine := newEngine().WithGrouping(func(e Entry) classifier.CategoryID {
		cancel()
		return classifier.LogFiles
	})
	src := &scriptSource{entries: []Entry{{Path: "/sdcard/a.log", Name: "a.log", Size: 10}}}

	log := &eventLog{}
	result, err := engine.Scan(ctx, src, log).Wait()

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)

	time.Sleep(20 * time.Millisecond)
	events := log.all()
	require.Len(t, events, 1, "only the start event precedes the cancel")
	assert.Equal(t, progress.KindStarted, events[0].Kind)
}

func TestScanFaultKeepsDiscoveredEntries(t *testing.T) {
	src := &scriptSource{
		entries: []Entry{
			{Path: "/sdcard/logs/a.log", Name: "a.log", Size: 1024},
			{Path: "/sdcard/logs/b.log", Name: "b.log", Size: 2048},
			{Path: "/sdcard/tmp/c.tmp", Name: "c.tmp", Size: 4096},
		},
		fail: &ScanFault{Root: "/sdcard/Android", Err: os.ErrPermission},
	}

	log := &eventLog{}
	result, err := newEngine().Scan(context.Background(), src, log).Wait()

	var fault *ScanFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "/sdcard/Android", fault.Root)

	require.NotNil(t, result)
	assert.Equal(t, StatusErrored, result.Status)
	assert.ErrorIs(t, result.Err, os.ErrPermission)
	assert.Equal(t, 3, result.TotalCount)
	assert.Equal(t, int64(7168), result.TotalSize)

	var sum int64
	for i := range result.Categories {
		sum += result.Categories[i].TotalSize()
	}
	assert.Equal(t, result.TotalSize, sum)

	terminal := log.waitTerminal(t)
	assert.Equal(t, progress.KindError, terminal.Kind)

	events := log.all()
	assertEventOrder(t, events)
	items := 0
	for _, e := range events {
		if e.Kind == progress.KindItem {
			items++
		}
	}
	assert.Equal(t, 3, items)
}

func TestScanParentContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := testutil.NewMemFixture(t)
	f.CreateSizedFile("tmp/a.tmp", 10)

	_, err := newEngine().Scan(ctx, &DirSource{Fs: f.Fs, Roots: []string{f.RootDir}}, nil).Wait()
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// Index Scans
// =============================================================================

type fakeImages struct {
	records []mediaindex.Record
	err     error
}

func (f *fakeImages) Images(ctx context.Context) ([]mediaindex.Record, error) {
	return f.records, f.err
}

func TestIndexSourceGroupsByDate(t *testing.T) {
	f := testutil.NewMemFixture(t)
	a := f.CreateSizedFile("DCIM/Camera/a.jpg", 100)
	b := f.CreateSizedFile("DCIM/Camera/b.jpg", 200)
	c := f.CreateSizedFile("DCIM/Camera/c.jpg", 300)

	day1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	index := &fakeImages{records: []mediaindex.Record{
		{ID: "3", Name: "c.jpg", Path: c, Size: 300, DateTaken: day2},
		{ID: "1", Name: "a.jpg", Path: a, Size: 100, DateTaken: day1},
		{ID: "2", Name: "b.jpg", Path: b, Size: 200, DateTaken: day1},
		{ID: "9", Name: "gone.jpg", Path: f.Path("DCIM/Camera/gone.jpg"), Size: 999, DateTaken: day2},
	}}

	engine := newEngine().WithGrouping(ByCaptureDate(time.UTC))
	result, err := engine.Scan(context.Background(), &IndexSource{Index: index, Fs: f.Fs}, nil).Wait()
	require.NoError(t, err)

	require.Len(t, result.Categories, 2)
	assert.Equal(t, classifier.CategoryID("2024-03-02"), result.Categories[0].ID)
	assert.Equal(t, classifier.CategoryID("2024-03-01"), result.Categories[1].ID)
	assert.Equal(t, classifier.KindDate, result.Categories[0].Kind)
	assert.Len(t, result.Categories[1].Entries, 2)
	assert.Equal(t, int64(600), result.TotalSize, "stale records are skipped")
	assert.Equal(t, "1", result.Categories[1].Entries[0].IndexID)
}

func TestIndexSourceQueryFailure(t *testing.T) {
	f := testutil.NewMemFixture(t)
	index := &fakeImages{err: errors.New("disk I/O error")}

	_, err := newEngine().Scan(context.Background(), &IndexSource{Index: index, Fs: f.Fs}, nil).Wait()

	var fault *ScanFault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "media index", fault.Root)
}

// =============================================================================
// Result Helpers
// =============================================================================

func TestResultRecountDropsEmpty(t *testing.T) {
	r := NewResult("x")
	r.Add(Entry{Path: "/a", Size: 10, Category: classifier.TempFiles, Selected: true})
	r.Add(Entry{Path: "/b", Size: 5, Category: classifier.LogFiles})

	r.Category(classifier.LogFiles).Entries = nil
	r.Recount()

	assert.Len(t, r.Categories, 1)
	assert.Equal(t, 1, r.TotalCount)
	assert.Equal(t, int64(10), r.TotalSize)
	assert.True(t, r.Categories[0].Selected)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "canceled", StatusCanceled.String())
	assert.Equal(t, "errored", StatusErrored.String())
}
