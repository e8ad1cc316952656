package selection

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/junk-sweeper/internal/classifier"
	"github.com/fenilsonani/junk-sweeper/internal/scanner"
)

func logResult() *scanner.ScanResult {
	r := scanner.NewResult("test")
	r.Add(scanner.Entry{Path: "/logs/a.log", Name: "a.log", Size: 1024, Category: classifier.LogFiles})
	r.Add(scanner.Entry{Path: "/logs/b.log", Name: "b.log", Size: 2048, Category: classifier.LogFiles})
	r.Add(scanner.Entry{Path: "/logs/c.log", Name: "c.log", Size: 4096, Category: classifier.LogFiles})
	r.Status = scanner.StatusCompleted
	return r
}

func mixedResult() *scanner.ScanResult {
	r := logResult()
	r.Add(scanner.Entry{Path: "/tmp/x.tmp", Name: "x.tmp", Size: 100, Category: classifier.TempFiles})
	r.Add(scanner.Entry{Path: "/tmp/y.tmp", Name: "y.tmp", Size: 200, Category: classifier.TempFiles})
	return r
}

func TestLogFilesScenario(t *testing.T) {
	m := New(logResult())

	snap := m.Snapshot()
	logs := snap.Category(classifier.LogFiles)
	require.NotNil(t, logs)
	assert.Equal(t, int64(7168), logs.TotalSize())

	m.ToggleEntry("/logs/a.log")
	m.ToggleEntry("/logs/b.log")

	assert.Equal(t, int64(3072), m.SelectedSize())
	assert.Equal(t, int64(3072), m.CategorySelectedSize(classifier.LogFiles))
	assert.Equal(t, 2, m.SelectedCount())
	assert.False(t, m.IsAllSelected())
}

func TestToggleEntryTwiceRestoresState(t *testing.T) {
	m := New(mixedResult())
	m.ToggleEntry("/tmp/x.tmp")

	beforeSize := m.SelectedSize()
	beforeCat := m.CategorySelectedSize(classifier.LogFiles)
	beforeSnap := m.Snapshot()

	for i := 0; i < 1000; i++ {
		m.ToggleEntry("/logs/c.log")
		m.ToggleEntry("/logs/c.log")
	}

	assert.Equal(t, beforeSize, m.SelectedSize())
	assert.Equal(t, beforeCat, m.CategorySelectedSize(classifier.LogFiles))
	assert.Equal(t, beforeSnap, m.Snapshot())
}

func TestToggleEntryUnknownPath(t *testing.T) {
	m := New(logResult())
	_, ok := m.ToggleEntry("/nope")
	assert.False(t, ok)
	assert.False(t, m.SetEntry("/nope", true))
}

func TestToggleEntryMaintainsCategoryFlag(t *testing.T) {
	m := New(logResult())

	sel, ok := m.ToggleEntry("/logs/a.log")
	require.True(t, ok)
	assert.True(t, sel)
	assert.True(t, m.Snapshot().Category(classifier.LogFiles).Selected)

	m.ToggleEntry("/logs/a.log")
	assert.False(t, m.Snapshot().Category(classifier.LogFiles).Selected)
}

func TestSelectAllClearAllRoundTrip(t *testing.T) {
	m := New(mixedResult())
	before := m.Snapshot()

	m.SelectAll()
	assert.True(t, m.IsAllSelected())
	assert.Equal(t, int64(7468), m.SelectedSize())

	m.ClearAll()
	assert.Equal(t, before, m.Snapshot())
	assert.Zero(t, m.SelectedSize())
}

func TestToggleCategoryTwoState(t *testing.T) {
	tests := []struct {
		name        string
		preselect   []string
		wantState   bool
		wantSelSize int64
	}{
		{"none selected selects all", nil, true, 7168},
		{"partial selection clears", []string{"/logs/a.log"}, false, 0},
		{"all selected clears", []string{"/logs/a.log", "/logs/b.log", "/logs/c.log"}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(mixedResult())
			for _, p := range tt.preselect {
				m.ToggleEntry(p)
			}
			m.ToggleEntry("/tmp/x.tmp")

			state, ok := m.ToggleCategory(classifier.LogFiles)
			require.True(t, ok)
			assert.Equal(t, tt.wantState, state)
			assert.Equal(t, tt.wantSelSize, m.CategorySelectedSize(classifier.LogFiles))

			// Other categories are untouched
			assert.Equal(t, int64(100), m.CategorySelectedSize(classifier.TempFiles))
		})
	}

	m := New(logResult())
	_, ok := m.ToggleCategory(classifier.Images)
	assert.False(t, ok)
}

func TestToggleAll(t *testing.T) {
	m := New(mixedResult())
	m.ToggleEntry("/logs/a.log")

	assert.True(t, m.ToggleAll(), "partial selection selects all")
	assert.True(t, m.IsAllSelected())

	assert.False(t, m.ToggleAll(), "full selection clears")
	assert.Zero(t, m.SelectedCount())
}

func TestEmptyModel(t *testing.T) {
	m := New(nil)
	assert.False(t, m.IsAllSelected())
	assert.Zero(t, m.SelectedSize())
	assert.Empty(t, m.Selected())
	m.SelectAll()
	assert.False(t, m.IsAllSelected())
}

func TestSelectedInCategoryOrder(t *testing.T) {
	m := New(mixedResult())
	m.ToggleEntry("/tmp/y.tmp")
	m.ToggleEntry("/logs/b.log")

	sel := m.Selected()
	require.Len(t, sel, 2)
	assert.Equal(t, "/logs/b.log", sel[0].Path)
	assert.Equal(t, "/tmp/y.tmp", sel[1].Path)
	assert.True(t, m.IsSelected("/tmp/y.tmp"))

	paths := m.SelectedPaths()
	assert.Len(t, paths, 2)
	assert.Contains(t, paths, "/logs/b.log")
}

func TestModelOwnsItsCopy(t *testing.T) {
	src := logResult()
	m := New(src)
	m.SelectAll()

	assert.False(t, src.Categories[0].Entries[0].Selected)

	snap := m.Snapshot()
	snap.Categories[0].Entries[0].Selected = false
	assert.True(t, m.IsAllSelected())
}

func TestEvict(t *testing.T) {
	m := New(mixedResult())
	m.SelectAll()

	n := m.Evict([]string{"/tmp/x.tmp", "/tmp/y.tmp", "/logs/a.log", "/unknown"})
	assert.Equal(t, 3, n)

	snap := m.Snapshot()
	assert.Nil(t, snap.Category(classifier.TempFiles), "empty categories are dropped")
	assert.Equal(t, 2, snap.TotalCount)
	assert.Equal(t, int64(6144), snap.TotalSize)
	assert.Equal(t, int64(6144), m.SelectedSize())

	// Index stays consistent after eviction
	sel, ok := m.ToggleEntry("/logs/c.log")
	require.True(t, ok)
	assert.False(t, sel)
	assert.Equal(t, int64(2048), m.SelectedSize())

	assert.Zero(t, m.Evict(nil))
}

func TestRebaseKeepsSelectionByPath(t *testing.T) {
	m := New(logResult())
	m.ToggleEntry("/logs/a.log")
	m.SetExpanded(classifier.LogFiles, true)

	next := mixedResult()
	m.Rebase(next)

	assert.True(t, m.IsSelected("/logs/a.log"))
	assert.False(t, m.IsSelected("/tmp/x.tmp"))
	assert.Equal(t, int64(1024), m.SelectedSize())
	assert.True(t, m.Snapshot().Category(classifier.LogFiles).Expanded)

	m.Reset(next)
	assert.Zero(t, m.SelectedCount())
}

func TestExpandNonEmpty(t *testing.T) {
	m := New(mixedResult())
	m.ExpandNonEmpty()
	for _, c := range m.Snapshot().Categories {
		assert.True(t, c.Expanded, c.ID)
	}
	assert.False(t, m.SetExpanded(classifier.Images, true))
}

func TestConcurrentAccess(t *testing.T) {
	m := New(mixedResult())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				m.ToggleEntry("/logs/a.log")
				m.ToggleCategory(classifier.TempFiles)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				size := m.SelectedSize()
				assert.GreaterOrEqual(t, size, int64(0))
				assert.LessOrEqual(t, size, int64(7468))
			}
		}()
	}
	wg.Wait()

	// Even number of toggles per goroutine: back to the empty selection
	assert.Zero(t, m.SelectedSize())
}
