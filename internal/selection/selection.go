// Package selection tracks which scanned entries the user has selected.
// The model owns its own copy of a scan result; every read and write goes
// through one RWMutex.
package selection

import (
	"sync"

	"github.com/fenilsonani/junk-sweeper/internal/classifier"
	"github.com/fenilsonani/junk-sweeper/internal/scanner"
)

type position struct {
	cat   int
	entry int
}

// Model is the selection state over a scan result
type Model struct {
	mu     sync.RWMutex
	result *scanner.ScanResult
	index  map[string]position
}

// New creates a model over a copy of result. Selection flags already set in
// result are kept.
func New(result *scanner.ScanResult) *Model {
	m := &Model{}
	m.load(result.Clone())
	return m
}

func (m *Model) load(r *scanner.ScanResult) {
	if r == nil {
		r = scanner.NewResult("")
	}
	m.result = r
	m.reindex()
}

func (m *Model) reindex() {
	m.index = make(map[string]position, m.result.TotalCount)
	for ci := range m.result.Categories {
		cat := &m.result.Categories[ci]
		for ei := range cat.Entries {
			m.index[cat.Entries[ei].Path] = position{cat: ci, entry: ei}
		}
		cat.Selected = cat.HasSelected()
	}
}

// ToggleEntry flips the selection of the entry at path. It returns the new
// state and false if the path is unknown.
func (m *Model) ToggleEntry(path string) (selected bool, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.index[path]
	if !ok {
		return false, false
	}

	cat := &m.result.Categories[pos.cat]
	e := &cat.Entries[pos.entry]
	e.Selected = !e.Selected

	if e.Selected {
		cat.Selected = true
	} else {
		cat.Selected = cat.HasSelected()
	}
	return e.Selected, true
}

// SetEntry sets the selection of the entry at path
func (m *Model) SetEntry(path string, selected bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.index[path]
	if !ok {
		return false
	}

	cat := &m.result.Categories[pos.cat]
	cat.Entries[pos.entry].Selected = selected
	cat.Selected = cat.HasSelected()
	return true
}

// ToggleCategory clears the category if any of its entries is selected and
// selects all of them otherwise. It returns the category's new state.
func (m *Model) ToggleCategory(id classifier.CategoryID) (selected bool, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cat := m.result.Category(id)
	if cat == nil {
		return false, false
	}

	target := !cat.HasSelected()
	for i := range cat.Entries {
		cat.Entries[i].Selected = target
	}
	cat.Selected = target && len(cat.Entries) > 0
	return cat.Selected, true
}

// SetExpanded sets the expanded flag of a category
func (m *Model) SetExpanded(id classifier.CategoryID, expanded bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	cat := m.result.Category(id)
	if cat == nil {
		return false
	}
	cat.Expanded = expanded
	return true
}

// ExpandNonEmpty expands every category that has entries
func (m *Model) ExpandNonEmpty() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.result.Categories {
		cat := &m.result.Categories[i]
		cat.Expanded = len(cat.Entries) > 0
	}
}

// SelectAll selects every entry
func (m *Model) SelectAll() {
	m.setAll(true)
}

// ClearAll deselects every entry
func (m *Model) ClearAll() {
	m.setAll(false)
}

// ToggleAll clears everything if all entries are selected and selects
// everything otherwise. It returns the new state.
func (m *Model) ToggleAll() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	target := !m.allSelected()
	m.setAllLocked(target)
	return target
}

func (m *Model) setAll(selected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setAllLocked(selected)
}

func (m *Model) setAllLocked(selected bool) {
	for ci := range m.result.Categories {
		cat := &m.result.Categories[ci]
		for ei := range cat.Entries {
			cat.Entries[ei].Selected = selected
		}
		cat.Selected = selected && len(cat.Entries) > 0
	}
}

// IsAllSelected reports whether every entry is selected. An empty model is
// not all-selected.
func (m *Model) IsAllSelected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.allSelected()
}

func (m *Model) allSelected() bool {
	if len(m.index) == 0 {
		return false
	}
	for ci := range m.result.Categories {
		for _, e := range m.result.Categories[ci].Entries {
			if !e.Selected {
				return false
			}
		}
	}
	return true
}

// SelectedSize returns the total size of the selected entries
func (m *Model) SelectedSize() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int64
	for ci := range m.result.Categories {
		total += m.result.Categories[ci].SelectedSize()
	}
	return total
}

// SelectedCount returns the number of selected entries
func (m *Model) SelectedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for ci := range m.result.Categories {
		n += m.result.Categories[ci].SelectedCount()
	}
	return n
}

// CategorySelectedSize returns the selected size of one category
func (m *Model) CategorySelectedSize(id classifier.CategoryID) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cat := m.result.Category(id)
	if cat == nil {
		return 0
	}
	return cat.SelectedSize()
}

// IsSelected reports whether the entry at path is selected
func (m *Model) IsSelected(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pos, ok := m.index[path]
	if !ok {
		return false
	}
	return m.result.Categories[pos.cat].Entries[pos.entry].Selected
}

// Selected returns copies of the selected entries in category order
func (m *Model) Selected() []scanner.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []scanner.Entry
	for ci := range m.result.Categories {
		for _, e := range m.result.Categories[ci].Entries {
			if e.Selected {
				out = append(out, e)
			}
		}
	}
	return out
}

// SelectedPaths returns the set of selected paths
func (m *Model) SelectedPaths() map[string]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]struct{})
	for ci := range m.result.Categories {
		for _, e := range m.result.Categories[ci].Entries {
			if e.Selected {
				out[e.Path] = struct{}{}
			}
		}
	}
	return out
}

// Snapshot returns a deep copy of the current state
func (m *Model) Snapshot() *scanner.ScanResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.result.Clone()
}

// Evict drops the given paths, removes categories left empty and
// recomputes the totals. It returns the number of entries removed.
func (m *Model) Evict(paths []string) int {
	if len(paths) == 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	drop := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if _, ok := m.index[p]; ok {
			drop[p] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return 0
	}

	for ci := range m.result.Categories {
		cat := &m.result.Categories[ci]
		kept := cat.Entries[:0]
		for _, e := range cat.Entries {
			if _, gone := drop[e.Path]; !gone {
				kept = append(kept, e)
			}
		}
		cat.Entries = kept
	}

	m.result.Recount()
	m.reindex()
	return len(drop)
}

// Rebase replaces the underlying result with a copy of next, keeping the
// selection and expansion of entries and categories present in both.
func (m *Model) Rebase(next *scanner.ScanResult) {
	r := next.Clone()

	m.mu.Lock()
	defer m.mu.Unlock()

	selected := make(map[string]bool)
	expanded := make(map[classifier.CategoryID]bool)
	for ci := range m.result.Categories {
		cat := &m.result.Categories[ci]
		expanded[cat.ID] = cat.Expanded
		for _, e := range cat.Entries {
			if e.Selected {
				selected[e.Path] = true
			}
		}
	}

	if r != nil {
		for ci := range r.Categories {
			cat := &r.Categories[ci]
			if exp, ok := expanded[cat.ID]; ok {
				cat.Expanded = exp
			}
			for ei := range cat.Entries {
				if selected[cat.Entries[ei].Path] {
					cat.Entries[ei].Selected = true
				}
			}
		}
	}

	m.load(r)
}

// Reset replaces the underlying result with a copy of next, dropping the
// current selection
func (m *Model) Reset(next *scanner.ScanResult) {
	r := next.Clone()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.load(r)
}
