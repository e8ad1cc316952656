package scanner

import (
	"fmt"
	"sort"
	"time"

	"github.com/fenilsonani/junk-sweeper/internal/classifier"
)

// Entry represents a file found during scanning. Path is the unique key.
type Entry struct {
	Path     string
	Name     string
	Size     int64
	ModTime  time.Time // last modified, or capture time for indexed media
	Category classifier.CategoryID
	IndexID  string // media index record, empty for plain files
	Selected bool
}

// Category groups the entries of one classification
type Category struct {
	ID       classifier.CategoryID
	Name     string
	Kind     classifier.Kind
	Entries  []Entry
	Expanded bool
	Selected bool // true iff at least one entry is selected
}

// TotalSize returns the sum of all entry sizes
func (c *Category) TotalSize() int64 {
	var total int64
	for i := range c.Entries {
		total += c.Entries[i].Size
	}
	return total
}

// SelectedSize returns the sum of the selected entry sizes
func (c *Category) SelectedSize() int64 {
	var total int64
	for i := range c.Entries {
		if c.Entries[i].Selected {
			total += c.Entries[i].Size
		}
	}
	return total
}

// SelectedCount returns the number of selected entries
func (c *Category) SelectedCount() int {
	n := 0
	for i := range c.Entries {
		if c.Entries[i].Selected {
			n++
		}
	}
	return n
}

// HasSelected reports whether any entry is selected
func (c *Category) HasSelected() bool {
	for i := range c.Entries {
		if c.Entries[i].Selected {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of a scan result
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusCompleted
	StatusErrored
	StatusCanceled
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusErrored:
		return "errored"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ScanResult is the categorised outcome of a scan. TotalSize always equals
// the sum of the category totals.
type ScanResult struct {
	ID         string
	Categories []Category
	TotalCount int
	TotalSize  int64
	Status     Status
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewResult creates an empty result in the idle state
func NewResult(id string) *ScanResult {
	return &ScanResult{ID: id, Categories: []Category{}}
}

// Category returns the category with the given ID, or nil
func (r *ScanResult) Category(id classifier.CategoryID) *Category {
	for i := range r.Categories {
		if r.Categories[i].ID == id {
			return &r.Categories[i]
		}
	}
	return nil
}

// Entries returns all entries in category order
func (r *ScanResult) Entries() []Entry {
	out := make([]Entry, 0, r.TotalCount)
	for i := range r.Categories {
		out = append(out, r.Categories[i].Entries...)
	}
	return out
}

// Add merges e into its category, creating the category in display order
// if needed. The caller guarantees e.Path is not present yet.
func (r *ScanResult) Add(e Entry) {
	cat := r.Category(e.Category)
	if cat == nil {
		def := classifier.Lookup(e.Category)
		r.Categories = append(r.Categories, Category{
			ID:   def.ID,
			Name: def.Name,
			Kind: def.Kind,
		})
		sort.SliceStable(r.Categories, func(i, j int) bool {
			return classifier.Less(r.Categories[i].ID, r.Categories[j].ID)
		})
		cat = r.Category(e.Category)
	}

	cat.Entries = append(cat.Entries, e)
	if e.Selected {
		cat.Selected = true
	}
	r.TotalCount++
	r.TotalSize += e.Size
}

// Recount recomputes the totals and drops empty categories
func (r *ScanResult) Recount() {
	r.TotalCount = 0
	r.TotalSize = 0

	kept := r.Categories[:0]
	for _, c := range r.Categories {
		if len(c.Entries) == 0 {
			continue
		}
		c.Selected = c.HasSelected()
		r.TotalCount += len(c.Entries)
		r.TotalSize += c.TotalSize()
		kept = append(kept, c)
	}
	r.Categories = kept
}

// Clone returns a deep copy of r
func (r *ScanResult) Clone() *ScanResult {
	if r == nil {
		return nil
	}

	out := *r
	out.Categories = make([]Category, len(r.Categories))
	for i, c := range r.Categories {
		c.Entries = append([]Entry(nil), c.Entries...)
		out.Categories[i] = c
	}
	return &out
}

// ScanFault is a terminal scan error, such as a root that cannot be read
type ScanFault struct {
	Root string
	Err  error
}

// Error implements the error interface
func (f *ScanFault) Error() string {
	return fmt.Sprintf("scan of %s failed: %v", f.Root, f.Err)
}

// Unwrap returns the underlying error
func (f *ScanFault) Unwrap() error {
	return f.Err
}
