// Package filter narrows scan results by file type, size and age. Filters
// are values; applying one never mutates its input.
package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fenilsonani/junk-sweeper/internal/classifier"
	"github.com/fenilsonani/junk-sweeper/internal/scanner"
	"github.com/fenilsonani/junk-sweeper/pkg/utils"
)

// Time windows
const (
	Day         = 24 * time.Hour
	Week        = 7 * Day
	Month       = 30 * Day
	ThreeMonths = 90 * Day
	SixMonths   = 180 * Day
)

// Filter is an AND of a type, a strict minimum size and a recency window.
// The zero value matches everything.
type Filter struct {
	Type    classifier.FileType
	MinSize int64         // entries must be strictly larger; 0 disables
	Window  time.Duration // entries must be modified within; 0 disables
}

// IsZero reports whether f matches everything
func (f Filter) IsZero() bool {
	return f.Type == classifier.TypeAny && f.MinSize <= 0 && f.Window <= 0
}

// Match reports whether e passes every predicate of f at time now
func (f Filter) Match(e scanner.Entry, now time.Time) bool {
	if !classifier.MatchesType(e.Path, f.Type) {
		return false
	}
	if f.MinSize > 0 && e.Size <= f.MinSize {
		return false
	}
	if f.Window > 0 {
		if e.ModTime.IsZero() || e.ModTime.Before(now.Add(-f.Window)) {
			return false
		}
	}
	return true
}

// String describes the filter using the option labels
func (f Filter) String() string {
	return fmt.Sprintf("%s / %s / %s", typeLabel(f.Type), sizeLabel(f.MinSize), timeLabel(f.Window))
}

// Apply returns a copy of r holding only the entries that match f.
// Categories left empty are dropped and totals are recomputed.
func Apply(r *scanner.ScanResult, f Filter, now time.Time) *scanner.ScanResult {
	out := r.Clone()
	if out == nil || f.IsZero() {
		return out
	}

	for ci := range out.Categories {
		cat := &out.Categories[ci]
		kept := cat.Entries[:0]
		for _, e := range cat.Entries {
			if f.Match(e, now) {
				kept = append(kept, e)
			}
		}
		cat.Entries = kept
	}

	out.Recount()
	return out
}

// ApplyFlat returns the entries that match f ordered by size, largest
// first. Equal sizes are ordered by path.
func ApplyFlat(entries []scanner.Entry, f Filter, now time.Time) []scanner.Entry {
	out := make([]scanner.Entry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e, now) {
			out = append(out, e)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size > out[j].Size
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// =============================================================================
// Option tables
// =============================================================================

type sizeOption struct {
	label string
	bytes int64
}

type timeOption struct {
	label  string
	window time.Duration
}

var typeOptions = []classifier.FileType{
	classifier.TypeAny,
	classifier.TypeImage,
	classifier.TypeVideo,
	classifier.TypeAudio,
	classifier.TypeDocs,
	classifier.TypeDownload,
	classifier.TypeZip,
}

var sizeOptions = []sizeOption{
	{"All Size", 0},
	{">1MB", 1 * utils.MB},
	{">5MB", 5 * utils.MB},
	{">10MB", 10 * utils.MB},
	{">20MB", 20 * utils.MB},
	{">50MB", 50 * utils.MB},
	{">100MB", 100 * utils.MB},
	{">200MB", 200 * utils.MB},
	{">500MB", 500 * utils.MB},
}

var timeOptions = []timeOption{
	{"All Time", 0},
	{"Within 1 day", Day},
	{"Within 1 week", Week},
	{"Within 1 month", Month},
	{"Within 3 month", ThreeMonths},
	{"Within 6 month", SixMonths},
}

// TypeOptions returns the type labels in display order
func TypeOptions() []string {
	out := make([]string, len(typeOptions))
	for i, t := range typeOptions {
		out[i] = typeLabel(t)
	}
	return out
}

// SizeOptions returns the size labels in display order
func SizeOptions() []string {
	out := make([]string, len(sizeOptions))
	for i, o := range sizeOptions {
		out[i] = o.label
	}
	return out
}

// TimeOptions returns the time labels in display order
func TimeOptions() []string {
	out := make([]string, len(timeOptions))
	for i, o := range timeOptions {
		out[i] = o.label
	}
	return out
}

func typeLabel(t classifier.FileType) string {
	if t == classifier.TypeAny {
		return "All types"
	}
	return string(t)
}

func sizeLabel(n int64) string {
	for _, o := range sizeOptions {
		if o.bytes == n {
			return o.label
		}
	}
	return ">" + utils.FormatBytes(n)
}

func timeLabel(d time.Duration) string {
	for _, o := range timeOptions {
		if o.window == d {
			return o.label
		}
	}
	return "Within " + d.String()
}

// =============================================================================
// Parsing
// =============================================================================

// ParseType parses a type label. Empty, "all" and "All types" mean any type.
func ParseType(label string) (classifier.FileType, error) {
	s := strings.TrimSpace(label)
	switch strings.ToLower(s) {
	case "", "all", "all types", "any":
		return classifier.TypeAny, nil
	}
	for _, t := range typeOptions[1:] {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return classifier.TypeAny, fmt.Errorf("unknown file type: %q", label)
}

// ParseSize parses a size label such as ">5MB" or "5MB". Empty, "all" and
// "All Size" disable the size predicate.
func ParseSize(label string) (int64, error) {
	s := strings.TrimSpace(label)
	switch strings.ToLower(s) {
	case "", "all", "all size", "any":
		return 0, nil
	}

	n, err := utils.ParseSize(strings.TrimPrefix(s, ">"))
	if err != nil {
		return 0, fmt.Errorf("invalid size filter %q: %w", label, err)
	}
	return n, nil
}

// ParseTime parses a recency label such as "Within 1 week". Short forms
// "1d", "1w", "1m", "3m", "6m" are accepted too. Empty, "all" and
// "All Time" disable the time predicate.
func ParseTime(label string) (time.Duration, error) {
	s := strings.ToLower(strings.Join(strings.Fields(label), " "))
	switch s {
	case "", "all", "all time", "any":
		return 0, nil
	}

	s = strings.TrimPrefix(s, "within ")
	s = strings.TrimSuffix(s, "s")
	switch s {
	case "1 day", "1d", "day":
		return Day, nil
	case "1 week", "1w", "7d", "week":
		return Week, nil
	case "1 month", "1m", "30d", "month":
		return Month, nil
	case "3 month", "3m", "90d":
		return ThreeMonths, nil
	case "6 month", "6m", "180d":
		return SixMonths, nil
	}
	return 0, fmt.Errorf("unknown time filter: %q", label)
}

// Parse builds a filter from the three labels
func Parse(typ, size, window string) (Filter, error) {
	t, err := ParseType(typ)
	if err != nil {
		return Filter{}, err
	}
	n, err := ParseSize(size)
	if err != nil {
		return Filter{}, err
	}
	w, err := ParseTime(window)
	if err != nil {
		return Filter{}, err
	}
	return Filter{Type: t, MinSize: n, Window: w}, nil
}
