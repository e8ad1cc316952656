package classifier

import (
	"sort"
	"time"
)

// CategoryID identifies a category. Static categories come from the
// definitions table; date categories are formatted capture dates.
type CategoryID string

// Kind is the family a category belongs to
type Kind int

const (
	KindJunk Kind = iota
	KindMedia
	KindLarge
	KindDate
	KindOther
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindJunk:
		return "junk"
	case KindMedia:
		return "media"
	case KindLarge:
		return "large"
	case KindDate:
		return "date"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

const (
	AppCache   CategoryID = "app_cache"
	ApkFiles   CategoryID = "apk_files"
	LogFiles   CategoryID = "log_files"
	TempFiles  CategoryID = "temp_files"
	Images     CategoryID = "images"
	Videos     CategoryID = "videos"
	Audio      CategoryID = "audio"
	Documents  CategoryID = "documents"
	Archives   CategoryID = "archives"
	LargeFiles CategoryID = "large_files"
	Other      CategoryID = "other"
)

// DateLayout is the format of capture-date category IDs
const DateLayout = "2006-01-02"

// UnknownDate is the category for entries without any timestamp
const UnknownDate CategoryID = "unknown_date"

// Definition describes a category: its display name, kind and list order
type Definition struct {
	ID    CategoryID
	Name  string
	Kind  Kind
	Order int
}

var definitions = []Definition{
	{ID: AppCache, Name: "App Cache", Kind: KindJunk, Order: 0},
	{ID: ApkFiles, Name: "Apk Files", Kind: KindJunk, Order: 1},
	{ID: LogFiles, Name: "Log Files", Kind: KindJunk, Order: 2},
	{ID: TempFiles, Name: "Temp Files", Kind: KindJunk, Order: 3},
	{ID: Images, Name: "Images", Kind: KindMedia, Order: 10},
	{ID: Videos, Name: "Videos", Kind: KindMedia, Order: 11},
	{ID: Audio, Name: "Audio", Kind: KindMedia, Order: 12},
	{ID: Documents, Name: "Documents", Kind: KindMedia, Order: 13},
	{ID: Archives, Name: "Archives", Kind: KindMedia, Order: 14},
	{ID: LargeFiles, Name: "Large Files", Kind: KindLarge, Order: 20},
	{ID: Other, Name: "Other", Kind: KindOther, Order: 30},
}

var definitionIndex = func() map[CategoryID]Definition {
	idx := make(map[CategoryID]Definition, len(definitions))
	for _, d := range definitions {
		idx[d.ID] = d
	}
	return idx
}()

// Definitions returns the static category table in display order
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// JunkDefinitions returns the junk subtypes in display order
func JunkDefinitions() []Definition {
	var out []Definition
	for _, d := range definitions {
		if d.Kind == KindJunk {
			out = append(out, d)
		}
	}
	return out
}

// Lookup returns the definition for id. Date categories and unknown IDs
// resolve to a definition carrying the ID itself as name.
func Lookup(id CategoryID) Definition {
	if d, ok := definitionIndex[id]; ok {
		return d
	}
	if id == UnknownDate {
		return Definition{ID: id, Name: "Unknown date", Kind: KindDate, Order: 1 << 30}
	}
	if _, err := time.Parse(DateLayout, string(id)); err == nil {
		return Definition{ID: id, Name: string(id), Kind: KindDate}
	}
	return Definition{ID: id, Name: string(id), Kind: KindOther, Order: 1 << 20}
}

// Known reports whether id is one of the static categories
func Known(id CategoryID) bool {
	_, ok := definitionIndex[id]
	return ok
}

// DateBucket returns the capture-date category for t in t's location
func DateBucket(t time.Time) CategoryID {
	if t.IsZero() {
		return UnknownDate
	}
	return CategoryID(t.Format(DateLayout))
}

// Less reports whether category a is listed before b: static categories by
// table order, date categories newest first, unknown date last.
func Less(a, b CategoryID) bool {
	da, db := Lookup(a), Lookup(b)
	if da.Kind == KindDate && db.Kind == KindDate {
		if da.ID == UnknownDate || db.ID == UnknownDate {
			return db.ID == UnknownDate && da.ID != UnknownDate
		}
		return da.ID > db.ID
	}
	if da.Order != db.Order {
		return da.Order < db.Order
	}
	return da.ID < db.ID
}

// SortIDs orders category IDs for display
func SortIDs(ids []CategoryID) {
	sort.SliceStable(ids, func(i, j int) bool {
		return Less(ids[i], ids[j])
	})
}
