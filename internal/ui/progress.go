package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/fenilsonani/junk-sweeper/internal/classifier"
	"github.com/fenilsonani/junk-sweeper/internal/progress"
	"github.com/fenilsonani/junk-sweeper/internal/scanner"
	"github.com/fenilsonani/junk-sweeper/internal/ui/styles"
	"github.com/fenilsonani/junk-sweeper/pkg/utils"
)

// LiveProgress is a progress sink that redraws one status line for a
// running scan. It stays silent when out is not a terminal.
type LiveProgress struct {
	mu         sync.Mutex
	out        io.Writer
	enabled    bool
	termWidth  int
	interval   time.Duration
	startTime  time.Time
	lastUpdate time.Time
	found      int
	size       func() int64
}

// NewLiveProgress creates a live display on out
func NewLiveProgress(out io.Writer) *LiveProgress {
	lp := &LiveProgress{
		out:       out,
		termWidth: 80,
		interval:  100 * time.Millisecond,
		startTime: time.Now(),
	}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		lp.enabled = true
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			lp.termWidth = w
		}
	}
	return lp
}

// SetEnabled forces the display on or off
func (lp *LiveProgress) SetEnabled(enabled bool) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.enabled = enabled
}

// TrackSize sets the source of the running byte total, usually the
// snapshot of the task being displayed
func (lp *LiveProgress) TrackSize(size func() int64) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.size = size
}

// Publish implements progress.Sink
func (lp *LiveProgress) Publish(e progress.Event) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	switch e.Kind {
	case progress.KindStarted:
		lp.startTime = e.Time
		lp.found = 0
	case progress.KindItem:
		lp.found++
	}
	if !lp.enabled {
		return
	}

	// Throttle redraws; terminal events always draw
	now := time.Now()
	if !e.Terminal() && now.Sub(lp.lastUpdate) < lp.interval {
		return
	}
	lp.lastUpdate = now

	var size int64
	if lp.size != nil {
		size = lp.size()
	}
	line := progress.FormatScanProgress(e, lp.found, size, now.Sub(lp.startTime))
	if e.Kind == progress.KindProgress && e.Path != "" {
		line += " " + filepath.Base(e.Path)
	}
	if w := lp.termWidth - 1; len(line) > w && w > 3 {
		line = line[:w-3] + "..."
	}

	fmt.Fprintf(lp.out, "\r\033[K%s", line)
	if e.Terminal() {
		fmt.Fprintln(lp.out)
	}
}

// Found returns the number of item events seen since the last start
func (lp *LiveProgress) Found() int {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.found
}

// PrintTree writes result as a tree: categories, then parent directories,
// then up to maxFiles files per directory
func PrintTree(w io.Writer, result *scanner.ScanResult, maxFiles int) {
	if maxFiles <= 0 {
		maxFiles = 5
	}

	for ci := range result.Categories {
		cat := &result.Categories[ci]
		if len(cat.Entries) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n╭─ %s %s (%s)\n",
			styles.GetCategoryIcon(classifier.Lookup(cat.ID).Kind),
			cat.Name,
			utils.FormatBytes(cat.TotalSize()))

		dirs := make(map[string][]scanner.Entry)
		for _, e := range cat.Entries {
			dir := filepath.Dir(e.Path)
			dirs[dir] = append(dirs[dir], e)
		}
		names := make([]string, 0, len(dirs))
		for dir := range dirs {
			names = append(names, dir)
		}
		sort.Strings(names)

		for di, dir := range names {
			files := dirs[dir]
			lastDir := di == len(names)-1

			var dirSize int64
			for _, f := range files {
				dirSize += f.Size
			}

			branch, indent := "├", "│   "
			if lastDir {
				branch, indent = "╰", "    "
			}
			fmt.Fprintf(w, "%s── 📁 %s (%s)\n", branch, dir, utils.FormatBytes(dirSize))

			shown := len(files)
			if shown > maxFiles {
				shown = maxFiles
			}
			for i := 0; i < shown; i++ {
				leaf := "├"
				if i == shown-1 && len(files) <= maxFiles {
					leaf = "╰"
				}
				fmt.Fprintf(w, "%s%s── %s (%s)\n", indent, leaf, files[i].Name, utils.FormatBytes(files[i].Size))
			}
			if len(files) > maxFiles {
				fmt.Fprintf(w, "%s╰── ... and %d more files\n", indent, len(files)-maxFiles)
			}
		}
	}

	fmt.Fprintf(w, "\n════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "Total: %s items | %s\n", utils.FormatCount(result.TotalCount), utils.FormatBytes(result.TotalSize))
}
