package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/fenilsonani/junk-sweeper/internal/mediaindex"
)

// DirSource walks directory roots on a filesystem. Progress is reported per
// top-level child of each root. A root that does not exist is skipped; a
// root that cannot be read fails the scan. Unreadable paths below a root
// are skipped.
type DirSource struct {
	Fs      afero.Fs
	Roots   []string
	Exclude []string // glob patterns matched against base name and full path
	Logger  *zap.Logger
}

// Enumerate implements Source
func (s *DirSource) Enumerate(ctx context.Context, em Emitter) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	units, err := s.collectUnits(logger)
	if err != nil {
		return err
	}

	total := len(units)
	for done, unit := range units {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := s.walkUnit(ctx, unit, em, logger); err != nil {
			return err
		}

		em.Progress((done+1)*100/total, unit)
	}

	return nil
}

// collectUnits lists the top-level children of every root
func (s *DirSource) collectUnits(logger *zap.Logger) ([]string, error) {
	var units []string

	for _, root := range s.Roots {
		root = filepath.Clean(root)

		info, err := s.Fs.Stat(root)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Debug("skipping missing scan root", zap.String("root", root))
				continue
			}
			return nil, &ScanFault{Root: root, Err: err}
		}

		if !info.IsDir() {
			units = append(units, root)
			continue
		}

		children, err := afero.ReadDir(s.Fs, root)
		if err != nil {
			return nil, &ScanFault{Root: root, Err: err}
		}
		for _, child := range children {
			units = append(units, filepath.Join(root, child.Name()))
		}
	}

	return units, nil
}

func (s *DirSource) walkUnit(ctx context.Context, unit string, em Emitter, logger *zap.Logger) error {
	return afero.Walk(s.Fs, unit, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Permission denied or other errors - skip and continue
			logger.Debug("skipping unreadable path", zap.String("path", path), zap.Error(err))
			return nil
		}

		if s.excluded(path, info.Name()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}

		em.Found(Entry{
			Path:    path,
			Name:    info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
}

func (s *DirSource) excluded(path, name string) bool {
	for _, pattern := range s.Exclude {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}
	}
	return false
}

// ImageLister is the query side of the media index
type ImageLister interface {
	Images(ctx context.Context) ([]mediaindex.Record, error)
}

// IndexSource lists images from the media index, skipping records whose
// file no longer exists. Entries carry the capture date as ModTime and the
// record ID as IndexID.
type IndexSource struct {
	Index  ImageLister
	Fs     afero.Fs
	Logger *zap.Logger
}

// Enumerate implements Source
func (s *IndexSource) Enumerate(ctx context.Context, em Emitter) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	records, err := s.Index.Images(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ScanFault{Root: "media index", Err: fmt.Errorf("query failed: %w", err)}
	}

	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := s.Fs.Stat(r.Path); err != nil {
			logger.Debug("skipping stale index record", zap.String("path", r.Path), zap.Error(err))
		} else {
			em.Found(Entry{
				Path:    r.Path,
				Name:    r.Name,
				Size:    r.Size,
				ModTime: r.DateTaken,
				IndexID: r.ID,
			})
		}

		em.Progress((i+1)*100/len(records), r.Path)
	}

	return nil
}
