package mediaindex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// SyncStats summarises a catalog refresh
type SyncStats struct {
	Indexed int
	Pruned  int
}

// Sync walks roots on fs, upserts every file accepted by match and prunes
// records whose file no longer exists. Capture date is the file's
// modification time. Missing roots are skipped.
func (i *Index) Sync(ctx context.Context, fs afero.Fs, roots []string, match func(name string) bool, logger *zap.Logger) (SyncStats, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var stats SyncStats

	for _, root := range roots {
		if _, err := fs.Stat(root); err != nil {
			if os.IsNotExist(err) {
				logger.Debug("skipping missing media root", zap.String("root", root))
				continue
			}
			return stats, fmt.Errorf("failed to stat media root %s: %w", root, err)
		}

		err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				logger.Debug("skipping unreadable path", zap.String("path", path), zap.Error(err))
				return nil
			}
			if info.IsDir() || !info.Mode().IsRegular() || !match(info.Name()) {
				return nil
			}

			if _, err := i.Upsert(ctx, Record{
				Name:      info.Name(),
				Path:      filepath.Clean(path),
				Size:      info.Size(),
				DateTaken: info.ModTime(),
			}); err != nil {
				return err
			}
			stats.Indexed++
			return nil
		})
		if err != nil {
			return stats, fmt.Errorf("failed to index %s: %w", root, err)
		}
	}

	records, err := i.Images(ctx)
	if err != nil {
		return stats, err
	}
	for _, r := range records {
		if _, err := fs.Stat(r.Path); err == nil || !os.IsNotExist(err) {
			continue
		}
		if err := i.Remove(ctx, r.ID); err != nil {
			return stats, err
		}
		stats.Pruned++
	}

	logger.Info("media index synced",
		zap.Int("indexed", stats.Indexed),
		zap.Int("pruned", stats.Pruned))

	return stats, nil
}
