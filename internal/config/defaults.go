package config

import (
	"path/filepath"
	"time"

	"github.com/fenilsonani/junk-sweeper/internal/platform"
)

// GetDefault returns the default configuration
func GetDefault() *Config {
	cfg := &Config{
		Scan: ScanConfig{
			Roots:      []string{},
			MediaRoots: []string{},
			ExcludePatterns: []string{
				"*.keep",
				".nomedia",
				".git",
			},
		},
		Classifier: ClassifierConfig{
			LargeFileThreshold: "10MB",
		},
		Delete: DeleteConfig{
			DryRun: false, // Production default - actually delete files
			RetryDelays: []time.Duration{
				100 * time.Millisecond,
				500 * time.Millisecond,
				2 * time.Second,
			},
		},
		Session: SessionConfig{
			SelectAllAfterScan: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
		ProtectedPaths: []string{},
	}

	if info, err := platform.GetInfo(); err == nil {
		cfg.Scan.Roots = info.StorageRoots
		cfg.Scan.MediaRoots = info.MediaRoots
		cfg.Classifier.InstalledAppDirs = info.InstalledAppDirs
		cfg.ProtectedPaths = info.ProtectedPaths
	}

	if dir, err := configDir(); err == nil {
		cfg.Index.Path = filepath.Join(dir, "media.db")
		cfg.Delete.ManifestDir = filepath.Join(dir, "manifests")
	} else {
		cfg.Index.Path = "media.db"
	}

	return cfg
}
