package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/junk-sweeper/internal/classifier"
	"github.com/fenilsonani/junk-sweeper/internal/platform"
	"github.com/fenilsonani/junk-sweeper/internal/security"
	"github.com/fenilsonani/junk-sweeper/pkg/utils"
)

// EnvPrefix prefixes environment overrides, e.g. SWEEPER_DELETE_DRY_RUN
const EnvPrefix = "SWEEPER"

// Config represents the application configuration
type Config struct {
	Scan           ScanConfig       `yaml:"scan" mapstructure:"scan"`
	Index          IndexConfig      `yaml:"index" mapstructure:"index"`
	Classifier     ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Delete         DeleteConfig     `yaml:"delete" mapstructure:"delete"`
	Session        SessionConfig    `yaml:"session" mapstructure:"session"`
	Logging        LoggingConfig    `yaml:"logging" mapstructure:"logging"`
	ProtectedPaths []string         `yaml:"protected_paths" mapstructure:"protected_paths"`
}

// ScanConfig defines where scans look
type ScanConfig struct {
	Roots           []string `yaml:"roots" mapstructure:"roots"`
	MediaRoots      []string `yaml:"media_roots" mapstructure:"media_roots"`
	ExcludePatterns []string `yaml:"exclude_patterns" mapstructure:"exclude_patterns"`
}

// IndexConfig locates the media index database
type IndexConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ClassifierConfig overrides the classification rules. Empty lists keep
// the built-in defaults.
type ClassifierConfig struct {
	CacheDirNames      []string `yaml:"cache_dir_names" mapstructure:"cache_dir_names"`
	LogExtensions      []string `yaml:"log_extensions" mapstructure:"log_extensions"`
	TempExtensions     []string `yaml:"temp_extensions" mapstructure:"temp_extensions"`
	TempPrefixes       []string `yaml:"temp_prefixes" mapstructure:"temp_prefixes"`
	InstalledAppDirs   []string `yaml:"installed_app_dirs" mapstructure:"installed_app_dirs"`
	LargeFileThreshold string   `yaml:"large_file_threshold" mapstructure:"large_file_threshold"` // e.g., "10MB"
}

// DeleteConfig tunes the delete engine
type DeleteConfig struct {
	DryRun      bool            `yaml:"dry_run" mapstructure:"dry_run"`
	RetryDelays []time.Duration `yaml:"retry_delays" mapstructure:"retry_delays"`
	ManifestDir string          `yaml:"manifest_dir" mapstructure:"manifest_dir"` // empty disables manifests
}

// SessionConfig tunes screen behaviour
type SessionConfig struct {
	SelectAllAfterScan bool `yaml:"select_all_after_scan" mapstructure:"select_all_after_scan"`
}

// LoggingConfig configures the zap logger and its rotating file
type LoggingConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	File       string `yaml:"file" mapstructure:"file"` // empty logs to stderr only
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// Load reads configuration in three layers: built-in defaults, the YAML
// file at configPath if it exists, then SWEEPER_* environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	defaults, err := yaml.Marshal(GetDefault())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal defaults: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	for _, root := range append(append([]string{}, c.Scan.Roots...), c.Scan.MediaRoots...) {
		if !filepath.IsAbs(root) {
			return fmt.Errorf("scan root must be absolute: %s", root)
		}
	}

	// Validate exclude patterns (glob syntax)
	for _, pattern := range c.Scan.ExcludePatterns {
		if err := security.ValidateGlobPattern(pattern); err != nil {
			return fmt.Errorf("invalid exclude pattern '%s': %w", pattern, err)
		}
	}

	// Validate protected paths are absolute
	for _, path := range c.ProtectedPaths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("protected path must be absolute: %s", path)
		}
	}

	if c.Index.Path == "" {
		return fmt.Errorf("index path must be set")
	}

	if _, err := c.LargeFileThreshold(); err != nil {
		return err
	}

	for _, d := range c.Delete.RetryDelays {
		if d < 0 {
			return fmt.Errorf("retry delay must be >= 0: %s", d)
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.Logging.Level)
	}

	return nil
}

// LargeFileThreshold parses the classifier's large-file threshold
func (c *Config) LargeFileThreshold() (int64, error) {
	if c.Classifier.LargeFileThreshold == "" {
		return classifier.DefaultLargeFileThreshold, nil
	}
	n, err := utils.ParseSize(c.Classifier.LargeFileThreshold)
	if err != nil {
		return 0, fmt.Errorf("invalid large file threshold: %w", err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("large file threshold must be > 0")
	}
	return n, nil
}

// ClassifierRules converts the classifier section into rules
func (c *Config) ClassifierRules() (classifier.Rules, error) {
	threshold, err := c.LargeFileThreshold()
	if err != nil {
		return classifier.Rules{}, err
	}

	return classifier.Rules{
		CacheDirNames:      c.Classifier.CacheDirNames,
		LogExtensions:      c.Classifier.LogExtensions,
		TempExtensions:     c.Classifier.TempExtensions,
		TempPrefixes:       c.Classifier.TempPrefixes,
		InstalledAppDirs:   c.Classifier.InstalledAppDirs,
		LargeFileThreshold: threshold,
	}, nil
}

// PathValidator builds the deletion guard: system paths plus the
// configured protected paths, confined to the scan and media roots
func (c *Config) PathValidator() *security.PathValidator {
	pv := security.NewPathValidator()
	for _, p := range c.ProtectedPaths {
		pv.AddProtectedPath(p)
	}
	for _, root := range c.Scan.Roots {
		pv.AllowRoot(root)
	}
	for _, root := range c.Scan.MediaRoots {
		pv.AllowRoot(root)
	}
	return pv
}

// configDir returns the directory holding sweeper's files
func configDir() (string, error) {
	base, err := platform.GetUserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "junk-sweeper"), nil
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	// Check if config exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Create default config
		defaultConfig := GetDefault()
		if err := Save(defaultConfig, configPath); err != nil {
			return "", err
		}
	}

	return configPath, nil
}
