package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fenilsonani/junk-sweeper/internal/classifier"
	"github.com/fenilsonani/junk-sweeper/internal/cleaner"
	"github.com/fenilsonani/junk-sweeper/internal/config"
	"github.com/fenilsonani/junk-sweeper/internal/logging"
	"github.com/fenilsonani/junk-sweeper/internal/mediaindex"
	"github.com/fenilsonani/junk-sweeper/internal/progress"
	"github.com/fenilsonani/junk-sweeper/internal/scanner"
	"github.com/fenilsonani/junk-sweeper/internal/ui"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var (
	configPath string
	verbose    bool
	logFile    string

	photos     bool
	outputFmt  string
	outputFile string
	dryRun     bool
	force      bool
	categories []string
	manifest   string
	fileType   string
	minSize    string
	window     string
	allFiles   bool
	maxFiles   int
	initConfig bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sweeper",
	Short: "Find and delete junk files and old photos",
	Long: `Sweeper scans device storage for app caches, logs, temp files, stale
installers and large files, groups indexed photos by capture date, and deletes
what you select with per-file error reporting.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write JSON logs to this file")

	// Scan command flags
	scanCmd.Flags().BoolVar(&photos, "photos", false, "scan the media index instead of storage")
	scanCmd.Flags().StringVar(&outputFmt, "output", "summary", "output format (summary, table, json, yaml)")
	scanCmd.Flags().StringVar(&outputFile, "file", "", "save report to file")

	// Clean command flags
	cleanCmd.Flags().BoolVar(&photos, "photos", false, "delete indexed photos instead of junk")
	cleanCmd.Flags().StringSliceVar(&categories, "category", nil, "clean only these categories (\"all\" for every category)")
	cleanCmd.Flags().StringVar(&fileType, "type", "", "only files of this type (Image, Video, Audio, Docs, Download, Zip)")
	cleanCmd.Flags().StringVar(&minSize, "size", "", "only files larger than this, e.g. >10MB")
	cleanCmd.Flags().StringVar(&window, "time", "", "only files modified within, e.g. \"Within 1 week\"")
	cleanCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be deleted without actually deleting")
	cleanCmd.Flags().BoolVar(&force, "force", false, "skip confirmation prompts")
	cleanCmd.Flags().StringVar(&manifest, "manifest", "", "write the deletion manifest to this file")
	cleanCmd.Flags().StringVar(&outputFmt, "output", "summary", "output format (summary, json, yaml)")

	// Files command flags
	filesCmd.Flags().StringVar(&fileType, "type", "", "only files of this type (Image, Video, Audio, Docs, Download, Zip)")
	filesCmd.Flags().StringVar(&minSize, "size", "", "only files larger than this, e.g. >10MB")
	filesCmd.Flags().StringVar(&window, "time", "", "only files modified within, e.g. \"Within 1 week\"")
	filesCmd.Flags().BoolVar(&allFiles, "all", false, "list every file, not only large ones")
	filesCmd.Flags().StringVar(&outputFmt, "output", "table", "output format (table, json, yaml)")

	// Photos command flags
	photosCmd.Flags().IntVar(&maxFiles, "max-files", 5, "files shown per directory")

	// Interactive command flags
	interactiveCmd.Flags().BoolVar(&photos, "photos", false, "browse indexed photos instead of junk")
	interactiveCmd.Flags().BoolVar(&dryRun, "dry-run", false, "simulate deletions")

	// Config command flags
	configCmd.Flags().BoolVar(&initConfig, "init", false, "write the default config file if missing")

	indexCmd.AddCommand(indexSyncCmd)

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(photosCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(storageCmd)
	rootCmd.AddCommand(interactiveCmd)
	rootCmd.AddCommand(configCmd)
}

// app holds what every command builds from the configuration
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	fs         afero.Fs
	classifier *classifier.Classifier
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}

	cfgPath, err := config.GetConfigPath()
	if err != nil {
		return nil, err
	}

	return config.Load(cfgPath)
}

// newApp loads the configuration and applies the global flags.
// interactive keeps the console free for the TUI.
func newApp(interactive bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if logFile != "" {
		cfg.Logging.File = logFile
	}
	var console io.Writer
	if verbose {
		cfg.Logging.Level = "debug"
		if !interactive {
			console = os.Stderr
		}
	}

	logger, err := logging.New(cfg.Logging, console)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	rules, err := cfg.ClassifierRules()
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		fs:         afero.NewOsFs(),
		classifier: classifier.New(rules),
	}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func (a *app) engine() *scanner.Engine {
	return scanner.New(a.classifier, a.logger)
}

func (a *app) dirSource() *scanner.DirSource {
	return &scanner.DirSource{
		Fs:      a.fs,
		Roots:   a.cfg.Scan.Roots,
		Exclude: a.cfg.Scan.ExcludePatterns,
		Logger:  a.logger,
	}
}

func (a *app) openIndex() (*mediaindex.Index, error) {
	idx, err := mediaindex.Open(a.cfg.Index.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open media index: %w", err)
	}
	return idx, nil
}

func (a *app) cleaner(dryRun bool) *cleaner.Cleaner {
	c := cleaner.New(a.fs, a.cfg.PathValidator(), a.logger)
	c.SetRetryDelays(a.cfg.Delete.RetryDelays)
	c.SetDryRun(dryRun)
	return c
}

// scanSetup picks the engine and source for a storage or photo scan. The
// index is nil for storage scans; the caller closes it otherwise.
func (a *app) scanSetup(media bool) (*scanner.Engine, scanner.Source, *mediaindex.Index, error) {
	if !media {
		return a.engine(), a.dirSource(), nil, nil
	}

	idx, err := a.openIndex()
	if err != nil {
		return nil, nil, nil, err
	}
	src := &scanner.IndexSource{Index: idx, Fs: a.fs, Logger: a.logger}
	return a.engine().WithGrouping(scanner.ByCaptureDate(time.Local)), src, idx, nil
}

// runScan runs a scan to the end with a live status line on stderr
func (a *app) runScan(ctx context.Context, engine *scanner.Engine, src scanner.Source) (*scanner.ScanResult, error) {
	live := ui.NewLiveProgress(os.Stderr)
	sink, finished := untilTerminal(live)

	task := engine.Scan(ctx, src, sink)
	live.TrackSize(func() int64 { return task.Snapshot().TotalSize })

	result, err := task.Wait()
	if errors.Is(err, context.Canceled) {
		return nil, errors.New("scan canceled")
	}
	<-finished
	if err != nil {
		return result, fmt.Errorf("scan failed: %w", err)
	}
	return result, nil
}

// untilTerminal forwards events to sink. The channel is closed once the
// terminal event has been forwarded; tasks close Done before publishing it.
func untilTerminal(sink progress.Sink) (progress.Sink, <-chan struct{}) {
	done := make(chan struct{})
	var once sync.Once
	return progress.SinkFunc(func(e progress.Event) {
		sink.Publish(e)
		if e.Terminal() {
			once.Do(func() { close(done) })
		}
	}), done
}
