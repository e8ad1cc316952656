package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/junk-sweeper/internal/classifier"
	"github.com/fenilsonani/junk-sweeper/internal/cleaner"
	"github.com/fenilsonani/junk-sweeper/internal/config"
	"github.com/fenilsonani/junk-sweeper/internal/filter"
	"github.com/fenilsonani/junk-sweeper/internal/platform"
	"github.com/fenilsonani/junk-sweeper/internal/progress"
	"github.com/fenilsonani/junk-sweeper/internal/reporter"
	"github.com/fenilsonani/junk-sweeper/internal/scanner"
	"github.com/fenilsonani/junk-sweeper/internal/session"
	"github.com/fenilsonani/junk-sweeper/internal/ui"
	"github.com/fenilsonani/junk-sweeper/internal/ui/models"
	"github.com/fenilsonani/junk-sweeper/pkg/utils"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan storage for junk files",
	Long: `Scans the configured storage roots and reports app caches, logs, temp
files, stale installers and large files. With --photos the media index is
listed instead, grouped by capture date.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := reporter.ParseFormat(outputFmt)
		if err != nil {
			return err
		}

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		engine, src, idx, err := a.scanSetup(photos)
		if err != nil {
			return err
		}
		if idx != nil {
			defer idx.Close()
		}

		fmt.Fprintln(os.Stderr, "🔍 Scanning...")
		result, err := a.runScan(cmd.Context(), engine, src)
		if err != nil {
			return err
		}

		if outputFile != "" {
			if err := reporter.SaveToFile(result, outputFile, format); err != nil {
				return fmt.Errorf("failed to save report: %w", err)
			}
			fmt.Printf("Report saved to: %s\n", outputFile)
			return nil
		}

		return reporter.New(os.Stdout, format).Report(result)
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete junk files",
	Long: `Scans, narrows the result by category and filter, then deletes what is
left after confirmation. Only junk categories are cleaned unless --category
names others; --category all takes everything the scan found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := filter.Parse(fileType, minSize, window)
		if err != nil {
			return err
		}
		format, err := reporter.ParseFormat(outputFmt)
		if err != nil {
			return err
		}

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		engine, src, idx, err := a.scanSetup(photos)
		if err != nil {
			return err
		}
		if idx != nil {
			defer idx.Close()
		}

		fmt.Fprintln(os.Stderr, "🔍 Scanning...")
		result, err := a.runScan(cmd.Context(), engine, src)
		if err != nil {
			return err
		}

		entries, err := pickEntries(result, categories)
		if err != nil {
			return err
		}
		entries = filter.ApplyFlat(entries, f, time.Now())

		if len(entries) == 0 {
			fmt.Println("\n✨ Nothing to clean. Your storage is already tidy!")
			return nil
		}

		printPlan(entries)

		simulate := dryRun || a.cfg.Delete.DryRun
		if simulate {
			fmt.Println("\n[DRY RUN MODE] No files will be deleted.")
			printPermissions(cleaner.AnalyzePermissions(a.fs, entryPaths(entries)))
		} else if !force {
			fmt.Print("\nProceed with cleanup? (y/N): ")
			var response string
			fmt.Scanln(&response)
			if response != "y" && response != "Y" {
				fmt.Println("Cleanup cancelled")
				return nil
			}
		}

		clnr := a.cleaner(simulate)
		if idx != nil {
			clnr.SetIndex(idx)
		}

		bar := newBarSink(len(entries))
		sink, finished := untilTerminal(bar)
		task := clnr.Delete(cmd.Context(), entries, sink)

		delResult, err := task.Wait()
		if errors.Is(err, context.Canceled) {
			bar.stop()
			fmt.Printf("\nCleanup interrupted after %d files\n", delResult.SuccessCount+delResult.FailedCount)
			return err
		}
		<-finished
		if err != nil {
			return fmt.Errorf("clean failed: %w", err)
		}

		fmt.Printf("\n📊 Cleanup Complete!\n")
		if err := reporter.New(os.Stdout, format).ReportDelete(delResult); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}

		if path := manifestPath(a.cfg, delResult.ID); path != "" && clnr.GetManifest().Len() > 0 {
			if err := clnr.SaveManifest(path); err != nil {
				a.logger.Warn("failed to save manifest", zap.String("path", path), zap.Error(err))
			} else {
				fmt.Printf("Manifest saved to: %s\n", path)
			}
		}

		if delResult.FailedCount > 0 {
			return errors.New(delResult.Summary())
		}
		return nil
	},
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List large files",
	Long: `Lists files above the large-file threshold, biggest first. The type,
size and time filters narrow the list further; --all drops the threshold.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := filter.Parse(fileType, minSize, window)
		if err != nil {
			return err
		}
		format, err := reporter.ParseFormat(outputFmt)
		if err != nil {
			return err
		}

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		fmt.Fprintln(os.Stderr, "🔍 Scanning...")
		result, err := a.runScan(cmd.Context(), a.engine(), a.dirSource())
		if err != nil {
			return err
		}

		var entries []scanner.Entry
		for _, e := range result.Entries() {
			if allFiles || a.classifier.IsLarge(e.Size) {
				entries = append(entries, e)
			}
		}

		return reporter.New(os.Stdout, format).ReportFiles(filter.ApplyFlat(entries, f, time.Now()))
	},
}

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Show capacity of the scanned volumes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		seen := make(map[string]bool)
		for _, root := range append(append([]string{}, a.cfg.Scan.Roots...), a.cfg.Scan.MediaRoots...) {
			info, err := platform.Usage(root)
			if err != nil {
				fmt.Printf("⚠️  %s: %v\n", root, err)
				continue
			}
			if seen[info.Path] {
				continue
			}
			seen[info.Path] = true

			fmt.Printf("💾 %s\n", info.Path)
			fmt.Printf("   Used: %s of %s (%.1f%%)\n",
				utils.FormatBytes(int64(info.Used)),
				utils.FormatBytes(int64(info.Total)),
				info.UsedPercent)
			fmt.Printf("   Free: %s\n", utils.FormatBytes(int64(info.Free)))
		}
		return nil
	},
}

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Browse and clean in a terminal UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.close()

		engine, src, idx, err := a.scanSetup(photos)
		if err != nil {
			return err
		}
		if idx != nil {
			defer idx.Close()
		}

		simulate := dryRun || a.cfg.Delete.DryRun
		clnr := a.cleaner(simulate)
		title := "Junk Files"
		if idx != nil {
			clnr.SetIndex(idx)
			title = "Photos"
		}

		sess := session.New(session.Options{
			Engine:             engine,
			Source:             src,
			Cleaner:            clnr,
			Logger:             a.logger,
			SelectAllAfterScan: a.cfg.Session.SelectAllAfterScan && !photos,
		})

		opts := models.Options{Title: title, DryRun: simulate}
		if roots := a.cfg.Scan.Roots; len(roots) > 0 {
			if info, err := platform.Usage(roots[0]); err == nil {
				opts.Storage = info
			} else {
				a.logger.Debug("storage usage unavailable", zap.Error(err))
			}
		}

		return ui.RunInteractive(sess, opts)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display current configuration",
	Long:  `Shows the configuration in effect after defaults, the config file and SWEEPER_* environment overrides.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if initConfig {
			cfgPath, err := config.EnsureConfigExists()
			if err != nil {
				return err
			}
			fmt.Printf("Config file: %s\n", cfgPath)
			return nil
		}

		cfgPath := configPath
		if cfgPath == "" {
			var err error
			if cfgPath, err = config.GetConfigPath(); err != nil {
				return err
			}
		}
		fmt.Printf("Config file: %s\n", cfgPath)
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			fmt.Println("Config file does not exist. Using default configuration.")
			fmt.Println("Run 'sweeper config --init' to create it.")
		}

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		fmt.Printf("\n%s", data)
		return nil
	},
}

// pickEntries flattens the categories named by ids. No ids means every
// junk category; "all" means every category.
func pickEntries(result *scanner.ScanResult, ids []string) ([]scanner.Entry, error) {
	if len(ids) == 0 {
		var entries []scanner.Entry
		for _, cat := range result.Categories {
			if cat.Kind == classifier.KindJunk {
				entries = append(entries, cat.Entries...)
			}
		}
		return entries, nil
	}

	var entries []scanner.Entry
	for _, id := range ids {
		if strings.EqualFold(id, "all") {
			return result.Entries(), nil
		}
		cid := classifier.CategoryID(id)
		if classifier.Lookup(cid).Kind == classifier.KindOther && cid != classifier.Other {
			return nil, fmt.Errorf("unknown category: %s", id)
		}
		if cat := result.Category(cid); cat != nil {
			entries = append(entries, cat.Entries...)
		}
	}
	return entries, nil
}

func printPlan(entries []scanner.Entry) {
	counts := make(map[classifier.CategoryID]int)
	sizes := make(map[classifier.CategoryID]int64)
	var ids []classifier.CategoryID
	var total int64
	for _, e := range entries {
		if _, ok := counts[e.Category]; !ok {
			ids = append(ids, e.Category)
		}
		counts[e.Category]++
		sizes[e.Category] += e.Size
		total += e.Size
	}
	classifier.SortIDs(ids)

	fmt.Println("\n📋 Files to delete:")
	for _, id := range ids {
		fmt.Printf("   %-22s %8s files  %10s\n",
			classifier.Lookup(id).Name, utils.FormatCount(counts[id]), utils.FormatBytes(sizes[id]))
	}
	fmt.Printf("   Total: %s files (%s)\n", utils.FormatCount(len(entries)), utils.FormatBytes(total))
}

func printPermissions(report *cleaner.PermissionReport) {
	if len(report.ReadOnly) == 0 && len(report.Inaccessible) == 0 {
		return
	}
	fmt.Printf("\n📋 Permission Analysis:\n")
	fmt.Printf("   ✅ Writable: %d files\n", len(report.Writable))
	fmt.Printf("   🔐 Read-only directory: %d files\n", len(report.ReadOnly))
	if len(report.Inaccessible) > 0 {
		fmt.Printf("   ⚠️  Inaccessible: %d files\n", len(report.Inaccessible))
	}
}

func entryPaths(entries []scanner.Entry) []string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths
}

// manifestPath is the --manifest flag, else a file named after the delete
// in the configured manifest directory. Empty disables the manifest.
func manifestPath(cfg *config.Config, deleteID string) string {
	if manifest != "" {
		return manifest
	}
	if cfg.Delete.ManifestDir == "" {
		return ""
	}
	return filepath.Join(cfg.Delete.ManifestDir, "delete-"+deleteID+".yaml")
}

// barSink draws delete progress as a pb bar, one tick per entry
type barSink struct {
	bar      *pb.ProgressBar
	mu       sync.Mutex
	started  bool
	finished bool
}

func newBarSink(total int) *barSink {
	bar := pb.New(total)
	bar.SetWriter(os.Stderr)
	bar.SetTemplateString(`{{counters . }} {{bar . }} {{percent . }} {{etime . }}`)
	return &barSink{bar: bar}
}

// Publish implements progress.Sink
func (s *barSink) Publish(e progress.Event) {
	switch e.Kind {
	case progress.KindStarted:
		s.mu.Lock()
		s.started = true
		s.mu.Unlock()
		s.bar.Start()
	case progress.KindProgress:
		s.bar.Increment()
	case progress.KindCompleted, progress.KindError:
		s.stop()
	}
}

func (s *barSink) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started && !s.finished {
		s.finished = true
		s.bar.Finish()
	}
}
