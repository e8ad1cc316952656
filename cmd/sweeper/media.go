package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/junk-sweeper/internal/classifier"
	"github.com/fenilsonani/junk-sweeper/internal/ui"
	"github.com/fenilsonani/junk-sweeper/pkg/utils"
)

var photosCmd = &cobra.Command{
	Use:   "photos",
	Short: "List indexed photos by capture date",
	Long: `Lists the images in the media index as a tree grouped by capture date,
newest first. Records whose file has gone are skipped. Run 'sweeper index sync'
first to refresh the index.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		engine, src, idx, err := a.scanSetup(true)
		if err != nil {
			return err
		}
		defer idx.Close()

		result, err := a.runScan(cmd.Context(), engine, src)
		if err != nil {
			return err
		}
		if result.TotalCount == 0 {
			fmt.Println("\n📸 No photos in the index. Run 'sweeper index sync' to build it.")
			return nil
		}

		ui.PrintTree(os.Stdout, result, maxFiles)
		return nil
	},
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the media index",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		idx, err := a.openIndex()
		if err != nil {
			return err
		}
		defer idx.Close()

		n, err := idx.Count(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to count index records: %w", err)
		}
		fmt.Printf("Index: %s\n", a.cfg.Index.Path)
		fmt.Printf("📸 %s images indexed\n", utils.FormatCount(n))
		return nil
	},
}

var indexSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the media index from the media roots",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		idx, err := a.openIndex()
		if err != nil {
			return err
		}
		defer idx.Close()

		fmt.Fprintln(os.Stderr, "🔍 Indexing media...")
		stats, err := idx.Sync(cmd.Context(), a.fs, a.cfg.Scan.MediaRoots, classifier.IsImage, a.logger)
		if err != nil {
			return fmt.Errorf("index sync failed: %w", err)
		}

		fmt.Printf("✅ Indexed %s images, pruned %s stale records\n",
			utils.FormatCount(stats.Indexed), utils.FormatCount(stats.Pruned))
		return nil
	},
}
