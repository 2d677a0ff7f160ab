package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/reel-studio/internal/cli"
)

var (
	maxAgeFlag        time.Duration
	cleanupYesFlag    bool
	cleanupDryRunFlag bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete generated videos older than --max-age",
	Long: `Delete .mp4 files in the output directory whose modification time is older
than --max-age. Job records are kept; their artifact paths will point at
deleted files.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stale, err := staleVideos(cfg.OutputDir, maxAgeFlag, time.Now())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(stale) == 0 {
			fmt.Fprintf(out, "No videos older than %s in %s\n", maxAgeFlag, cfg.OutputDir)
			return nil
		}
		for _, p := range stale {
			fmt.Fprintln(out, p)
		}
		if cleanupDryRunFlag {
			fmt.Fprintf(out, "%d videos would be deleted\n", len(stale))
			return nil
		}
		if !cleanupYesFlag && !cli.Confirm(os.Stdin, out, fmt.Sprintf("Delete %d videos?", len(stale))) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}

		deleted := removeAll(stale)
		fmt.Fprintf(out, "Deleted %d of %d videos\n", deleted, len(stale))
		if deleted < len(stale) {
			return fmt.Errorf("%d videos could not be deleted", len(stale)-deleted)
		}
		return nil
	},
}

func init() {
	cleanupCmd.Flags().DurationVar(&maxAgeFlag, "max-age", 24*time.Hour, "Delete videos older than this")
	cleanupCmd.Flags().BoolVarP(&cleanupYesFlag, "yes", "y", false, "Do not ask for confirmation")
	cleanupCmd.Flags().BoolVar(&cleanupDryRunFlag, "dry-run", false, "List videos without deleting them")
}

// staleVideos returns the .mp4 files directly inside dir modified before
// now-maxAge, sorted by path. A missing dir has no stale videos.
func staleVideos(dir string, maxAge time.Duration, now time.Time) ([]string, error) {
	if maxAge <= 0 {
		return nil, fmt.Errorf("--max-age must be positive, got %s", maxAge)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read output directory: %w", err)
	}

	cutoff := now.Add(-maxAge)
	var stale []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".mp4") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			log.Warn().Err(err).Str("file", e.Name()).Msg("Failed to stat video, skipping")
			continue
		}
		if info.ModTime().Before(cutoff) {
			stale = append(stale, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(stale)
	return stale, nil
}

func removeAll(paths []string) int {
	var n int
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			log.Warn().Err(err).Str("file", p).Msg("Failed to delete video")
			continue
		}
		log.Debug().Str("file", p).Msg("Deleted video")
		n++
	}
	return n
}
