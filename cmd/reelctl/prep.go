package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fpang/reel-studio/internal/cli"
	"github.com/fpang/reel-studio/internal/imageprep"
)

var (
	prepDryRunFlag  bool
	prepWorkersFlag int
	prepBackupFlag  string
)

var prepCmd = &cobra.Command{
	Use:   "prep [DIR]",
	Short: "Resize and centre-crop images to 1280x720 in place",
	Long: `Prepare a folder of images for generation. Every image is scaled to cover
1280x720 and centre-cropped; non-JPEG/PNG formats (webp, bmp, tiff, gif)
are converted to .jpg. Originals are moved into the backup directory
(default <DIR>/bak). Images already at 1280x720 are left alone.

Without DIR, you are prompted (default: the image library root).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.ImagesDir
		if len(args) == 1 {
			dir = args[0]
		} else {
			dir = cli.PromptForDirectory(os.Stdin, cmd.OutOrStdout(), dir)
		}
		dir, err := cli.ResolveDirectory(dir)
		if err != nil {
			return err
		}

		res, err := imageprep.PrepDir(cmd.Context(), dir, imageprep.PrepOptions{
			BackupDir: prepBackupFlag,
			Workers:   prepWorkersFlag,
			DryRun:    prepDryRunFlag,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		verb := "Resized"
		if prepDryRunFlag {
			verb = "Would resize"
		}
		for _, f := range res.Resized {
			fmt.Fprintf(out, "%s %s\n", verb, f)
		}
		for _, f := range res.Converted {
			fmt.Fprintf(out, "Converted %s\n", f)
		}
		failed := make([]string, 0, len(res.Failed))
		for f := range res.Failed {
			failed = append(failed, f)
		}
		sort.Strings(failed)
		for _, f := range failed {
			fmt.Fprintf(out, "Failed %s: %v\n", f, res.Failed[f])
		}
		fmt.Fprintf(out, "\n%d changed, %d already 1280x720, %d failed\n", res.Changed(), len(res.Skipped), len(res.Failed))
		if len(res.Failed) > 0 {
			return fmt.Errorf("%d images could not be prepared", len(res.Failed))
		}
		return nil
	},
}

func init() {
	prepCmd.Flags().BoolVar(&prepDryRunFlag, "dry-run", false, "Report changes without modifying files")
	prepCmd.Flags().IntVar(&prepWorkersFlag, "workers", 0, "Parallel workers (0 = number of CPUs)")
	prepCmd.Flags().StringVar(&prepBackupFlag, "backup-dir", imageprep.DefaultBackupDir, "Where originals are moved (relative to DIR)")
}
