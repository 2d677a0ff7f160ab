package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fpang/reel-studio/internal/catalog"
	"github.com/fpang/reel-studio/internal/reel"
)

var (
	styleFlag    string
	categoryFlag string
	waitFlag     bool
	intervalFlag time.Duration
)

var submitCmd = &cobra.Command{
	Use:   "submit IMAGE...",
	Short: "Submit an ordered list of images as a multi-shot video job",
	Long: `Submit the given images, in order, as one multi-shot video job. Image paths
are relative to the image library root (REEL_IMAGES_DIR); a leading
"<root>/" is stripped so shell completion paths work too.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		images := make([]string, len(args))
		for i, a := range args {
			images[i] = libraryRef(cfg.ImagesDir, a)
		}
		category := categoryFlag
		if category == "" {
			category = catalog.CategoryOf(images[0])
		}

		sessionID, err := app.Orchestrator.Submit(ctx, images, styleFlag, category)
		if err != nil {
			return fmt.Errorf("%s", reel.UserMessage(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Submitted %d images: %s\n", len(images), sessionID)

		if !waitFlag {
			return nil
		}
		return waitFor(cmd, app.Orchestrator, sessionID, intervalFlag)
	},
}

func init() {
	submitCmd.Flags().StringVarP(&styleFlag, "style", "s", "cinematic", "Visual style for the shot prompts")
	submitCmd.Flags().StringVarP(&categoryFlag, "category", "c", "", "Category label (default: directory of the first image)")
	submitCmd.Flags().BoolVarP(&waitFlag, "wait", "w", false, "Poll until the job finishes")
	submitCmd.Flags().DurationVar(&intervalFlag, "interval", 15*time.Second, "Polling interval with --wait")
}

// libraryRef converts a path on disk to a ref relative to the image root.
func libraryRef(root, p string) string {
	p = strings.TrimPrefix(strings.ReplaceAll(p, "\\", "/"), "./")
	root = strings.TrimSuffix(strings.TrimPrefix(strings.ReplaceAll(root, "\\", "/"), "./"), "/")
	if root != "" && root != "." {
		p = strings.TrimPrefix(p, root+"/")
	}
	return p
}
