// Command reelctl runs the reel-studio API server and drives multi-shot
// video generation jobs from the command line.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/reel-studio/internal/config"
	"github.com/fpang/reel-studio/internal/lambdaboot"
	"github.com/fpang/reel-studio/internal/logging"
)

// Global flags
var (
	logLevelFlag  string
	imagesDirFlag string
	outputDirFlag string
)

var (
	cfg       config.Config
	logCloser io.Closer
)

// rootCmd is the main Cobra command for reelctl.
var rootCmd = &cobra.Command{
	Use:   "reelctl",
	Short: "Multi-shot video generation from ordered image selections",
	Long: `reelctl turns an ordered selection of up to 8 images into a multi-shot video
using Amazon Nova Reel. Each image becomes one shot with its own camera prompt;
jobs are tracked in a durable job table and reconciled on every poll.

Configuration comes from the environment (and a .env file if present).

Examples:
  reelctl serve
  reelctl submit --style cinematic images/nature/a.jpg images/nature/b.jpg
  reelctl poll session_1a2b3c4d --wait
  reelctl jobs --refresh
  reelctl prep images/nature
  reelctl cleanup --max-age 48h`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if logLevelFlag != "" {
			cfg.LogLevel = logLevelFlag
		}
		if imagesDirFlag != "" {
			cfg.ImagesDir = imagesDirFlag
		}
		if outputDirFlag != "" {
			cfg.OutputDir = outputDirFlag
			if os.Getenv("REEL_JOBS_FILE") == "" {
				cfg.Store.JobsFile = ""
			}
		}
		cfg.Sanitize()
		logCloser = logging.Init(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error (overrides REEL_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&imagesDirFlag, "images", "", "Image library root (overrides REEL_IMAGES_DIR)")
	rootCmd.PersistentFlags().StringVar(&outputDirFlag, "output", "", "Directory for generated videos (overrides REEL_OUTPUT_DIR)")

	rootCmd.AddCommand(serveCmd, submitCmd, pollCmd, jobsCmd, prepCmd, stylesCmd, cleanupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildApp wires the orchestrator and its collaborators from cfg.
func buildApp(ctx context.Context) (*lambdaboot.App, error) {
	app, err := lambdaboot.Build(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	log.Debug().Str("store", cfg.Store.Backend).Msg("Application wired")
	return app, nil
}
