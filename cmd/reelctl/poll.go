package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/reel-studio/internal/cli"
	"github.com/fpang/reel-studio/internal/reel"
)

var (
	pollWaitFlag     bool
	pollIntervalFlag time.Duration
)

var pollCmd = &cobra.Command{
	Use:   "poll SESSION_ID",
	Short: "Reconcile and print the status of a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if pollWaitFlag {
			return waitFor(cmd, app.Orchestrator, args[0], pollIntervalFlag)
		}
		st, err := app.Orchestrator.Poll(ctx, args[0])
		if err != nil {
			return fmt.Errorf("%s", reel.UserMessage(err))
		}
		printStatus(cmd, st)
		return nil
	},
}

func init() {
	pollCmd.Flags().BoolVarP(&pollWaitFlag, "wait", "w", false, "Keep polling until the job finishes")
	pollCmd.Flags().DurationVar(&pollIntervalFlag, "interval", 15*time.Second, "Polling interval with --wait")
}

func printStatus(cmd *cobra.Command, st reel.Status) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s\n", st.SessionID, cli.StateLabel(st.State), st.Message)
}

type poller interface {
	Poll(ctx context.Context, sessionID string) (reel.Status, error)
}

// waitFor polls at a fixed interval until the job is terminal. Transient
// errors are reported and retried; anything else stops the loop.
func waitFor(cmd *cobra.Command, p poller, sessionID string, interval time.Duration) error {
	ctx := cmd.Context()
	if interval <= 0 {
		interval = 15 * time.Second
	}
	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st, err := p.Poll(ctx, sessionID)
		switch {
		case err == nil:
			printStatus(cmd, st)
			if st.Done() {
				log.Info().Str("sessionId", sessionID).Str("state", string(st.State)).
					Str("elapsed", cli.FormatDurationShort(time.Since(start))).Msg("Job finished")
				return nil
			}
		case isTransient(err):
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s (retrying)\n", sessionID, reel.UserMessage(err))
		default:
			return fmt.Errorf("%s", reel.UserMessage(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func isTransient(err error) bool {
	var re *reel.Error
	return errors.As(err, &re) && re.Transient()
}
