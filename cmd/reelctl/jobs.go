package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/reel-studio/internal/cli"
	"github.com/fpang/reel-studio/internal/store"
)

var refreshFlag bool

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List generation jobs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if refreshFlag {
			for _, rec := range app.Orchestrator.Jobs() {
				if rec.State.IsTerminal() {
					continue
				}
				if _, err := app.Orchestrator.Poll(ctx, rec.SessionID); err != nil {
					log.Warn().Err(err).Str("sessionId", rec.SessionID).Msg("Refresh failed")
				}
			}
		}

		records := app.Orchestrator.Jobs()
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No jobs yet.")
			return nil
		}
		printJobs(cmd, records, time.Now())
		return nil
	},
}

func init() {
	jobsCmd.Flags().BoolVarP(&refreshFlag, "refresh", "r", false, "Poll every unfinished job before listing")
}

func printJobs(cmd *cobra.Command, records []store.JobRecord, now time.Time) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tSTATE\tCREATED\tSHOTS\tSTYLE\tRESULT")
	for _, rec := range records {
		result := rec.ArtifactPath
		if rec.State == store.StateFailed {
			result = rec.ErrorMessage
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			rec.SessionID, cli.StateLabel(rec.State), cli.FormatAge(rec.CreatedAt, now),
			rec.ShotsCount, rec.Style, result)
	}
	tw.Flush()
}
