package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"voxpipe/internal/jobs"
	"voxpipe/internal/workflow"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete jobs and files older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("hours") {
				if hours <= 0 {
					return fmt.Errorf("--hours must be positive")
				}
				override := *cfg
				override.Retention.Hours = hours
				cfg = &override
			}
			return ctx.withStore(func(store *jobs.Store) error {
				report, err := workflow.NewRetentionSweeper(cfg, store, cliLogger(cfg)).SweepOnce(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d job(s), removed %d file(s) older than %dh\n",
					report.Deleted, report.FilesRemoved, cfg.Retention.Hours)
				if report.FileErrors > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%d file(s) could not be removed; see warnings above\n", report.FileErrors)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 0, "Override retention.hours for this sweep")
	return cmd
}
