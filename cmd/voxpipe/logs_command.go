package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"voxpipe/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var jobID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the daemon log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := logs.Resolve(cfg.Paths.LogDir)
			if err != nil {
				return err
			}

			match := func(string) bool { return true }
			if id := strings.TrimSpace(jobID); id != "" {
				needle := "job_id=" + id
				jsonNeedle := `"job_id":"` + id + `"`
				match = func(line string) bool {
					return strings.Contains(line, needle) || strings.Contains(line, jsonNeedle)
				}
			}

			var recent []string
			var offset int64
			if jobID != "" {
				// Filtering scans the whole file so the last N matches are shown.
				recent, offset, err = logs.ReadFrom(path, 0)
			} else {
				recent, offset, err = logs.Tail(path, lines)
			}
			if err != nil {
				return err
			}
			var selected []string
			for _, line := range recent {
				if match(line) {
					selected = append(selected, line)
				}
			}
			if lines >= 0 && len(selected) > lines {
				selected = selected[len(selected)-lines:]
			}
			out := cmd.OutOrStdout()
			for _, line := range selected {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), cfg.Paths.LogDir, path, offset, 250*time.Millisecond, func(line string) {
				if match(line) {
					fmt.Fprintln(out, line)
				}
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to print")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&jobID, "job", "", "Only show lines for this job ID")
	return cmd
}
