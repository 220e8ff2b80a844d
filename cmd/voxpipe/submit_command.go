package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"voxpipe/internal/api"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var wait bool
	var interval time.Duration
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "submit <file>",
		Short: "Upload an audio file to the running daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", path)
			}

			baseURL, err := ctx.apiBaseURL()
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client := newAPIClient(baseURL, cfg.Paths.APIToken)

			job, err := client.Upload(cmd.Context(), path)
			if err != nil {
				if isAPIError(err, api.CodeQueueFull) {
					return fmt.Errorf("%w; retry once running jobs finish", err)
				}
				return err
			}
			out := cmd.OutOrStdout()
			if !wait {
				if jsonOutput {
					return writeJSON(cmd, job)
				}
				fmt.Fprintf(out, "Queued job %s (%s)\n", job.ID, job.OriginalFilename)
				return nil
			}

			last := -1
			job, err = client.WaitTerminal(cmd.Context(), job.ID, interval, func(j api.Job) {
				if jsonOutput || j.Progress == last {
					return
				}
				last = j.Progress
				fmt.Fprintf(out, "%s %3d%% %s\n", j.ID, j.Progress, j.Status)
			})
			if err != nil {
				return err
			}
			if job.Status == "error" {
				message := ""
				if job.ErrorMessage != nil {
					message = *job.ErrorMessage
				}
				if jsonOutput {
					_ = writeJSON(cmd, job)
				}
				return fmt.Errorf("job %s failed: %s", job.ID, message)
			}

			result, err := client.Result(cmd.Context(), job.ID)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, struct {
					Job    api.Job        `json:"job"`
					Result api.Transcript `json:"result"`
				}{job, result})
			}
			fmt.Fprintln(out, result.CleanedText)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for the job to finish and print the cleaned transcript")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Polling interval used with --wait")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}
