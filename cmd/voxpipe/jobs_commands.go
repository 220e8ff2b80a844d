package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"voxpipe/internal/api"
	"voxpipe/internal/jobs"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect transcription jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsStatsCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := jobs.Filter{Order: jobs.OrderNewest, Limit: limit}
			for _, value := range statuses {
				status, ok := jobs.ParseStatus(value)
				if !ok {
					return fmt.Errorf("unknown status %q (want queued, processing, done, or error)", value)
				}
				filter.Statuses = append(filter.Statuses, status)
			}

			return ctx.withStore(func(store *jobs.Store) error {
				list, err := store.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, api.FromJobs(list))
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "File", "Status", "Progress", "Type", "Profile", "Created"},
					buildJobRows(list),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var textOnly bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a job and its transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobs.Store) error {
				job, err := store.Get(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %s not found", args[0])
				}
				out := cmd.OutOrStdout()
				switch {
				case jsonOutput:
					return writeJSON(cmd, struct {
						Job    api.Job        `json:"job"`
						Result api.Transcript `json:"result"`
					}{api.FromJob(job), api.TranscriptOf(job)})
				case textOnly:
					if job.Status != jobs.StatusDone {
						return fmt.Errorf("job %s is %s; transcript not ready", job.ID, job.Status)
					}
					fmt.Fprintln(out, job.CleanedText)
					return nil
				}
				fmt.Fprint(out, renderDetails(buildJobDetails(job)))
				if job.Status == jobs.StatusDone {
					fmt.Fprintln(out)
					fmt.Fprintln(out, job.CleanedText)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	cmd.Flags().BoolVar(&textOnly, "text", false, "Print only the cleaned transcript")
	return cmd
}

func newJobsStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show job counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobs.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Status", "Count"}, jobCountRows(stats), []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func jobCountRows(stats map[jobs.Status]int) [][]string {
	counts := api.MergeJobStats(stats)
	rows := make([][]string, 0, len(counts))
	for _, status := range []jobs.Status{jobs.StatusQueued, jobs.StatusProcessing, jobs.StatusDone, jobs.StatusError} {
		rows = append(rows, []string{string(status), strconv.Itoa(counts[string(status)])})
	}
	return rows
}

func buildJobRows(list []*jobs.Job) [][]string {
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		rows = append(rows, []string{
			job.ID,
			truncate(job.OriginalFilename, 32),
			string(job.Status),
			fmt.Sprintf("%d%%", job.Progress),
			dash(job.AudioType),
			dash(job.ASRProfile),
			job.CreatedAt.Local().Format(time.DateTime),
		})
	}
	return rows
}

func buildJobDetails(job *jobs.Job) [][2]string {
	pairs := [][2]string{
		{"ID", job.ID},
		{"File", job.OriginalFilename},
		{"Status", string(job.Status)},
		{"Progress", fmt.Sprintf("%d%%", job.Progress)},
	}
	if job.ErrorMessage != "" {
		pairs = append(pairs, [2]string{"Error", job.ErrorMessage})
	}
	if job.DurationSeconds != nil {
		pairs = append(pairs, [2]string{"Duration", fmt.Sprintf("%ds", *job.DurationSeconds)})
	}
	pairs = append(pairs,
		[2]string{"Audio type", dash(job.AudioType)},
		[2]string{"Speech ratio", formatOptional(job.SpeechRatio)},
		[2]string{"Music prob", formatOptional(job.MusicProbability)},
		[2]string{"SNR (dB)", formatOptional(job.SNREstimate)},
		[2]string{"Profile", dash(job.ASRProfile)},
		[2]string{"Denoise", dash(job.DenoiseProvider)},
		[2]string{"Separation", dash(job.SeparationProvider)},
		[2]string{"ASR backend", dash(job.ASRBackend)},
		[2]string{"Created", job.CreatedAt.Local().Format(time.DateTime)},
		[2]string{"Updated", job.UpdatedAt.Local().Format(time.DateTime)},
	)
	return pairs
}

func formatOptional(value *float64) string {
	if value == nil {
		return "-"
	}
	return strconv.FormatFloat(*value, 'f', 3, 64)
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-1]) + "…"
}
