package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"voxpipe/internal/api"
	"voxpipe/internal/config"
	"voxpipe/internal/deps"
	"voxpipe/internal/jobs"
	"voxpipe/internal/language"
	"voxpipe/internal/preflight"
)

const statusProbeTimeout = 3 * time.Second

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show system, dependency, daemon, and job status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			fmt.Fprintln(stdout, renderSectionHeader("System Status", colorize))
			for _, line := range systemLines(cmd.Context(), cfg, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			fmt.Fprintln(stdout, renderSectionHeader("Dependencies", colorize))
			for _, line := range dependencyLines(preflight.CheckSystemDeps(cfg), colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			fmt.Fprintln(stdout, renderSectionHeader("Daemon", colorize))
			fmt.Fprintln(stdout, daemonLine(cmd.Context(), ctx, cfg, colorize))
			fmt.Fprintln(stdout)

			fmt.Fprintln(stdout, renderSectionHeader("Jobs", colorize))
			return ctx.withStore(func(store *jobs.Store) error {
				return writeJobCounts(cmd.Context(), stdout, store)
			})
		},
	}
}

func systemLines(ctx context.Context, cfg *config.Config, colorize bool) []string {
	probeCtx, cancel := context.WithTimeout(ctx, statusProbeTimeout)
	defer cancel()

	lines := []string{
		resultLine(preflight.CheckDirectoryAccess("Storage", cfg.Paths.StorageDir), statusError, colorize),
	}
	if cfg.Paths.LogDir != "" {
		lines = append(lines, resultLine(preflight.CheckDirectoryAccess("Logs", cfg.Paths.LogDir), statusError, colorize))
	}
	if cfg.ASR.WhisperCPPModel != "" {
		lines = append(lines, resultLine(preflight.CheckPathReadable("whisper.cpp model", cfg.ASR.WhisperCPPModel), statusWarn, colorize))
	}
	lines = append(lines,
		resultLine(preflight.CheckNotificationsFromConfig(probeCtx, cfg), statusWarn, colorize),
		resultLine(preflight.CheckCorrectionFromConfig(probeCtx, cfg), statusWarn, colorize),
		renderStatusLine("Demucs", statusInfo, "enabled: "+yesNo(cfg.Enhance.DemucsEnabled), colorize),
		renderStatusLine("ASR language", statusInfo, language.DisplayName(cfg.ASR.Language)+" ("+cfg.ASR.Language+")", colorize),
		renderStatusLine("Retention", statusInfo, strconv.Itoa(cfg.Retention.Hours)+"h", colorize),
	)
	return lines
}

func resultLine(result preflight.Result, failKind statusKind, colorize bool) string {
	if result.Passed {
		return renderStatusLine(result.Name, statusOK, result.Detail, colorize)
	}
	return renderStatusLine(result.Name, failKind, result.Detail, colorize)
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	var missing []string
	for _, dep := range statuses {
		if dep.Available {
			message := "Ready"
			if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
			detail += " (optional)"
		} else {
			missing = append(missing, dep.Name)
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing required", statusError, strings.Join(missing, ", "), colorize))
	}
	return lines
}

func daemonLine(ctx context.Context, cmdCtx *commandContext, cfg *config.Config, colorize bool) string {
	base, err := cmdCtx.apiBaseURL()
	if err != nil {
		return renderStatusLine("API", statusWarn, err.Error(), colorize)
	}
	probeCtx, cancel := context.WithTimeout(ctx, statusProbeTimeout)
	defer cancel()

	health, err := newAPIClient(base, cfg.Paths.APIToken).Health(probeCtx)
	if err != nil {
		return renderStatusLine("API", statusWarn, "not reachable at "+base, colorize)
	}
	return renderStatusLine("API", statusOK, fmt.Sprintf("%s (%s)", base, poolSummary(health.Pool)), colorize)
}

func poolSummary(pool api.PoolStatus) string {
	return fmt.Sprintf("workers %d, queued %d/%d, in flight %d", pool.Workers, pool.Queued, pool.Capacity, pool.InFlight)
}

func writeJobCounts(ctx context.Context, out io.Writer, store *jobs.Store) error {
	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Fprintln(out, "No jobs recorded")
		return nil
	}
	fmt.Fprint(out, renderTable([]string{"Status", "Count"}, jobCountRows(stats), []columnAlignment{alignLeft, alignRight}))
	return nil
}
