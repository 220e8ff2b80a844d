package preflight

import (
	"context"
	"strings"

	"voxpipe/internal/config"
)

// CheckNotificationsFromConfig evaluates ntfy status from config and connectivity.
func CheckNotificationsFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "ntfy"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	return CheckNtfy(ctx, topic)
}

// CheckCorrectionFromConfig evaluates the transcript correction LLM.
func CheckCorrectionFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Correction LLM"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Text.UseCorrection {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	return CheckLLM(ctx, name, cfg.GetLLM())
}
