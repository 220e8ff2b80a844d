package enhance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"voxpipe/internal/logging"
)

// ErrToolUnavailable marks a provider whose external program is not installed
// or is disabled by configuration.
var ErrToolUnavailable = errors.New("tool unavailable")

// Provider is one way to turn an input WAV into an output WAV.
type Provider interface {
	Name() string
	Attempt(ctx context.Context, in, out string) error
}

// Chain tries providers in order and reports which one succeeded.
type Chain struct {
	stage     string
	providers []Provider
	logger    *slog.Logger
}

// NewChain builds a chain for the named stage.
func NewChain(stage string, logger *slog.Logger, providers ...Provider) *Chain {
	return &Chain{
		stage:     stage,
		providers: providers,
		logger:    logging.NewComponentLogger(logger, "enhance").With(logging.String(logging.FieldStage, stage)),
	}
}

// Providers lists provider names in attempt order.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Run attempts each provider until one writes out. On total failure the
// returned error joins every provider error.
func (c *Chain) Run(ctx context.Context, in, out string) (string, error) {
	if len(c.providers) == 0 {
		return "", fmt.Errorf("%s: no providers configured", c.stage)
	}
	logger := logging.WithContext(ctx, c.logger)

	var errs []error
	for _, provider := range c.providers {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		name := provider.Name()
		err := provider.Attempt(ctx, in, out)
		if err == nil {
			err = checkOutput(out)
		}
		if err == nil {
			logger.Info("enhancement provider succeeded",
				logging.Args(append(logging.DecisionAttrs(c.stage+"_provider", name, "first provider to succeed"),
					logging.String(logging.FieldProvider, name),
					logging.String(logging.FieldEventType, "enhance_provider_succeeded"),
				)...)...,
			)
			return name, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", name, err))
		if errors.Is(err, ErrToolUnavailable) {
			logger.Debug("enhancement provider unavailable",
				logging.String(logging.FieldProvider, name),
				logging.Error(err),
			)
			continue
		}
		logging.WarnWithContext(logger, "enhancement provider failed; trying next", "enhance_provider_failed",
			logging.String(logging.FieldProvider, name),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the tool installation or its stderr above"),
			logging.String(logging.FieldImpact, "falling back to the next provider"),
		)
	}
	return "", fmt.Errorf("%s: all providers failed: %w", c.stage, errors.Join(errs...))
}

func checkOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("output missing: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("output is empty")
	}
	return nil
}
