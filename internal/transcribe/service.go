package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"voxpipe/internal/config"
	"voxpipe/internal/logging"
	"voxpipe/internal/services"
	"voxpipe/internal/services/whispercpp"
	"voxpipe/internal/services/whisperx"
)

// Result is the transcript and the backend that produced it.
type Result struct {
	Text    string
	Backend string
}

// Service transcribes with a fallback chain of backends.
type Service struct {
	cfg      *config.Config
	backends []Backend
	logger   *slog.Logger
}

// New builds a service over explicit backends.
func New(cfg *config.Config, logger *slog.Logger, backends ...Backend) *Service {
	return &Service{
		cfg:      cfg,
		backends: backends,
		logger:   logging.NewComponentLogger(logger, "transcribe"),
	}
}

// NewFromConfig wires whisperx first and whisper.cpp second.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Service {
	wx := whisperx.NewService(whisperx.Config{
		Model:       cfg.ASR.ModelSize,
		CUDAEnabled: cfg.ASR.CUDAEnabled,
		ComputeType: cfg.ASR.ComputeType,
		Language:    cfg.ASR.Language,
	})
	cpp := whispercpp.New(whispercpp.Config{
		Binary:   cfg.ASR.WhisperCPPBinary,
		Model:    cfg.ASR.WhisperCPPModel,
		Language: cfg.ASR.Language,
	})
	return New(cfg, logger, NewWhisperXBackend(wx), NewWhisperCPPBackend(cpp))
}

// Backends lists backend names in attempt order.
func (s *Service) Backends() []string {
	names := make([]string, len(s.backends))
	for i, b := range s.backends {
		names[i] = b.Name()
	}
	return names
}

// Transcribe runs the named profile against wavPath.
func (s *Service) Transcribe(ctx context.Context, wavPath, profile string) (Result, error) {
	if len(s.backends) == 0 {
		return Result{}, services.Wrap(services.ErrConfiguration, "transcribe", "", "no backends configured", nil)
	}
	p := ProfileFor(s.cfg, profile)
	logger := logging.WithContext(ctx, s.logger).With(logging.String("profile", p.Name))

	workDir, err := os.MkdirTemp(filepath.Dir(wavPath), "asr-")
	if err != nil {
		return Result{}, fmt.Errorf("transcribe: create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	var errs []error
	for _, backend := range s.backends {
		name := backend.Name()
		text, err := s.attempt(ctx, backend, wavPath, workDir, p)
		if err == nil {
			logger.Info("transcription complete",
				logging.Args(append(logging.DecisionAttrs("asr_backend", name, "first backend to succeed"),
					logging.String(logging.FieldProvider, name),
					logging.Int("chars", len([]rune(text))),
				)...)...,
			)
			return Result{Text: text, Backend: name}, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
		if errors.Is(err, ErrBackendUnavailable) {
			logger.Debug("asr backend unavailable", logging.String(logging.FieldProvider, name), logging.Error(err))
			continue
		}
		logging.WarnWithContext(logger, "asr backend failed; trying next", "asr_backend_failed",
			logging.String(logging.FieldProvider, name),
			logging.Error(err),
			logging.String(logging.FieldImpact, "falling back to the next backend"),
		)
		if ctx.Err() != nil {
			break
		}
	}
	return Result{}, services.Wrap(services.ErrExternalTool, "transcribe", "", "all backends failed", errors.Join(errs...))
}

// attempt runs one backend. asr.timeout_seconds, when set, bounds each
// backend separately and derives from the caller's context.
func (s *Service) attempt(ctx context.Context, backend Backend, wavPath, workDir string, p Profile) (string, error) {
	if s.cfg != nil && s.cfg.ASR.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.ASR.TimeoutSeconds)*time.Second)
		defer cancel()
	}
	return backend.Transcribe(ctx, wavPath, workDir, p)
}
