package enhance

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"voxpipe/internal/dsp"
	"voxpipe/internal/fileutil"
	"voxpipe/internal/logging"
)

const (
	bandPassLowHz  = 85.0
	bandPassHighHz = 4000.0
	compressDrive  = 1.5
)

// SuppressorOptions configures the music suppression chain.
type SuppressorOptions struct {
	DemucsEnabled bool
	DemucsBinary  string
}

type demucsProvider struct {
	enabled bool
	binary  string
	run     CommandRunner
}

func (demucsProvider) Name() string { return ProviderDemucs }

// Attempt separates vocals with demucs. The tool writes
// <tmp>/<model>/<track>/vocals.wav; the first vocals.wav found is moved to out.
func (p demucsProvider) Attempt(ctx context.Context, in, out string) error {
	if !p.enabled {
		return fmt.Errorf("%w: demucs disabled", ErrToolUnavailable)
	}
	binary := p.binary
	if strings.TrimSpace(binary) == "" {
		binary = "demucs"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return fmt.Errorf("%w: %s not on PATH", ErrToolUnavailable, binary)
	}

	base := strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))
	tmpDir := filepath.Join(filepath.Dir(out), "demucs", base)
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return fmt.Errorf("demucs: ensure tmp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := runTool(ctx, p.run, resolved, "--two-stems", "vocals", "-o", tmpDir, in); err != nil {
		return err
	}
	vocals, err := findFile(tmpDir, "vocals.wav")
	if err != nil {
		return fmt.Errorf("demucs: %w", err)
	}
	return fileutil.MoveFile(vocals, out)
}

func findFile(root, name string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("%s not produced", name)
	}
	return found, nil
}

// bandPassProvider keeps the voice band, soft-compresses, then denoises. A
// denoise failure leaves the filtered audio in place.
type bandPassProvider struct {
	denoiser *Denoiser
	logger   *slog.Logger
}

func (bandPassProvider) Name() string { return ProviderBandPass }

func (p bandPassProvider) Attempt(ctx context.Context, in, out string) error {
	samples, rate, err := dsp.ReadWAV(in)
	if err != nil {
		return err
	}
	filtered := dsp.FiltFilt(dsp.ButterworthBandPass(bandPassLowHz, bandPassHighHz, rate), samples)
	if err := dsp.WriteWAV(out, dsp.SoftCompress(filtered, compressDrive), rate); err != nil {
		return err
	}
	if p.denoiser == nil {
		return nil
	}

	tmp := strings.TrimSuffix(out, filepath.Ext(out)) + ".denoised.wav"
	if _, err := p.denoiser.Denoise(ctx, out, tmp); err != nil {
		_ = fileutil.RemoveIfExists(tmp)
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "denoise after band-pass failed; keeping filtered audio", "suppress_denoise_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "suppressed audio keeps residual noise"),
		)
		return nil
	}
	if err := fileutil.MoveFile(tmp, out); err != nil {
		return errors.Join(fmt.Errorf("replace filtered audio: %w", err), fileutil.RemoveIfExists(tmp))
	}
	return nil
}

// Suppressor reduces music so speech dominates the waveform.
type Suppressor struct {
	chain *Chain
}

// NewSuppressor builds the demucs then band-pass chain. The band-pass fallback
// reuses denoiser.
func NewSuppressor(opts SuppressorOptions, denoiser *Denoiser, logger *slog.Logger) *Suppressor {
	component := logging.NewComponentLogger(logger, "enhance")
	return &Suppressor{
		chain: NewChain("suppress", logger,
			demucsProvider{enabled: opts.DemucsEnabled, binary: opts.DemucsBinary, run: execCommand},
			bandPassProvider{denoiser: denoiser, logger: component},
		),
	}
}

// Suppress writes a music-reduced copy of in to out and returns the provider used.
func (s *Suppressor) Suppress(ctx context.Context, in, out string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("suppress: ensure output dir: %w", err)
	}
	return s.chain.Run(ctx, in, out)
}

// Providers lists the suppression providers in attempt order.
func (s *Suppressor) Providers() []string {
	return s.chain.Providers()
}
