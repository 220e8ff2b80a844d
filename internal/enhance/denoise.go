package enhance

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"voxpipe/internal/dsp"
)

// Provider names recorded on jobs.
const (
	ProviderRNNoise      = "rnnoise"
	ProviderSpectralGate = "spectral_gate"
	ProviderDemucs       = "demucs"
	ProviderBandPass     = "bandpass"
)

// rnnoiseCandidates are tried in order on PATH.
var rnnoiseCandidates = []string{"rnnoise", "rnnoise-demo", "rnnoise-nu"}

type rnnoiseProvider struct {
	run CommandRunner
}

func (rnnoiseProvider) Name() string { return ProviderRNNoise }

func (p rnnoiseProvider) Attempt(ctx context.Context, in, out string) error {
	binary, ok := findRNNoise()
	if !ok {
		return fmt.Errorf("%w: none of %v on PATH", ErrToolUnavailable, rnnoiseCandidates)
	}
	return runTool(ctx, p.run, binary, in, out)
}

func findRNNoise() (string, bool) {
	for _, candidate := range rnnoiseCandidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, true
		}
	}
	return "", false
}

type spectralGateProvider struct{}

func (spectralGateProvider) Name() string { return ProviderSpectralGate }

func (spectralGateProvider) Attempt(_ context.Context, in, out string) error {
	samples, rate, err := dsp.ReadWAV(in)
	if err != nil {
		return err
	}
	return dsp.WriteWAV(out, dsp.SpectralGate(samples, dsp.DefaultGateOptions()), rate)
}

// Denoiser removes stationary background noise.
type Denoiser struct {
	chain *Chain
}

// NewDenoiser builds the rnnoise then spectral gating chain.
func NewDenoiser(logger *slog.Logger) *Denoiser {
	return &Denoiser{
		chain: NewChain("denoise", logger, rnnoiseProvider{run: execCommand}, spectralGateProvider{}),
	}
}

// Denoise writes a denoised copy of in to out and returns the provider used.
func (d *Denoiser) Denoise(ctx context.Context, in, out string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("denoise: ensure output dir: %w", err)
	}
	return d.chain.Run(ctx, in, out)
}

// Providers lists the denoise providers in attempt order.
func (d *Denoiser) Providers() []string {
	return d.chain.Providers()
}
