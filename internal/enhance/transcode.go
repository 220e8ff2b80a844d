package enhance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"voxpipe/internal/services"
)

// Transcoder converts arbitrary uploads into 16 kHz mono WAV with ffmpeg.
type Transcoder struct {
	binary string
	run    CommandRunner
}

// NewTranscoder returns a Transcoder invoking binary (default "ffmpeg").
func NewTranscoder(binary string) *Transcoder {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Transcoder{binary: binary, run: execCommand}
}

// WithCommandRunner sets a custom command runner (for testing).
func (t *Transcoder) WithCommandRunner(run CommandRunner) {
	t.run = run
}

// Transcode writes a 16 kHz mono WAV version of in to out.
func (t *Transcoder) Transcode(ctx context.Context, in, out string) error {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("transcode: ensure output dir: %w", err)
	}
	args := []string{"-y", "-i", in, "-ac", "1", "-ar", "16000", "-f", "wav", out}
	if err := runTool(ctx, t.run, t.binary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "transcode", "ffmpeg", "conversion failed", err)
	}
	if err := checkOutput(out); err != nil {
		return services.Wrap(services.ErrExternalTool, "transcode", "ffmpeg", "no output produced", err)
	}
	return nil
}
