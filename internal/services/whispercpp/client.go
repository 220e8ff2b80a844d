package whispercpp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultBinary is the whisper.cpp CLI name installed by current releases.
const DefaultBinary = "whisper-cli"

var (
	// ErrUnavailable reports a missing binary.
	ErrUnavailable = errors.New("whisper.cpp: binary not found")
	// ErrNoModel reports a missing or empty model location.
	ErrNoModel = errors.New("whisper.cpp: model not configured")
)

// Config captures the whisper.cpp installation.
type Config struct {
	Binary   string
	Model    string
	Language string
}

// Options are the per-call decoding parameters.
type Options struct {
	BeamSize            int
	Temperature         float64
	NoSpeechThreshold   float64
	ConditionOnPrevious bool
	InitialPrompt       string
}

// CommandRunner executes a command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Client runs whisper.cpp transcriptions.
type Client struct {
	cfg      Config
	run      CommandRunner
	lookPath func(string) (string, error)
}

// New constructs a client for cfg.
func New(cfg Config) *Client {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = DefaultBinary
	}
	return &Client{
		cfg: cfg,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec
		},
		lookPath: exec.LookPath,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *Client) WithCommandRunner(run CommandRunner) {
	c.run = run
	c.lookPath = func(name string) (string, error) { return name, nil }
}

// Binary returns the configured executable.
func (c *Client) Binary() string {
	return c.cfg.Binary
}

// Transcribe writes <outputDir>/<wav base>.txt and returns its trimmed content.
func (c *Client) Transcribe(ctx context.Context, wavPath, outputDir string, opts Options) (string, error) {
	if _, err := c.lookPath(c.cfg.Binary); err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnavailable, c.cfg.Binary)
	}
	model, err := resolveModelPath(c.cfg.Model)
	if err != nil {
		return "", err
	}
	if outputDir == "" {
		outputDir = filepath.Dir(wavPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("whisper.cpp: ensure output dir: %w", err)
	}

	base := filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath)))
	args := buildArgs(model, wavPath, base, c.cfg.Language, opts)
	if output, err := c.run(ctx, c.cfg.Binary, args...); err != nil {
		return "", fmt.Errorf("whisper.cpp: %w: %s", err, strings.TrimSpace(string(output)))
	}

	content, err := os.ReadFile(base + ".txt")
	if err != nil {
		return "", fmt.Errorf("whisper.cpp: transcript file missing: %w", err)
	}
	return strings.Join(strings.Fields(string(content)), " "), nil
}

func buildArgs(model, wavPath, outBase, language string, opts Options) []string {
	args := []string{
		"-m", model,
		"-f", wavPath,
		"-of", outBase,
		"-otxt",
		"-np",
	}
	if lang := normalizeLanguage(language); lang != "" {
		args = append(args, "-l", lang)
	}
	if opts.BeamSize > 0 {
		args = append(args, "-bs", strconv.Itoa(opts.BeamSize))
	}
	args = append(args, "-tp", strconv.FormatFloat(opts.Temperature, 'f', -1, 64))
	if opts.NoSpeechThreshold > 0 {
		args = append(args, "-nth", strconv.FormatFloat(opts.NoSpeechThreshold, 'f', -1, 64))
	}
	// whisper.cpp has no switch for conditioning; a zero text context disables it.
	if !opts.ConditionOnPrevious {
		args = append(args, "-mc", "0")
	}
	if prompt := strings.TrimSpace(opts.InitialPrompt); prompt != "" {
		args = append(args, "--prompt", prompt)
	}
	return args
}

func normalizeLanguage(raw string) string {
	lang := strings.TrimSpace(raw)
	if lang == "" || strings.EqualFold(lang, "auto") {
		return ""
	}
	return lang
}

func resolveModelPath(rawPath string) (string, error) {
	modelPath := strings.TrimSpace(rawPath)
	if modelPath == "" {
		return "", ErrNoModel
	}
	info, err := os.Stat(modelPath)
	if err != nil {
		return "", fmt.Errorf("%w: cannot access %s", ErrNoModel, modelPath)
	}
	if !info.IsDir() {
		return modelPath, nil
	}

	entries, err := os.ReadDir(modelPath)
	if err != nil {
		return "", fmt.Errorf("whisper.cpp: read model directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".bin", ".gguf":
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: no .bin or .gguf files in %s", ErrNoModel, modelPath)
	}
	sort.Strings(names)
	return filepath.Join(modelPath, names[0]), nil
}
