package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"voxpipe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StorageDir = filepath.Join(base, "storage")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Workflow.DequeueTimeoutMS = 20
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithWorkflow overrides worker and queue sizing.
func WithWorkflow(workers, queueSize int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.WorkerThreads = workers
		b.cfg.Workflow.MaxQueueSize = queueSize
	}
}

// WithMaxSeconds overrides the duration cap.
func WithMaxSeconds(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Limits.MaxSeconds = seconds
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. Stubs exit 0 without output. If names is empty, the
// ffmpeg/ffprobe pair is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		for _, name := range names {
			writeStub(b.t, b.baseDir, name, "exit 0\n")
		}
		prependPath(b.t, filepath.Join(b.baseDir, "bin"))
	}
}

// WithStubScript installs a named executable whose body is the given shell
// script (without the shebang) and prepends it to PATH.
func WithStubScript(name, body string) ConfigOption {
	return func(b *configBuilder) {
		writeStub(b.t, b.baseDir, name, body)
		prependPath(b.t, filepath.Join(b.baseDir, "bin"))
	}
}

// WithIsolatedPath restricts PATH to the stub directory so optional tools
// installed on the host do not leak into tests.
func WithIsolatedPath() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		b.t.Setenv("PATH", binDir)
	}
}

func writeStub(t testing.TB, baseDir, name, body string) {
	t.Helper()
	binDir := filepath.Join(baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	script := []byte("#!/bin/sh\n" + body)
	if err := os.WriteFile(filepath.Join(binDir, name), script, 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
}

func prependPath(t testing.TB, dir string) {
	t.Helper()
	oldPath := os.Getenv("PATH")
	if entries := filepath.SplitList(oldPath); len(entries) > 0 && entries[0] == dir {
		return
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+oldPath)
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StorageDir)
}

// BinDir returns the stub executable directory for the generated config.
func BinDir(cfg *config.Config) string {
	return filepath.Join(BaseDir(cfg), "bin")
}
