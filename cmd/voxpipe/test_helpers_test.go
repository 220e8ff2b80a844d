package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"voxpipe/internal/config"
	"voxpipe/internal/daemon"
	"voxpipe/internal/jobs"
	"voxpipe/internal/logging"
	"voxpipe/internal/testsupport"
	"voxpipe/internal/workflow"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *jobs.Store
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(homeDir, ".config", "voxpipe", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		store:      testsupport.MustOpenStore(t, cfg),
		configPath: configPath,
		baseDir:    base,
	}
}

// startDaemon runs a daemon whose processor completes every job with the
// given transcript, and returns its API base URL.
func (env *cliTestEnv) startDaemon(t *testing.T, transcript string) string {
	t.Helper()

	processor := workflow.ProcessorFunc(func(ctx context.Context, id string) error {
		return env.store.Update(ctx, id, jobs.Fields{
			jobs.ColStatus:      string(jobs.StatusDone),
			jobs.ColProgress:    100,
			jobs.ColRawText:     transcript,
			jobs.ColCleanedText: transcript,
		})
	})
	logger := logging.NewNop()
	pool := workflow.NewPool(env.cfg, processor, logger)
	d, err := daemon.New(env.cfg, env.store, pool, nil, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
		cancel()
	})
	return "http://" + d.Addr()
}

func runCLI(t *testing.T, args []string, configPath, apiURL string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, args, configPath, apiURL, "")
}

func runCLIWithInput(t *testing.T, args []string, configPath, apiURL, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	if apiURL != "" {
		flags = append(flags, "--api", apiURL)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
