package whispercpp_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"voxpipe/internal/services/whispercpp"
)

func TestTranscribeUsesFirstModelInDirectory(t *testing.T) {
	dir := t.TempDir()
	models := filepath.Join(dir, "models")
	if err := os.MkdirAll(models, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"notes.md", "ggml-small.bin", "ggml-base.bin"} {
		if err := os.WriteFile(filepath.Join(models, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	wav := filepath.Join(dir, "job.wav")
	outDir := filepath.Join(dir, "out")

	var gotArgs []string
	client := whispercpp.New(whispercpp.Config{Model: models, Language: "fa"})
	client.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != whispercpp.DefaultBinary {
			t.Fatalf("unexpected binary %q", name)
		}
		gotArgs = args
		return nil, os.WriteFile(filepath.Join(outDir, "job.txt"), []byte("  سلام\n دنیا \n"), 0o644)
	})

	text, err := client.Transcribe(context.Background(), wav, outDir, whispercpp.Options{
		BeamSize:          5,
		NoSpeechThreshold: 0.6,
		InitialPrompt:     "محاوره",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "سلام دنیا" {
		t.Fatalf("unexpected text %q", text)
	}
	want := []string{
		"-m", filepath.Join(models, "ggml-base.bin"),
		"-f", wav,
		"-of", filepath.Join(outDir, "job"),
		"-otxt", "-np",
		"-l", "fa",
		"-bs", "5",
		"-tp", "0",
		"-nth", "0.6",
		"-mc", "0",
		"--prompt", "محاوره",
	}
	if !reflect.DeepEqual(gotArgs, want) {
		t.Fatalf("unexpected args\n got %v\nwant %v", gotArgs, want)
	}
}

func TestTranscribeRequiresModel(t *testing.T) {
	client := whispercpp.New(whispercpp.Config{})
	client.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		t.Fatal("runner should not be called without a model")
		return nil, nil
	})
	_, err := client.Transcribe(context.Background(), "a.wav", t.TempDir(), whispercpp.Options{})
	if !errors.Is(err, whispercpp.ErrNoModel) {
		t.Fatalf("expected ErrNoModel, got %v", err)
	}
}

func TestTranscribeMissingBinary(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	client := whispercpp.New(whispercpp.Config{Model: "model.bin"})
	_, err := client.Transcribe(context.Background(), "a.wav", t.TempDir(), whispercpp.Options{})
	if !errors.Is(err, whispercpp.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestTranscribeReportsToolFailure(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "ggml.bin")
	if err := os.WriteFile(model, []byte("x"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	client := whispercpp.New(whispercpp.Config{Model: model})
	client.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		return []byte("failed to read WAV"), errors.New("exit status 2")
	})
	if _, err := client.Transcribe(context.Background(), "a.wav", dir, whispercpp.Options{}); err == nil {
		t.Fatal("expected error")
	}
}
