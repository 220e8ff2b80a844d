package transcribe_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"voxpipe/internal/jobs"
	"voxpipe/internal/logging"
	"voxpipe/internal/services"
	"voxpipe/internal/testsupport"
	"voxpipe/internal/transcribe"
)

type fakeBackend struct {
	name    string
	text    string
	err     error
	profile *transcribe.Profile
	workDir *string
}

func (f fakeBackend) Name() string { return f.name }

// stallBackend blocks until its context ends.
type stallBackend struct{ name string }

func (b stallBackend) Name() string { return b.name }

func (b stallBackend) Transcribe(ctx context.Context, _, _ string, _ transcribe.Profile) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (f fakeBackend) Transcribe(_ context.Context, _, workDir string, p transcribe.Profile) (string, error) {
	if f.profile != nil {
		*f.profile = p
	}
	if f.workDir != nil {
		*f.workDir = workDir
	}
	return f.text, f.err
}

func TestProfileFor(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	tests := []struct {
		name      string
		wantName  string
		wantBeam  int
		condition bool
	}{
		{name: jobs.ProfileBalanced, wantName: jobs.ProfileBalanced, wantBeam: 5, condition: true},
		{name: jobs.ProfileNoisy, wantName: jobs.ProfileNoisy, wantBeam: 8},
		{name: jobs.ProfileMusicMixed, wantName: jobs.ProfileMusicMixed, wantBeam: 8},
		{name: "unknown", wantName: jobs.ProfileBalanced, wantBeam: 5, condition: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := transcribe.ProfileFor(cfg, tc.name)
			if p.Name != tc.wantName || p.BeamSize != tc.wantBeam || p.ConditionOnPrevious != tc.condition {
				t.Fatalf("unexpected profile %+v", p)
			}
			if p.Temperature != 0 || !p.VADFilter || p.NoSpeechThreshold <= 0 {
				t.Fatalf("unexpected decoding parameters %+v", p)
			}
			if p.Prompt != cfg.PromptFor(tc.wantName) {
				t.Fatalf("expected prompt for %s, got %q", tc.wantName, p.Prompt)
			}
		})
	}
}

func TestTranscribeFallsBackToSecondBackend(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	wav := filepath.Join(cfg.Paths.StorageDir, "denoised", "job.wav")
	testsupport.WriteFile(t, wav, 16)

	var seen transcribe.Profile
	var workDir string
	svc := transcribe.New(cfg, logging.NewNop(),
		fakeBackend{name: "primary", err: errors.New("model load failed")},
		fakeBackend{name: "secondary", text: "سلام", profile: &seen, workDir: &workDir},
	)

	result, err := svc.Transcribe(context.Background(), wav, jobs.ProfileNoisy)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Text != "سلام" || result.Backend != "secondary" {
		t.Fatalf("unexpected result %+v", result)
	}
	if seen.Name != jobs.ProfileNoisy {
		t.Fatalf("expected noisy profile to reach the backend, got %q", seen.Name)
	}
	if filepath.Dir(workDir) != filepath.Dir(wav) {
		t.Fatalf("expected work dir next to the input, got %q", workDir)
	}
	if _, err := os.Stat(workDir); !os.IsNotExist(err) {
		t.Fatalf("expected work dir removed, err=%v", err)
	}
}

func TestTranscribeTimedOutPrimaryFallsThrough(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.ASR.TimeoutSeconds = 1
	wav := filepath.Join(cfg.Paths.StorageDir, "wav", "job.wav")
	testsupport.WriteFile(t, wav, 16)

	svc := transcribe.New(cfg, logging.NewNop(),
		stallBackend{name: "primary"},
		fakeBackend{name: "secondary", text: "سلام"},
	)
	result, err := svc.Transcribe(context.Background(), wav, jobs.ProfileBalanced)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Backend != "secondary" || result.Text != "سلام" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestTranscribeStopsWhenCallerCancels(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	wav := filepath.Join(cfg.Paths.StorageDir, "wav", "job.wav")
	testsupport.WriteFile(t, wav, 16)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	var secondaryDir string
	svc := transcribe.New(cfg, logging.NewNop(),
		stallBackend{name: "primary"},
		fakeBackend{name: "secondary", text: "سلام", workDir: &secondaryDir},
	)
	_, err := svc.Transcribe(ctx, wav, jobs.ProfileBalanced)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected caller deadline in error, got %v", err)
	}
	if secondaryDir != "" {
		t.Fatalf("expected secondary skipped after caller cancellation")
	}
}

func TestTranscribeAcceptsEmptyTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	wav := filepath.Join(cfg.Paths.StorageDir, "wav", "quiet.wav")
	testsupport.WriteFile(t, wav, 16)

	svc := transcribe.New(cfg, logging.NewNop(), fakeBackend{name: "primary"})
	result, err := svc.Transcribe(context.Background(), wav, jobs.ProfileBalanced)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Text != "" || result.Backend != "primary" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestTranscribeFailsWhenEveryBackendFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	wav := filepath.Join(cfg.Paths.StorageDir, "wav", "job.wav")
	testsupport.WriteFile(t, wav, 16)

	boom := errors.New("segfault")
	svc := transcribe.New(cfg, logging.NewNop(),
		fakeBackend{name: "primary", err: errors.Join(transcribe.ErrBackendUnavailable, errors.New("uvx missing"))},
		fakeBackend{name: "secondary", err: boom},
	)
	_, err := svc.Transcribe(context.Background(), wav, jobs.ProfileBalanced)
	if !errors.Is(err, services.ErrExternalTool) || !errors.Is(err, boom) || !errors.Is(err, transcribe.ErrBackendUnavailable) {
		t.Fatalf("expected joined tool error, got %v", err)
	}
}

func TestNewFromConfigOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := transcribe.NewFromConfig(cfg, logging.NewNop())
	want := []string{transcribe.BackendWhisperX, transcribe.BackendWhisperCPP}
	if got := svc.Backends(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected backend order %v", got)
	}
}

func TestNewFromConfigWithoutTools(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithIsolatedPath())
	wav := filepath.Join(cfg.Paths.StorageDir, "wav", "job.wav")
	testsupport.WriteFile(t, wav, 16)

	_, err := transcribe.NewFromConfig(cfg, logging.NewNop()).Transcribe(context.Background(), wav, jobs.ProfileBalanced)
	if !errors.Is(err, transcribe.ErrBackendUnavailable) {
		t.Fatalf("expected unavailable backends, got %v", err)
	}
}
