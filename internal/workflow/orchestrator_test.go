package workflow_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"voxpipe/internal/audioanalysis"
	"voxpipe/internal/config"
	"voxpipe/internal/jobs"
	"voxpipe/internal/notifications"
	"voxpipe/internal/testsupport"
	"voxpipe/internal/workflow"
)

func TestSelectProfile(t *testing.T) {
	tests := []struct {
		name        string
		analysis    audioanalysis.Analysis
		wantType    string
		wantProfile string
	}{
		{"music", musicAnalysis, jobs.AudioMusic, jobs.ProfileMusicMixed},
		{"mixed", mixedAnalysis, jobs.AudioMixed, jobs.ProfileMusicMixed},
		{"noisy speech", noisyAnalysis, jobs.AudioSpeech, jobs.ProfileNoisy},
		{"clean speech", speechAnalysis, jobs.AudioSpeech, jobs.ProfileBalanced},
		{"snr at threshold", audioanalysis.Analysis{SNREstimate: 6, Type: jobs.AudioSpeech}, jobs.AudioSpeech, jobs.ProfileBalanced},
		{"music ignores snr", audioanalysis.Analysis{SNREstimate: 1, Type: jobs.AudioMusic}, jobs.AudioMusic, jobs.ProfileMusicMixed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gotType, gotProfile := workflow.SelectProfile(tc.analysis)
			if gotType != tc.wantType || gotProfile != tc.wantProfile {
				t.Fatalf("SelectProfile = (%s, %s), want (%s, %s)", gotType, gotProfile, tc.wantType, tc.wantProfile)
			}
		})
	}
}

func TestProcessSpeechJobCompletesWithMonotonicProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewJob(t, store, cfg, "talk.mp3")
	rec := &progressRecorder{t: t, store: store, id: job.ID}
	notifier := &stubNotifier{}

	var classifyCalls, suppressCalls int
	var usedProfile string
	orch := workflow.NewOrchestrator(cfg, store, nil,
		workflow.WithNotifier(notifier),
		workflow.WithTranscoder(stubTranscoder{rec: rec}),
		workflow.WithClassifier(sequenceClassifier(&classifyCalls, noisyAnalysis)),
		workflow.WithSuppressor(workflow.EnhancerFunc(stubEnhancer(rec, "suppress", "demucs", nil, &suppressCalls))),
		workflow.WithDenoiser(workflow.EnhancerFunc(stubEnhancer(rec, "denoise", "spectral_gate", nil, nil))),
		workflow.WithTranscriber(stubTranscriber{rec: rec, text: "سلام دنیا", profile: &usedProfile}),
		workflow.WithCleaner(stubCleaner{rec: rec}),
	)

	if err := orch.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	got := testsupport.MustGetJob(t, store, job.ID)
	if got.Status != jobs.StatusDone || got.Progress != 100 {
		t.Fatalf("expected done at 100, got %s at %d (%s)", got.Status, got.Progress, got.ErrorMessage)
	}
	if got.RawText != "سلام دنیا" || got.CleanedText != "سلام دنیا (cleaned)" {
		t.Fatalf("unexpected texts raw=%q cleaned=%q", got.RawText, got.CleanedText)
	}
	if got.ASRProfile != jobs.ProfileNoisy || usedProfile != jobs.ProfileNoisy {
		t.Fatalf("expected noisy profile, persisted %q used %q", got.ASRProfile, usedProfile)
	}
	if got.DenoiseProvider != "spectral_gate" || got.ASRBackend != "stub-asr" || got.SeparationProvider != "" {
		t.Fatalf("unexpected providers: %+v", got)
	}
	if got.DurationSeconds == nil || *got.DurationSeconds != 8 {
		t.Fatalf("expected duration 8, got %v", got.DurationSeconds)
	}
	if got.SNREstimate == nil || *got.SNREstimate != 3.5 {
		t.Fatalf("expected snr 3.5, got %v", got.SNREstimate)
	}
	wantWav := cfg.StoragePath(config.DenoisedDir, job.ID+".wav")
	if got.WorkingAudioPath != wantWav {
		t.Fatalf("expected working path %q, got %q", wantWav, got.WorkingAudioPath)
	}
	if suppressCalls != 0 || classifyCalls != 1 {
		t.Fatalf("speech should not be suppressed: suppress=%d classify=%d", suppressCalls, classifyCalls)
	}

	wantStages := []string{"transcode", "denoise", "asr", "clean"}
	wantProgress := []int{10, 25, 35, 80}
	if strings.Join(rec.stages, ",") != strings.Join(wantStages, ",") {
		t.Fatalf("unexpected stage order %v", rec.stages)
	}
	for i, p := range rec.seen {
		if p != wantProgress[i] {
			t.Fatalf("stage %s saw progress %d, want %d", rec.stages[i], p, wantProgress[i])
		}
		if i > 0 && p < rec.seen[i-1] {
			t.Fatalf("progress decreased: %v", rec.seen)
		}
	}
	if events := notifier.Events(); len(events) != 1 || events[0] != notifications.EventJobCompleted {
		t.Fatalf("expected one completion notification, got %v", events)
	}
}

func TestProcessKeepsHigherRecoveredProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewJob(t, store, cfg, "talk.mp3")
	if err := store.Update(context.Background(), job.ID, jobs.Fields{jobs.ColProgress: 30}); err != nil {
		t.Fatalf("seed progress: %v", err)
	}
	rec := &progressRecorder{t: t, store: store, id: job.ID}

	var classifyCalls int
	orch := workflow.NewOrchestrator(cfg, store, nil,
		workflow.WithNotifier(&stubNotifier{}),
		workflow.WithTranscoder(stubTranscoder{rec: rec}),
		workflow.WithClassifier(sequenceClassifier(&classifyCalls, speechAnalysis)),
		workflow.WithDenoiser(workflow.EnhancerFunc(stubEnhancer(rec, "denoise", "rnnoise", nil, nil))),
		workflow.WithTranscriber(stubTranscriber{rec: rec, text: "x"}),
		workflow.WithCleaner(stubCleaner{rec: rec}),
	)
	if err := orch.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}
	for i, p := range rec.seen {
		if p < 30 {
			t.Fatalf("stage %s saw progress %d below the recovered 30", rec.stages[i], p)
		}
	}
	if got := testsupport.MustGetJob(t, store, job.ID); got.Progress != 100 {
		t.Fatalf("expected 100, got %d", got.Progress)
	}
}

func TestProcessStageFailures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name         string
		analysis     audioanalysis.Analysis
		transcodeErr error
		suppressErr  error
		denoiseErr   error
		asrErr       error
		cleanErr     error
		wantProgress int
		wantPrefix   string
	}{
		{name: "transcode", analysis: speechAnalysis, transcodeErr: boom, wantProgress: 10, wantPrefix: "تبدیل فایل ناموفق بود"},
		{name: "suppress", analysis: mixedAnalysis, suppressErr: boom, wantProgress: 30, wantPrefix: "کاهش موسیقی ناموفق بود"},
		{name: "denoise", analysis: speechAnalysis, denoiseErr: boom, wantProgress: 35, wantPrefix: "حذف نویز ناموفق بود"},
		{name: "asr", analysis: speechAnalysis, asrErr: boom, wantProgress: 80, wantPrefix: "تشخیص گفتار ناموفق بود"},
		{name: "clean", analysis: speechAnalysis, cleanErr: boom, wantProgress: 95, wantPrefix: "پاکسازی متن ناموفق بود"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			store := testsupport.MustOpenStore(t, cfg)
			job := testsupport.NewJob(t, store, cfg, "clip.wav")
			notifier := &stubNotifier{}

			var classifyCalls int
			orch := workflow.NewOrchestrator(cfg, store, nil,
				workflow.WithNotifier(notifier),
				workflow.WithTranscoder(stubTranscoder{err: tc.transcodeErr}),
				workflow.WithClassifier(sequenceClassifier(&classifyCalls, tc.analysis)),
				workflow.WithSuppressor(workflow.EnhancerFunc(stubEnhancer(nil, "suppress", "bandpass", tc.suppressErr, nil))),
				workflow.WithDenoiser(workflow.EnhancerFunc(stubEnhancer(nil, "denoise", "rnnoise", tc.denoiseErr, nil))),
				workflow.WithTranscriber(stubTranscriber{text: "متن", err: tc.asrErr}),
				workflow.WithCleaner(stubCleaner{err: tc.cleanErr}),
			)
			if err := orch.Process(context.Background(), job.ID); err != nil {
				t.Fatalf("stage failures must not surface as errors: %v", err)
			}

			got := testsupport.MustGetJob(t, store, job.ID)
			if got.Status != jobs.StatusError {
				t.Fatalf("expected error status, got %s", got.Status)
			}
			if got.Progress != tc.wantProgress {
				t.Fatalf("expected progress %d, got %d", tc.wantProgress, got.Progress)
			}
			if !strings.HasPrefix(got.ErrorMessage, tc.wantPrefix) || !strings.Contains(got.ErrorMessage, "boom") {
				t.Fatalf("unexpected error message %q", got.ErrorMessage)
			}
			if events := notifier.Events(); len(events) != 1 || events[0] != notifications.EventJobFailed {
				t.Fatalf("expected one failure notification, got %v", events)
			}
		})
	}
}

func TestProcessAnalysisFailureStopsAt20(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewJob(t, store, cfg, "clip.wav")

	denoiseCalls := 0
	orch := workflow.NewOrchestrator(cfg, store, nil,
		workflow.WithNotifier(&stubNotifier{}),
		workflow.WithTranscoder(stubTranscoder{}),
		workflow.WithClassifier(func(string) (audioanalysis.Analysis, error) {
			return audioanalysis.Analysis{}, audioanalysis.ErrInvalidAudio
		}),
		workflow.WithDenoiser(workflow.EnhancerFunc(stubEnhancer(nil, "denoise", "rnnoise", nil, &denoiseCalls))),
	)
	if err := orch.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}
	got := testsupport.MustGetJob(t, store, job.ID)
	if got.Status != jobs.StatusError || got.Progress != 20 {
		t.Fatalf("expected error at 20, got %s at %d", got.Status, got.Progress)
	}
	if !strings.HasPrefix(got.ErrorMessage, "تحلیل صوت ناموفق بود") {
		t.Fatalf("unexpected message %q", got.ErrorMessage)
	}
	if denoiseCalls != 0 {
		t.Fatal("pipeline must stop after the failing stage")
	}
}

func TestProcessRejectsOverDurationAudio(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxSeconds(300))
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewJob(t, store, cfg, "long.mp3")

	long := speechAnalysis
	long.DurationSeconds = 412.8
	var classifyCalls int
	orch := workflow.NewOrchestrator(cfg, store, nil,
		workflow.WithNotifier(&stubNotifier{}),
		workflow.WithTranscoder(stubTranscoder{}),
		workflow.WithClassifier(sequenceClassifier(&classifyCalls, long)),
	)
	if err := orch.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	got := testsupport.MustGetJob(t, store, job.ID)
	if got.Status != jobs.StatusError || got.Progress != 20 {
		t.Fatalf("expected error at 20, got %s at %d", got.Status, got.Progress)
	}
	if got.DurationSeconds == nil || *got.DurationSeconds != 412 {
		t.Fatalf("expected persisted duration 412, got %v", got.DurationSeconds)
	}
	if !strings.Contains(got.ErrorMessage, "300") {
		t.Fatalf("expected limit in message, got %q", got.ErrorMessage)
	}
	if got.AudioType != "" || got.ASRProfile != "" {
		t.Fatalf("analysis must not be persisted for rejected audio: %+v", got)
	}
}

func TestProcessRejectsMusicOnlyAfterSuppression(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewJob(t, store, cfg, "song.mp3")
	notifier := &stubNotifier{}

	residual := musicAnalysis
	residual.SpeechRatio = 0.05
	residual.Type = jobs.AudioSpeech
	var classifyCalls, denoiseCalls int
	orch := workflow.NewOrchestrator(cfg, store, nil,
		workflow.WithNotifier(notifier),
		workflow.WithTranscoder(stubTranscoder{}),
		workflow.WithClassifier(sequenceClassifier(&classifyCalls, musicAnalysis, residual)),
		workflow.WithSuppressor(workflow.EnhancerFunc(stubEnhancer(nil, "suppress", "bandpass", nil, nil))),
		workflow.WithDenoiser(workflow.EnhancerFunc(stubEnhancer(nil, "denoise", "rnnoise", nil, &denoiseCalls))),
	)
	if err := orch.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	got := testsupport.MustGetJob(t, store, job.ID)
	if got.Status != jobs.StatusError || got.Progress != 35 {
		t.Fatalf("expected error at 35, got %s at %d", got.Status, got.Progress)
	}
	if got.ErrorMessage != workflow.MessageMusicOnly {
		t.Fatalf("unexpected message %q", got.ErrorMessage)
	}
	if got.AudioType != jobs.AudioMusic || got.ASRProfile != jobs.ProfileMusicMixed {
		t.Fatalf("expected music/music_mixed, got %s/%s", got.AudioType, got.ASRProfile)
	}
	if got.SpeechRatio == nil || *got.SpeechRatio != 0.05 {
		t.Fatalf("expected refreshed speech ratio, got %v", got.SpeechRatio)
	}
	if got.SeparationProvider != "bandpass" {
		t.Fatalf("expected separation provider recorded, got %q", got.SeparationProvider)
	}
	if classifyCalls != 2 || denoiseCalls != 0 {
		t.Fatalf("unexpected calls classify=%d denoise=%d", classifyCalls, denoiseCalls)
	}
}

func TestProcessMusicWithSpeechContinuesWithRefreshedProfile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewJob(t, store, cfg, "podcast-intro.mp3")

	var classifyCalls, suppressCalls int
	var usedProfile string
	orch := workflow.NewOrchestrator(cfg, store, nil,
		workflow.WithNotifier(&stubNotifier{}),
		workflow.WithTranscoder(stubTranscoder{}),
		workflow.WithClassifier(sequenceClassifier(&classifyCalls, musicAnalysis, speechAnalysis)),
		workflow.WithSuppressor(workflow.EnhancerFunc(stubEnhancer(nil, "suppress", "demucs", nil, &suppressCalls))),
		workflow.WithDenoiser(workflow.EnhancerFunc(stubEnhancer(nil, "denoise", "rnnoise", nil, nil))),
		workflow.WithTranscriber(stubTranscriber{text: "متن", profile: &usedProfile}),
		workflow.WithCleaner(stubCleaner{}),
	)
	if err := orch.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	got := testsupport.MustGetJob(t, store, job.ID)
	if got.Status != jobs.StatusDone {
		t.Fatalf("expected done, got %s (%s)", got.Status, got.ErrorMessage)
	}
	if got.AudioType != jobs.AudioSpeech || usedProfile != jobs.ProfileBalanced {
		t.Fatalf("expected refreshed speech/balanced, got %s/%s", got.AudioType, usedProfile)
	}
	if suppressCalls != 1 || got.SeparationProvider != "demucs" {
		t.Fatalf("expected a single demucs pass, calls=%d provider=%q", suppressCalls, got.SeparationProvider)
	}
}

func TestProcessMixedSuppressesOnceWithoutReclassifying(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewJob(t, store, cfg, "vlog.mp3")

	var classifyCalls, suppressCalls int
	var usedProfile string
	orch := workflow.NewOrchestrator(cfg, store, nil,
		workflow.WithNotifier(&stubNotifier{}),
		workflow.WithTranscoder(stubTranscoder{}),
		workflow.WithClassifier(sequenceClassifier(&classifyCalls, mixedAnalysis, speechAnalysis)),
		workflow.WithSuppressor(workflow.EnhancerFunc(stubEnhancer(nil, "suppress", "bandpass", nil, &suppressCalls))),
		workflow.WithDenoiser(workflow.EnhancerFunc(stubEnhancer(nil, "denoise", "rnnoise", nil, nil))),
		workflow.WithTranscriber(stubTranscriber{text: "متن", profile: &usedProfile}),
		workflow.WithCleaner(stubCleaner{}),
	)
	if err := orch.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	got := testsupport.MustGetJob(t, store, job.ID)
	if got.Status != jobs.StatusDone {
		t.Fatalf("expected done, got %s (%s)", got.Status, got.ErrorMessage)
	}
	if classifyCalls != 1 || suppressCalls != 1 {
		t.Fatalf("expected one classification and one suppression, got %d/%d", classifyCalls, suppressCalls)
	}
	if got.AudioType != jobs.AudioMixed || got.ASRProfile != jobs.ProfileMusicMixed || usedProfile != jobs.ProfileMusicMixed {
		t.Fatalf("mixed type and profile must be kept, got %s/%s used %s", got.AudioType, got.ASRProfile, usedProfile)
	}
}

func TestProcessSkipsMissingJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	orch := workflow.NewOrchestrator(cfg, store, nil, workflow.WithNotifier(&stubNotifier{}))
	if err := orch.Process(context.Background(), "0123456789abcdef0123456789abcdef"); err != nil {
		t.Fatalf("missing job should be skipped, got %v", err)
	}
}

// TestProcessToneEndToEnd runs the real transcode, classifier and enhancement
// chains against a 440 Hz tone. ffmpeg is stubbed with a copy.
func TestProcessToneEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithIsolatedPath(),
		testsupport.WithStubScript("ffmpeg", "for last; do :; done\n/bin/cp \"$3\" \"$last\"\n"),
	)
	store := testsupport.MustOpenStore(t, cfg)
	job := testsupport.NewJob(t, store, cfg, "tone.wav")
	testsupport.WriteTone(t, job.SourcePath, 440, 2*time.Second)

	orch := workflow.NewOrchestrator(cfg, store, nil,
		workflow.WithNotifier(&stubNotifier{}),
		workflow.WithTranscriber(stubTranscriber{text: "سلام"}),
	)
	if err := orch.Process(context.Background(), job.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	got := testsupport.MustGetJob(t, store, job.ID)
	switch got.Status {
	case jobs.StatusError:
		if got.ErrorMessage != workflow.MessageMusicOnly {
			t.Fatalf("unexpected error %q at %d", got.ErrorMessage, got.Progress)
		}
		if got.Progress < 30 || got.Progress > 35 {
			t.Fatalf("music-only rejection outside [30,35]: %d", got.Progress)
		}
	case jobs.StatusDone:
		if got.Progress != 100 || got.CleanedText == "" {
			t.Fatalf("unexpected done job %+v", got)
		}
	default:
		t.Fatalf("expected terminal status, got %s", got.Status)
	}
	if got.SeparationProvider != "bandpass" {
		t.Fatalf("expected band-pass suppression with demucs disabled, got %q", got.SeparationProvider)
	}
	if got.MusicProbability == nil {
		t.Fatal("expected music probability persisted")
	}
}
