package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"voxpipe/internal/audioanalysis"
	"voxpipe/internal/jobs"
	"voxpipe/internal/notifications"
	"voxpipe/internal/transcribe"
)

type stubNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (s *stubNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *stubNotifier) Events() []notifications.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notifications.Event(nil), s.events...)
}

// progressRecorder captures the persisted progress each time a stage starts.
type progressRecorder struct {
	t      *testing.T
	store  *jobs.Store
	id     string
	mu     sync.Mutex
	stages []string
	seen   []int
}

func (r *progressRecorder) record(stage string) {
	r.t.Helper()
	job, err := r.store.Get(context.Background(), r.id)
	if err != nil || job == nil {
		r.t.Errorf("load job during %s: %v", stage, err)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
	r.seen = append(r.seen, job.Progress)
}

type stubTranscoder struct {
	rec *progressRecorder
	err error
}

func (s stubTranscoder) Transcode(_ context.Context, _, _ string) error {
	if s.rec != nil {
		s.rec.record("transcode")
	}
	return s.err
}

type stubTranscriber struct {
	rec     *progressRecorder
	text    string
	err     error
	profile *string
}

func (s stubTranscriber) Transcribe(_ context.Context, _ string, profile string) (transcribe.Result, error) {
	if s.rec != nil {
		s.rec.record("asr")
	}
	if s.profile != nil {
		*s.profile = profile
	}
	if s.err != nil {
		return transcribe.Result{}, s.err
	}
	return transcribe.Result{Text: s.text, Backend: "stub-asr"}, nil
}

type stubCleaner struct {
	rec *progressRecorder
	err error
}

func (s stubCleaner) Clean(_ context.Context, raw string) (string, error) {
	if s.rec != nil {
		s.rec.record("clean")
	}
	if s.err != nil {
		return "", s.err
	}
	return raw + " (cleaned)", nil
}

func stubEnhancer(rec *progressRecorder, stage, provider string, err error, calls *int) func(context.Context, string, string) (string, error) {
	return func(context.Context, string, string) (string, error) {
		if rec != nil {
			rec.record(stage)
		}
		if calls != nil {
			*calls++
		}
		if err != nil {
			return "", err
		}
		return provider, nil
	}
}

// sequenceClassifier returns the queued analyses in order, repeating the last.
func sequenceClassifier(calls *int, results ...audioanalysis.Analysis) func(string) (audioanalysis.Analysis, error) {
	return func(string) (audioanalysis.Analysis, error) {
		idx := *calls
		*calls++
		if len(results) == 0 {
			return audioanalysis.Analysis{}, errors.New("no analysis")
		}
		if idx >= len(results) {
			idx = len(results) - 1
		}
		return results[idx], nil
	}
}

var (
	speechAnalysis = audioanalysis.Analysis{DurationSeconds: 12.4, SpeechRatio: 0.7, MusicProbability: 0.2, SNREstimate: 18, Type: jobs.AudioSpeech}
	noisyAnalysis  = audioanalysis.Analysis{DurationSeconds: 8, SpeechRatio: 0.6, MusicProbability: 0.3, SNREstimate: 3.5, Type: jobs.AudioSpeech}
	mixedAnalysis  = audioanalysis.Analysis{DurationSeconds: 30, SpeechRatio: 0.4, MusicProbability: 0.55, SNREstimate: 9, Type: jobs.AudioMixed}
	musicAnalysis  = audioanalysis.Analysis{DurationSeconds: 20, SpeechRatio: 0.02, MusicProbability: 0.9, SNREstimate: 25, Type: jobs.AudioMusic}
)
