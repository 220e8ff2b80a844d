package transcribe

import (
	"context"
	"errors"

	"voxpipe/internal/services/whispercpp"
	"voxpipe/internal/services/whisperx"
)

// Backend is one speech recognition engine.
type Backend interface {
	Name() string
	Transcribe(ctx context.Context, wavPath, workDir string, p Profile) (string, error)
}

// Backend names recorded on the job.
const (
	BackendWhisperX   = "whisperx"
	BackendWhisperCPP = "whispercpp"
)

// ErrBackendUnavailable marks a backend whose tool or model is missing.
var ErrBackendUnavailable = errors.New("asr backend unavailable")

type whisperXBackend struct {
	svc *whisperx.Service
}

// NewWhisperXBackend adapts a whisperx service.
func NewWhisperXBackend(svc *whisperx.Service) Backend {
	return whisperXBackend{svc: svc}
}

func (whisperXBackend) Name() string { return BackendWhisperX }

func (b whisperXBackend) Transcribe(ctx context.Context, wavPath, workDir string, p Profile) (string, error) {
	result, err := b.svc.TranscribeFile(ctx, wavPath, workDir, whisperx.Options{
		BeamSize:            p.BeamSize,
		VADFilter:           p.VADFilter,
		Temperature:         p.Temperature,
		NoSpeechThreshold:   p.NoSpeechThreshold,
		ConditionOnPrevious: p.ConditionOnPrevious,
		InitialPrompt:       p.Prompt,
	})
	if errors.Is(err, whisperx.ErrUnavailable) {
		return "", errors.Join(ErrBackendUnavailable, err)
	}
	return result.Text, err
}

type whisperCPPBackend struct {
	client *whispercpp.Client
}

// NewWhisperCPPBackend adapts a whisper.cpp client. whisper.cpp has no VAD
// filter switch without a separate VAD model, so the flag is ignored.
func NewWhisperCPPBackend(client *whispercpp.Client) Backend {
	return whisperCPPBackend{client: client}
}

func (whisperCPPBackend) Name() string { return BackendWhisperCPP }

func (b whisperCPPBackend) Transcribe(ctx context.Context, wavPath, workDir string, p Profile) (string, error) {
	text, err := b.client.Transcribe(ctx, wavPath, workDir, whispercpp.Options{
		BeamSize:            p.BeamSize,
		Temperature:         p.Temperature,
		NoSpeechThreshold:   p.NoSpeechThreshold,
		ConditionOnPrevious: p.ConditionOnPrevious,
		InitialPrompt:       p.Prompt,
	})
	if errors.Is(err, whispercpp.ErrUnavailable) || errors.Is(err, whispercpp.ErrNoModel) {
		return "", errors.Join(ErrBackendUnavailable, err)
	}
	return text, err
}
