package audioanalysis

import (
	"errors"
	"fmt"

	"voxpipe/internal/dsp"
	"voxpipe/internal/jobs"
)

// ErrInvalidAudio is returned for empty input or a non-positive sample rate.
var ErrInvalidAudio = errors.New("invalid audio")

// Speech detection methods reported in Analysis.SpeechMethod.
const (
	MethodWebRTC = "webrtcvad"
	MethodEnergy = "energy"
)

// Analysis is the classifier output for one waveform.
type Analysis struct {
	DurationSeconds  float64 `json:"duration_seconds"`
	SpeechRatio      float64 `json:"speech_ratio"`
	MusicProbability float64 `json:"music_prob"`
	SNREstimate      float64 `json:"snr_estimate"`
	Type             string  `json:"type"`
	SpeechMethod     string  `json:"speech_method"`
}

// Classify analyses mono samples in [-1, 1].
func Classify(samples []float64, sampleRate int) (Analysis, error) {
	if sampleRate <= 0 || len(samples) == 0 {
		return Analysis{}, ErrInvalidAudio
	}

	ratio, method := speechRatio(samples, sampleRate)
	prob := musicProbability(samples, sampleRate, ratio)
	snr := estimateSNR(samples, sampleRate, ratio)

	return Analysis{
		DurationSeconds:  float64(len(samples)) / float64(sampleRate),
		SpeechRatio:      ratio,
		MusicProbability: prob,
		SNREstimate:      snr,
		Type:             classifyType(ratio, prob),
		SpeechMethod:     method,
	}, nil
}

// ClassifyFile reads a WAV file, downmixes it and classifies the result.
func ClassifyFile(path string) (Analysis, error) {
	samples, rate, err := dsp.ReadWAV(path)
	if err != nil {
		return Analysis{}, fmt.Errorf("classify %s: %w", path, err)
	}
	return Classify(samples, rate)
}

func classifyType(speechRatio, musicProb float64) string {
	if musicProb >= 0.70 && speechRatio < 0.12 {
		return jobs.AudioMusic
	}
	if musicProb >= 0.45 && speechRatio >= 0.12 && speechRatio <= 0.60 {
		return jobs.AudioMixed
	}
	return jobs.AudioSpeech
}
