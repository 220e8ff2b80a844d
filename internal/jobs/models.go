package jobs

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// IsTerminal reports whether no further transitions happen from this status.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusError
}

// ParseStatus converts a user supplied status string.
func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusQueued:
		return StatusQueued, true
	case StatusProcessing:
		return StatusProcessing, true
	case StatusDone:
		return StatusDone, true
	case StatusError:
		return StatusError, true
	}
	return "", false
}

// Audio types produced by the classifier.
const (
	AudioSpeech = "speech"
	AudioMixed  = "mixed"
	AudioMusic  = "music"
)

// Transcription profiles.
const (
	ProfileBalanced   = "balanced"
	ProfileNoisy      = "noisy"
	ProfileMusicMixed = "music_mixed"
)

// Job is a single upload moving through the pipeline.
type Job struct {
	ID                 string    `json:"id"`
	Status             Status    `json:"status"`
	Progress           int       `json:"progress"`
	OriginalFilename   string    `json:"original_filename"`
	SourcePath         string    `json:"-"`
	WorkingAudioPath   string    `json:"-"`
	DurationSeconds    *int      `json:"duration_seconds"`
	AudioType          string    `json:"audio_type,omitempty"`
	SpeechRatio        *float64  `json:"speech_ratio"`
	MusicProbability   *float64  `json:"music_prob"`
	SNREstimate        *float64  `json:"snr_estimate"`
	ASRProfile         string    `json:"asr_profile,omitempty"`
	RawText            string    `json:"-"`
	CleanedText        string    `json:"-"`
	ErrorMessage       string    `json:"error_message,omitempty"`
	DenoiseProvider    string    `json:"denoise_provider,omitempty"`
	SeparationProvider string    `json:"separation_provider,omitempty"`
	ASRBackend         string    `json:"asr_backend,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewID returns a fresh job identifier: 32 lowercase hex characters.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Column names accepted by Store.Update.
const (
	ColStatus             = "status"
	ColProgress           = "progress"
	ColWavPath            = "wav_path"
	ColDurationSeconds    = "duration_seconds"
	ColAudioType          = "audio_type"
	ColSpeechRatio        = "speech_ratio"
	ColMusicProb          = "music_prob"
	ColSNREstimate        = "snr_estimate"
	ColASRProfile         = "asr_profile"
	ColRawText            = "raw_text"
	ColCleanedText        = "cleaned_text"
	ColErrorMessage       = "error_message"
	ColDenoiseProvider    = "denoise_provider"
	ColSeparationProvider = "separation_provider"
	ColASRBackend         = "asr_backend"
)

var updatableColumns = map[string]struct{}{
	ColStatus:             {},
	ColProgress:           {},
	ColWavPath:            {},
	ColDurationSeconds:    {},
	ColAudioType:          {},
	ColSpeechRatio:        {},
	ColMusicProb:          {},
	ColSNREstimate:        {},
	ColASRProfile:         {},
	ColRawText:            {},
	ColCleanedText:        {},
	ColErrorMessage:       {},
	ColDenoiseProvider:    {},
	ColSeparationProvider: {},
	ColASRBackend:         {},
}

// Fields is a partial update keyed by column name. A nil value stores NULL.
type Fields map[string]any

// Order selects the sort direction for List.
type Order string

const (
	OrderNewest Order = "newest"
	OrderOldest Order = "oldest"
)

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Statuses      []Status
	CreatedBefore time.Time
	Order         Order
	Limit         int
}
