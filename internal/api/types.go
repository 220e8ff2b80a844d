package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Error codes returned in ErrorBody.Code.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeQueueFull    = "QUEUE_FULL"
	CodeFileTooLarge = "FILE_TOO_LARGE"
	CodeTooLong      = "AUDIO_TOO_LONG"
	CodeNotFound     = "NOT_FOUND"
	CodeNotReady     = "NOT_READY"
	CodeInternal     = "INTERNAL"
)

// Job describes a job in a transport-friendly format.
type Job struct {
	ID                 string   `json:"id"`
	Status             string   `json:"status"`
	Progress           int      `json:"progress"`
	ErrorMessage       *string  `json:"error_message"`
	OriginalFilename   string   `json:"original_filename"`
	CreatedAt          string   `json:"created_at,omitempty"`
	UpdatedAt          string   `json:"updated_at,omitempty"`
	DurationSeconds    *int     `json:"duration_seconds"`
	AudioType          *string  `json:"audio_type"`
	MusicProbability   *float64 `json:"music_prob"`
	SpeechRatio        *float64 `json:"speech_ratio"`
	SNREstimate        *float64 `json:"snr_estimate"`
	ASRProfile         *string  `json:"asr_profile"`
	DenoiseProvider    string   `json:"denoise_provider,omitempty"`
	SeparationProvider string   `json:"separation_provider,omitempty"`
	ASRBackend         string   `json:"asr_backend,omitempty"`
}

// Transcript carries the raw and cleaned text of a finished job.
type Transcript struct {
	RawText     string `json:"raw_text"`
	CleanedText string `json:"cleaned_text"`
}

// ErrorBody is the error member of a failed response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	OK  bool `json:"ok"`
	Job Job  `json:"job"`
}

// HistoryResponse wraps the most recent jobs, newest first.
type HistoryResponse struct {
	OK   bool  `json:"ok"`
	Jobs []Job `json:"jobs"`
}

// ResultResponse wraps a finished job's transcript.
type ResultResponse struct {
	OK     bool       `json:"ok"`
	Result Transcript `json:"result"`
}

// ErrorResponse is returned for every non-2xx JSON response.
type ErrorResponse struct {
	OK    bool      `json:"ok"`
	Error ErrorBody `json:"error"`
}

// PoolStatus mirrors the worker pool's runtime counters.
type PoolStatus struct {
	Running  bool `json:"running"`
	Workers  int  `json:"workers"`
	Capacity int  `json:"capacity"`
	Queued   int  `json:"queued"`
	InFlight int  `json:"in_flight"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// HealthResponse aggregates daemon runtime information.
type HealthResponse struct {
	OK           bool               `json:"ok"`
	Pool         PoolStatus         `json:"pool"`
	JobCounts    map[string]int     `json:"job_counts"`
	Dependencies []DependencyStatus `json:"dependencies"`
}
