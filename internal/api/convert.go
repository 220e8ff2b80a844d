package api

import (
	"strings"
	"time"

	"voxpipe/internal/deps"
	"voxpipe/internal/jobs"
)

// FromJob converts a job record into its transport representation.
func FromJob(job *jobs.Job) Job {
	if job == nil {
		return Job{}
	}
	return Job{
		ID:                 job.ID,
		Status:             string(job.Status),
		Progress:           job.Progress,
		ErrorMessage:       optionalString(job.ErrorMessage),
		OriginalFilename:   job.OriginalFilename,
		CreatedAt:          formatTimestamp(job.CreatedAt),
		UpdatedAt:          formatTimestamp(job.UpdatedAt),
		DurationSeconds:    job.DurationSeconds,
		AudioType:          optionalString(job.AudioType),
		MusicProbability:   job.MusicProbability,
		SpeechRatio:        job.SpeechRatio,
		SNREstimate:        job.SNREstimate,
		ASRProfile:         optionalString(job.ASRProfile),
		DenoiseProvider:    job.DenoiseProvider,
		SeparationProvider: job.SeparationProvider,
		ASRBackend:         job.ASRBackend,
	}
}

// FromJobs converts a slice of job records, preserving order.
func FromJobs(list []*jobs.Job) []Job {
	out := make([]Job, 0, len(list))
	for _, job := range list {
		if job == nil {
			continue
		}
		out = append(out, FromJob(job))
	}
	return out
}

// TranscriptOf extracts the transcript payload of a job.
func TranscriptOf(job *jobs.Job) Transcript {
	if job == nil {
		return Transcript{}
	}
	return Transcript{RawText: job.RawText, CleanedText: job.CleanedText}
}

// MergeJobStats returns counts keyed by status with every status present.
func MergeJobStats(stats map[jobs.Status]int) map[string]int {
	out := map[string]int{
		string(jobs.StatusQueued):     0,
		string(jobs.StatusProcessing): 0,
		string(jobs.StatusDone):       0,
		string(jobs.StatusError):      0,
	}
	for status, count := range stats {
		out[string(status)] += count
	}
	return out
}

// FromDependencies converts dependency checks into DTOs.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, dep := range statuses {
		out = append(out, DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}
	return out
}

// NewError builds an error envelope.
func NewError(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorBody{Code: code, Message: message}}
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	v := value
	return &v
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
