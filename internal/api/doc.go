// Package api defines wire-format types and converters for the HTTP API and
// the CLI's JSON output. It translates internal job records into
// transport-friendly DTOs so handlers and commands never serialise
// jobs.Job directly.
//
// # Key Types
//
// Job: transport representation of a job with progress, classifier
// measurements, and the providers that served each fallback chain.
//
// Envelope types (JobResponse, HistoryResponse, ResultResponse,
// ErrorResponse, HealthResponse) carry the {"ok": ...} wrapper every
// endpoint returns.
//
// # Converters
//
// FromJob: jobs.Job -> Job with RFC3339 millisecond timestamps.
//
// MergeJobStats: status counts with every known status present.
//
// # Design Notes
//
// Field names are snake_case to stay compatible with existing web clients.
// Transcript text is only exposed through ResultResponse so polling the job
// stays cheap.
package api
