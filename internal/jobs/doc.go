// Package jobs persists transcription jobs in SQLite.
//
// The Store is the single source of truth for job state. Rows are keyed by a
// dashless UUID and carry the lifecycle status, a progress percentage, the
// audio analysis produced by the classifier, the providers that handled each
// enhancement stage, and the raw/cleaned transcript. Only the workflow
// orchestrator mutates status and progress; everything else reads.
//
// The schema is embedded and versioned. A database created by an older build
// is rejected with ErrSchemaMismatch rather than migrated in place.
package jobs
