// Package workflow drives uploaded audio jobs from queued to a terminal state.
//
// The Pool owns the bounded admission queue, the membership set used for
// duplicate suppression, and the per-job locks that guarantee a single worker
// per job. Workers hand job ids to the Orchestrator, which sequences the
// transcode, analysis, music suppression, denoise, transcription, and text
// cleaning stages, persisting progress after every transition.
//
// Recover re-admits work left behind by a previous process and the
// RetentionSweeper prunes expired jobs along with their audio files.
package workflow
