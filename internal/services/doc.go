// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified (tool failure, content rejection, admission) without string
//     matching.
//
// Subpackages wrap the external programs and HTTP APIs the pipeline talks to
// (whisperx, whisper.cpp, the LLM used for optional transcript correction).
package services
