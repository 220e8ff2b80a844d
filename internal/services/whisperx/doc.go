// Package whisperx runs WhisperX through uvx and reads back its JSON transcript.
//
// The service is the primary transcription backend. Decoding parameters
// (beam size, temperature, no-speech threshold, conditioning on previous
// text, initial prompt) arrive per call through Options so the caller can
// switch presets without rebuilding the service.
//
// Command execution is injectable with WithCommandRunner for tests.
package whisperx
