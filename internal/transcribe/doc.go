// Package transcribe turns a processed WAV into raw text.
//
// A Profile carries the decoding preset chosen from the classifier output.
// Service tries its backends in order (whisperx, then whisper.cpp) and only
// fails when every backend fails; the Result names the backend that produced
// the text.
package transcribe
