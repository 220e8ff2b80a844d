// Package enhance runs the audio preparation stages that sit in front of the
// classifier and the recognizer: transcoding to 16 kHz mono WAV, denoising and
// music suppression.
//
// Denoising and suppression are fallback chains. Each Provider either writes
// the output file or fails, and Chain tries providers in order until one
// succeeds. The winning provider's name is returned so callers can record it
// on the job. External tools (rnnoise, demucs) come first; the in-process DSP
// fallbacks in internal/dsp always remain available.
package enhance
