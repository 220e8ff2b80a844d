// Package dsp holds the signal-processing primitives shared by the audio
// classifier and the in-process enhancement fallbacks: WAV IO, framing,
// resampling, percentile statistics, Butterworth filtering with zero-phase
// application, and STFT-based spectral gating.
//
// Samples are float64 in [-1, 1], mono.
package dsp
