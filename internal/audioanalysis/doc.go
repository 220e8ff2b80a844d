// Package audioanalysis classifies a mono waveform as speech, mixed or music.
//
// Classify measures four things: duration, the share of 30 ms frames a voice
// activity detector marks as speech, a music probability blended from spectral
// flatness, centroid variance and harmonic concentration, and a percentile
// based SNR estimate. The type decision uses fixed thresholds and the first
// matching rule wins:
//
//	music  music_prob >= 0.70 and speech_ratio < 0.12
//	mixed  music_prob >= 0.45 and 0.12 <= speech_ratio <= 0.60
//	speech otherwise
//
// WebRTC VAD needs cgo and the webrtcvad build tag. Other builds, or inputs the
// VAD rejects, fall back to an energy detector that marks frames louder than
// 1.5x the median.
package audioanalysis
