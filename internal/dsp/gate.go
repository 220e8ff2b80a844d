package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/stat"
)

// GateOptions tunes SpectralGate.
type GateOptions struct {
	FrameSize int
	Hop       int
	// Threshold is the number of standard deviations above the per-bin mean
	// (in dB) a bin must reach to be kept.
	Threshold float64
	// Floor is the gain applied to gated bins.
	Floor float64
}

// DefaultGateOptions mirrors the stationary noise-reduction settings used for
// 16 kHz speech.
func DefaultGateOptions() GateOptions {
	return GateOptions{FrameSize: 512, Hop: 128, Threshold: 1.5, Floor: 0.1}
}

// SpectralGate attenuates time-frequency bins that do not rise above the
// per-bin noise estimate taken over the whole signal.
func SpectralGate(samples []float64, opts GateOptions) []float64 {
	if opts.FrameSize <= 0 {
		opts = DefaultGateOptions()
	}
	n := len(samples)
	if n < opts.FrameSize {
		return append([]float64(nil), samples...)
	}

	spec := NewHannSpectrum(opts.FrameSize)
	frames := Frames(samples, opts.FrameSize, opts.Hop)
	bins := spec.Bins()

	stft := make([][]complex128, len(frames))
	magsDB := make([][]float64, bins)
	for k := range magsDB {
		magsDB[k] = make([]float64, len(frames))
	}
	for t, frame := range frames {
		coeffs := spec.Coefficients(frame)
		stft[t] = append([]complex128(nil), coeffs...)
		for k, c := range coeffs {
			magsDB[k][t] = 20 * math.Log10(cmplx.Abs(c)+1e-10)
		}
	}

	thresholds := make([]float64, bins)
	for k := range thresholds {
		mean, std := stat.MeanStdDev(magsDB[k], nil)
		if math.IsNaN(std) {
			std = 0
		}
		thresholds[k] = mean + opts.Threshold*std
	}

	mask := make([][]float64, len(frames))
	for t := range frames {
		mask[t] = make([]float64, bins)
		for k := 0; k < bins; k++ {
			if magsDB[k][t] > thresholds[k] {
				mask[t][k] = 1
			}
		}
	}
	mask = smoothMask(mask)

	out := make([]float64, n)
	norm := make([]float64, n)
	win := spec.Window()
	frame := make([]float64, opts.FrameSize)
	for t := range frames {
		coeffs := stft[t]
		for k := range coeffs {
			gain := opts.Floor + (1-opts.Floor)*mask[t][k]
			coeffs[k] *= complex(gain, 0)
		}
		frame = spec.Inverse(frame, coeffs)
		start := t * opts.Hop
		for i, v := range frame {
			out[start+i] += v * win[i]
			norm[start+i] += win[i] * win[i]
		}
	}
	for i := range out {
		if norm[i] > 1e-8 {
			out[i] /= norm[i]
		} else {
			out[i] = samples[i]
		}
	}
	return out
}

// smoothMask averages each cell with its time and frequency neighbours so
// isolated bins do not produce musical noise.
func smoothMask(mask [][]float64) [][]float64 {
	if len(mask) == 0 {
		return mask
	}
	bins := len(mask[0])
	out := make([][]float64, len(mask))
	for t := range mask {
		out[t] = make([]float64, bins)
		for k := 0; k < bins; k++ {
			var sum, count float64
			for dt := -1; dt <= 1; dt++ {
				for dk := -1; dk <= 1; dk++ {
					tt, kk := t+dt, k+dk
					if tt < 0 || tt >= len(mask) || kk < 0 || kk >= bins {
						continue
					}
					sum += mask[tt][kk]
					count++
				}
			}
			out[t][k] = sum / count
		}
	}
	return out
}
