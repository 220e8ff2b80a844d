package dsp

import "math"

// Biquad is a second-order IIR section in normalized form (a0 == 1).
type Biquad struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// butterworthQ holds the pole quality factors for a 4th-order Butterworth
// response split into two second-order sections.
var butterworthQ = [2]float64{
	1 / (2 * math.Cos(math.Pi/8)),
	1 / (2 * math.Cos(3*math.Pi/8)),
}

func lowPass(cutoff, sampleRate, q float64) Biquad {
	w0 := 2 * math.Pi * cutoff / sampleRate
	cosw, alpha := math.Cos(w0), math.Sin(w0)/(2*q)
	a0 := 1 + alpha
	return Biquad{
		B0: (1 - cosw) / 2 / a0,
		B1: (1 - cosw) / a0,
		B2: (1 - cosw) / 2 / a0,
		A1: -2 * cosw / a0,
		A2: (1 - alpha) / a0,
	}
}

func highPass(cutoff, sampleRate, q float64) Biquad {
	w0 := 2 * math.Pi * cutoff / sampleRate
	cosw, alpha := math.Cos(w0), math.Sin(w0)/(2*q)
	a0 := 1 + alpha
	return Biquad{
		B0: (1 + cosw) / 2 / a0,
		B1: -(1 + cosw) / a0,
		B2: (1 + cosw) / 2 / a0,
		A1: -2 * cosw / a0,
		A2: (1 - alpha) / a0,
	}
}

// ButterworthBandPass designs a 4th-order Butterworth high-pass at low Hz
// cascaded with a 4th-order low-pass at high Hz. Normalized edges are clamped
// to [0.001, 0.99] of Nyquist.
func ButterworthBandPass(low, high float64, sampleRate int) []Biquad {
	nyquist := 0.5 * float64(sampleRate)
	lowNorm := math.Max(low/nyquist, 0.001)
	highNorm := math.Min(high/nyquist, 0.99)
	fs := float64(sampleRate)

	sections := make([]Biquad, 0, 4)
	for _, q := range butterworthQ {
		sections = append(sections, highPass(lowNorm*nyquist, fs, q))
	}
	for _, q := range butterworthQ {
		sections = append(sections, lowPass(highNorm*nyquist, fs, q))
	}
	return sections
}

// Filter runs samples through the cascade once (causal).
func Filter(sections []Biquad, samples []float64) []float64 {
	out := append([]float64(nil), samples...)
	for _, sec := range sections {
		var z1, z2 float64
		for i, x := range out {
			y := sec.B0*x + z1
			z1 = sec.B1*x - sec.A1*y + z2
			z2 = sec.B2*x - sec.A2*y
			out[i] = y
		}
	}
	return out
}

// FiltFilt applies the cascade forward and backward for zero phase. The
// signal is extended by odd reflection at both ends to tame edge transients.
func FiltFilt(sections []Biquad, samples []float64) []float64 {
	n := len(samples)
	if n == 0 {
		return nil
	}
	pad := 3 * (2*len(sections) + 1)
	if pad > n-1 {
		pad = n - 1
	}

	ext := make([]float64, 0, n+2*pad)
	for i := pad; i >= 1; i-- {
		ext = append(ext, 2*samples[0]-samples[i])
	}
	ext = append(ext, samples...)
	for i := n - 2; i >= n-1-pad; i-- {
		ext = append(ext, 2*samples[n-1]-samples[i])
	}

	fwd := Filter(sections, ext)
	reverse(fwd)
	back := Filter(sections, fwd)
	reverse(back)
	return back[pad : pad+n]
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
