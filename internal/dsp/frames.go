package dsp

import "math"

// Frames slices samples into full frames of frameLen advanced by hop. A
// trailing partial frame is dropped, so input shorter than one frame yields
// nothing. The returned frames alias samples.
func Frames(samples []float64, frameLen, hop int) [][]float64 {
	if len(samples) < frameLen || frameLen <= 0 || hop <= 0 {
		return nil
	}
	frames := make([][]float64, 0, 1+(len(samples)-frameLen)/hop)
	for start := 0; start+frameLen <= len(samples); start += hop {
		frames = append(frames, samples[start:start+frameLen])
	}
	return frames
}

// FrameEnergies returns the mean-square energy of each frame.
func FrameEnergies(samples []float64, frameLen, hop int) []float64 {
	frames := Frames(samples, frameLen, hop)
	if len(frames) == 0 {
		return nil
	}
	energies := make([]float64, len(frames))
	for i, frame := range frames {
		energies[i] = meanSquare(frame)
	}
	return energies
}

func meanSquare(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, v := range frame {
		sum += v * v
	}
	return sum / float64(len(frame))
}

// MsToSamples converts a duration in milliseconds to a whole sample count.
func MsToSamples(ms float64, sampleRate int) int {
	return int(ms * float64(sampleRate) / 1000)
}

// Resample converts samples between rates with linear interpolation.
func Resample(samples []float64, from, to int) []float64 {
	if from == to || from <= 0 || to <= 0 || len(samples) == 0 {
		return samples
	}
	outLen := int(math.Round(float64(len(samples)) * float64(to) / float64(from)))
	if outLen < 1 {
		outLen = 1
	}
	out := make([]float64, outLen)
	ratio := float64(from) / float64(to)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= last {
			out[i] = samples[last]
			continue
		}
		frac := pos - float64(idx)
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}

// Clip bounds v to [lo, hi].
func Clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SoftCompress applies tanh(drive*x) to every sample.
func SoftCompress(samples []float64, drive float64) []float64 {
	out := make([]float64, len(samples))
	for i, v := range samples {
		out[i] = math.Tanh(v * drive)
	}
	return out
}
