package audioanalysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"voxpipe/internal/dsp"
)

const spectralEps = 1e-10

type spectralFeatures struct {
	flatness    float64
	centroidVar float64
	harmonicity float64
}

// musicProbability blends spectral evidence with the absence of speech. Low
// flatness means tonal content, so flatness counts inversely. A waveform with
// no energetic frame carries no spectral evidence at all.
func musicProbability(samples []float64, sampleRate int, speechRatio float64) float64 {
	var base float64
	if f, ok := measureSpectrum(samples, sampleRate); ok {
		flatnessScore := dsp.Clip(1-f.flatness*1.2, 0, 1)
		centroidScore := math.Min(f.centroidVar/(float64(sampleRate)*10), 1)
		harmonicScore := math.Min(f.harmonicity*1.1, 1)
		base = 0.45*flatnessScore + 0.25*centroidScore + 0.3*harmonicScore
	}
	return dsp.Clip(base*0.5+(1-speechRatio)*0.5, 0, 1)
}

// measureSpectrum averages per-frame features over 46 ms Hamming frames with
// a 23 ms hop. Frames with no energy are skipped; ok is false when none remain.
func measureSpectrum(samples []float64, sampleRate int) (spectralFeatures, bool) {
	frameLen := dsp.MsToSamples(46, sampleRate)
	frames := dsp.Frames(samples, frameLen, dsp.MsToSamples(23, sampleRate))
	if len(frames) == 0 {
		return spectralFeatures{}, false
	}

	spec := dsp.NewHammingSpectrum(frameLen)
	var (
		power     []float64
		sorted    []float64
		flatness  []float64
		centroids []float64
		harmonics []float64
	)
	for _, frame := range frames {
		power = spec.Power(power, frame)
		total := floats.Sum(power)
		if total == 0 {
			continue
		}

		var logSum, weighted float64
		for k, p := range power {
			logSum += math.Log(p + spectralEps)
			weighted += spec.BinFrequency(k, sampleRate) * p
		}
		n := float64(len(power))
		geoMean := math.Exp(logSum / n)
		arithMean := total/n + spectralEps
		flatness = append(flatness, geoMean/arithMean)
		centroids = append(centroids, weighted/(total+spectralEps))

		harmonic := 0.0
		if len(power) >= 3 {
			sorted = append(sorted[:0], power...)
			sort.Float64s(sorted)
			top := floats.Sum(sorted[len(sorted)-3:])
			rest := math.Max(floats.Sum(sorted[:len(sorted)-3]), spectralEps)
			harmonic = top / (rest + top)
		}
		harmonics = append(harmonics, harmonic)
	}
	if len(flatness) == 0 {
		return spectralFeatures{}, false
	}
	return spectralFeatures{
		flatness:    stat.Mean(flatness, nil),
		centroidVar: stat.PopVariance(centroids, nil),
		harmonicity: stat.Mean(harmonics, nil),
	}, true
}
