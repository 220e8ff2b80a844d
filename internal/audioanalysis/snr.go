package audioanalysis

import (
	"math"

	"voxpipe/internal/dsp"
)

// estimateSNR compares the 90th and 10th percentile frame energies. When
// speech is present the signal level is raised to the mean of frames clearly
// above the noise floor. The result is in dB and never negative.
func estimateSNR(samples []float64, sampleRate int, speechRatio float64) float64 {
	energies := shortTermEnergies(samples, sampleRate)
	if len(energies) == 0 {
		return 0
	}
	noise := dsp.Percentile(energies, 10)
	signal := dsp.Percentile(energies, 90)
	if speechRatio > 0.05 {
		var sum float64
		var count int
		for _, e := range energies {
			if e > noise*1.5 {
				sum += e
				count++
			}
		}
		if count > 0 {
			signal = math.Max(signal, sum/float64(count))
		}
	}
	snr := 10 * math.Log10((signal+1e-9)/(noise+1e-9))
	return math.Max(snr, 0)
}
