package audioanalysis

import (
	"voxpipe/internal/dsp"
)

const (
	vadSampleRate = 16000
	vadFrameMs    = 30
	vadMode       = 2
)

// speechRatio prefers WebRTC VAD and falls back to the energy detector when
// the VAD cannot be created or rejects a frame.
func speechRatio(samples []float64, sampleRate int) (float64, string) {
	if ratio, err := vadSpeechRatio(samples, sampleRate); err == nil {
		return ratio, MethodWebRTC
	}
	return energySpeechRatio(samples, sampleRate), MethodEnergy
}

func vadSpeechRatio(samples []float64, sampleRate int) (float64, error) {
	vad, err := newVAD(vadMode)
	if err != nil {
		return 0, err
	}
	data := dsp.Resample(samples, sampleRate, vadSampleRate)
	frameLen := dsp.MsToSamples(vadFrameMs, vadSampleRate)
	frames := dsp.Frames(data, frameLen, frameLen)
	if len(frames) == 0 {
		return 0, nil
	}
	speech := 0
	for _, frame := range frames {
		isSpeech, err := vad.Process(vadSampleRate, dsp.PCM16(frame))
		if err != nil {
			return 0, err
		}
		if isSpeech {
			speech++
		}
	}
	return float64(speech) / float64(len(frames)), nil
}

func energySpeechRatio(samples []float64, sampleRate int) float64 {
	energies := shortTermEnergies(samples, sampleRate)
	if len(energies) == 0 {
		return 0
	}
	threshold := dsp.Median(energies) * 1.5
	speech := 0
	for _, e := range energies {
		if e > threshold {
			speech++
		}
	}
	return float64(speech) / float64(len(energies))
}

// shortTermEnergies uses 30 ms frames with a 15 ms hop.
func shortTermEnergies(samples []float64, sampleRate int) []float64 {
	return dsp.FrameEnergies(samples, dsp.MsToSamples(30, sampleRate), dsp.MsToSamples(15, sampleRate))
}
