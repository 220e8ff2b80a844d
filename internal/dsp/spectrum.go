package dsp

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Spectrum computes windowed real-FFT power spectra for fixed-size frames.
// It is not safe for concurrent use.
type Spectrum struct {
	size   int
	fft    *fourier.FFT
	window []float64
	buf    []float64
	coeffs []complex128
}

// NewHammingSpectrum prepares a Spectrum for frames of size samples.
func NewHammingSpectrum(size int) *Spectrum {
	return newSpectrum(size, window.Hamming)
}

// NewHannSpectrum prepares a Spectrum using a Hann window.
func NewHannSpectrum(size int) *Spectrum {
	return newSpectrum(size, window.Hann)
}

func newSpectrum(size int, apply func([]float64) []float64) *Spectrum {
	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1
	}
	return &Spectrum{
		size:   size,
		fft:    fourier.NewFFT(size),
		window: apply(coeffs),
		buf:    make([]float64, size),
	}
}

// Size is the frame length in samples.
func (s *Spectrum) Size() int { return s.size }

// Window returns the window coefficients.
func (s *Spectrum) Window() []float64 { return s.window }

// Bins is the number of non-negative frequency bins, size/2+1.
func (s *Spectrum) Bins() int { return s.size/2 + 1 }

// Coefficients returns the complex spectrum of the windowed frame. The slice
// is reused by the next call.
func (s *Spectrum) Coefficients(frame []float64) []complex128 {
	for i := range s.buf {
		if i < len(frame) {
			s.buf[i] = frame[i] * s.window[i]
		} else {
			s.buf[i] = 0
		}
	}
	s.coeffs = s.fft.Coefficients(s.coeffs, s.buf)
	return s.coeffs
}

// Power returns |X(k)|^2 for the windowed frame into dst.
func (s *Spectrum) Power(dst []float64, frame []float64) []float64 {
	coeffs := s.Coefficients(frame)
	if cap(dst) < len(coeffs) {
		dst = make([]float64, len(coeffs))
	}
	dst = dst[:len(coeffs)]
	for i, c := range coeffs {
		m := cmplx.Abs(c)
		dst[i] = m * m
	}
	return dst
}

// Inverse reconstructs a real frame from coeffs into dst, normalized so that
// Inverse(Coefficients(x)) equals the windowed x.
func (s *Spectrum) Inverse(dst []float64, coeffs []complex128) []float64 {
	dst = s.fft.Sequence(dst, coeffs)
	n := float64(s.size)
	for i := range dst {
		dst[i] /= n
	}
	return dst
}

// BinFrequency returns the centre frequency of bin k in Hz.
func (s *Spectrum) BinFrequency(k, sampleRate int) float64 {
	return float64(k) * float64(sampleRate) / float64(s.size)
}
