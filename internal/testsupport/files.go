package testsupport

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"voxpipe/internal/dsp"
)

// FixtureSampleRate is the rate used for generated WAV fixtures.
const FixtureSampleRate = 16000

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteTone writes a 16 kHz mono sine wave at half scale.
func WriteTone(t testing.TB, path string, freq float64, length time.Duration) {
	t.Helper()
	n := int(length.Seconds() * FixtureSampleRate)
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/FixtureSampleRate)
	}
	writeWAV(t, path, samples)
}

// WriteSilence writes near-silent 16 kHz audio: low-level deterministic noise.
func WriteSilence(t testing.TB, path string, length time.Duration) {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	samples := make([]float64, int(length.Seconds()*FixtureSampleRate))
	for i := range samples {
		samples[i] = 1e-4 * rng.NormFloat64()
	}
	writeWAV(t, path, samples)
}

func writeWAV(t testing.TB, path string, samples []float64) {
	t.Helper()
	if err := dsp.WriteWAV(path, samples, FixtureSampleRate); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
}
