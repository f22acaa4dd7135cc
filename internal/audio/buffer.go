package audio

import "math"

// OutputSampleRate is the fixed rate of every assembled track.
const OutputSampleRate = 24000

// Buffer is a mono waveform with float amplitudes in [-1, 1].
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Len returns the number of samples.
func (b Buffer) Len() int {
	return len(b.Samples)
}

// Duration returns the buffer length in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// SampleCount converts seconds to a sample count at rate, rounding to the
// nearest sample.
func SampleCount(seconds float64, rate int) int {
	n := math.Round(seconds * float64(rate))
	if n < 0 {
		return 0
	}
	return int(n)
}

// Silence returns n zero-amplitude samples at rate.
func Silence(n, rate int) Buffer {
	if n < 0 {
		n = 0
	}
	return Buffer{Samples: make([]float32, n), SampleRate: rate}
}

// Resize truncates or zero-pads the tail so the result holds exactly n samples.
// The input is never modified.
func Resize(b Buffer, n int) Buffer {
	if n < 0 {
		n = 0
	}
	out := make([]float32, n)
	copy(out, b.Samples)
	return Buffer{Samples: out, SampleRate: b.SampleRate}
}

// Concat joins buffers along the time axis. All buffers are expected to share
// rate; the first non-zero rate wins when rate is 0.
func Concat(rate int, parts ...Buffer) Buffer {
	total := 0
	for _, p := range parts {
		total += len(p.Samples)
		if rate == 0 {
			rate = p.SampleRate
		}
	}
	out := make([]float32, 0, total)
	for _, p := range parts {
		out = append(out, p.Samples...)
	}
	return Buffer{Samples: out, SampleRate: rate}
}
