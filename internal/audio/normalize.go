package audio

import (
	"errors"
	"fmt"
)

// ErrShape reports a waveform whose shape cannot be reduced to mono.
var ErrShape = errors.New("audio: unsupported waveform shape")

// Waveform is shaped sample data as received from a host. Data is row-major:
// a [channels, samples] waveform stores channel 0 first. Accepted ranks are
// [samples], [channels, samples] and [groups, channels, samples].
type Waveform struct {
	Data       []float32
	Shape      []int
	SampleRate int
}

// FromInterleaved builds a [channels, samples] waveform from interleaved
// frames as produced by most decoders.
func FromInterleaved(data []float32, channels, rate int) Waveform {
	if channels <= 1 {
		return Waveform{Data: data, Shape: []int{len(data)}, SampleRate: rate}
	}
	frames := len(data) / channels
	planar := make([]float32, frames*channels)
	for f := 0; f < frames; f++ {
		for c := 0; c < channels; c++ {
			planar[c*frames+f] = data[f*channels+c]
		}
	}
	return Waveform{Data: planar, Shape: []int{channels, frames}, SampleRate: rate}
}

// Normalize reduces w to a single channel. A leading group dimension is
// collapsed by keeping the first group; several channels are averaged sample
// by sample; a flat waveform is already mono.
func Normalize(w Waveform) (Buffer, error) {
	if w.SampleRate <= 0 {
		return Buffer{}, fmt.Errorf("%w: sample rate %d", ErrShape, w.SampleRate)
	}
	shape := w.Shape
	if len(shape) == 0 {
		// Shapeless data is treated as a flat sequence.
		shape = []int{len(w.Data)}
	}
	size := 1
	for _, d := range shape {
		if d <= 0 {
			return Buffer{}, fmt.Errorf("%w: dimension %v", ErrShape, shape)
		}
		size *= d
	}
	if size != len(w.Data) {
		return Buffer{}, fmt.Errorf("%w: shape %v holds %d values, got %d", ErrShape, shape, size, len(w.Data))
	}

	data := w.Data
	switch len(shape) {
	case 1:
		return Buffer{Samples: append([]float32(nil), data...), SampleRate: w.SampleRate}, nil
	case 3:
		group := shape[1] * shape[2]
		data = data[:group]
		shape = shape[1:]
	case 2:
	default:
		return Buffer{}, fmt.Errorf("%w: rank %d", ErrShape, len(shape))
	}

	channels, frames := shape[0], shape[1]
	out := make([]float32, frames)
	if channels == 1 {
		copy(out, data[:frames])
		return Buffer{Samples: out, SampleRate: w.SampleRate}, nil
	}
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(data[c*frames+i])
		}
		out[i] = float32(sum / float64(channels))
	}
	return Buffer{Samples: out, SampleRate: w.SampleRate}, nil
}
