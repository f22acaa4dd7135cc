package audio

import (
	"errors"
	"math"
	"testing"
)

func TestNormalizeAveragesChannels(t *testing.T) {
	const frames = 100
	data := make([]float32, 2*frames)
	for i := 0; i < frames; i++ {
		data[i] = 0.2
		data[frames+i] = 0.6
	}
	buf, err := Normalize(Waveform{Data: data, Shape: []int{2, frames}, SampleRate: 44100})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if buf.Len() != frames {
		t.Fatalf("Len = %d, want %d", buf.Len(), frames)
	}
	if buf.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", buf.SampleRate)
	}
	for i, s := range buf.Samples {
		if math.Abs(float64(s)-0.4) > 1e-6 {
			t.Fatalf("sample %d = %f, want 0.4", i, s)
		}
	}
}

func TestNormalizeTakesFirstGroup(t *testing.T) {
	// [2 groups, 1 channel, 3 samples]
	data := []float32{1, 2, 3, 9, 9, 9}
	buf, err := Normalize(Waveform{Data: data, Shape: []int{2, 1, 3}, SampleRate: 16000})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := []float32{1, 2, 3}
	if len(buf.Samples) != len(want) {
		t.Fatalf("Len = %d, want %d", len(buf.Samples), len(want))
	}
	for i := range want {
		if buf.Samples[i] != want[i] {
			t.Errorf("sample %d = %f, want %f", i, buf.Samples[i], want[i])
		}
	}
}

func TestNormalizeFlatIsMono(t *testing.T) {
	data := []float32{0.1, -0.1, 0.3}
	buf, err := Normalize(Waveform{Data: data, Shape: []int{3}, SampleRate: 24000})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	data[0] = 5
	if buf.Samples[0] != 0.1 {
		t.Error("Normalize must copy flat input")
	}

	buf, err = Normalize(Waveform{Data: []float32{0.5, 0.5}, SampleRate: 24000})
	if err != nil {
		t.Fatalf("shapeless Normalize: %v", err)
	}
	if buf.Len() != 2 {
		t.Errorf("shapeless Len = %d, want 2", buf.Len())
	}
}

func TestNormalizeRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name string
		w    Waveform
	}{
		{"rank four", Waveform{Data: make([]float32, 8), Shape: []int{1, 2, 2, 2}, SampleRate: 8000}},
		{"size mismatch", Waveform{Data: make([]float32, 5), Shape: []int{2, 3}, SampleRate: 8000}},
		{"zero dimension", Waveform{Data: nil, Shape: []int{2, 0}, SampleRate: 8000}},
		{"no rate", Waveform{Data: make([]float32, 4), Shape: []int{4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Normalize(tt.w); !errors.Is(err, ErrShape) {
				t.Fatalf("err = %v, want ErrShape", err)
			}
		})
	}
}

func TestFromInterleaved(t *testing.T) {
	w := FromInterleaved([]float32{1, 10, 2, 20, 3, 30}, 2, 8000)
	if len(w.Shape) != 2 || w.Shape[0] != 2 || w.Shape[1] != 3 {
		t.Fatalf("Shape = %v, want [2 3]", w.Shape)
	}
	want := []float32{1, 2, 3, 10, 20, 30}
	for i := range want {
		if w.Data[i] != want[i] {
			t.Errorf("Data[%d] = %f, want %f", i, w.Data[i], want[i])
		}
	}
}
