package audio

import "testing"

func TestSampleCount(t *testing.T) {
	tests := []struct {
		seconds float64
		rate    int
		want    int
	}{
		{1.5, 24000, 36000},
		{0.1, 24000, 2400},
		{2.0000000001, 24000, 48000},
		{-1, 24000, 0},
		{1.0 / 3.0, 3, 1},
	}
	for _, tt := range tests {
		if got := SampleCount(tt.seconds, tt.rate); got != tt.want {
			t.Errorf("SampleCount(%v, %d) = %d, want %d", tt.seconds, tt.rate, got, tt.want)
		}
	}
}

func TestResize(t *testing.T) {
	b := Buffer{Samples: []float32{1, 2, 3}, SampleRate: 10}

	longer := Resize(b, 5)
	if longer.Len() != 5 || longer.Samples[2] != 3 || longer.Samples[4] != 0 {
		t.Errorf("Resize up = %v", longer.Samples)
	}

	shorter := Resize(b, 2)
	if shorter.Len() != 2 || shorter.Samples[1] != 2 {
		t.Errorf("Resize down = %v", shorter.Samples)
	}

	shorter.Samples[0] = 42
	if b.Samples[0] != 1 {
		t.Error("Resize must not alias its input")
	}
}

func TestConcatAndDuration(t *testing.T) {
	out := Concat(0,
		Buffer{Samples: []float32{1, 1}, SampleRate: 4},
		Silence(2, 4),
		Buffer{Samples: []float32{2}, SampleRate: 4},
	)
	if out.SampleRate != 4 {
		t.Fatalf("SampleRate = %d, want 4", out.SampleRate)
	}
	want := []float32{1, 1, 0, 0, 2}
	if out.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", out.Len(), len(want))
	}
	for i := range want {
		if out.Samples[i] != want[i] {
			t.Errorf("sample %d = %f, want %f", i, out.Samples[i], want[i])
		}
	}
	if out.Duration() != 1.25 {
		t.Errorf("Duration = %f, want 1.25", out.Duration())
	}
}

func TestResample(t *testing.T) {
	src := sine(100, 1.0, 16000)
	got := Resample(src, OutputSampleRate)
	if got.SampleRate != OutputSampleRate {
		t.Fatalf("SampleRate = %d", got.SampleRate)
	}
	if got.Len() != OutputSampleRate {
		t.Errorf("Len = %d, want %d", got.Len(), OutputSampleRate)
	}
	same := Resample(got, OutputSampleRate)
	if same.Len() != got.Len() {
		t.Error("resampling to the same rate must be a no-op")
	}
}
