package audio

// Resample converts b to rate with linear interpolation. It is used for
// synthesizer output that does not arrive at the track rate.
func Resample(b Buffer, rate int) Buffer {
	if rate <= 0 || b.SampleRate == rate || b.SampleRate <= 0 {
		return b
	}
	n := SampleCount(b.Duration(), rate)
	return Buffer{Samples: linearResize(b.Samples, n), SampleRate: rate}
}

// linearResize maps src onto n samples by linear interpolation.
func linearResize(src []float32, n int) []float32 {
	out := make([]float32, n)
	if n == 0 || len(src) == 0 {
		return out
	}
	if len(src) == 1 || n == 1 {
		for i := range out {
			out[i] = src[0]
		}
		return out
	}
	step := float64(len(src)-1) / float64(n-1)
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= len(src)-1 {
			out[i] = src[len(src)-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = src[j]*(1-frac) + src[j+1]*frac
	}
	return out
}
