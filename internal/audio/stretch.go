package audio

import "math"

const (
	wsolaFrameMillis  = 30
	wsolaSearchMillis = 8
)

// Stretch changes the tempo of b by ratio without shifting its pitch. A ratio
// above 1 shortens the buffer: the result holds round(len/ratio) samples.
// The implementation is WSOLA: Hann-windowed frames are overlap-added at a
// fixed synthesis hop while the analysis position advances by hop*ratio and
// is nudged toward the offset that best continues the previous frame.
func Stretch(b Buffer, ratio float64) Buffer {
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return b
	}
	outLen := int(math.Round(float64(len(b.Samples)) / ratio))
	if ratio == 1 {
		return Resize(b, outLen)
	}
	return Buffer{Samples: wsola(b.Samples, ratio, b.SampleRate, outLen), SampleRate: b.SampleRate}
}

func wsola(in []float32, ratio float64, rate, outLen int) []float32 {
	frame := rate * wsolaFrameMillis / 1000
	if frame < 16 {
		frame = 16
	}
	frame &^= 1
	hop := frame / 2
	tol := rate * wsolaSearchMillis / 1000
	if len(in) < frame+2*tol || outLen < frame {
		return linearResize(in, outLen)
	}

	window := hann(frame)
	acc := make([]float64, outLen+frame)
	norm := make([]float64, outLen+frame)
	last := len(in) - frame

	prev := -1
	for outPos := 0; outPos < outLen; outPos += hop {
		pos := int(math.Round(float64(outPos) * ratio))
		if prev >= 0 {
			pos = bestOffset(in, prev+hop, pos, tol, hop, last)
		}
		pos = clamp(pos, 0, last)
		for i := 0; i < frame; i++ {
			acc[outPos+i] += float64(in[pos+i]) * window[i]
			norm[outPos+i] += window[i]
		}
		prev = pos
	}

	out := make([]float32, outLen)
	for i := range out {
		if norm[i] > 1e-3 {
			out[i] = float32(acc[i] / norm[i])
		}
	}
	return out
}

// bestOffset searches [nominal-tol, nominal+tol] for the frame start whose
// leading overlap correlates best with the natural continuation of the
// previous frame.
func bestOffset(in []float32, natural, nominal, tol, overlap, last int) int {
	if natural < 0 || natural+overlap > len(in) {
		return nominal
	}
	lo := clamp(nominal-tol, 0, last)
	hi := clamp(nominal+tol, 0, last)
	best := clamp(nominal, 0, last)
	bestScore := math.Inf(-1)
	for cand := lo; cand <= hi; cand++ {
		var score float64
		for i := 0; i < overlap; i += 2 {
			score += float64(in[natural+i]) * float64(in[cand+i])
		}
		if score > bestScore {
			bestScore = score
			best = cand
		}
	}
	return best
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
