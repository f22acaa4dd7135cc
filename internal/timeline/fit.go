package timeline

import (
	"context"
	"fmt"

	"github.com/nupi-ai/plugin-tts-srt-voice/internal/audio"
)

// Action names what Fit did to a segment.
type Action string

const (
	ActionStretch     Action = "stretch"
	ActionPad         Action = "pad"
	ActionPassthrough Action = "passthrough"
	// ActionSilence marks slots filled without synthesis (blank text or zero length).
	ActionSilence Action = "silence"
)

// Stretcher changes the tempo of a buffer without shifting its pitch. A ratio
// above 1 shortens the buffer to roughly len/ratio samples.
type Stretcher interface {
	Stretch(ctx context.Context, b audio.Buffer, ratio float64) (audio.Buffer, error)
}

// WSOLA is the in-process Stretcher.
type WSOLA struct{}

// Stretch implements Stretcher.
func (WSOLA) Stretch(_ context.Context, b audio.Buffer, ratio float64) (audio.Buffer, error) {
	return audio.Stretch(b, ratio), nil
}

// Fit forces b to exactly target samples. Longer input is compressed with s,
// shorter input is padded with trailing silence, and the result is always
// clamped to target so rounding in the stretch never accumulates.
func Fit(ctx context.Context, s Stretcher, b audio.Buffer, target int) (audio.Buffer, Action, error) {
	if target < 0 {
		target = 0
	}
	raw := b.Len()
	switch {
	case raw > target && target > 0:
		if s == nil {
			s = WSOLA{}
		}
		ratio := float64(raw) / float64(target)
		stretched, err := s.Stretch(ctx, b, ratio)
		if err != nil {
			return audio.Buffer{}, ActionStretch, fmt.Errorf("timeline: stretch by %.3f: %w", ratio, err)
		}
		return audio.Resize(stretched, target), ActionStretch, nil
	case raw > target:
		return audio.Resize(b, 0), ActionStretch, nil
	case raw < target:
		return audio.Resize(b, target), ActionPad, nil
	default:
		return audio.Resize(b, target), ActionPassthrough, nil
	}
}
