package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nupi-ai/plugin-tts-srt-voice/internal/audio"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/subtitle"
)

// SegmentSource produces raw speech for one entry. index is the entry's
// position in the sequence handed to Assemble.
type SegmentSource interface {
	Synthesize(ctx context.Context, index int, text string) (audio.Buffer, error)
}

// SegmentSourceFunc adapts a function to SegmentSource.
type SegmentSourceFunc func(ctx context.Context, index int, text string) (audio.Buffer, error)

// Synthesize implements SegmentSource.
func (f SegmentSourceFunc) Synthesize(ctx context.Context, index int, text string) (audio.Buffer, error) {
	return f(ctx, index, text)
}

// Segment reports how one entry was placed on the timeline.
type Segment struct {
	Position      int
	Entry         subtitle.Entry
	Action        Action
	Ratio         float64 // raw/target samples; 0 when nothing was synthesized
	GapSamples    int
	RawSamples    int
	TargetSamples int
}

// Observer receives a Segment after each entry is appended.
type Observer func(Segment)

// EntryError identifies the entry and step that aborted an assembly.
type EntryError struct {
	Position int
	Index    int // subtitle counter of the entry
	Op       string
	Err      error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("timeline: entry %d (#%d): %s: %v", e.Position, e.Index, e.Op, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Assembler lays synthesized entries onto one continuous track.
type Assembler struct {
	source    SegmentSource
	stretcher Stretcher
	rate      int
	observer  Observer
	log       *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithStretcher replaces the default WSOLA stretcher.
func WithStretcher(s Stretcher) Option {
	return func(a *Assembler) {
		if s != nil {
			a.stretcher = s
		}
	}
}

// WithObserver registers a per-entry callback.
func WithObserver(o Observer) Option {
	return func(a *Assembler) { a.observer = o }
}

// WithLogger sets the logger used for per-entry debug output.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.log = l
		}
	}
}

// WithSampleRate overrides the output rate (audio.OutputSampleRate by default).
func WithSampleRate(rate int) Option {
	return func(a *Assembler) {
		if rate > 0 {
			a.rate = rate
		}
	}
}

// NewAssembler returns an Assembler pulling speech from source.
func NewAssembler(source SegmentSource, opts ...Option) *Assembler {
	if source == nil {
		panic("timeline: segment source must not be nil")
	}
	a := &Assembler{
		source:    source,
		stretcher: WSOLA{},
		rate:      audio.OutputSampleRate,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.With("component", "timeline")
	return a
}

// Assemble walks entries in order. Each entry is preceded by silence up to
// its start, synthesized once, fitted to exactly its slot and appended. The
// cursor is kept in samples so the emitted length always equals the sum of
// what was appended.
//
// Slots are anchored to absolute sample positions: an entry spans
// [round(start*rate), round(end*rate)), so rounding never accumulates across
// back-to-back entries and the track ends on round(end*rate) of the last
// entry. When both timestamps land on whole samples (millisecond times at
// 24 kHz) the slot is exactly round((end-start)*rate) long; otherwise it is
// within one sample of it. Entries are expected to be validated (ordered and
// non-overlapping); a start behind the cursor gets no gap and a shortened
// slot.
func (a *Assembler) Assemble(ctx context.Context, entries []subtitle.Entry) (audio.Buffer, error) {
	capacity := audio.SampleCount(subtitle.End(entries), a.rate)
	out := make([]float32, 0, capacity)

	for pos, entry := range entries {
		seg := Segment{Position: pos, Entry: entry}

		if gap := audio.SampleCount(entry.Start, a.rate) - len(out); gap > 0 {
			out = append(out, make([]float32, gap)...)
			seg.GapSamples = gap
		}

		if end := audio.SampleCount(entry.End, a.rate); end > len(out) {
			seg.TargetSamples = end - len(out)
		}
		text := strings.TrimSpace(entry.Text)

		var fitted audio.Buffer
		if text == "" || seg.TargetSamples == 0 {
			fitted = audio.Silence(seg.TargetSamples, a.rate)
			seg.Action = ActionSilence
		} else {
			raw, err := a.source.Synthesize(ctx, pos, text)
			if err != nil {
				return audio.Buffer{}, &EntryError{Position: pos, Index: entry.Index, Op: "synthesize", Err: err}
			}
			raw = audio.Resample(raw, a.rate)
			seg.RawSamples = raw.Len()
			seg.Ratio = float64(seg.RawSamples) / float64(seg.TargetSamples)

			fitted, seg.Action, err = Fit(ctx, a.stretcher, raw, seg.TargetSamples)
			if err != nil {
				return audio.Buffer{}, &EntryError{Position: pos, Index: entry.Index, Op: "fit", Err: err}
			}
		}

		out = append(out, fitted.Samples...)

		a.log.Debug("entry placed",
			"entry", pos,
			"index", entry.Index,
			"action", string(seg.Action),
			"ratio", seg.Ratio,
			"gap_samples", seg.GapSamples,
			"target_samples", seg.TargetSamples,
			"cursor_sec", float64(len(out))/float64(a.rate),
		)
		if a.observer != nil {
			a.observer(seg)
		}
	}

	return audio.Buffer{Samples: out, SampleRate: a.rate}, nil
}
