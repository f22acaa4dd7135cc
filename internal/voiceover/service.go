// Package voiceover renders a subtitle file into one voice track whose
// segments line up with the subtitle timings.
package voiceover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nupi-ai/plugin-tts-srt-voice/internal/audio"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/staging"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/subtitle"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/telemetry"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/timeline"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/tts"
)

const (
	DefaultSpeed = 1.0
	MinSpeed     = 0.5
	MaxSpeed     = 2.0
)

// Request is one render job.
type Request struct {
	SubtitleText string
	Reference    audio.Waveform
	// Speed is accepted for compatibility with hosts that expose it. Zero
	// means DefaultSpeed. It does not change the output.
	Speed float64
}

// Result is the rendered track.
type Result struct {
	Waveform   audio.Buffer
	SampleRate int
	Entries    int
	Speed      float64
}

// Options configures a Service.
type Options struct {
	Synthesizer tts.Synthesizer
	Stretcher   timeline.Stretcher
	TempDir     string
	Recorder    *telemetry.Recorder
	Logger      *slog.Logger
}

// Service renders requests one at a time against a shared synthesizer.
type Service struct {
	mu        sync.Mutex
	synth     tts.Synthesizer
	stretcher timeline.Stretcher
	tempDir   string
	recorder  *telemetry.Recorder
	base      *slog.Logger
	log       *slog.Logger
	loaded    bool
}

// NewService validates opts and returns a Service.
func NewService(opts Options) (*Service, error) {
	if opts.Synthesizer == nil {
		return nil, errors.New("voiceover: synthesizer is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = telemetry.NewRecorder(logger)
	}
	stretcher := opts.Stretcher
	if stretcher == nil {
		stretcher = timeline.WSOLA{}
	}
	return &Service{
		synth:     opts.Synthesizer,
		stretcher: stretcher,
		tempDir:   opts.TempDir,
		recorder:  recorder,
		base:      logger,
		log:       logger.With("component", "voiceover"),
	}, nil
}

// Load initializes the synthesizer if it needs it. Render calls it lazily;
// hosts may call it at startup to fail fast.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Service) loadLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	if l, ok := s.synth.(tts.Loader); ok {
		if err := l.Load(ctx); err != nil {
			return stageErr(StageModelLoad, -1, err)
		}
	}
	s.loaded = true
	return nil
}

// NormalizeSpeed applies the default and range check to a requested speed.
func NormalizeSpeed(speed float64) (float64, error) {
	if speed == 0 {
		return DefaultSpeed, nil
	}
	if speed < MinSpeed || speed > MaxSpeed {
		return 0, fmt.Errorf("speed %.2f outside [%.1f, %.1f]", speed, MinSpeed, MaxSpeed)
	}
	return speed, nil
}

// Render turns req into one voice track. Input problems are reported before
// any synthesis starts and temporary files are removed on every path.
func (s *Service) Render(ctx context.Context, req Request) (res Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	defer func() {
		s.recorder.ObserveRender(time.Since(started), string(FailedStage(err)))
	}()

	speed, err := NormalizeSpeed(req.Speed)
	if err != nil {
		return Result{}, stageErr(StageValidate, -1, err)
	}

	entries, err := subtitle.ParseString(req.SubtitleText)
	if err != nil {
		return Result{}, stageErr(StageParse, -1, err)
	}
	if err := subtitle.Validate(entries); err != nil {
		return Result{}, stageErr(StageValidate, -1, err)
	}

	reference, err := audio.Normalize(req.Reference)
	if err != nil {
		return Result{}, stageErr(StageNormalize, -1, err)
	}

	if err := s.loadLocked(ctx); err != nil {
		return Result{}, err
	}

	ws, err := staging.New(s.tempDir, s.base)
	if err != nil {
		return Result{}, stageErr(StageStage, -1, err)
	}
	defer ws.Close()

	referencePath, err := ws.WriteReference(reference)
	if err != nil {
		return Result{}, stageErr(StageStage, -1, err)
	}

	source := timeline.SegmentSourceFunc(func(ctx context.Context, index int, text string) (audio.Buffer, error) {
		out := ws.SegmentPath(index)
		began := time.Now()
		if err := s.synth.Synthesize(ctx, referencePath, text, out); err != nil {
			return audio.Buffer{}, err
		}
		s.recorder.ObserveSynthesis(time.Since(began))
		return ws.ReadSegment(out)
	})

	assembler := timeline.NewAssembler(source,
		timeline.WithStretcher(s.stretcher),
		timeline.WithLogger(s.base),
		timeline.WithObserver(func(seg timeline.Segment) {
			s.recorder.ObserveSegment(string(seg.Action), seg.Ratio)
		}),
	)

	s.log.Info("render started", "entries", len(entries), "speed", speed, "reference_sec", reference.Duration())

	track, err := assembler.Assemble(ctx, entries)
	if err != nil {
		var ee *timeline.EntryError
		if errors.As(err, &ee) {
			stage := StageSynthesize
			if ee.Op == "fit" {
				stage = StageFit
			}
			return Result{}, stageErr(stage, ee.Position, err)
		}
		return Result{}, stageErr(StageSynthesize, -1, err)
	}

	s.log.Info("render finished",
		"entries", len(entries),
		"duration_sec", track.Duration(),
		"elapsed", time.Since(started),
	)

	return Result{
		Waveform:   track,
		SampleRate: track.SampleRate,
		Entries:    len(entries),
		Speed:      speed,
	}, nil
}
