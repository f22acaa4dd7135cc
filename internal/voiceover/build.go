package voiceover

import (
	"fmt"
	"log/slog"

	"github.com/nupi-ai/plugin-tts-srt-voice/internal/cache"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/config"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/ffmpeg"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/telemetry"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/timeline"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/tts"
)

// FromConfig wires the synthesizer, segment cache and stretcher selected by
// cfg into a Service. The model is not loaded; call Load or let the first
// Render do it.
func FromConfig(cfg config.Config, logger *slog.Logger, recorder *telemetry.Recorder) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var synthesizer tts.Synthesizer
	if cfg.UseStubSynthesizer {
		synthesizer = tts.NewStubSynthesizer(logger)
		logger.Info("using STUB synthesizer, segments are generated tones and NOT speech")
	} else {
		synthesizer = tts.NewClient(tts.ClientConfig{
			Endpoint:   cfg.Endpoint,
			HealthPath: cfg.HealthPath,
			Model:      cfg.Model,
			Timeout:    cfg.RequestTimeout(),
		})
	}

	if cfg.CacheMaxSizeMB > 0 && cfg.CacheDir != "" {
		segmentCache, err := cache.New(cfg.CacheDir, cfg.CacheMaxBytes(), logger)
		if err != nil {
			logger.Warn("failed to initialize cache, continuing without", "error", err)
		} else {
			synthesizer = tts.NewCached(synthesizer, segmentCache, cfg.Model, logger)
			logger.Info("segment cache initialized", "dir", cfg.CacheDir, "max_size_mb", cfg.CacheMaxSizeMB)
		}
	}

	stretcher, err := NewStretcher(cfg, logger)
	if err != nil {
		return nil, err
	}

	return NewService(Options{
		Synthesizer: synthesizer,
		Stretcher:   stretcher,
		TempDir:     cfg.TempDir,
		Recorder:    recorder,
		Logger:      logger,
	})
}

// NewStretcher returns the stretcher named by cfg.Stretcher.
func NewStretcher(cfg config.Config, logger *slog.Logger) (timeline.Stretcher, error) {
	switch cfg.Stretcher {
	case config.StretcherFFmpeg:
		tempo := ffmpeg.New(ffmpeg.Config{Binary: cfg.FFmpegBinary, TmpDir: cfg.TempDir, Logger: logger})
		if err := tempo.Available(); err != nil {
			return nil, err
		}
		return tempo, nil
	case config.StretcherWSOLA, "":
		return timeline.WSOLA{}, nil
	default:
		return nil, fmt.Errorf("voiceover: unknown stretcher %q", cfg.Stretcher)
	}
}
