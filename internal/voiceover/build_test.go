package voiceover

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/nupi-ai/plugin-tts-srt-voice/internal/config"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/ffmpeg"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/timeline"
)

func TestNewStretcher(t *testing.T) {
	cfg := config.Default()
	s, err := NewStretcher(cfg, nil)
	if err != nil {
		t.Fatalf("wsola: %v", err)
	}
	if _, ok := s.(timeline.WSOLA); !ok {
		t.Fatalf("got %T, want timeline.WSOLA", s)
	}

	cfg.Stretcher = config.StretcherFFmpeg
	cfg.FFmpegBinary = "definitely-not-an-ffmpeg-binary"
	if _, err := NewStretcher(cfg, nil); !errors.Is(err, ffmpeg.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	cfg.Stretcher = "rubberband"
	if _, err := NewStretcher(cfg, nil); err == nil {
		t.Fatal("expected error for unknown stretcher")
	}
}

func TestFromConfigStubWithCache(t *testing.T) {
	cfg := config.Default()
	cfg.UseStubSynthesizer = true
	cfg.CacheDir = t.TempDir()
	cfg.TempDir = t.TempDir()

	svc, err := FromConfig(cfg, nil, nil)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	for i := 0; i < 2; i++ {
		res, err := svc.Render(context.Background(), Request{SubtitleText: helloWorld, Reference: reference()})
		if err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
		if res.Waveform.Len() != 60000 {
			t.Fatalf("render %d: len = %d", i, res.Waveform.Len())
		}
	}
	entries, err := os.ReadDir(cfg.CacheDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("cache holds %d segments, want 2", len(entries))
	}
}
