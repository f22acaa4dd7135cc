package tts

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"unicode/utf8"

	"github.com/nupi-ai/plugin-tts-srt-voice/internal/audio"
)

// StubMillisPerRune is the speech length the stub produces per character.
const StubMillisPerRune = 60

// StubSynthesizer implements Synthesizer with a deterministic tone whose
// length is proportional to the text. It is intended for CI and testing
// environments where no TTS server is available.
type StubSynthesizer struct {
	log *slog.Logger
}

// NewStubSynthesizer returns a stub writing 24 kHz tone WAV files.
func NewStubSynthesizer(logger *slog.Logger) *StubSynthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubSynthesizer{log: logger}
}

// Synthesize writes len(text) * StubMillisPerRune ms of a 220 Hz tone.
func (s *StubSynthesizer) Synthesize(_ context.Context, referencePath, text, outputPath string) error {
	if text == "" {
		return fmt.Errorf("tts: text is required")
	}
	if _, err := os.Stat(referencePath); err != nil {
		return fmt.Errorf("tts: reference audio: %w", err)
	}

	runes := utf8.RuneCountInString(text)
	n := runes * StubMillisPerRune * audio.OutputSampleRate / 1000
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(0.3 * math.Sin(2*math.Pi*220*float64(i)/audio.OutputSampleRate))
	}

	s.log.Info("stub synthesis",
		"text_length", runes,
		"samples", n,
	)

	return audio.WriteWAVFile(outputPath, audio.Buffer{Samples: samples, SampleRate: audio.OutputSampleRate})
}
