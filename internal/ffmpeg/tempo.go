// Package ffmpeg stretches audio by shelling out to an ffmpeg binary.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nupi-ai/plugin-tts-srt-voice/internal/audio"
)

const (
	// DefaultBinary is resolved through PATH.
	DefaultBinary = "ffmpeg"

	prefix = "srtvoice-tempo-"

	// maxAtempo is the largest factor a single atempo filter accepts on
	// older ffmpeg builds.
	maxAtempo = 2.0
	minAtempo = 0.5
)

// ErrUnavailable reports that the configured binary cannot be found.
var ErrUnavailable = errors.New("ffmpeg: binary unavailable")

// Runner executes binary with args and returns its combined output.
type Runner func(ctx context.Context, binary string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// Config controls the external stretcher.
type Config struct {
	Binary string
	TmpDir string
	Logger *slog.Logger
	Runner Runner
}

// Tempo is a timeline.Stretcher backed by ffmpeg's atempo filter.
type Tempo struct {
	binary string
	tmpDir string
	log    *slog.Logger
	run    Runner
}

// New returns a Tempo stretcher. Empty fields fall back to defaults.
func New(cfg Config) *Tempo {
	t := &Tempo{
		binary: strings.TrimSpace(cfg.Binary),
		tmpDir: strings.TrimSpace(cfg.TmpDir),
		log:    cfg.Logger,
		run:    cfg.Runner,
	}
	if t.binary == "" {
		t.binary = DefaultBinary
	}
	if t.tmpDir == "" {
		t.tmpDir = os.TempDir()
	}
	if t.log == nil {
		t.log = slog.Default()
	}
	if t.run == nil {
		t.run = execRunner
	}
	return t
}

// Available reports whether the configured binary can be found.
func (t *Tempo) Available() error {
	if _, err := exec.LookPath(t.binary); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, t.binary, err)
	}
	return nil
}

// Stretch implements timeline.Stretcher.
func (t *Tempo) Stretch(ctx context.Context, b audio.Buffer, ratio float64) (audio.Buffer, error) {
	if ratio <= 0 {
		return audio.Buffer{}, fmt.Errorf("ffmpeg: invalid tempo ratio %v", ratio)
	}
	if b.Len() == 0 {
		return b, nil
	}

	inputPath := filepath.Join(t.tmpDir, prefix+uuid.NewString()+".wav")
	if err := audio.WriteWAVFile(inputPath, b); err != nil {
		return audio.Buffer{}, fmt.Errorf("ffmpeg: write input: %w", err)
	}
	defer os.Remove(inputPath)

	outputPath := filepath.Join(t.tmpDir, prefix+uuid.NewString()+".wav")
	defer os.Remove(outputPath)

	args := []string{
		"-nostats", "-loglevel", "error",
		"-i", inputPath,
		"-af", Filter(ratio),
		"-ac", "1",
		"-ar", strconv.Itoa(b.SampleRate),
		"-c:a", "pcm_s16le",
		"-y",
		outputPath,
	}
	if out, err := t.run(ctx, t.binary, args...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return audio.Buffer{}, ctxErr
		}
		return audio.Buffer{}, fmt.Errorf("ffmpeg: atempo failed: %w\nffmpeg output:\n%s", err, strings.TrimSpace(string(out)))
	}

	w, err := audio.ReadWAVFile(outputPath)
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("ffmpeg: read output: %w", err)
	}
	out, err := audio.Normalize(w)
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("ffmpeg: output: %w", err)
	}
	if out.SampleRate != b.SampleRate {
		out = audio.Resample(out, b.SampleRate)
	}
	t.log.Debug("ffmpeg tempo applied", "ratio", ratio, "in_samples", b.Len(), "out_samples", out.Len())
	return out, nil
}

// Filter renders ratio as a chain of atempo filters, each within the range
// every ffmpeg build accepts.
func Filter(ratio float64) string {
	factors := Factors(ratio)
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = "atempo=" + strconv.FormatFloat(f, 'f', 6, 64)
	}
	return strings.Join(parts, ",")
}

// Factors splits ratio into atempo factors in [0.5, 2.0] whose product is ratio.
func Factors(ratio float64) []float64 {
	if ratio <= 0 {
		return nil
	}
	var out []float64
	for ratio > maxAtempo {
		out = append(out, maxAtempo)
		ratio /= maxAtempo
	}
	for ratio < minAtempo {
		out = append(out, minAtempo)
		ratio /= minAtempo
	}
	return append(out, ratio)
}
