package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nupi-ai/plugin-tts-srt-voice/internal/audio"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/config"
)

const helloWorld = `1
00:00:00,000 --> 00:00:01,000
hello

2
00:00:01,500 --> 00:00:02,500
world
`

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFixtures(t *testing.T) (dir, srtPath, refPath string) {
	t.Helper()
	dir = t.TempDir()
	srtPath = filepath.Join(dir, "episode.srt")
	if err := os.WriteFile(srtPath, []byte(helloWorld), 0o644); err != nil {
		t.Fatal(err)
	}
	refPath = filepath.Join(dir, "voice.wav")
	if err := audio.WriteWAVFile(refPath, audio.Silence(4800, 48000)); err != nil {
		t.Fatal(err)
	}
	return dir, srtPath, refPath
}

func TestRenderCommandWithStub(t *testing.T) {
	dir, srtPath, refPath := writeFixtures(t)
	cfgPath := filepath.Join(dir, "srtvoice.toml")
	cfg := "temp_dir = \"" + filepath.ToSlash(dir) + "\"\ncache_max_size_mb = 0\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "render", "--stub", "--config", cfgPath, "--log-level", "error", "--srt", srtPath, "--reference", refPath)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "2 entries") {
		t.Fatalf("unexpected output %q", out)
	}

	w, err := audio.ReadWAVFile(filepath.Join(dir, "episode.wav"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if w.SampleRate != audio.OutputSampleRate || len(w.Data) != 60000 {
		t.Fatalf("output %d samples at %d Hz, want 60000 at 24000", len(w.Data), w.SampleRate)
	}
}

func TestRenderCommandRequiresReference(t *testing.T) {
	_, srtPath, _ := writeFixtures(t)
	if _, err := runCLI(t, "render", "--stub", "--srt", srtPath); err == nil || !strings.Contains(err.Error(), "reference") {
		t.Fatalf("expected reference error, got %v", err)
	}
}

func TestRenderCommandRejectsSpeed(t *testing.T) {
	_, srtPath, refPath := writeFixtures(t)
	_, err := runCLI(t, "render", "--stub", "--srt", srtPath, "--reference", refPath, "--speed", "3")
	if err == nil || !strings.Contains(err.Error(), "speed") {
		t.Fatalf("expected speed error, got %v", err)
	}
}

func TestCheckCommand(t *testing.T) {
	_, srtPath, _ := writeFixtures(t)
	out, err := runCLI(t, "check", srtPath)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "2 entries, 2.500s track, 2.000s of speech") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCheckCommandOverlap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.srt")
	bad := "1\n00:00:00,000 --> 00:00:02,000\na\n\n2\n00:00:01,000 --> 00:00:03,000\nb\n"
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, "check", path); err == nil {
		t.Fatal("expected overlap error")
	}
}

func TestDefaultOutputPath(t *testing.T) {
	if got := defaultOutputPath("/x/ep1.srt"); got != "/x/ep1.wav" {
		t.Fatalf("got %q", got)
	}
	if got := defaultOutputPath("noext"); got != "noext.wav" {
		t.Fatalf("got %q", got)
	}
}

func TestLoggerLevel(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetErr(new(bytes.Buffer))

	cfg := config.Default()
	cfg.LogLevel = "warning"
	logger := (&commandContext{}).logger(cmd, cfg)
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("log_level warning must suppress info records")
	}
	if !logger.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("log_level warning must keep warn records")
	}

	logger = (&commandContext{logLevel: "debug"}).logger(cmd, cfg)
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("--log-level must override the configured level")
	}
}
