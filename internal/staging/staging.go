// Package staging owns the temporary files a request exchanges with the TTS
// service: the reference voice written once and one output file per entry.
package staging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/nupi-ai/plugin-tts-srt-voice/internal/audio"
)

const dirPrefix = "srtvoice-"

// Workspace is a per-request temporary directory. Close removes it; removal
// failures are logged and never replace the caller's own result.
type Workspace struct {
	dir string
	log *slog.Logger
}

// New creates a fresh workspace under baseDir (os.TempDir when empty). The
// directory is world-readable so a TTS server running as another user on the
// same host can read the reference voice.
func New(baseDir string, logger *slog.Logger) (*Workspace, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	dir := filepath.Join(baseDir, dirPrefix+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("staging: create workspace: %w", err)
	}
	return &Workspace{
		dir: dir,
		log: logger.With("component", "staging", "dir", dir),
	}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// WriteReference stages the reference voice as a 16-bit mono WAV file and
// returns its path.
func (w *Workspace) WriteReference(b audio.Buffer) (string, error) {
	p := filepath.Join(w.dir, "reference.wav")
	if err := audio.WriteWAVFile(p, b); err != nil {
		return "", fmt.Errorf("staging: write reference: %w", err)
	}
	return p, nil
}

// SegmentPath returns the output path for the entry at position i.
func (w *Workspace) SegmentPath(i int) string {
	return filepath.Join(w.dir, fmt.Sprintf("segment-%04d.wav", i))
}

// ReadSegment decodes a synthesized WAV into a mono buffer and removes the
// file, since each segment is read exactly once.
func (w *Workspace) ReadSegment(path string) (audio.Buffer, error) {
	wf, err := audio.ReadWAVFile(path)
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("staging: read segment: %w", err)
	}
	buf, err := audio.Normalize(wf)
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("staging: read segment: %w", err)
	}
	if err := os.Remove(path); err != nil {
		w.log.Warn("remove segment file", "path", path, "error", err)
	}
	return buf, nil
}

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	if err := os.RemoveAll(w.dir); err != nil {
		w.log.Warn("workspace cleanup failed", "error", err)
		return fmt.Errorf("staging: cleanup: %w", err)
	}
	w.log.Debug("workspace removed")
	return nil
}
