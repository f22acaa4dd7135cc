package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	napv1 "github.com/nupi-ai/nupi/api/nap/v1"

	"github.com/nupi-ai/plugin-tts-srt-voice/internal/adapterinfo"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/audio"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/config"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/telemetry"
	"github.com/nupi-ai/plugin-tts-srt-voice/internal/voiceover"
)

const (
	// Request metadata keys.
	MetadataReferencePath = "srtvoice.reference_path"
	MetadataSpeed         = "srtvoice.speed"

	bytesPerSample = 2
	chunkSize      = 4800 // bytes per chunk (100ms at 24kHz mono PCM16)
)

// Renderer turns one subtitle request into a voice track.
type Renderer interface {
	Render(ctx context.Context, req voiceover.Request) (voiceover.Result, error)
}

// Server implements the TextToSpeechService. The request text is SRT content
// and the response stream carries the assembled track.
type Server struct {
	napv1.UnimplementedTextToSpeechServiceServer

	cfg      config.Config
	log      *slog.Logger
	renderer Renderer
	metrics  *telemetry.Recorder
}

// New returns a new Server instance.
func New(cfg config.Config, logger *slog.Logger, renderer Renderer, metrics *telemetry.Recorder) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if renderer == nil {
		panic("server: renderer must not be nil")
	}
	if metrics == nil {
		metrics = telemetry.NewRecorder(logger)
	}
	return &Server{
		cfg: cfg,
		log: logger.With(
			"component", "server",
			"model", cfg.Model,
			"stretcher", cfg.Stretcher,
		),
		renderer: renderer,
		metrics:  metrics,
	}
}

// StreamSynthesis renders the SRT document in req.Text and streams the track
// back as PCM16 chunks.
func (s *Server) StreamSynthesis(req *napv1.StreamSynthesisRequest, stream napv1.TextToSpeechService_StreamSynthesisServer) error {
	if req == nil {
		return fmt.Errorf("server: request is nil")
	}

	text := req.GetText()
	logEntry := s.log.With(
		"session_id", req.GetSessionId(),
		"stream_id", req.GetStreamId(),
		"text_length", len(text),
	)

	if strings.TrimSpace(text) == "" {
		logEntry.Warn("empty subtitle text in synthesis request")
		return s.sendError(stream, "subtitle text is required")
	}

	md := req.GetMetadata()
	speed, err := resolveSpeed(md[MetadataSpeed], s.cfg.Speed)
	if err != nil {
		return s.sendError(stream, err.Error())
	}

	var reference audio.Waveform
	if name := strings.TrimSpace(md[MetadataReferencePath]); name != "" {
		logEntry = logEntry.With("reference", name, "speed", speed)
		reference, err = readScopedReference(s.cfg.ReferenceDir, name)
	} else if s.cfg.ReferenceAudio != "" {
		logEntry = logEntry.With("reference", s.cfg.ReferenceAudio, "speed", speed)
		reference, err = audio.ReadWAVFile(s.cfg.ReferenceAudio)
	} else {
		return s.sendError(stream, "reference audio is required (metadata "+MetadataReferencePath+" or config reference_audio)")
	}
	if err != nil {
		logEntry.Warn("reference audio unreadable", "error", err)
		return s.sendError(stream, fmt.Sprintf("reference audio: %v", err))
	}

	logEntry.Info("synthesis request received")

	if err := s.sendStatus(stream, napv1.SynthesisStatus_SYNTHESIS_STATUS_STARTED, nil); err != nil {
		logEntry.Error("failed to send started status", "error", err)
		return err
	}

	ctx := stream.Context()
	start := time.Now()

	result, err := s.renderer.Render(ctx, voiceover.Request{
		SubtitleText: text,
		Reference:    reference,
		Speed:        speed,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			logEntry.Info("synthesis interrupted", "reason", ctxErr)
			return s.sendStatus(stream, napv1.SynthesisStatus_SYNTHESIS_STATUS_INTERRUPTED, map[string]string{
				"reason": ctxErr.Error(),
			})
		}
		logEntry.Error("render failed", "error", err, "stage", voiceover.FailedStage(err))
		return s.sendError(stream, fmt.Sprintf("%s: %v", classify(err), err))
	}

	if err := s.sendStatus(stream, napv1.SynthesisStatus_SYNTHESIS_STATUS_PLAYING, nil); err != nil {
		logEntry.Error("failed to send playing status", "error", err)
		return err
	}

	pcm := audio.PCM16(result.Waveform)
	chunkMeta := adapterinfo.SynthesisMetadata(s.cfg.Model, s.cfg.Stretcher)

	var sequence uint64
	for offset := 0; offset < len(pcm); offset += chunkSize {
		if err := ctx.Err(); err != nil {
			logEntry.Info("synthesis interrupted", "reason", err, "sequence", sequence)
			return s.sendStatus(stream, napv1.SynthesisStatus_SYNTHESIS_STATUS_INTERRUPTED, map[string]string{
				"reason": err.Error(),
			})
		}

		end := min(offset+chunkSize, len(pcm))
		sequence++

		samples := (end - offset) / bytesPerSample
		chunk := &napv1.AudioChunk{
			Data:       pcm[offset:end],
			Sequence:   sequence,
			First:      sequence == 1,
			Last:       end == len(pcm),
			Metadata:   chunkMeta,
			DurationMs: uint32(samples * 1000 / result.SampleRate),
		}

		if err := stream.Send(&napv1.SynthesisResponse{
			Status: napv1.SynthesisStatus_SYNTHESIS_STATUS_PLAYING,
			Chunk:  chunk,
		}); err != nil {
			logEntry.Error("failed to send audio chunk", "error", err, "sequence", sequence)
			return err
		}
	}

	elapsed := time.Since(start)
	logEntry.Info("synthesis completed",
		"total_bytes", len(pcm),
		"chunks", sequence,
		"entries", result.Entries,
		"track_sec", result.Waveform.Duration(),
		"elapsed_sec", elapsed.Seconds(),
	)

	return s.sendStatus(stream, napv1.SynthesisStatus_SYNTHESIS_STATUS_FINISHED, map[string]string{
		"total_bytes":  strconv.Itoa(len(pcm)),
		"total_chunks": strconv.FormatUint(sequence, 10),
		"duration_sec": strconv.FormatFloat(result.Waveform.Duration(), 'f', 3, 64),
		"entries":      strconv.Itoa(result.Entries),
		"sample_rate":  strconv.Itoa(result.SampleRate),
	})
}

func (s *Server) sendStatus(stream napv1.TextToSpeechService_StreamSynthesisServer, status napv1.SynthesisStatus, metadata map[string]string) error {
	resp := &napv1.SynthesisResponse{
		Status:   status,
		Metadata: metadata,
	}
	return stream.Send(resp)
}

func (s *Server) sendError(stream napv1.TextToSpeechService_StreamSynthesisServer, message string) error {
	resp := &napv1.SynthesisResponse{
		Status:       napv1.SynthesisStatus_SYNTHESIS_STATUS_ERROR,
		ErrorMessage: message,
	}
	if err := stream.Send(resp); err != nil {
		return err
	}
	return fmt.Errorf("synthesis error: %s", message)
}

// classify names the error class for client-facing messages.
func classify(err error) string {
	switch {
	case errors.Is(err, voiceover.ErrInput):
		return "invalid input"
	case errors.Is(err, voiceover.ErrModel):
		return "model failure"
	case errors.Is(err, voiceover.ErrResource):
		return "resource failure"
	default:
		return "synthesis failed"
	}
}

func resolveSpeed(raw string, fallback float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	speed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", MetadataSpeed, raw)
	}
	return speed, nil
}

// readScopedReference decodes a client-named reference voice. Names resolve
// inside dir, relative or absolute, and may not escape it through ".." or
// symlinks. An empty dir rejects every name.
func readScopedReference(dir, name string) (audio.Waveform, error) {
	if dir == "" {
		return audio.Waveform{}, fmt.Errorf("%s is disabled: no reference_dir configured", MetadataReferencePath)
	}
	if filepath.IsAbs(name) {
		rel, err := filepath.Rel(dir, name)
		if err != nil || !filepath.IsLocal(rel) {
			return audio.Waveform{}, fmt.Errorf("%q is outside reference_dir", name)
		}
		name = rel
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("open reference_dir: %w", err)
	}
	defer root.Close()

	f, err := root.Open(name)
	if err != nil {
		return audio.Waveform{}, err
	}
	defer f.Close()
	return audio.DecodeWAV(f)
}
