package tts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nupi-ai/plugin-tts-srt-voice/internal/cache"
)

// Cached serves repeated (text, reference voice, model) requests from a disk
// cache and forwards misses to the wrapped Synthesizer.
type Cached struct {
	inner Synthesizer
	cache *cache.Cache
	model string
	log   *slog.Logger
}

// NewCached wraps inner. A nil cache returns inner unchanged.
func NewCached(inner Synthesizer, c *cache.Cache, model string, logger *slog.Logger) Synthesizer {
	if c == nil {
		return inner
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{
		inner: inner,
		cache: c,
		model: model,
		log:   logger.With("component", "tts_cache"),
	}
}

// Load forwards to the wrapped synthesizer when it implements Loader.
func (c *Cached) Load(ctx context.Context) error {
	if l, ok := c.inner.(Loader); ok {
		return l.Load(ctx)
	}
	return nil
}

// Synthesize implements Synthesizer.
func (c *Cached) Synthesize(ctx context.Context, referencePath, text, outputPath string) error {
	digest, err := fileDigest(referencePath)
	if err != nil {
		return fmt.Errorf("tts: digest reference: %w", err)
	}
	key := cache.Key(text, c.model, digest)

	if data, ok := c.cache.Get(key); ok {
		c.log.Debug("cache hit", "key", key)
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("tts: write cached segment: %w", err)
		}
		return nil
	}
	c.log.Debug("cache miss", "key", key)

	if err := c.inner.Synthesize(ctx, referencePath, text, outputPath); err != nil {
		return err
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		c.log.Warn("read segment for cache", "error", err)
		return nil
	}
	if err := c.cache.Put(key, data); err != nil {
		c.log.Warn("failed to store in cache", "error", err)
	}
	return nil
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
