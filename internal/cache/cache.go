package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const segmentExt = ".wav"

// Cache is a disk-backed LRU of synthesized segment WAV files. One adapter
// process owns a cache directory.
type Cache struct {
	mu       sync.Mutex
	dir      string
	maxBytes int64
	used     int64
	log      *slog.Logger
	segments map[string]*segment
}

type segment struct {
	size     int64
	lastUsed time.Time
	path     string
}

// New opens (creating if needed) a cache rooted at dir holding at most
// maxBytes of audio. Segments left by earlier runs are indexed by mtime.
func New(dir string, maxBytes int64, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("cache: max size must be positive, got %d", maxBytes)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}
	c := &Cache{
		dir:      dir,
		maxBytes: maxBytes,
		log:      logger.With("component", "cache"),
		segments: make(map[string]*segment),
	}
	c.index()
	return c, nil
}

// Get returns the WAV bytes stored under key.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seg, ok := c.segments[key]
	if !ok {
		return nil, false
	}
	data, err := os.ReadFile(seg.path)
	if err != nil {
		c.log.Warn("cached segment unreadable, dropping", "key", key, "error", err)
		c.drop(key)
		return nil, false
	}
	seg.lastUsed = time.Now()
	return data, true
}

// Put stores data under key, evicting least recently used segments to stay
// within the size cap. Segments larger than the whole cache are skipped.
func (c *Cache) Put(key string, data []byte) error {
	size := int64(len(data))
	if size > c.maxBytes {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.segments[key]; ok {
		c.drop(key)
	}
	c.evict(size)

	p := filepath.Join(c.dir, key+segmentExt)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("cache: write: %w", err)
	}
	c.segments[key] = &segment{size: size, lastUsed: time.Now(), path: p}
	c.used += size
	return nil
}

// Size returns the bytes currently indexed.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

// Key derives the cache key of a segment from the text, the model and the
// digest of the reference voice.
func Key(text, model, referenceDigest string) string {
	h := sha256.New()
	fmt.Fprintf(h, "text=%s\nmodel=%s\nreference=%s\n", text, model, referenceDigest)
	return hex.EncodeToString(h.Sum(nil))
}

// drop removes key from disk and index. Must be called with mu held.
func (c *Cache) drop(key string) {
	seg := c.segments[key]
	if err := os.Remove(seg.path); err != nil && !os.IsNotExist(err) {
		c.log.Warn("remove cached segment", "key", key, "error", err)
	}
	c.used -= seg.size
	delete(c.segments, key)
}

// evict drops the least recently used segments until needed more bytes fit.
// Must be called with mu held.
func (c *Cache) evict(needed int64) {
	for c.used+needed > c.maxBytes && len(c.segments) > 0 {
		var oldest string
		var oldestAt time.Time
		for k, seg := range c.segments {
			if oldest == "" || seg.lastUsed.Before(oldestAt) {
				oldest, oldestAt = k, seg.lastUsed
			}
		}
		size := c.segments[oldest].size
		c.drop(oldest)
		c.log.Debug("evicted cached segment", "key", oldest, "size", size)
	}
}

func (c *Cache) index() {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*"+segmentExt))
	if err != nil {
		c.log.Warn("glob cached segments", "error", err)
		return
	}
	for _, p := range matches {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		key := strings.TrimSuffix(filepath.Base(p), segmentExt)
		c.segments[key] = &segment{size: info.Size(), lastUsed: info.ModTime(), path: p}
		c.used += info.Size()
	}
	if len(c.segments) > 0 {
		c.log.Info("indexed cached segments", "count", len(c.segments), "total_bytes", c.used)
		c.evict(0)
	}
}
