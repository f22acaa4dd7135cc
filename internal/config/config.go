package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultListenAddr is used when the adapter runner does not inject an explicit address.
	DefaultListenAddr     = "127.0.0.1:50051"
	DefaultEndpoint       = "http://127.0.0.1:7860"
	DefaultModel          = "index-tts-2"
	DefaultLogLevel       = "info"
	DefaultStretcher      = StretcherWSOLA
	DefaultFFmpegBinary   = "ffmpeg"
	DefaultSpeed          = 1.0
	DefaultCacheMaxSizeMB = 100
	DefaultTimeoutSec     = 120

	StretcherWSOLA  = "wsola"
	StretcherFFmpeg = "ffmpeg"
)

// Config captures bootstrap configuration extracted from environment variables,
// an injected JSON payload (`NUPI_ADAPTER_CONFIG`) or a TOML file.
type Config struct {
	ListenAddr  string `json:"listen_addr" toml:"listen_addr"`
	LogLevel    string `json:"log_level" toml:"log_level"`
	MetricsAddr string `json:"metrics_addr" toml:"metrics_addr"`

	// TTS server
	Endpoint           string `json:"endpoint" toml:"endpoint"`
	HealthPath         string `json:"health_path" toml:"health_path"`
	Model              string `json:"model" toml:"model"`
	RequestTimeoutSec  int    `json:"request_timeout_sec" toml:"request_timeout_sec"`
	UseStubSynthesizer bool   `json:"use_stub_synthesizer" toml:"use_stub_synthesizer"`

	// Voice
	ReferenceAudio string  `json:"reference_audio" toml:"reference_audio"`
	Speed          float64 `json:"speed" toml:"speed"`
	// ReferenceDir is the only directory request metadata may name
	// reference voices in; empty disables per-request references.
	ReferenceDir string `json:"reference_dir" toml:"reference_dir"`

	// Timeline
	Stretcher    string `json:"stretcher" toml:"stretcher"`
	FFmpegBinary string `json:"ffmpeg_binary" toml:"ffmpeg_binary"`
	TempDir      string `json:"temp_dir" toml:"temp_dir"`

	// Segment cache; 0 disables it.
	CacheDir       string `json:"cache_dir" toml:"cache_dir"`
	CacheMaxSizeMB int    `json:"cache_max_size_mb" toml:"cache_max_size_mb"`
}

// Default returns a Config populated with every default value.
func Default() Config {
	return Config{
		ListenAddr:        DefaultListenAddr,
		LogLevel:          DefaultLogLevel,
		Endpoint:          DefaultEndpoint,
		Model:             DefaultModel,
		RequestTimeoutSec: DefaultTimeoutSec,
		Speed:             DefaultSpeed,
		Stretcher:         DefaultStretcher,
		FFmpegBinary:      DefaultFFmpegBinary,
		CacheMaxSizeMB:    DefaultCacheMaxSizeMB,
	}
}

// RequestTimeout returns the per-request TTS timeout.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// CacheMaxBytes returns the cache budget in bytes.
func (c Config) CacheMaxBytes() int64 {
	return int64(c.CacheMaxSizeMB) * 1024 * 1024
}

// Validate applies defaults and raises an error when fields are out of range.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}

	if !c.UseStubSynthesizer {
		if c.Endpoint == "" {
			c.Endpoint = DefaultEndpoint
		}
		u, err := url.Parse(c.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config: endpoint must be an http(s) URL, got %q", c.Endpoint)
		}
	}
	if c.HealthPath != "" && !strings.HasPrefix(c.HealthPath, "/") {
		return fmt.Errorf("config: health_path must start with /, got %q", c.HealthPath)
	}

	if c.RequestTimeoutSec == 0 {
		c.RequestTimeoutSec = DefaultTimeoutSec
	}
	if c.RequestTimeoutSec < 0 {
		return fmt.Errorf("config: request_timeout_sec must be positive, got %d", c.RequestTimeoutSec)
	}

	if c.Speed == 0 {
		c.Speed = DefaultSpeed
	}
	if c.Speed < 0.5 || c.Speed > 2.0 {
		return fmt.Errorf("config: speed must be between 0.5 and 2.0, got %f", c.Speed)
	}

	if c.ReferenceDir != "" {
		dir, err := filepath.Abs(c.ReferenceDir)
		if err != nil {
			return fmt.Errorf("config: reference_dir: %w", err)
		}
		c.ReferenceDir = dir
	}

	if c.Stretcher == "" {
		c.Stretcher = DefaultStretcher
	}
	c.Stretcher = strings.ToLower(c.Stretcher)
	if c.Stretcher != StretcherWSOLA && c.Stretcher != StretcherFFmpeg {
		return fmt.Errorf("config: stretcher must be %q or %q, got %q", StretcherWSOLA, StretcherFFmpeg, c.Stretcher)
	}
	if c.FFmpegBinary == "" {
		c.FFmpegBinary = DefaultFFmpegBinary
	}

	if c.CacheMaxSizeMB < 0 {
		return fmt.Errorf("config: cache_max_size_mb must be >= 0, got %d", c.CacheMaxSizeMB)
	}

	return nil
}
