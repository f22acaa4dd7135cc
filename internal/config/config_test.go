package config

import (
	"path/filepath"
	"testing"
)

func TestValidateAppliesDefaults(t *testing.T) {
	cfg := Config{ListenAddr: "127.0.0.1:50051"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model != DefaultModel {
		t.Errorf("Model = %q, want %q", cfg.Model, DefaultModel)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.Endpoint != DefaultEndpoint {
		t.Errorf("Endpoint = %q, want %q", cfg.Endpoint, DefaultEndpoint)
	}
	if cfg.Speed != DefaultSpeed {
		t.Errorf("Speed = %v, want %v", cfg.Speed, DefaultSpeed)
	}
	if cfg.Stretcher != StretcherWSOLA {
		t.Errorf("Stretcher = %q, want %q", cfg.Stretcher, StretcherWSOLA)
	}
	if cfg.RequestTimeoutSec != DefaultTimeoutSec {
		t.Errorf("RequestTimeoutSec = %d, want %d", cfg.RequestTimeoutSec, DefaultTimeoutSec)
	}
}

func TestValidateRequiresListenAddr(t *testing.T) {
	cfg := Default()
	cfg.ListenAddr = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing listen address")
	}
}

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		stub     bool
		wantErr  bool
	}{
		{"http", "http://tts:7860", false, false},
		{"https", "https://tts.example.com", false, false},
		{"no_scheme", "tts:7860", false, true},
		{"ftp", "ftp://tts", false, true},
		{"stub_ignores", "not a url", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Endpoint = tt.endpoint
			cfg.UseStubSynthesizer = tt.stub
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Endpoint=%q: err=%v, wantErr=%v", tt.endpoint, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSpeedRange(t *testing.T) {
	tests := []struct {
		name    string
		val     float64
		wantErr bool
	}{
		{"min", 0.5, false},
		{"max", 2.0, false},
		{"unset", 0, false},
		{"slow", 0.4, true},
		{"fast", 2.1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Speed = tt.val
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Speed=%f: err=%v, wantErr=%v", tt.val, err, tt.wantErr)
			}
		})
	}
}

func TestValidateStretcher(t *testing.T) {
	cfg := Default()
	cfg.Stretcher = "FFmpeg"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Stretcher != StretcherFFmpeg {
		t.Errorf("Stretcher = %q, want %q", cfg.Stretcher, StretcherFFmpeg)
	}

	cfg.Stretcher = "rubberband"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown stretcher")
	}
}

func TestValidateLogLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestValidateReferenceDirIsAbsolute(t *testing.T) {
	cfg := Default()
	cfg.ReferenceDir = "voices"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !filepath.IsAbs(cfg.ReferenceDir) || filepath.Base(cfg.ReferenceDir) != "voices" {
		t.Errorf("ReferenceDir = %q, want an absolute path ending in voices", cfg.ReferenceDir)
	}
}

func TestValidateHealthPath(t *testing.T) {
	cfg := Default()
	cfg.HealthPath = "health"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for relative health path")
	}
}

func TestValidateCacheMaxSizeMB(t *testing.T) {
	cfg := Default()
	cfg.CacheMaxSizeMB = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative CacheMaxSizeMB")
	}

	cfg.CacheMaxSizeMB = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("CacheMaxSizeMB=0 should be valid (disabled): %v", err)
	}

	cfg.CacheMaxSizeMB = 200
	if err := cfg.Validate(); err != nil {
		t.Fatalf("CacheMaxSizeMB=200 should be valid: %v", err)
	}
	if got := cfg.CacheMaxBytes(); got != 200*1024*1024 {
		t.Errorf("CacheMaxBytes = %d", got)
	}
}
