package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

const (
	// DefaultTimeout bounds a single synthesis call.
	DefaultTimeout = 120 * time.Second

	synthesizePath              = "/tts"
	defaultMaxTokensPerSentence = 120
)

// ErrNotLoaded is returned by Synthesize before Load succeeded.
var ErrNotLoaded = errors.New("tts: client not loaded")

// ClientConfig describes how to reach the TTS server.
type ClientConfig struct {
	Endpoint   string
	HealthPath string
	Model      string
	Timeout    time.Duration
}

// Client talks to a voice-cloning TTS server over HTTP. The server reads the
// reference voice from a path on a filesystem it shares with the adapter.
type Client struct {
	httpClient *http.Client
	baseURL    string
	healthPath string
	model      string
	loaded     atomic.Bool
}

// NewClient constructs a client. Call Load before the first Synthesize.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
		healthPath: strings.TrimSpace(cfg.HealthPath),
		model:      cfg.Model,
	}
}

// SynthesizeRequest is the JSON payload posted to the server.
type SynthesizeRequest struct {
	Text                     string `json:"text"`
	SpeakerAudioPath         string `json:"spk_audio_path"`
	Model                    string `json:"model,omitempty"`
	MaxTextTokensPerSentence int    `json:"max_text_tokens_per_sentence"`
}

type serverError struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Load performs the one-time initialization: the endpoint is validated and,
// when a health path is configured, the server must answer it with 2xx.
func (c *Client) Load(ctx context.Context) error {
	u, err := url.Parse(c.baseURL)
	if err != nil || c.baseURL == "" {
		return fmt.Errorf("tts: invalid endpoint %q", c.baseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("tts: endpoint %q must use http or https", c.baseURL)
	}

	if c.healthPath != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.healthPath, nil)
		if err != nil {
			return fmt.Errorf("tts: create health request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("tts: health check: %w", err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("tts: health check returned status %d", resp.StatusCode)
		}
	}

	c.loaded.Store(true)
	return nil
}

// Synthesize posts text and the reference path to the server and writes the
// returned WAV bytes to outputPath.
func (c *Client) Synthesize(ctx context.Context, referencePath, text, outputPath string) error {
	if !c.loaded.Load() {
		return ErrNotLoaded
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("tts: text is required")
	}
	if referencePath == "" {
		return fmt.Errorf("tts: reference audio path is required")
	}

	body, err := json.Marshal(SynthesizeRequest{
		Text:                     text,
		SpeakerAudioPath:         referencePath,
		Model:                    c.model,
		MaxTextTokensPerSentence: defaultMaxTokensPerSentence,
	})
	if err != nil {
		return fmt.Errorf("tts: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+synthesizePath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("tts: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/wav")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("tts: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(errBody))
		var apiErr serverError
		if json.Unmarshal(errBody, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		if msg == "" {
			msg = "unknown error"
		}
		return fmt.Errorf("tts: server error (status %d): %s", resp.StatusCode, msg)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("tts: create output: %w", err)
	}
	n, err := io.Copy(out, resp.Body)
	if err != nil {
		out.Close()
		return fmt.Errorf("tts: write output: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("tts: close output: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("tts: server returned empty audio")
	}
	return nil
}
