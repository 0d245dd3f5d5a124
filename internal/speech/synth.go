// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Synthesizer turns text into playable audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, speed float64) ([]byte, error)
}

// SynthesizerFunc adapts a function to the Synthesizer interface.
type SynthesizerFunc func(ctx context.Context, text string, speed float64) ([]byte, error)

// Synthesize calls f.
func (f SynthesizerFunc) Synthesize(ctx context.Context, text string, speed float64) ([]byte, error) {
	return f(ctx, text, speed)
}

// =============================================================================
// HTTP SYNTHESIZER
// =============================================================================

// SynthConfig configures the TTS endpoint client.
type SynthConfig struct {
	// URL receives POST {text, speed} and answers with audio bytes.
	URL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Voice and Format are passed through when set.
	Voice  string
	Format string

	// MaxChars truncates long messages before synthesis (default: 4000).
	MaxChars int

	// Timeout bounds one request (default: 30s).
	Timeout time.Duration
}

type synthRequest struct {
	Text   string  `json:"text"`
	Speed  float64 `json:"speed"`
	Voice  string  `json:"voice,omitempty"`
	Format string  `json:"format,omitempty"`
}

// HTTPSynthesizer posts text to a TTS endpoint.
type HTTPSynthesizer struct {
	cfg    SynthConfig
	client *http.Client
	logger zerolog.Logger
}

// NewHTTPSynthesizer creates a TTS client.
func NewHTTPSynthesizer(cfg SynthConfig, logger zerolog.Logger) *HTTPSynthesizer {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 4000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPSynthesizer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "tts").Logger(),
	}
}

// Synthesize requests audio for text at the given speed.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text string, speed float64) ([]byte, error) {
	if s.cfg.URL == "" {
		return nil, ErrNotConfigured
	}
	text = PlainText(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if r := []rune(text); len(r) > s.cfg.MaxChars {
		text = string(r[:s.cfg.MaxChars])
	}

	body, err := json.Marshal(synthRequest{
		Text:   text,
		Speed:  speed,
		Voice:  s.cfg.Voice,
		Format: s.cfg.Format,
	})
	if err != nil {
		return nil, &ClientError{Op: "synthesize", Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Op: "synthesize", Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &ClientError{Op: "synthesize", Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ClientError{Op: "synthesize", Message: "failed to read audio", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ClientError{
			Op:         "synthesize",
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(truncate(string(audio), 200)),
		}
	}
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}

	s.logger.Debug().
		Int("chars", len(text)).
		Int("bytes", len(audio)).
		Float64("speed", speed).
		Dur("elapsed", time.Since(start)).
		Msg("speech synthesized")
	return audio, nil
}

// PlainText strips common markdown so it is not read aloud.
func PlainText(md string) string {
	r := strings.NewReplacer("**", "", "__", "", "`", "")
	lines := strings.Split(md, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimLeft(strings.TrimSpace(l), "#>-* ")
		l = strings.TrimSpace(r.Replace(l))
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
