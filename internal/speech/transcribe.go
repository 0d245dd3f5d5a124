// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// =============================================================================
// STT CLIENT
// =============================================================================

// TranscriberConfig configures the speech-to-text endpoint client.
type TranscriberConfig struct {
	// URL receives a multipart upload and answers with JSON {"text": "..."}.
	URL    string
	APIKey string

	// Model is sent as the "model" field when set (e.g. "whisper-1").
	Model string

	// Language is a hint sent as the "language" field when set.
	Language string

	Timeout time.Duration
}

// HTTPTranscriber uploads recorded audio for transcription.
type HTTPTranscriber struct {
	cfg    TranscriberConfig
	client *http.Client
	logger zerolog.Logger
}

// NewHTTPTranscriber creates an STT client.
func NewHTTPTranscriber(cfg TranscriberConfig, logger zerolog.Logger) *HTTPTranscriber {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPTranscriber{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "stt").Logger(),
	}
}

// Configured reports whether an endpoint is set.
func (t *HTTPTranscriber) Configured() bool {
	return t.cfg.URL != ""
}

// SetLanguage changes the language hint.
func (t *HTTPTranscriber) SetLanguage(lang string) {
	t.cfg.Language = lang
}

// Transcribe uploads WAV audio and returns the recognized text.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if t.cfg.URL == "" {
		return "", ErrNotConfigured
	}
	if len(wav) == 0 {
		return "", ErrNoSpeech
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "speech.wav")
	if err != nil {
		return "", &ClientError{Op: "transcribe", Message: "failed to create form file", Cause: err}
	}
	if _, err := part.Write(wav); err != nil {
		return "", &ClientError{Op: "transcribe", Message: "failed to write audio data", Cause: err}
	}
	if t.cfg.Model != "" {
		if err := writer.WriteField("model", t.cfg.Model); err != nil {
			return "", &ClientError{Op: "transcribe", Message: "failed to write model field", Cause: err}
		}
	}
	if t.cfg.Language != "" {
		if err := writer.WriteField("language", t.cfg.Language); err != nil {
			return "", &ClientError{Op: "transcribe", Message: "failed to write language field", Cause: err}
		}
	}
	if err := writer.Close(); err != nil {
		return "", &ClientError{Op: "transcribe", Message: "failed to close multipart writer", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.URL, &buf)
	if err != nil {
		return "", &ClientError{Op: "transcribe", Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if t.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return "", &ClientError{Op: "transcribe", Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ClientError{Op: "transcribe", Message: "failed to read response", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ClientError{
			Op:         "transcribe",
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(truncate(string(body), 200)),
		}
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &ClientError{Op: "transcribe", Message: "failed to parse response", Cause: err}
	}

	t.logger.Debug().Int("chars", len(result.Text)).Dur("elapsed", time.Since(start)).Msg("transcription complete")
	return strings.TrimSpace(result.Text), nil
}

// =============================================================================
// TRANSCRIBING RECOGNIZER
// =============================================================================

// Recorder captures audio from the microphone.
type Recorder interface {
	// Available reports whether recording can work here.
	Available() bool

	// Record captures until stop is closed, its own limit is reached, or
	// ctx ends, and returns WAV bytes.
	Record(ctx context.Context, stop <-chan struct{}) ([]byte, error)
}

// Transcriber converts WAV audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

// TranscribingRecognizer records an utterance, then sends it for
// transcription.
type TranscribingRecognizer struct {
	Recorder    Recorder
	Transcriber Transcriber

	// MinBytes is the smallest recording treated as speech (default: 8000,
	// a quarter second of 16 kHz mono 16-bit audio).
	MinBytes int
}

// Supported reports whether both halves are available.
func (r *TranscribingRecognizer) Supported() bool {
	if r.Recorder == nil || r.Transcriber == nil || !r.Recorder.Available() {
		return false
	}
	if c, ok := r.Transcriber.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}

// Recognize records until stopped and transcribes the result.
func (r *TranscribingRecognizer) Recognize(ctx context.Context, stop <-chan struct{}) (string, error) {
	wav, err := r.Recorder.Record(ctx, stop)
	if err != nil {
		return "", err
	}

	minBytes := r.MinBytes
	if minBytes <= 0 {
		minBytes = 8000
	}
	if len(wav) < minBytes {
		return "", ErrNoSpeech
	}
	return r.Transcriber.Transcribe(ctx, wav)
}
