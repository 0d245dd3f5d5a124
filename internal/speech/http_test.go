// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSynthesizer(t *testing.T) {
	var got synthRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3audio"))
	}))
	defer srv.Close()

	s := NewHTTPSynthesizer(SynthConfig{URL: srv.URL, APIKey: "secret"}, zerolog.Nop())
	audio, err := s.Synthesize(context.Background(), "**Breathe** slowly.\n- in for 4", 0.85)
	require.NoError(t, err)

	assert.Equal(t, []byte("ID3audio"), audio)
	assert.Equal(t, "Breathe slowly. in for 4", got.Text)
	assert.InDelta(t, 0.85, got.Speed, 1e-9)
}

func TestHTTPSynthesizer_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewHTTPSynthesizer(SynthConfig{URL: srv.URL}, zerolog.Nop())
	_, err := s.Synthesize(context.Background(), "hi", 1)

	var ce *ClientError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, http.StatusTooManyRequests, ce.StatusCode)
	assert.Equal(t, "quota exceeded", ce.Message)

	_, err = NewHTTPSynthesizer(SynthConfig{}, zerolog.Nop()).Synthesize(context.Background(), "hi", 1)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = s.Synthesize(context.Background(), "  ", 1)
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestHTTPTranscriber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "hi", r.FormValue("language"))

		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "RIFFdata", string(data))

		w.Write([]byte(`{"text":" मुझे नींद नहीं आती "}`))
	}))
	defer srv.Close()

	tr := NewHTTPTranscriber(TranscriberConfig{URL: srv.URL, Model: "whisper-1", Language: "hi"}, zerolog.Nop())
	assert.True(t, tr.Configured())

	text, err := tr.Transcribe(context.Background(), []byte("RIFFdata"))
	require.NoError(t, err)
	assert.Equal(t, "मुझे नींद नहीं आती", text)
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Title Point one well-being matters", PlainText("# Title\n\n* Point one\n> well-being `matters`"))
}
