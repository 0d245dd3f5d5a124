// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecognizer struct {
	supported bool
	text      string
	err       error
	waitStop  bool
}

func (r *fakeRecognizer) Supported() bool { return r.supported }

func (r *fakeRecognizer) Recognize(ctx context.Context, stop <-chan struct{}) (string, error) {
	if r.waitStop {
		select {
		case <-stop:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return r.text, r.err
}

func collect(ch <-chan Event) []EventType {
	var out []EventType
	for ev := range ch {
		out = append(out, ev.Type)
	}
	return out
}

func TestListener_Result(t *testing.T) {
	l := NewListener(&fakeRecognizer{supported: true, text: "  I feel anxious  "}, zerolog.Nop())

	ch, err := l.Start(context.Background())
	require.NoError(t, err)

	var events []Event
	for ev := range ch {
		events = append(events, ev)
	}
	require.Len(t, events, 3)
	assert.Equal(t, EventStart, events[0].Type)
	assert.Equal(t, EventResult, events[1].Type)
	assert.Equal(t, "I feel anxious", events[1].Text)
	assert.Equal(t, EventEnd, events[2].Type)
	assert.False(t, l.Listening())
}

func TestListener_EmptyResultOnlyEnds(t *testing.T) {
	l := NewListener(&fakeRecognizer{supported: true, text: " "}, zerolog.Nop())
	ch, err := l.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []EventType{EventStart, EventEnd}, collect(ch))
}

func TestListener_Error(t *testing.T) {
	l := NewListener(&fakeRecognizer{supported: true, err: errors.New("mic busy")}, zerolog.Nop())
	ch, err := l.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []EventType{EventStart, EventError, EventEnd}, collect(ch))
}

func TestListener_StopEndsOnce(t *testing.T) {
	l := NewListener(&fakeRecognizer{supported: true, waitStop: true}, zerolog.Nop())

	ch, err := l.Start(context.Background())
	require.NoError(t, err)
	assert.True(t, l.Listening())

	_, err = l.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyListening)

	l.Stop()
	l.Stop()
	assert.Equal(t, []EventType{EventStart, EventEnd}, collect(ch))

	// a new session may start after End
	_, err = l.Start(context.Background())
	assert.NoError(t, err)
	l.Stop()
}

func TestListener_CancelledContextIsNotAnError(t *testing.T) {
	l := NewListener(&fakeRecognizer{supported: true, waitStop: true}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := l.Start(ctx)
	require.NoError(t, err)
	cancel()
	assert.Equal(t, []EventType{EventStart, EventEnd}, collect(ch))
}

func TestListener_Unsupported(t *testing.T) {
	assert.False(t, NewListener(nil, zerolog.Nop()).Supported())

	l := NewListener(&fakeRecognizer{}, zerolog.Nop())
	_, err := l.Start(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
}

type fakeRecorder struct {
	wav []byte
}

func (r fakeRecorder) Available() bool { return true }
func (r fakeRecorder) Record(context.Context, <-chan struct{}) ([]byte, error) {
	return r.wav, nil
}

type echoTranscriber struct{ text string }

func (e echoTranscriber) Transcribe(context.Context, []byte) (string, error) { return e.text, nil }

func TestTranscribingRecognizer(t *testing.T) {
	r := &TranscribingRecognizer{
		Recorder:    fakeRecorder{wav: make([]byte, 100)},
		Transcriber: echoTranscriber{text: "hello"},
		MinBytes:    10,
	}
	assert.True(t, r.Supported())

	text, err := r.Recognize(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	r.MinBytes = 1000
	_, err = r.Recognize(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoSpeech)
}
