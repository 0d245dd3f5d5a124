// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// =============================================================================
// CAPTURE EVENTS
// =============================================================================

// EventType identifies a capture event.
type EventType int

const (
	EventStart EventType = iota
	EventResult
	EventError
	EventEnd
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventStart:
		return "start"
	case EventResult:
		return "result"
	case EventError:
		return "error"
	case EventEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Event is one step of a capture session.
type Event struct {
	Type EventType
	Text string // EventResult only
	Err  error  // EventError only
}

// Recognizer captures speech and returns the final recognized text.
type Recognizer interface {
	// Supported reports whether capture can work here. It has no side effects.
	Supported() bool

	// Recognize captures until stop is closed, the recognizer decides the
	// utterance is over, or ctx ends.
	Recognize(ctx context.Context, stop <-chan struct{}) (string, error)
}

// =============================================================================
// LISTENER
// =============================================================================

// Listener runs at most one capture session at a time.
type Listener struct {
	rec    Recognizer
	logger zerolog.Logger

	mu        sync.Mutex
	listening bool
	stop      chan struct{}
}

// NewListener creates a listener. A nil recognizer is never supported.
func NewListener(rec Recognizer, logger zerolog.Logger) *Listener {
	return &Listener{
		rec:    rec,
		logger: logger.With().Str("component", "listener").Logger(),
	}
}

// Supported reports whether voice input is available.
func (l *Listener) Supported() bool {
	return l.rec != nil && l.rec.Supported()
}

// Listening reports whether a capture session is active.
func (l *Listener) Listening() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.listening
}

// Start begins a capture session. The returned channel yields EventStart,
// then at most one EventResult (non-empty text) or EventError, then exactly
// one EventEnd, and is then closed.
func (l *Listener) Start(ctx context.Context) (<-chan Event, error) {
	if !l.Supported() {
		return nil, ErrUnsupported
	}

	l.mu.Lock()
	if l.listening {
		l.mu.Unlock()
		return nil, ErrAlreadyListening
	}
	l.listening = true
	stop := make(chan struct{})
	l.stop = stop
	l.mu.Unlock()

	// room for every event so the session never blocks on a slow reader
	events := make(chan Event, 3)
	go l.run(ctx, stop, events)
	return events, nil
}

// Stop ends the active session early. The session still delivers its End.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		close(l.stop)
		l.stop = nil
	}
}

func (l *Listener) run(ctx context.Context, stop chan struct{}, events chan<- Event) {
	defer close(events)
	events <- Event{Type: EventStart}

	text, err := l.recognize(ctx, stop)

	switch {
	case err != nil && !errors.Is(err, context.Canceled):
		l.logger.Warn().Err(err).Msg("speech recognition failed")
		events <- Event{Type: EventError, Err: err}
	case err == nil && strings.TrimSpace(text) != "":
		events <- Event{Type: EventResult, Text: strings.TrimSpace(text)}
	}

	l.mu.Lock()
	l.listening = false
	if l.stop == stop {
		l.stop = nil
	}
	l.mu.Unlock()

	events <- Event{Type: EventEnd}
}

// recognize shields the session from a panicking recognizer.
func (l *Listener) recognize(ctx context.Context, stop <-chan struct{}) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("speech: recognizer crashed")
			l.logger.Error().Interface("panic", r).Msg("recognizer panic")
		}
	}()
	return l.rec.Recognize(ctx, stop)
}
