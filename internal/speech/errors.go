// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

var (
	ErrNotConfigured    = errors.New("speech: endpoint not configured")
	ErrEmptyText        = errors.New("speech: nothing to synthesize")
	ErrEmptyAudio       = errors.New("speech: endpoint returned no audio")
	ErrUnsupported      = errors.New("speech: voice input not supported")
	ErrAlreadyListening = errors.New("speech: already listening")
	ErrNoSpeech         = errors.New("speech: no speech detected")
	ErrPauseUnsupported = errors.New("speech: pause not supported on this platform")
	ErrReleased         = errors.New("speech: handle released")
)

// ClientError is returned by the HTTP speech clients.
type ClientError struct {
	Op         string // "synthesize" or "transcribe"
	StatusCode int    // 0 for transport failures
	Message    string
	Cause      error
}

func (e *ClientError) Error() string {
	msg := e.Op + ": " + e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}
