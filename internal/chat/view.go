// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/chetna-wellness/chetna/internal/model"
	"github.com/chetna-wellness/chetna/internal/speech"
)

// Status is the conversation state.
type Status int

const (
	// StatusIdle accepts a new submission.
	StatusIdle Status = iota

	// StatusAwaitingResponse waits for the assistant reply.
	StatusAwaitingResponse
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusAwaitingResponse:
		return "awaiting_response"
	default:
		return "unknown"
	}
}

// View is a presentation-agnostic snapshot of the controller.
// Slices and maps are copies owned by the receiver.
type View struct {
	Messages    []model.Message
	Origin      model.Origin
	Input       string
	Status      Status
	Suggestions []string

	// Identity
	SignedIn bool
	UserName string

	// Guest rate limit. GuestRemaining is -1 for signed-in users.
	GuestCount     int
	GuestRemaining int
	LimitReached   bool

	// InputDisabled is set while awaiting a reply or after the guest
	// limit was hit.
	InputDisabled bool

	// Voice input
	Listening       bool
	SpeechSupported bool

	// Playback holds the non-idle playback state of assistant messages.
	Playback       map[string]speech.State
	ActivePlayback string

	Language string
}

// Typing reports whether the assistant is composing a reply.
func (v View) Typing() bool {
	return v.Status == StatusAwaitingResponse
}

// PlaybackState returns the playback state of a message.
func (v View) PlaybackState(msgID string) speech.State {
	if st, ok := v.Playback[msgID]; ok {
		return st
	}
	return speech.StateIdle
}

// LastAssistant returns the newest assistant message.
func (v View) LastAssistant() (model.Message, bool) {
	for i := len(v.Messages) - 1; i >= 0; i-- {
		if !v.Messages[i].IsUser {
			return v.Messages[i], true
		}
	}
	return model.Message{}, false
}
