// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// ORIGIN
// =============================================================================

// Origin records how the current transcript came to be.
type Origin int

const (
	// OriginDefault is a fresh transcript seeded with the default welcome.
	OriginDefault Origin = iota
	// OriginPersonalized is a transcript whose welcome was tailored to the user.
	OriginPersonalized
	// OriginRestored is a transcript loaded from local storage.
	OriginRestored
)

// String returns the string representation of the origin.
func (o Origin) String() string {
	switch o {
	case OriginDefault:
		return "default"
	case OriginPersonalized:
		return "personalized"
	case OriginRestored:
		return "restored"
	default:
		return "unknown"
	}
}

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is the ordered list of messages for the current session,
// oldest first. A valid transcript always holds at least one message.
type Transcript struct {
	Messages []Message
	Origin   Origin
}

// NewWelcomeTranscript creates a transcript holding a single welcome message.
func NewWelcomeTranscript(welcome string, now time.Time) Transcript {
	return Transcript{
		Messages: []Message{NewAssistantMessage(welcome, now)},
		Origin:   OriginDefault,
	}
}

// NewPersonalizedTranscript creates a single-message transcript whose
// welcome was tailored to the signed-in user.
func NewPersonalizedTranscript(welcome string, now time.Time) Transcript {
	t := NewWelcomeTranscript(welcome, now)
	t.Origin = OriginPersonalized
	return t
}

// Len returns the number of messages.
func (t Transcript) Len() int {
	return len(t.Messages)
}

// IsEmpty returns true if the transcript holds no messages.
func (t Transcript) IsEmpty() bool {
	return len(t.Messages) == 0
}

// IsDefaultWelcome reports whether the transcript is still exactly the
// untouched default welcome.
func (t Transcript) IsDefaultWelcome() bool {
	return t.Origin == OriginDefault && len(t.Messages) == 1
}

// First returns the first message, if any.
func (t Transcript) First() (Message, bool) {
	if len(t.Messages) == 0 {
		return Message{}, false
	}
	return t.Messages[0], true
}

// Last returns the newest message, if any.
func (t Transcript) Last() (Message, bool) {
	if len(t.Messages) == 0 {
		return Message{}, false
	}
	return t.Messages[len(t.Messages)-1], true
}

// LastAssistant returns the newest assistant message, if any.
func (t Transcript) LastAssistant() (Message, bool) {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if !t.Messages[i].IsUser {
			return t.Messages[i], true
		}
	}
	return Message{}, false
}

// Find returns the message with the given ID.
func (t Transcript) Find(id string) (Message, bool) {
	for _, m := range t.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

// Append returns a new transcript with msg added at the end.
// The receiver is left untouched.
func (t Transcript) Append(msg Message) Transcript {
	msgs := make([]Message, len(t.Messages), len(t.Messages)+1)
	copy(msgs, t.Messages)
	return Transcript{Messages: append(msgs, msg), Origin: t.Origin}
}

// Clone returns a deep copy of the transcript.
func (t Transcript) Clone() Transcript {
	msgs := make([]Message, len(t.Messages))
	copy(msgs, t.Messages)
	return Transcript{Messages: msgs, Origin: t.Origin}
}
