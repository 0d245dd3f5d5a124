// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat transcript.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in the transcript.
// Messages are immutable once created.
type Message struct {
	// ID identifies the message for the lifetime of the process.
	// It is not persisted; restored messages receive fresh IDs.
	ID string `json:"-"`

	// Text is the message body. Assistant messages may contain markdown.
	Text string `json:"text"`

	// IsUser is true for messages typed or spoken by the user.
	IsUser bool `json:"isUser"`

	// Timestamp is the creation time, truncated to milliseconds.
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with a generated ID.
func NewMessage(text string, isUser bool, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		IsUser:    isUser,
		Timestamp: now.Truncate(time.Millisecond),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(text string, now time.Time) Message {
	return NewMessage(text, true, now)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(text string, now time.Time) Message {
	return NewMessage(text, false, now)
}

// Sender returns "user" or "assistant".
func (m Message) Sender() string {
	if m.IsUser {
		return "user"
	}
	return "assistant"
}

// Preview returns a truncated preview of the message text.
// Uses rune-based truncation to handle Unicode correctly.
func (m Message) Preview(maxLen int) string {
	runes := []rune(m.Text)
	if len(runes) <= maxLen {
		return m.Text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// Equal reports whether two messages carry the same text, sender and
// millisecond timestamp. IDs are ignored.
func (m Message) Equal(other Message) bool {
	return m.Text == other.Text &&
		m.IsUser == other.IsUser &&
		m.Timestamp.Truncate(time.Millisecond).Equal(other.Timestamp.Truncate(time.Millisecond))
}
