// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"
	"time"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage_TruncatesToMillis(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 123456789, time.UTC)
	msg := NewUserMessage("hello", now)

	if msg.ID == "" {
		t.Error("Expected non-empty ID")
	}
	if msg.Timestamp.Nanosecond() != 123000000 {
		t.Errorf("Timestamp nanos = %d, want 123000000", msg.Timestamp.Nanosecond())
	}
	if msg.Sender() != "user" {
		t.Errorf("Sender() = %q, want user", msg.Sender())
	}
}

func TestMessage_Preview(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
		want   string
	}{
		{"short", "hi", 10, "hi"},
		{"truncated", "hello world", 8, "hello..."},
		{"unicode", "नमस्ते दुनिया", 5, "नम..."},
		{"tiny limit", "hello", 2, "he"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := Message{Text: tc.text}
			if got := msg.Preview(tc.maxLen); got != tc.want {
				t.Errorf("Preview(%d) = %q, want %q", tc.maxLen, got, tc.want)
			}
		})
	}
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestNewWelcomeTranscript(t *testing.T) {
	tr := NewWelcomeTranscript("Welcome", time.Now())

	if tr.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tr.Len())
	}
	if !tr.IsDefaultWelcome() {
		t.Error("fresh transcript should be the default welcome")
	}
	first, _ := tr.First()
	if first.IsUser {
		t.Error("welcome message should come from the assistant")
	}
}

func TestTranscript_AppendDoesNotMutate(t *testing.T) {
	base := NewWelcomeTranscript("Welcome", time.Now())
	next := base.Append(NewUserMessage("hi", time.Now()))

	if base.Len() != 1 {
		t.Errorf("base Len() = %d, want 1", base.Len())
	}
	if next.Len() != 2 {
		t.Errorf("next Len() = %d, want 2", next.Len())
	}
	if next.IsDefaultWelcome() {
		t.Error("transcript with two messages is not the default welcome")
	}
}

func TestTranscript_LastAssistant(t *testing.T) {
	tr := NewWelcomeTranscript("Welcome", time.Now()).
		Append(NewUserMessage("one", time.Now())).
		Append(NewAssistantMessage("two", time.Now())).
		Append(NewUserMessage("three", time.Now()))

	got, ok := tr.LastAssistant()
	if !ok || got.Text != "two" {
		t.Errorf("LastAssistant() = %q, %v; want two, true", got.Text, ok)
	}

	found, ok := tr.Find(got.ID)
	if !ok || found.Text != "two" {
		t.Error("Find should locate a message by ID")
	}
}

func TestPersonalizedTranscript(t *testing.T) {
	tr := NewPersonalizedTranscript("Hi Asha", time.Now())
	if tr.Origin != OriginPersonalized {
		t.Errorf("Origin = %v, want personalized", tr.Origin)
	}
	if tr.IsDefaultWelcome() {
		t.Error("personalized transcript is not the default welcome")
	}
}

func TestTestResult_Percent(t *testing.T) {
	r := TestResult{Score: 9, MaxScore: 27}
	if r.Percent() != 33 {
		t.Errorf("Percent() = %d, want 33", r.Percent())
	}
	if (TestResult{Score: 3}).Percent() != 0 {
		t.Error("Percent() with zero max should be 0")
	}
}
