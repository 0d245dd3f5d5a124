// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package responder produces assistant replies for the chat core.
//
// A Responder turns a user message (plus personalization context) into a
// reply. The chat controller treats any error as a signal to use the
// keyword-based Fallback instead.
package responder

import (
	"context"
	"errors"

	"github.com/chetna-wellness/chetna/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrThrottled is returned when a user exceeds the AI request rate.
	ErrThrottled = errors.New("responder: too many requests")

	// ErrNoResponder is returned by a nil Func.
	ErrNoResponder = errors.New("responder: not configured")
)

// =============================================================================
// TYPES
// =============================================================================

// Request carries everything a responder needs to answer one message.
type Request struct {
	// Text is the user's trimmed message.
	Text string

	// Fallback produces a canned reply for Text. Responders may use it when
	// the model returns nothing useful.
	Fallback func(text string) string

	// Results are the user's most recent self-assessments, newest first.
	// Empty for guests.
	Results []model.TestResult

	// History holds the preceding transcript messages, oldest first.
	History []model.Message

	// Language is the BCP 47 tag of the active UI language.
	Language string

	// UserID identifies the signed-in user; empty for guests.
	UserID string
}

// FallbackReply returns r.Fallback(r.Text), or the package Fallback when
// no function was supplied.
func (r Request) FallbackReply() string {
	if r.Fallback != nil {
		return r.Fallback(r.Text)
	}
	return Fallback(r.Text)
}

// Responder answers user messages.
type Responder interface {
	Respond(ctx context.Context, req Request) (string, error)
}

// Func adapts an ordinary function to the Responder interface.
type Func func(ctx context.Context, req Request) (string, error)

// Respond calls f(ctx, req).
func (f Func) Respond(ctx context.Context, req Request) (string, error) {
	if f == nil {
		return "", ErrNoResponder
	}
	return f(ctx, req)
}

// Static always replies with the keyword fallback. It is used when no AI
// endpoint is configured.
type Static struct{}

// Respond returns the fallback reply for req.
func (Static) Respond(_ context.Context, req Request) (string, error) {
	return req.FallbackReply(), nil
}
