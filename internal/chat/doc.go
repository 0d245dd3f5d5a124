// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the conversation controller shared by the
// full-screen and line-mode layouts.
//
// The Controller owns the transcript. It validates and rate-limits
// submissions, asks the responder for a reply, paces the reply so it does
// not appear instantly, falls back to canned replies when the responder
// fails, and wires voice input and spoken output around the transcript.
//
// Layouts never touch the transcript directly. They call the Controller's
// operations and render the View snapshot it publishes to subscribers.
package chat
