// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the full-screen chat view for the TUI.
//
// The Model renders snapshots published by the conversation controller and
// forwards keys and slash commands to it. It holds no conversation state of
// its own beyond the text being typed.
//
// # Layout
//
//   - Header: brand, identity, guest allowance, playback settings
//   - Transcript: scrollable chat bubbles; replies rendered as markdown
//   - Typing and listening indicators
//   - Suggestion chips and command completion
//   - Input line and key help
//
// Notifications appear as toasts above the input.
package chat
