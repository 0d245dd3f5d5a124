// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli is the chetna command line: the cobra command tree, the
// wiring that assembles a running chat from configuration, and the
// line-mode chat for terminals without the full-screen interface.
//
// # Commands
//
//   - chetna, chetna chat: start a conversation (full-screen or line mode)
//   - history: recorded messages of the signed-in user
//   - clear: delete the saved conversation
//   - export: save the conversation as Markdown or JSON
//   - settings [key [value]]: playback settings
//   - suggest <text>: follow-up questions for a reply
//   - config show|get|set|path: configuration
//   - version
//
// Errors are returned, never printed and swallowed; Execute maps them to
// exit codes with GetExitCode.
package cli
