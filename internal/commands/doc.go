// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system shared by the
// full-screen and line-mode chat interfaces.
//
// # Key Types
//
//   - Registry: Command registry with all available commands
//   - Env: The chat session a command acts on
//   - Invocation: A parsed slash command with its arguments
//   - Completer: Tab completion for commands and arguments
//
// # Built-in Commands
//
//   - /help: Show available commands
//   - /clear: Clear the conversation
//   - /listen: Start or stop voice input
//   - /play, /pause, /stop: Control spoken replies
//   - /mute, /speed, /autoplay: Playback settings
//   - /lang: Switch language
//   - /login, /logout: Identity
//
// # Usage
//
//	reg := commands.NewRegistry()
//	res, err := reg.Execute(env, "/speed 1.1")
//
// Get completions:
//
//	completions := commands.NewCompleter(reg).Complete("/sp", 3)
//	// Returns ["/speed"]
package commands
