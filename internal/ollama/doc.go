// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for the AI text-generation endpoint.
//
// The endpoint speaks the Ollama /api/chat protocol. Only non-streaming
// completions are used: the chat core needs the whole reply to compute its
// pacing delay before showing it.
//
// Failures are *Error values; compare them with errors.Is against
// ErrNotRunning, ErrTimeout, ErrModelNotFound and ErrEmptyResponse.
//
// # Usage
//
//	client := ollama.New(ollama.Config{Model: "llama3.2:3b"})
//	if err := client.Ping(ctx); err != nil {
//	    // endpoint down; replies will use the canned fallback
//	}
//	resp, err := client.Chat(ctx, "", []ollama.Message{
//	    ollama.NewSystemMessage(prompt),
//	    ollama.NewUserMessage("I can't sleep"),
//	}, nil)
package ollama
