// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat transcript.
//
// This package defines the core domain types shared by the chat controller,
// the persistence layer and the layout variants.
//
// # Key Types
//
//   - Message: Single chat message (text, sender, creation time)
//   - Transcript: Ordered messages plus an Origin tag describing how it was built
//   - TestResult: A self-assessment result used for personalization
//
// # Usage
//
// Start a fresh transcript:
//
//	t := model.NewWelcomeTranscript("Hi, I'm Chetna.", time.Now())
//	t = t.Append(model.NewUserMessage("I can't sleep", time.Now()))
//
// A transcript is a value; Append returns a new transcript and never
// mutates messages already in it.
package model
