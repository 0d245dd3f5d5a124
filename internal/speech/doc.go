// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech provides text-to-speech playback and speech-to-text capture
// for the chat core.
//
// # Output
//
// A Speaker drives one playback state machine per message:
//
//	Idle -> Loading -> Playing -> Paused | Idle (stopped) | Idle (ended)
//
// Audio comes from a Synthesizer (HTTP POST of {text, speed}) and is played
// through a Player. At most one Handle is live at a time; starting another
// message pauses and releases the previous one first. Mute is applied to the
// live handle as soon as it changes.
//
// # Input
//
// A Listener wraps a Recognizer and reports a capture session as a channel
// of events: Start, then at most one Result or Error, then exactly one End.
//
//	events, err := listener.Start(ctx)
//	for ev := range events {
//	    switch ev.Type {
//	    case speech.EventResult:
//	        submit(ev.Text)
//	    }
//	}
package speech
