// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package responder

import "strings"

// =============================================================================
// KEYWORD FALLBACK
// =============================================================================

type cannedReply struct {
	keywords []string
	reply    string
}

// CrisisReply is returned whenever a message mentions self-harm.
const CrisisReply = "I'm really sorry you're feeling this way, and I'm glad you told me. " +
	"You don't have to go through this alone. Please reach out right now to someone who can help: " +
	"Tele-MANAS at 14416 or KIRAN at 1800-599-0019 (both free, 24x7), or your local emergency number. " +
	"If you can, tell someone you trust what you're going through. I'm here to keep talking with you too."

// checked in order; crisis must stay first
var cannedReplies = []cannedReply{
	{
		keywords: []string{"suicid", "kill myself", "end my life", "self harm", "self-harm", "hurt myself", "want to die"},
		reply:    CrisisReply,
	},
	{
		keywords: []string{"anxi", "panic", "worr", "nervous"},
		reply: "It sounds like you're carrying a lot of worry right now. Let's try something together: " +
			"breathe in slowly for 4 counts, hold for 4, and breathe out for 6. Repeat that a few times. " +
			"What do you notice in your body when the anxiety shows up?",
	},
	{
		keywords: []string{"depress", "sad", "hopeless", "empty", "lonely"},
		reply: "I'm sorry you're feeling this low. Those feelings are real and they matter. " +
			"Sometimes one small step, like a short walk or a message to a friend, can help a little. " +
			"Would you like to tell me more about what's been weighing on you?",
	},
	{
		keywords: []string{"stress", "overwhelm", "pressure", "burnout"},
		reply: "That sounds like a lot to handle. When everything feels urgent, it can help to write down " +
			"what's on your plate and pick just one thing to focus on first. What feels most pressing right now?",
	},
	{
		keywords: []string{"sleep", "insomnia", "tired", "nightmare"},
		reply: "Sleep troubles can affect everything else. A steady bedtime, dimming screens an hour before bed " +
			"and a short wind-down routine often help. How have your nights been lately?",
	},
	{
		keywords: []string{"relationship", "partner", "friend", "family", "breakup"},
		reply: "Relationships can bring up strong feelings. It's okay to feel hurt or confused. " +
			"What happened, and how are you feeling about it now?",
	},
	{
		keywords: []string{"thank", "grateful", "helped"},
		reply: "You're very welcome. I'm glad I could be here for you. " +
			"Is there anything else on your mind?",
	},
	{
		keywords: []string{"hello", "hi ", "hey", "namaste", "good morning", "good evening"},
		reply: "Hello! I'm glad you're here. How are you feeling today?",
	},
}

// DefaultReply is returned when no keyword matches.
const DefaultReply = "Thank you for sharing that with me. I'm here to listen. " +
	"Could you tell me a little more about how you're feeling?"

// Fallback returns a canned reply chosen by keyword matching.
// It never returns an empty string.
func Fallback(text string) string {
	lower := " " + strings.ToLower(strings.TrimSpace(text)) + " "
	for _, c := range cannedReplies {
		for _, k := range c.keywords {
			if strings.Contains(lower, k) {
				return c.reply
			}
		}
	}
	return DefaultReply
}

// IsCrisis reports whether text mentions self-harm.
func IsCrisis(text string) bool {
	return Fallback(text) == CrisisReply
}
