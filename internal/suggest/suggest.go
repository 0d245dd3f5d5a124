// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package suggest derives follow-up prompts from the latest assistant reply.
//
// Generate is a pure function: the lower-cased reply (plus an optional topic
// hint) is matched against keyword categories in a fixed priority order and
// the first matching category's four prompts are returned. When nothing
// matches, a default set of four general prompts is returned.
package suggest

import "strings"

// MaxSuggestions is the number of prompts returned by Generate.
const MaxSuggestions = 4

// Category is a keyword group with its fixed follow-up prompts.
type Category struct {
	Name        string
	Keywords    []string
	Suggestions []string
}

// Categories lists the keyword categories in priority order.
var Categories = []Category{
	{
		Name:     "dream",
		Keywords: []string{"dream", "nightmare"},
		Suggestions: []string{
			"What do you think this dream might mean?",
			"How did you feel when you woke up?",
			"Do you have recurring dreams?",
			"Can you tell me more about the dream?",
		},
	},
	{
		Name:     "anxiety",
		Keywords: []string{"anxi", "panic", "worr", "nervous"},
		Suggestions: []string{
			"Can you teach me a breathing exercise?",
			"What triggers my anxiety?",
			"How can I calm down quickly?",
			"Is it normal to feel anxious all the time?",
		},
	},
	{
		Name:     "depression",
		Keywords: []string{"depress", "sad", "hopeless", "empty", "lonely"},
		Suggestions: []string{
			"What small step could I take today?",
			"How do I talk to someone about how I feel?",
			"Why do I feel this way?",
			"What activities might lift my mood?",
		},
	},
	{
		Name:     "stress",
		Keywords: []string{"stress", "overwhelm", "pressure", "burnout"},
		Suggestions: []string{
			"How can I manage my workload better?",
			"What are some quick stress relief techniques?",
			"How do I set healthy boundaries?",
			"Can you help me prioritize my tasks?",
		},
	},
	{
		Name:     "sleep",
		Keywords: []string{"sleep", "insomnia", "tired", "rest"},
		Suggestions: []string{
			"What is a good bedtime routine?",
			"How can I stop overthinking at night?",
			"Does screen time affect my sleep?",
			"How much sleep do I really need?",
		},
	},
	{
		Name:     "relationship",
		Keywords: []string{"relationship", "partner", "friend", "family", "breakup"},
		Suggestions: []string{
			"How do I communicate my feelings better?",
			"How can I handle conflict calmly?",
			"How do I know if a relationship is healthy?",
			"How do I cope with feeling misunderstood?",
		},
	},
}

// Default is returned when no category matches.
var Default = []string{
	"Can you tell me more about that?",
	"What are some ways to practice self-care?",
	"How can I build healthier habits?",
	"What should I focus on today?",
}

// Generate returns up to MaxSuggestions follow-up prompts for the latest
// assistant reply. topicHint may be empty.
func Generate(lastAssistantText, topicHint string) []string {
	text := strings.ToLower(lastAssistantText)
	if topicHint != "" {
		text += " " + strings.ToLower(topicHint)
	}

	for _, c := range Categories {
		if containsAny(text, c.Keywords) {
			return clip(c.Suggestions)
		}
	}
	return clip(Default)
}

// Match returns the name of the first matching category, or "default".
func Match(lastAssistantText, topicHint string) string {
	text := strings.ToLower(lastAssistantText + " " + topicHint)
	for _, c := range Categories {
		if containsAny(text, c.Keywords) {
			return c.Name
		}
	}
	return "default"
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// clip returns a fresh copy so callers cannot mutate the shared tables.
func clip(s []string) []string {
	n := len(s)
	if n > MaxSuggestions {
		n = MaxSuggestions
	}
	out := make([]string, n)
	copy(out, s[:n])
	return out
}
