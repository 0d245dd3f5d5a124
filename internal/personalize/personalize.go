// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package personalize tailors the welcome message and the AI prompt to a
// user's recent self-assessment results.
package personalize

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chetna-wellness/chetna/internal/model"
)

// Translator looks up localized strings. i18n.Localizer satisfies it.
type Translator interface {
	T(key string, params map[string]string) string
}

// Localization keys used by this package.
const (
	KeyWelcome             = "chat.welcome"
	KeyWelcomePersonalized = "chat.welcome_personalized"
	KeyWelcomeNamed        = "chat.welcome_named"
	KeySeverityPrefix      = "severity."
)

// =============================================================================
// WELCOME MESSAGE
// =============================================================================

// DefaultWelcome returns the localized default welcome text.
func DefaultWelcome(tr Translator) string {
	return tr.T(KeyWelcome, nil)
}

// WelcomeMessage builds the welcome text for a signed-in user.
// With at least one result it references the most recent assessment;
// with a name but no results it greets by name; otherwise it is the
// default welcome.
func WelcomeMessage(tr Translator, name string, results []model.TestResult) string {
	name = strings.TrimSpace(name)
	latest, ok := Latest(results)
	if !ok {
		if name == "" {
			return DefaultWelcome(tr)
		}
		return tr.T(KeyWelcomeNamed, map[string]string{"name": name})
	}

	if name == "" {
		name = tr.T("chat.friend", nil)
	}
	return tr.T(KeyWelcomePersonalized, map[string]string{
		"name":     name,
		"test":     latest.TestName,
		"severity": SeverityLabel(tr, latest.Severity),
	})
}

// SeverityLabel localizes a severity value, falling back to the raw value.
func SeverityLabel(tr Translator, severity string) string {
	severity = strings.ToLower(strings.TrimSpace(severity))
	if severity == "" {
		return ""
	}
	key := KeySeverityPrefix + strings.ReplaceAll(severity, " ", "_")
	if label := tr.T(key, nil); label != key {
		return label
	}
	return severity
}

// Latest returns the most recently created result.
func Latest(results []model.TestResult) (model.TestResult, bool) {
	if len(results) == 0 {
		return model.TestResult{}, false
	}
	latest := results[0]
	for _, r := range results[1:] {
		if r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	return latest, true
}

// =============================================================================
// PROMPT CONTEXT
// =============================================================================

// PromptContext renders recent results as context for the AI system prompt.
// Returns "" when there are no results.
func PromptContext(results []model.TestResult) string {
	if len(results) == 0 {
		return ""
	}

	sorted := make([]model.TestResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	var sb strings.Builder
	sb.WriteString("The user has recently completed these self-assessments (most recent first):\n")
	for _, r := range sorted {
		sb.WriteString("- ")
		sb.WriteString(r.TestName)
		if r.MaxScore > 0 {
			fmt.Fprintf(&sb, ": score %d/%d", r.Score, r.MaxScore)
		} else {
			fmt.Fprintf(&sb, ": score %d", r.Score)
		}
		if r.Severity != "" {
			fmt.Fprintf(&sb, " (%s)", r.Severity)
		}
		if !r.CreatedAt.IsZero() {
			fmt.Fprintf(&sb, ", taken %s", r.CreatedAt.UTC().Format(time.DateOnly))
		}
		sb.WriteString("\n")
	}

	if hasElevated(sorted) {
		sb.WriteString("Some results indicate elevated symptoms. Be especially gentle, " +
			"validate their feelings and encourage reaching out to a professional.\n")
	}
	sb.WriteString("Use this context to tailor your support. Do not diagnose, " +
		"and do not recite the scores unless the user asks about them.")
	return sb.String()
}

func hasElevated(results []model.TestResult) bool {
	for _, r := range results {
		s := strings.ToLower(r.Severity)
		if strings.Contains(s, "severe") || strings.Contains(s, "high") {
			return true
		}
	}
	return false
}
