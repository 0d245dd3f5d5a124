// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chetna-wellness/chetna/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

// Line-mode and subcommand styles, drawn from the shared palette.
var (
	TitleStyle     = bold(styles.Lavender).MarginBottom(1)
	LabelStyle     = lipgloss.NewStyle().Foreground(styles.TextMuted).Width(labelWidth)
	ValueStyle     = fg(styles.TextPrimary)
	SuccessStyle   = bold(styles.Emerald)
	ErrorStyle     = bold(styles.Rose)
	WarningStyle   = fg(styles.Amber)
	DimStyle       = fg(styles.TextMuted)
	PromptStyle    = bold(styles.Teal)     // "You:" and the input prompt
	AssistantStyle = bold(styles.Lavender) // the assistant's name above replies
	SeparatorStyle = fg(styles.Overlay)
)

const labelWidth = 22

func fg(c lipgloss.TerminalColor) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

func bold(c lipgloss.TerminalColor) lipgloss.Style { return fg(c).Bold(true) }

// =============================================================================
// HELPERS
// =============================================================================

// RenderSeparator renders a horizontal rule, 60 columns unless given.
func RenderSeparator(width ...int) string {
	w := 60
	if len(width) > 0 && width[0] > 0 {
		w = width[0]
	}
	return RenderConditional(SeparatorStyle, strings.Repeat("-", w))
}

// RenderLabel renders a label with consistent width.
func RenderLabel(label string) string {
	if !ColorsEnabled() {
		return label + strings.Repeat(" ", max(labelWidth-len(label), 1))
	}
	return LabelStyle.Render(label)
}

// RenderConditional renders text with style if colors are enabled,
// otherwise returns the text unmodified.
func RenderConditional(style lipgloss.Style, text string) string {
	if !ColorsEnabled() {
		return text
	}
	return style.Render(text)
}
