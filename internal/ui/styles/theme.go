// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// Header
	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderMeta  lipgloss.Style

	// Messages
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	Sender          lipgloss.Style
	Timestamp       lipgloss.Style
	Playback        lipgloss.Style

	// Input area
	InputContainer   lipgloss.Style
	InputDisabled    lipgloss.Style
	Typing           lipgloss.Style
	Listening        lipgloss.Style
	Suggestion       lipgloss.Style
	SuggestionNumber lipgloss.Style
	Completion       lipgloss.Style
	CompletionActive lipgloss.Style

	// Status line
	Status      lipgloss.Style
	StatusWarn  lipgloss.Style
	CommandOut  lipgloss.Style
	CommandErr  lipgloss.Style
	HelpSection lipgloss.Style
}

// NewTheme creates a new theme for the current terminal.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Lavender)

	t.HeaderMeta = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 1)

	t.Sender = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Playback = lipgloss.NewStyle().
		Foreground(Teal)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputDisabled = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Typing = lipgloss.NewStyle().
		Foreground(Lavender).
		Italic(true)

	t.Listening = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.Suggestion = lipgloss.NewStyle().
		Foreground(Teal).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SuggestionNumber = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Completion = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.CompletionActive = lipgloss.NewStyle().
		Foreground(Lavender).
		Bold(true)

	t.Status = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.StatusWarn = lipgloss.NewStyle().
		Foreground(Amber)

	t.CommandOut = lipgloss.NewStyle().
		Foreground(TextSecondary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Teal).
		PaddingLeft(1)

	t.CommandErr = t.CommandOut.
		BorderForeground(Rose).
		Foreground(Rose)

	t.HelpSection = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// BubbleWidth returns the width message bubbles wrap at.
func (t *Theme) BubbleWidth() int {
	switch t.GetLayoutMode() {
	case LayoutNarrow:
		return max(t.Width-4, 20)
	case LayoutMedium:
		return t.Width * 4 / 5
	default:
		return min(t.Width*2/3, 100)
	}
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // >= 100 columns
)
