// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/chetna-wellness/chetna/internal/model"
	"github.com/chetna-wellness/chetna/internal/speech"
	"github.com/chetna-wellness/chetna/internal/ui/styles"
)

// =============================================================================
// MESSAGE RENDERER
// =============================================================================

// MessageRenderer renders transcript messages as chat bubbles. Assistant
// replies are rendered as markdown.
type MessageRenderer struct {
	theme *styles.Theme

	// Style is the glamour style name; empty picks one from the terminal.
	Style string

	// ShowTimestamps appends a relative time to each bubble.
	ShowTimestamps bool

	md      *glamour.TermRenderer
	mdWidth int
}

// NewMessageRenderer creates a renderer for the theme.
func NewMessageRenderer(theme *styles.Theme) *MessageRenderer {
	return &MessageRenderer{theme: theme, ShowTimestamps: true}
}

// MessageLabels are the localized sender names.
type MessageLabels struct {
	User      string
	Assistant string
}

// Render renders one message. state is the playback state of assistant
// messages and is ignored for user messages.
func (r *MessageRenderer) Render(msg model.Message, labels MessageLabels, state speech.State, now time.Time) string {
	width := r.theme.BubbleWidth()

	header := labels.Assistant
	if msg.IsUser {
		header = labels.User
	}
	header = r.theme.Sender.Render(header)
	if r.ShowTimestamps && !msg.Timestamp.IsZero() {
		header += " " + r.theme.Timestamp.Render(humanize.RelTime(msg.Timestamp, now, "ago", "from now"))
	}
	if !msg.IsUser {
		if ind := PlaybackIndicator(state); ind != "" {
			header += " " + r.theme.Playback.Render(ind)
		}
	}

	var body string
	if msg.IsUser {
		body = r.theme.UserBubble.Width(width).Render(WrapText(msg.Text, width-4))
	} else {
		body = r.theme.AssistantBubble.Width(width).Render(r.markdown(msg.Text, width-4))
	}

	block := lipgloss.JoinVertical(lipgloss.Left, header, body)
	if msg.IsUser && r.theme.Width > 0 {
		return lipgloss.PlaceHorizontal(r.theme.Width, lipgloss.Right, block)
	}
	return block
}

// markdown renders text with glamour, falling back to wrapped plain text.
func (r *MessageRenderer) markdown(text string, width int) string {
	if r.md == nil || r.mdWidth != width {
		opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
		if r.Style != "" {
			opts = append(opts, glamour.WithStandardStyle(r.Style))
		} else {
			opts = append(opts, glamour.WithAutoStyle())
		}
		md, err := glamour.NewTermRenderer(opts...)
		if err != nil {
			return WrapText(text, width)
		}
		r.md, r.mdWidth = md, width
	}

	out, err := r.md.Render(text)
	if err != nil {
		return WrapText(text, width)
	}
	return strings.Trim(out, "\n")
}

// PlaybackIndicator returns the marker shown next to a reply.
func PlaybackIndicator(state speech.State) string {
	switch state {
	case speech.StateLoading:
		return styles.Indicators.Loading
	case speech.StatePlaying:
		return styles.Indicators.Playing
	case speech.StatePaused:
		return styles.Indicators.Paused
	default:
		return ""
	}
}
