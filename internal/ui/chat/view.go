// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chetna-wellness/chetna/internal/ui/components"
	"github.com/chetna-wellness/chetna/internal/ui/styles"
)

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return m.t("chat.typing")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderFooter(),
	)
}

// layout sizes the transcript to the space the header and footer leave.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	h := m.height - lipgloss.Height(m.renderHeader()) - lipgloss.Height(m.renderFooter())
	m.viewport.Width = m.width
	m.viewport.Height = max(h, 3)
}

// refreshTranscript re-renders all messages; bottom keeps the newest in view.
func (m *Model) refreshTranscript(bottom bool) {
	if !m.ready {
		return
	}
	labels := components.MessageLabels{User: m.t("chat.you"), Assistant: m.t("chat.assistant")}
	now := m.now()

	blocks := make([]string, 0, len(m.view.Messages))
	for _, msg := range m.view.Messages {
		blocks = append(blocks, m.renderer.Render(msg, labels, m.view.PlaybackState(msg.ID), now))
	}
	m.viewport.SetContent(strings.Join(blocks, "\n\n"))
	if bottom {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	brand := m.theme.HeaderBrand.Render(m.t("chat.assistant"))

	var meta []string
	if m.view.SignedIn {
		meta = append(meta, m.view.UserName)
	} else if m.view.GuestRemaining >= 0 {
		label := m.tp("chat.guest_remaining", "remaining", strconv.Itoa(m.view.GuestRemaining))
		if m.view.GuestRemaining <= 1 {
			label = m.theme.StatusWarn.Render(label)
		}
		meta = append(meta, label)
	}
	if s := m.env.Settings; s != nil {
		p := s.Get()
		if p.Muted {
			meta = append(meta, styles.Indicators.Muted)
		}
		meta = append(meta, fmt.Sprintf("%.2fx", p.Speed))
	}
	if m.view.Language != "" {
		meta = append(meta, m.view.Language)
	}

	left := brand
	right := m.theme.HeaderMeta.Render(strings.Join(meta, "  "))
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// FOOTER
// =============================================================================

func (m Model) renderFooter() string {
	var parts []string

	if m.view.Typing() {
		parts = append(parts, m.spinner.View()+" "+m.theme.Typing.Render(m.t("chat.typing")))
	}
	if m.view.Listening {
		parts = append(parts, m.theme.Listening.Render(styles.Indicators.Listening+" "+m.t("chat.listening")))
	}

	if len(m.view.Suggestions) > 0 && !m.view.InputDisabled {
		parts = append(parts, m.renderSuggestions())
	}

	if toasts := m.toasts.Visible(); len(toasts) > 0 {
		stack := components.RenderToastStack(toasts, m.width)
		parts = append(parts, lipgloss.PlaceHorizontal(m.width, lipgloss.Right, stack))
	}

	if m.output != "" {
		style := m.theme.CommandOut
		if m.outputErr {
			style = m.theme.CommandErr
		}
		parts = append(parts, style.Render(m.output))
	}

	if m.completion.Visible {
		parts = append(parts, m.renderCompletions())
	}

	input := m.input.View()
	parts = append(parts, m.theme.InputContainer.Width(m.width).Render(input))
	parts = append(parts, m.theme.HelpSection.Render(m.help.View(m.keys)))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderSuggestions() string {
	chips := make([]string, 0, len(m.view.Suggestions))
	for i, s := range m.view.Suggestions {
		num := m.theme.SuggestionNumber.Render(fmt.Sprintf("M-%d", i+1))
		chips = append(chips, m.theme.Suggestion.Render(num+" "+s))
	}
	label := m.theme.HelpSection.Render(m.t("chat.suggestions"))
	row := lipgloss.JoinHorizontal(lipgloss.Center, chips...)
	if lipgloss.Width(row) > m.width && m.width > 0 {
		row = lipgloss.JoinVertical(lipgloss.Left, chips...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, label, row)
}

func (m Model) renderCompletions() string {
	const maxShown = 6
	var lines []string
	for i, c := range m.completion.Completions {
		if i == maxShown {
			lines = append(lines, m.theme.Completion.Render(fmt.Sprintf("  ... %d more", len(m.completion.Completions)-maxShown)))
			break
		}
		style := m.theme.Completion
		prefix := "  "
		if i == m.completion.Selected {
			style = m.theme.CompletionActive
			prefix = "> "
		}
		line := prefix + c.Display
		if c.Description != "" {
			line += "  " + c.Description
		}
		lines = append(lines, style.Render(line))
	}
	return strings.Join(lines, "\n")
}

func (m Model) tp(key, param, value string) string {
	if m.env.Localizer == nil {
		return key
	}
	return m.env.Localizer.T(key, map[string]string{param: value})
}
