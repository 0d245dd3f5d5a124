// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/chetna-wellness/chetna/internal/suggest"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat screen.
type KeyMap struct {
	Submit     key.Binding
	Complete   key.Binding
	Dismiss    key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Clear      key.Binding
	Listen     key.Binding
	PlayPause  key.Binding
	Stop       key.Binding
	Mute       key.Binding
	Copy       key.Binding
	Suggestion key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Complete: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "complete /command"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "clear chat"),
		),
		Listen: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "voice input"),
		),
		PlayPause: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("C-p", "play/pause reply"),
		),
		Stop: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "stop speaking"),
		),
		Mute: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "mute"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("C-y", "copy reply"),
		),
		Suggestion: key.NewBinding(
			key.WithKeys(suggestionKeys()...),
			key.WithHelp(fmt.Sprintf("M-1..%d", suggest.MaxSuggestions), "send suggestion"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// suggestionKeys binds alt+1 up to one key per suggestion chip.
func suggestionKeys() []string {
	keys := make([]string, suggest.MaxSuggestions)
	for i := range keys {
		keys[i] = fmt.Sprintf("alt+%d", i+1)
	}
	return keys
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Listen, k.PlayPause, k.Mute, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Complete, k.Suggestion, k.Dismiss},
		{k.Listen, k.PlayPause, k.Stop, k.Mute},
		{k.Clear, k.Copy, k.PageUp, k.PageDown},
		{k.Help, k.Quit},
	}
}
