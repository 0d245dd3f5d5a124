// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	core "github.com/chetna-wellness/chetna/internal/chat"
	"github.com/chetna-wellness/chetna/internal/speech"
	"github.com/chetna-wellness/chetna/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.theme.SetSize(msg.Width, msg.Height)
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-6, 10)
		m.layout()
		m.refreshTranscript(true)
		return m, nil

	case viewMsg:
		wasTyping := m.view.Typing()
		m.applyView(msg.view)
		cmds := []tea.Cmd{m.waitForView()}
		if m.view.Typing() && !wasTyping {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case noteMsg:
		m.toasts.Add(components.NewToast(msg.note, m.now()))
		m.layout()
		return m, m.waitForNote()

	case commandResultMsg:
		m.setOutput(msg.output, msg.err)
		return m, nil

	case components.ToastTickMsg:
		before := len(m.toasts.Visible())
		if len(m.toasts.Tick(m.now())) != before {
			m.layout()
		}
		return m, components.ToastTickCmd()

	case spinner.TickMsg:
		if !m.view.Typing() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// applyView adopts a controller snapshot.
func (m *Model) applyView(v core.View) {
	m.view = v

	// Typing stays local until submit. The controller only changes the
	// input when it clears it after a submit or fills in a voice result.
	if v.Input != m.synced {
		m.synced = v.Input
		m.input.SetValue(v.Input)
		m.input.CursorEnd()
	}
	m.input.Placeholder = m.placeholder()

	m.layout()
	m.refreshTranscript(true)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Dismiss):
		switch {
		case m.completion.Visible:
			m.completion.Clear()
		case m.toasts.DismissBlocking():
		case m.output != "":
			m.output = ""
		}
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Complete):
		m.complete()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if m.completion.Visible && strings.HasPrefix(m.input.Value(), "/") && !strings.Contains(strings.TrimSpace(m.input.Value()), " ") {
			m.acceptCompletion()
			return m, nil
		}
		return m.submit()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		return m, m.run("/clear")

	case key.Matches(msg, m.keys.Listen):
		return m, m.run("/listen")

	case key.Matches(msg, m.keys.Mute):
		return m, m.run("/mute")

	case key.Matches(msg, m.keys.Copy):
		return m, m.run("/copy")

	case key.Matches(msg, m.keys.Stop):
		return m, m.run("/stop")

	case key.Matches(msg, m.keys.PlayPause):
		return m, m.playPause()

	case key.Matches(msg, m.keys.Suggestion):
		n := msg.String()[len("alt+"):]
		return m, m.run("/suggest " + n)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.completion.Visible {
		m.completion.Clear()
		m.layout()
	}
	return m, cmd
}

// submit sends the input as a message or runs it as a command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	m.completion.Clear()

	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		m.input.SetValue("")
		res, _, err := m.registry.Execute(m.env, text)
		if res.Quit {
			m.quitting = true
			return m, tea.Quit
		}
		m.setOutput(res.Output, err)
		return m, nil
	}

	m.synced = text
	m.chat.SetInput(text)
	err := m.chat.Submit()
	switch {
	case err == nil:
		m.output = ""
	case errors.Is(err, core.ErrBlankInput):
		// Nothing to send.
	case errors.Is(err, core.ErrRateLimited):
		// The controller raised a blocking notice.
	default:
		m.setOutput("", err)
	}
	m.layout()
	return m, nil
}

// run executes a command off the UI goroutine; some commands block on audio
// or the microphone.
func (m Model) run(input string) tea.Cmd {
	registry, env := m.registry, m.env
	return func() tea.Msg {
		res, _, err := registry.Execute(env, input)
		return commandResultMsg{output: res.Output, err: err}
	}
}

// playPause toggles speaking of the newest reply.
func (m Model) playPause() tea.Cmd {
	if id := m.view.ActivePlayback; id != "" && m.view.PlaybackState(id) == speech.StatePlaying {
		return m.run("/pause")
	}
	if id := m.view.ActivePlayback; id != "" && m.view.PlaybackState(id) == speech.StatePaused {
		chat := m.chat
		return func() tea.Msg {
			return commandResultMsg{err: chat.PlayMessage(id)}
		}
	}
	return m.run("/play")
}

// =============================================================================
// COMPLETION
// =============================================================================

func (m *Model) complete() {
	if m.completion.Visible {
		m.completion.Next()
		return
	}
	value := m.input.Value()
	m.completion.Update(value, m.completer.Complete(value, len(value)))
	if len(m.completion.Completions) == 1 {
		m.acceptCompletion()
		return
	}
	m.layout()
}

func (m *Model) acceptCompletion() {
	v := m.completion.Accept()
	m.completion.Clear()
	m.input.SetValue(v)
	m.input.CursorEnd()
	m.layout()
}

func (m *Model) setOutput(out string, err error) {
	m.outputErr = err != nil
	if err != nil {
		out = err.Error()
	}
	m.output = strings.TrimSpace(out)
	m.layout()
}
