// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	core "github.com/chetna-wellness/chetna/internal/chat"
	"github.com/chetna-wellness/chetna/internal/commands"
	"github.com/chetna-wellness/chetna/internal/notify"
	"github.com/chetna-wellness/chetna/internal/ui/components"
	"github.com/chetna-wellness/chetna/internal/ui/styles"
)

// =============================================================================
// BACKEND
// =============================================================================

// Backend is the conversation controller as seen by the screen.
type Backend interface {
	commands.Chat
	SetInput(text string)
	Submit() error
	Subscribe(fn func(core.View)) func()
}

// =============================================================================
// MESSAGES
// =============================================================================

// viewMsg carries a new controller snapshot.
type viewMsg struct {
	view core.View
}

// noteMsg carries a notification for a toast.
type noteMsg struct {
	note notify.Notification
}

// commandResultMsg reports the outcome of a slash command or key action.
type commandResultMsg struct {
	output string
	err    error
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Deps are the collaborators of the chat screen.
type Deps struct {
	Chat     Backend
	Commands *commands.Registry

	// Env is the command environment. Its Chat defaults to Chat.
	Env *commands.Env

	// Notes delivers notifications, typically a notify.Queue's channel.
	Notes <-chan notify.Notification

	Theme *styles.Theme

	// MarkdownStyle names a glamour style; empty detects from the terminal.
	MarkdownStyle  string
	ShowTimestamps bool

	// Now defaults to time.Now.
	Now func() time.Time
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	chat     Backend
	registry *commands.Registry
	env      *commands.Env
	notes    <-chan notify.Notification
	views    chan core.View
	unsub    func()
	now      func() time.Time

	// Styling
	theme    *styles.Theme
	renderer *components.MessageRenderer
	keys     KeyMap
	help     help.Model

	// Dimensions
	width  int
	height int
	ready  bool

	// Components
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	toasts     *components.ToastManager
	completer  *commands.Completer
	completion *commands.CompletionState

	view core.View

	// synced is the input text last exchanged with the controller.
	synced string

	output    string
	outputErr bool
	quitting  bool
}

// New creates the chat screen. The returned model subscribes to the
// controller immediately; call Close when the program exits.
func New(deps Deps) Model {
	theme := deps.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	registry := deps.Commands
	if registry == nil {
		registry = commands.NewRegistry()
	}
	env := deps.Env
	if env == nil {
		env = &commands.Env{}
	}
	if env.Chat == nil {
		env.Chat = deps.Chat
	}
	if env.Clipboard == nil {
		env.Clipboard = clipboard.WriteAll
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	renderer := components.NewMessageRenderer(theme)
	renderer.Style = deps.MarkdownStyle
	renderer.ShowTimestamps = deps.ShowTimestamps

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = theme.Typing

	completer := commands.NewCompleter(registry)
	if env.Localizer != nil {
		loc := env.Localizer
		completer.LanguagesFn = func() []string {
			var codes []string
			for _, tag := range loc.Supported() {
				codes = append(codes, tag.String())
			}
			return codes
		}
	}

	m := Model{
		chat:       deps.Chat,
		registry:   registry,
		env:        env,
		notes:      deps.Notes,
		views:      make(chan core.View, 1),
		now:        now,
		theme:      theme,
		renderer:   renderer,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		input:      ti,
		viewport:   viewport.New(80, 20),
		spinner:    sp,
		toasts:     components.NewToastManager(),
		completer:  completer,
		completion: commands.NewCompletionState(),
	}

	m.view = deps.Chat.View()
	m.synced = m.view.Input
	m.input.SetValue(m.view.Input)
	m.input.Placeholder = m.placeholder()

	views := m.views
	m.unsub = deps.Chat.Subscribe(func(v core.View) {
		pushLatest(views, v)
	})
	return m
}

// Close detaches the screen from the controller.
func (m Model) Close() {
	if m.unsub != nil {
		m.unsub()
	}
}

// pushLatest replaces any undelivered snapshot with v.
func pushLatest(ch chan core.View, v core.View) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		m.waitForView(),
		components.ToastTickCmd(),
	}
	if m.notes != nil {
		cmds = append(cmds, m.waitForNote())
	}
	if m.view.Typing() {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m Model) waitForView() tea.Cmd {
	ch := m.views
	return func() tea.Msg {
		return viewMsg{view: <-ch}
	}
}

func (m Model) waitForNote() tea.Cmd {
	ch := m.notes
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return noteMsg{note: n}
	}
}

// placeholder reflects why input is unavailable.
func (m Model) placeholder() string {
	switch {
	case m.view.LimitReached:
		return m.t("chat.placeholder_limited")
	case m.view.Listening:
		return m.t("chat.listening")
	default:
		return m.t("chat.placeholder")
	}
}

func (m Model) t(key string) string {
	if m.env.Localizer == nil {
		return key
	}
	return m.env.Localizer.T(key, nil)
}
