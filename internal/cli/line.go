// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"

	core "github.com/chetna-wellness/chetna/internal/chat"
	"github.com/chetna-wellness/chetna/internal/commands"
	"github.com/chetna-wellness/chetna/internal/config"
	"github.com/chetna-wellness/chetna/internal/notify"
	"github.com/chetna-wellness/chetna/internal/speech"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// Prompter reads one line of input.
type Prompter interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// ChatCLI provides line editing and input history on a terminal.
type ChatCLI struct {
	line        *liner.State
	historyFile string
	completer   *commands.Completer
}

// NewChatCLI creates a liner-backed prompter. Tab completes slash commands
// when completer is set.
func NewChatCLI(completer *commands.Completer) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
		completer:   completer,
	}
	if completer != nil {
		line.SetCompleter(c.complete)
	}
	c.LoadHistory()
	return c
}

func (c *ChatCLI) complete(input string) []string {
	comps := c.completer.Complete(input, len(input))
	if len(comps) == 0 {
		return nil
	}
	head := input
	if i := strings.LastIndex(input, " "); i >= 0 {
		head = input[:i+1]
	} else {
		head = ""
	}
	out := make([]string, 0, len(comps))
	for _, comp := range comps {
		out = append(out, head+comp.Value)
	}
	return out
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// Prompt reads a line. Non-empty input is added to history, except chat
// messages, which are private and stay out of the history file.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(strings.TrimSpace(input), "/") {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() error {
	c.SaveHistory()
	return c.line.Close()
}

// =============================================================================
// LINE MODE
// =============================================================================

// submitWait bounds the wait for a voice result to be submitted.
var submitWait = 5 * time.Second

// LineChat is the controller surface line mode drives.
type LineChat interface {
	commands.Chat
	SetInput(text string)
	Submit() error
	Subscribe(fn func(core.View)) func()
}

// LineDeps wires a LineUI.
type LineDeps struct {
	Chat     LineChat
	Commands *commands.Registry
	Env      *commands.Env
	Notes    <-chan notify.Notification
	Prompter Prompter
	Out      io.Writer

	// Markdown renders assistant replies with glamour.
	Markdown bool
}

// LineUI is the plain scrolling chat for terminals without the full-screen
// UI, and for users who prefer it.
type LineUI struct {
	chat     LineChat
	registry *commands.Registry
	env      *commands.Env
	notes    <-chan notify.Notification
	prompter Prompter
	out      io.Writer
	md       *glamour.TermRenderer

	views   chan core.View
	unsub   func()
	printed map[string]bool
}

// NewLineUI creates the line-mode UI.
func NewLineUI(deps LineDeps) *LineUI {
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.Commands == nil {
		deps.Commands = commands.NewRegistry()
	}
	if deps.Env == nil {
		deps.Env = &commands.Env{}
	}
	if deps.Env.Chat == nil {
		deps.Env.Chat = deps.Chat
	}

	l := &LineUI{
		chat:     deps.Chat,
		registry: deps.Commands,
		env:      deps.Env,
		notes:    deps.Notes,
		prompter: deps.Prompter,
		out:      deps.Out,
		views:    make(chan core.View, 1),
		printed:  make(map[string]bool),
	}
	if deps.Markdown {
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(min(GetTerminalWidth()-4, 100)),
		)
		if err == nil {
			l.md = md
		}
	}
	l.unsub = deps.Chat.Subscribe(func(v core.View) {
		select {
		case l.views <- v:
		default:
			select {
			case <-l.views:
			default:
			}
			select {
			case l.views <- v:
			default:
			}
		}
	})
	return l
}

// Run reads input until /quit, Ctrl+C, Ctrl+D or ctx ends.
func (l *LineUI) Run(ctx context.Context) error {
	defer l.unsub()
	defer l.prompter.Close()

	l.printBanner()
	l.flush()

	for {
		if ctx.Err() != nil {
			return nil
		}
		input, err := l.prompter.Prompt(l.prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(l.out)
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			l.flush()
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := l.runCommand(ctx, input); quit {
				return nil
			}
			l.flush()
			continue
		}

		l.send(ctx, input)
		l.flush()
	}
}

// send submits a typed message and waits for the reply.
func (l *LineUI) send(ctx context.Context, text string) {
	l.chat.SetInput(text)
	err := l.chat.Submit()
	switch {
	case err == nil:
	case errors.Is(err, core.ErrBlankInput), errors.Is(err, core.ErrRateLimited):
		// The controller posts the limit notice itself.
		return
	default:
		DisplayError(l.out, err)
		return
	}

	// The user just typed it; only the reply needs printing.
	for _, m := range l.chat.View().Messages {
		if m.IsUser {
			l.printed[m.ID] = true
		}
	}
	l.awaitReply(ctx)
}

func (l *LineUI) runCommand(ctx context.Context, input string) (quit bool) {
	res, _, err := l.registry.Execute(l.env, input)
	if err != nil {
		DisplayError(l.out, err)
		return false
	}
	if res.Quit {
		return true
	}
	if res.Output != "" {
		fmt.Fprintln(l.out, res.Output)
	}

	// Voice capture runs until Enter, then the result is submitted for us.
	if l.chat.View().Listening {
		l.prompter.Prompt("(press Enter to stop) ")
		l.chat.StopListening()
		l.awaitListening(ctx)
		l.awaitReply(ctx)
	}
	return false
}

// awaitReply blocks until the controller is no longer typing.
func (l *LineUI) awaitReply(ctx context.Context) {
	if !l.chat.View().Typing() {
		return
	}
	fmt.Fprintln(l.out, RenderConditional(DimStyle, l.t("chat.typing")))
	l.waitFor(ctx, func(v core.View) bool { return !v.Typing() })
}

// awaitListening waits for the capture session to end and for a
// recognised phrase to be submitted.
func (l *LineUI) awaitListening(ctx context.Context) {
	l.waitFor(ctx, func(v core.View) bool { return !v.Listening })

	// A refused auto-submit leaves the text in the input, so give up after
	// a few seconds rather than wait forever.
	ctx, cancel := context.WithTimeout(ctx, submitWait)
	defer cancel()
	l.waitFor(ctx, func(v core.View) bool { return v.Input == "" || v.Typing() || v.LimitReached })
	if text := l.chat.View().Input; text != "" && !l.chat.View().Typing() {
		fmt.Fprintf(l.out, "%s %s\n", RenderConditional(DimStyle, l.t("chat.you")+":"), text)
	}
}

func (l *LineUI) waitFor(ctx context.Context, done func(core.View) bool) {
	for !done(l.chat.View()) {
		select {
		case <-ctx.Done():
			return
		case v := <-l.views:
			if done(v) {
				return
			}
		}
	}
}

// flush prints notifications and every message not yet shown.
func (l *LineUI) flush() {
	l.printNotes()
	for _, m := range l.chat.View().Messages {
		if l.printed[m.ID] {
			continue
		}
		l.printed[m.ID] = true
		if m.IsUser {
			fmt.Fprintf(l.out, "%s %s\n", RenderConditional(PromptStyle, l.t("chat.you")+":"), m.Text)
			continue
		}
		fmt.Fprintf(l.out, "\n%s\n%s\n", RenderConditional(AssistantStyle, l.t("chat.assistant")), l.render(m.Text))
	}

	v := l.chat.View()
	if len(v.Suggestions) > 0 && !v.InputDisabled {
		fmt.Fprintln(l.out, RenderConditional(DimStyle, l.t("chat.suggestions")+":"))
		for i, s := range v.Suggestions {
			fmt.Fprintf(l.out, "  %s %s\n", RenderConditional(DimStyle, fmt.Sprintf("/s %d", i+1)), s)
		}
	}
}

func (l *LineUI) printNotes() {
	if l.notes == nil {
		return
	}
	for {
		select {
		case n := <-l.notes:
			style := DimStyle
			switch n.Level {
			case notify.LevelWarning:
				style = WarningStyle
			case notify.LevelError:
				style = ErrorStyle
			}
			fmt.Fprintf(l.out, "%s %s\n", RenderConditional(style, "["+n.Title+"]"), n.Message)
		default:
			return
		}
	}
}

func (l *LineUI) render(text string) string {
	if l.md == nil {
		return speech.PlainText(text)
	}
	out, err := l.md.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

func (l *LineUI) printBanner() {
	fmt.Fprintln(l.out, RenderConditional(TitleStyle, l.t("chat.assistant")))
	fmt.Fprintln(l.out, RenderConditional(DimStyle, "Type /help for commands, /quit to leave."))
	fmt.Fprintln(l.out, RenderSeparator())
}

func (l *LineUI) prompt() string {
	v := l.chat.View()
	if !v.SignedIn && v.GuestRemaining >= 0 {
		return fmt.Sprintf("[%d] > ", v.GuestRemaining)
	}
	return "> "
}

func (l *LineUI) t(key string) string {
	if l.env.Localizer == nil {
		return key
	}
	return l.env.Localizer.T(key, nil)
}
