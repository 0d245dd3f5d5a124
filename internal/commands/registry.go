// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownCommand is returned by Execute for unregistered names.
var ErrUnknownCommand = errors.New("unknown command")

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command is one slash command. Name and Aliases include the leading slash.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string // e.g. "/speed [value|+|-]"; defaults to Name in help
	Args        []ArgDef
	Handler     Handler
	Hidden      bool // left out of help and completion
	Category    string
}

// Handler executes a command against the chat session.
type Handler func(env *Env, args []string) (Result, error)

// Result is what a command hands back to the interface.
type Result struct {
	Output string
	Quit   bool
}

// ArgDef describes one positional argument for validation and completion.
type ArgDef struct {
	Name        string
	Required    bool
	Type        ArgType
	Description string

	// Values are the allowed words for enums, and extra accepted words
	// (like "+") for numbers.
	Values []string

	// Completer supplies candidates for string arguments.
	Completer func() []string
}

// ArgType selects validation and completion for an argument.
type ArgType int

const (
	ArgTypeString ArgType = iota
	ArgTypeEnum
	ArgTypeLanguage
	ArgTypeNumber
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// ByCategory returns visible commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		if cmd.Hidden {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// Execute parses input and runs the matching command. Input that is not a
// command returns ok=false so the caller can submit it as a message.
func (r *Registry) Execute(env *Env, input string) (res Result, ok bool, err error) {
	inv, isCmd := r.Parse(input)
	if !isCmd {
		return Result{}, false, nil
	}
	if inv.Command == nil {
		return Result{}, true, fmt.Errorf("%w: %s (try /help)", ErrUnknownCommand, inv.Name)
	}
	if err := ValidateArgs(inv.Command, inv.Args); err != nil {
		return Result{}, true, err
	}
	if env == nil {
		env = &Env{}
	}
	env.registry = r
	res, err = inv.Command.Handler(env, inv.Args)
	return res, true, err
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

// builtins lists the chat commands by help category, in display order.
var builtins = []struct {
	category string
	commands []Command
}{
	{"Navigation", []Command{
		{Name: "/help", Aliases: []string{"/h", "/?"}, Description: "Show available commands", Handler: handleHelp},
		{Name: "/quit", Aliases: []string{"/q", "/exit"}, Description: "Exit chetna", Handler: handleQuit},
		{Name: "/status", Description: "Show session, limit and playback status", Handler: handleStatus},
	}},
	{"Conversation", []Command{
		{Name: "/clear", Aliases: []string{"/c"}, Description: "Clear the conversation", Handler: handleClear},
		{
			Name: "/suggest", Aliases: []string{"/s"}, Usage: "/suggest [n]",
			Description: "List suggestions, or send one by number",
			Args:        []ArgDef{{Name: "n", Type: ArgTypeNumber, Description: "Suggestion number"}},
			Handler:     handleSuggest,
		},
		{Name: "/copy", Description: "Copy the last reply to the clipboard", Handler: handleCopy},
		{
			Name: "/history", Usage: "/history [limit]",
			Description: "Show your recorded messages (signed in only)",
			Args:        []ArgDef{{Name: "limit", Type: ArgTypeNumber, Description: "How many messages"}},
			Handler:     handleHistory,
		},
	}},
	{"Voice", []Command{
		{Name: "/listen", Aliases: []string{"/mic"}, Description: "Start or stop voice input", Handler: handleListen},
		{
			Name: "/play", Aliases: []string{"/p"}, Usage: "/play [n]",
			Description: "Speak a reply (1 = newest)",
			Args:        []ArgDef{{Name: "n", Type: ArgTypeNumber, Description: "Reply number counted from the newest"}},
			Handler:     handlePlay,
		},
		{Name: "/pause", Description: "Pause the reply being spoken", Handler: handlePause},
		{Name: "/stop", Description: "Stop the reply being spoken", Handler: handleStop},
	}},
	{"Settings", []Command{
		{Name: "/mute", Aliases: []string{"/m"}, Description: "Toggle mute", Handler: handleMute},
		{
			Name: "/speed", Usage: "/speed [value|+|-]",
			Description: "Show or set speech speed (0.5 to 1.5, or + / -)",
			Args:        []ArgDef{{Name: "value", Type: ArgTypeNumber, Description: "Speed multiplier", Values: []string{"+", "-"}}},
			Handler:     handleSpeed,
		},
		{
			Name: "/autoplay", Usage: "/autoplay [on|off]",
			Description: "Speak new replies automatically",
			Args:        []ArgDef{{Name: "state", Type: ArgTypeEnum, Values: []string{"on", "off"}, Description: "on or off"}},
			Handler:     handleAutoPlay,
		},
		{
			Name: "/lang", Aliases: []string{"/language"}, Usage: "/lang <code>",
			Description: "Switch language",
			Args:        []ArgDef{{Name: "code", Required: true, Type: ArgTypeLanguage, Description: "Language code, e.g. en or hi"}},
			Handler:     handleLanguage,
		},
	}},
	{"Account", []Command{
		{
			Name: "/login", Usage: "/login <name> [email]",
			Description: "Sign in",
			Args: []ArgDef{
				{Name: "name", Required: true, Type: ArgTypeString, Description: "Your name"},
				{Name: "email", Type: ArgTypeString, Description: "Email address"},
			},
			Handler: handleLogin,
		},
		{Name: "/logout", Description: "Sign out", Handler: handleLogout},
	}},
}

func (r *Registry) registerBuiltins() {
	for _, group := range builtins {
		for _, cmd := range group.commands {
			cmd.Category = group.category
			r.Register(&cmd)
		}
	}
}
