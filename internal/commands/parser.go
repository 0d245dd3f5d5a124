// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// =============================================================================
// INVOCATION
// =============================================================================

// Invocation is one parsed slash command.
type Invocation struct {
	// Name is the command word as typed, e.g. "/speed".
	Name string
	Args []string

	// Command is nil when Name is not registered.
	Command *Command
}

// Parse splits input into an invocation. ok is false for ordinary chat
// messages, which must be submitted rather than executed.
func (r *Registry) Parse(input string) (inv Invocation, ok bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return Invocation{}, false
	}
	tokens := Tokenize(input)
	inv.Name = strings.ToLower(tokens[0])
	inv.Args = tokens[1:]
	inv.Command = r.Get(inv.Name)
	return inv, true
}

// Tokenize splits a command line on whitespace outside quotes. Single or
// double quotes group words ("Asha Rao"); inside quotes a backslash escapes
// a quote or another backslash.
func Tokenize(input string) []string {
	var (
		tokens  []string
		cur     strings.Builder
		quote   rune
		escaped bool
		started bool
	)
	flush := func() {
		if started {
			tokens = append(tokens, cur.String())
			cur.Reset()
			started = false
		}
	}

	for _, r := range input {
		switch {
		case escaped:
			if r != '"' && r != '\'' && r != '\\' {
				cur.WriteRune('\\')
			}
			cur.WriteRune(r)
			escaped = false
		case quote != 0 && r == '\\':
			escaped = true
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
			started = true
		case quote == 0 && unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if escaped {
		cur.WriteRune('\\')
	}
	flush()
	return tokens
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateArgs checks args against the command's declared arguments.
// Extra arguments are ignored; handlers that care reject them themselves.
func ValidateArgs(cmd *Command, args []string) error {
	if cmd == nil {
		return nil
	}
	for i, def := range cmd.Args {
		if i >= len(args) {
			if def.Required {
				return &ValidationError{Command: cmd.Name, Arg: def.Name, Message: "missing", Expected: def.Description}
			}
			continue
		}
		v := args[i]
		switch def.Type {
		case ArgTypeNumber:
			if containsFold(def.Values, v) {
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return &ValidationError{Command: cmd.Name, Arg: def.Name, Message: "not a number", Got: v, Expected: def.Description}
			}
		case ArgTypeEnum:
			if len(def.Values) > 0 && !containsFold(def.Values, v) {
				return &ValidationError{Command: cmd.Name, Arg: def.Name, Message: "invalid value", Got: v, Expected: strings.Join(def.Values, " or ")}
			}
		case ArgTypeLanguage:
			if _, err := language.Parse(v); err != nil {
				return &ValidationError{Command: cmd.Name, Arg: def.Name, Message: "not a language code", Got: v, Expected: def.Description}
			}
		}
	}
	return nil
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// ValidationError reports a bad slash command argument.
type ValidationError struct {
	Command  string
	Arg      string
	Message  string
	Got      string
	Expected string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <%s>: %s", e.Command, e.Arg, e.Message)
	if e.Got != "" {
		fmt.Fprintf(&b, " (got %q)", e.Got)
	}
	if e.Expected != "" {
		fmt.Fprintf(&b, "; want %s", e.Expected)
	}
	return b.String()
}
