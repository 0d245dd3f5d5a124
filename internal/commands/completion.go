// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"cmp"
	"slices"
	"strings"
)

// Completion is one tab-completion candidate.
type Completion struct {
	Value       string
	Display     string
	Description string

	exact bool
	alias bool
}

// =============================================================================
// COMPLETER
// =============================================================================

// Completer offers slash-command names and argument values.
type Completer struct {
	registry *Registry

	// LanguagesFn lists the codes offered for language arguments.
	LanguagesFn func() []string
}

func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// Complete returns candidates for the token under the cursor, best first.
// Input that is not a slash command gets nothing.
func (c *Completer) Complete(input string, cursorPos int) []Completion {
	if cursorPos >= 0 && cursorPos < len(input) {
		input = input[:cursorPos]
	}
	input = strings.TrimLeft(input, " \t")
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	tokens := Tokenize(input)
	trailingSpace := strings.HasSuffix(input, " ")
	if len(tokens) == 1 && !trailingSpace {
		return c.commandNames(tokens[0])
	}

	cmd := c.registry.Get(tokens[0])
	if cmd == nil {
		return nil
	}
	// tokens[0] is the command; the token being typed is the next
	// argument after a space, otherwise the last one.
	idx, partial := len(tokens)-1, ""
	if !trailingSpace {
		idx--
		partial = tokens[len(tokens)-1]
	}
	if idx >= len(cmd.Args) {
		return nil
	}
	return rank(c.argValues(cmd.Args[idx]), partial)
}

func (c *Completer) commandNames(partial string) []Completion {
	var out []Completion
	for _, cmd := range c.registry.All() {
		if cmd.Hidden {
			continue
		}
		out = append(out, Completion{Value: cmd.Name, Display: cmd.Name, Description: cmd.Description})
		for _, a := range cmd.Aliases {
			out = append(out, Completion{Value: a, Display: a + " -> " + cmd.Name, Description: cmd.Description, alias: true})
		}
	}
	return rank(out, partial)
}

func (c *Completer) argValues(arg ArgDef) []Completion {
	var vals []string
	switch {
	case arg.Type == ArgTypeEnum, arg.Type == ArgTypeNumber:
		vals = arg.Values
	case arg.Type == ArgTypeLanguage && c.LanguagesFn != nil:
		vals = c.LanguagesFn()
	case arg.Type == ArgTypeString && arg.Completer != nil:
		vals = arg.Completer()
	}
	out := make([]Completion, len(vals))
	for i, v := range vals {
		out[i] = Completion{Value: v, Display: v}
	}
	return out
}

// rank keeps case-insensitive prefix matches of partial and orders them:
// exact match, then names before aliases, then shorter, then alphabetical.
func rank(cands []Completion, partial string) []Completion {
	partial = strings.ToLower(partial)
	out := cands[:0]
	for _, c := range cands {
		v := strings.ToLower(c.Value)
		if !strings.HasPrefix(v, partial) {
			continue
		}
		c.exact = v == partial
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b Completion) int {
		if a.exact != b.exact {
			if a.exact {
				return -1
			}
			return 1
		}
		if a.alias != b.alias {
			if b.alias {
				return -1
			}
			return 1
		}
		return cmp.Or(cmp.Compare(len(a.Value), len(b.Value)), strings.Compare(a.Value, b.Value))
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

// =============================================================================
// COMPLETION MENU
// =============================================================================

// CompletionState is the open completion menu of the full-screen input.
type CompletionState struct {
	OriginalInput string
	Completions   []Completion
	Selected      int
	Visible       bool
}

func NewCompletionState() *CompletionState {
	return &CompletionState{Selected: -1}
}

// Update opens the menu on completions for input, first entry selected.
func (cs *CompletionState) Update(input string, completions []Completion) {
	*cs = CompletionState{
		OriginalInput: input,
		Completions:   completions,
		Visible:       len(completions) > 0,
	}
}

// Next selects the following entry, wrapping around.
func (cs *CompletionState) Next() {
	if n := len(cs.Completions); n > 0 {
		cs.Selected = (cs.Selected + 1) % n
	}
}

// Accept returns the original input with its last token replaced by the
// selected value and a trailing space.
func (cs *CompletionState) Accept() string {
	if len(cs.Completions) == 0 {
		return cs.OriginalInput
	}
	sel := cs.Completions[0]
	if cs.Selected > 0 && cs.Selected < len(cs.Completions) {
		sel = cs.Completions[cs.Selected]
	}
	head := ""
	if i := strings.LastIndexAny(cs.OriginalInput, " \t"); i >= 0 {
		head = cs.OriginalInput[:i+1]
	}
	return head + sel.Value + " "
}

// Clear closes the menu.
func (cs *CompletionState) Clear() {
	*cs = CompletionState{Selected: -1}
}
