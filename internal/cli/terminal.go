// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TERMINAL DETECTION
// =============================================================================

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Interactive reports whether stdin and stdout are both terminals. Chat
// falls back to line mode over pipes only when asked; auto mode picks the
// full-screen UI only here.
func Interactive() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}

// Wrap bounds for rendered replies.
const (
	fallbackWidth = 80
	minWidth      = 40
)

// GetTerminalWidth returns the stdout width, at least minWidth.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	switch {
	case err != nil || width <= 0:
		return fallbackWidth
	case width < minWidth:
		return minWidth
	}
	return width
}

// =============================================================================
// COLOR OUTPUT
// =============================================================================

var (
	colorOnce sync.Once
	colorOn   bool
)

// ColorsEnabled reports whether output is styled. NO_COLOR and CLICOLOR=0
// turn it off, CLICOLOR_FORCE or FORCE_COLOR turn it on, and otherwise
// it follows whether stdout is a terminal.
func ColorsEnabled() bool {
	colorOnce.Do(func() {
		switch {
		case termenv.EnvNoColor():
			colorOn = false
		case os.Getenv("FORCE_COLOR") != "", os.Getenv("CLICOLOR_FORCE") != "" && os.Getenv("CLICOLOR_FORCE") != "0":
			colorOn = true
		default:
			colorOn = isTerminal(os.Stdout)
		}
	})
	return colorOn
}

// ForceColorsEnabled overrides detection. Tests use it for stable output.
func ForceColorsEnabled(enabled bool) {
	colorOnce = sync.Once{}
	colorOnce.Do(func() { colorOn = enabled })
}

// GetColorProfile is the lipgloss profile matching ColorsEnabled.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}
