// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chetna-wellness/chetna/internal/config"
	"github.com/chetna-wellness/chetna/internal/ollama"
)

// =============================================================================
// EXIT CODES
// =============================================================================

// Process exit codes. Gaps are reserved so codes stay stable.
const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2 // bad flags or arguments
	ExitConfigError   = 3 // config file unreadable or invalid
	ExitNetworkError  = 5 // AI, speech or metrics endpoint unreachable
	ExitNotFoundError = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError reports which subcommand step failed, e.g. "config set".
type CommandError struct {
	Command string
	Action  string
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError is returned for arguments cobra accepted but the command
// could not make sense of.
type UsageError struct {
	Arg    string
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Arg, e.Reason)
}

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return e.Resource + " not found"
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError prints err to w in the shared error style.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", RenderConditional(ErrorStyle, "[ERROR]"), err.Error())
}

// GetExitCode maps err to a process exit code. Cobra's own errors are
// recognised by message.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}
	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) {
		return ExitNotFoundError
	}
	var validateErrs config.ValidateErrors
	if errors.As(err, &validateErrs) {
		return ExitConfigError
	}
	var validateErr config.ValidationError
	if errors.As(err, &validateErr) {
		return ExitConfigError
	}
	if errors.Is(err, ollama.ErrNotRunning) || errors.Is(err, ollama.ErrTimeout) {
		return ExitNetworkError
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.HasPrefix(msg, "unknown command"),
		strings.HasPrefix(msg, "unknown flag"),
		strings.Contains(msg, "arg(s)"):
		return ExitUsageError
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "dial"):
		return ExitNetworkError
	}
	return ExitGeneralError
}
