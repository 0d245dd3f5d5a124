// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the root zerolog logger from configuration.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/chetna-wellness/chetna/internal/config"
)

// =============================================================================
// SETUP
// =============================================================================

// Options tune Setup beyond what the config file says.
type Options struct {
	// Quiet keeps logs off the terminal. The full-screen UI owns stderr's
	// terminal, so it logs to a file instead.
	Quiet bool
	// Stderr defaults to os.Stderr.
	Stderr io.Writer
}

// Setup returns the root logger. The returned closer releases the log file
// and is never nil.
func Setup(cfg config.LoggingConfig, opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	path := cfg.File
	if path == "" && opts.Quiet {
		dir, err := config.ConfigDir()
		if err != nil {
			return zerolog.Nop(), nopCloser{}, err
		}
		path = filepath.Join(dir, "logs", "chetna.log")
	}

	var (
		out    io.Writer = stderr
		closer io.Closer = nopCloser{}
		isFile bool
	)
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("failed to open log file: %w", err)
		}
		out, closer, isFile = f, f, true
	}

	if useConsole(cfg.Format, out, isFile) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Str("app", "chetna").Logger()
	return logger, closer, nil
}

// ParseLevel accepts trace, debug, info, warn and error. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return zerolog.InfoLevel, nil
	case "trace", "debug", "info", "warn", "error":
		return zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// useConsole picks the human-readable writer for "console", and for "auto"
// when the destination is an interactive terminal.
func useConsole(format string, out io.Writer, isFile bool) bool {
	switch strings.ToLower(format) {
	case "console":
		return true
	case "json":
		return false
	}
	if isFile {
		return false
	}
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
