// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a saved conversation to Markdown or JSON so users
// can keep a copy outside the app.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/chetna-wellness/chetna/internal/model"
	"github.com/chetna-wellness/chetna/internal/util"
)

// ErrEmpty is returned for a transcript with no messages.
var ErrEmpty = errors.New("export: conversation has no messages")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a transcript to one output format.
type Exporter interface {
	Export(t model.Transcript) ([]byte, error)

	// FileExtension returns the extension including the dot.
	FileExtension() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir receives exported files. Default: current directory.
	OutputDir string

	// Title heads the Markdown document.
	Title string

	// UserLabel and AssistantLabel name the speakers. Defaults: "You" and
	// "Chetna"; callers pass localized labels.
	UserLabel      string
	AssistantLabel string

	// IncludeTimestamps adds the send time to each message.
	IncludeTimestamps bool

	// Now stamps the export. Default: time.Now.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		Title:             "Conversation with Chetna",
		UserLabel:         "You",
		AssistantLabel:    "Chetna",
		IncludeTimestamps: true,
		Now:               time.Now,
	}
}

func (o *Options) withDefaults() *Options {
	d := DefaultOptions()
	if o == nil {
		return d
	}
	out := *o
	if out.OutputDir == "" {
		out.OutputDir = d.OutputDir
	}
	if out.Title == "" {
		out.Title = d.Title
	}
	if out.UserLabel == "" {
		out.UserLabel = d.UserLabel
	}
	if out.AssistantLabel == "" {
		out.AssistantLabel = d.AssistantLabel
	}
	if out.Now == nil {
		out.Now = d.Now
	}
	return &out
}

// label returns the speaker name for m.
func (o *Options) label(m model.Message) string {
	if m.IsUser {
		return o.UserLabel
	}
	return o.AssistantLabel
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ForFormat returns the exporter for "markdown" (or "md") and "json".
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(format) {
	case "", "markdown", "md":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	}
	return nil, fmt.Errorf("unknown export format %q (want markdown or json)", format)
}

// ExportToFile exports t into opts.OutputDir and returns the file path.
// Conversations are private, so the file is readable by the owner only.
func ExportToFile(t model.Transcript, exporter Exporter, opts *Options) (string, error) {
	opts = opts.withDefaults()

	content, err := exporter.Export(t)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("chetna_conversation_%s%s",
		opts.Now().Format("20060102_150405"),
		exporter.FileExtension(),
	)
	path := filepath.Join(opts.OutputDir, filename)
	if err := util.AtomicWriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}
