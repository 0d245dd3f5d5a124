// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chetna-wellness/chetna/internal/model"
)

var exportTime = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func testTranscript() model.Transcript {
	t := model.NewWelcomeTranscript("Hello! How are you feeling today?", exportTime)
	t = t.Append(model.NewUserMessage("I feel *anxious* before exams", exportTime.Add(time.Minute)))
	return t.Append(model.NewAssistantMessage("Try **box breathing**:\n\n1. Inhale for 4", exportTime.Add(2*time.Minute)))
}

func testOptions(dir string) *Options {
	return &Options{
		OutputDir:      dir,
		AssistantLabel: "Chetna",
		Now:            func() time.Time { return exportTime },
	}
}

func TestMarkdownExporter(t *testing.T) {
	out, err := NewMarkdownExporter(testOptions("")).Export(testTranscript())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\ntitle: Conversation with Chetna\n"), md)
	assert.Contains(t, md, "messages: 3\n")
	assert.Contains(t, md, "# Conversation with Chetna\n")
	assert.Contains(t, md, "### You\n\nI feel \\*anxious\\* before exams", "user text is escaped")
	assert.Contains(t, md, "Try **box breathing**:\n\n1. Inhale for 4", "assistant markdown is kept")
	assert.Equal(t, 2, strings.Count(md, "\n---\n\n### "), "separators between messages only")
	assert.NotContains(t, md, "<sub>")
}

func TestMarkdownExporter_Timestamps(t *testing.T) {
	opts := testOptions("")
	opts.IncludeTimestamps = true
	out, err := NewMarkdownExporter(opts).Export(testTranscript())
	require.NoError(t, err)
	assert.Contains(t, string(out), "### Chetna <sub>"+formatTimestamp(exportTime)+"</sub>")
}

func TestJSONExporter(t *testing.T) {
	out, err := NewJSONExporter(testOptions("")).Export(testTranscript())
	require.NoError(t, err)

	var doc jsonDocument
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "Conversation with Chetna", doc.Title)
	assert.True(t, doc.Exported.Equal(exportTime))
	require.Len(t, doc.Messages, 3)
	assert.Equal(t, "assistant", doc.Messages[0].Sender)
	assert.Equal(t, "user", doc.Messages[1].Sender)
	assert.Equal(t, "You", doc.Messages[1].Name)
	assert.Equal(t, "I feel *anxious* before exams", doc.Messages[1].Text)
	assert.NotContains(t, string(out), `"id"`)
}

func TestExporters_RejectEmpty(t *testing.T) {
	for _, e := range []Exporter{NewMarkdownExporter(nil), NewJSONExporter(nil)} {
		_, err := e.Export(model.Transcript{})
		assert.ErrorIs(t, err, ErrEmpty)
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format string
		ext    string
	}{
		{"", ".md"},
		{"markdown", ".md"},
		{"MD", ".md"},
		{"json", ".json"},
	}
	for _, tt := range tests {
		e, err := ForFormat(tt.format, nil)
		if err != nil {
			t.Errorf("ForFormat(%q): %v", tt.format, err)
			continue
		}
		if e.FileExtension() != tt.ext {
			t.Errorf("ForFormat(%q) extension = %q, want %q", tt.format, e.FileExtension(), tt.ext)
		}
	}

	_, err := ForFormat("html", nil)
	assert.Error(t, err)
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(dir)

	path, err := ExportToFile(testTranscript(), NewJSONExporter(opts), opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chetna_conversation_20250314_093000.json"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	if info.Mode().Perm()&0077 != 0 {
		t.Errorf("export perm = %o, want owner-only", info.Mode().Perm())
	}
}

func TestEscapeYAML(t *testing.T) {
	assert.Equal(t, "plain title", escapeYAML("plain title"))
	assert.Equal(t, `"a: b"`, escapeYAML("a: b"))
	assert.Equal(t, `"line\nbreak"`, escapeYAML("line\nbreak"))
}
