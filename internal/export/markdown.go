// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/chetna-wellness/chetna/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown with YAML frontmatter.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	return &MarkdownExporter{options: opts.withDefaults()}
}

// Export converts a transcript to Markdown. Assistant replies are already
// Markdown and are kept as written; user text is escaped.
func (e *MarkdownExporter) Export(t model.Transcript) ([]byte, error) {
	if t.IsEmpty() {
		return nil, ErrEmpty
	}
	o := e.options
	var sb strings.Builder

	first, _ := t.First()
	last, _ := t.Last()
	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "title: %s\n", escapeYAML(o.Title))
	fmt.Fprintf(&sb, "started: %s\n", first.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&sb, "updated: %s\n", last.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&sb, "messages: %d\n", t.Len())
	fmt.Fprintf(&sb, "exported: %s\n", o.Now().Format(time.RFC3339))
	sb.WriteString("---\n\n")

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(o.Title))

	for i, m := range t.Messages {
		if o.IncludeTimestamps {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", escapeMarkdown(o.label(m)), formatTimestamp(m.Timestamp))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", escapeMarkdown(o.label(m)))
		}

		text := strings.TrimSpace(m.Text)
		if m.IsUser {
			text = escapeMarkdown(text)
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")

		if i < t.Len()-1 {
			sb.WriteString("---\n\n")
		}
	}
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"#", `\#`,
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	"`", "\\`",
)

// escapeMarkdown escapes characters that would turn plain text into markup.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// escapeYAML quotes s when it holds characters YAML would interpret.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
