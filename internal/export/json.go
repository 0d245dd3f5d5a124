// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/chetna-wellness/chetna/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports conversations as a JSON document. Message IDs are
// session-local and are left out.
type JSONExporter struct {
	options *Options
}

type jsonDocument struct {
	Title    string        `json:"title"`
	Exported time.Time     `json:"exported"`
	Messages []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	Sender    string    `json:"sender"`
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	return &JSONExporter{options: opts.withDefaults()}
}

// Export converts a transcript to indented JSON.
func (e *JSONExporter) Export(t model.Transcript) ([]byte, error) {
	if t.IsEmpty() {
		return nil, ErrEmpty
	}
	doc := jsonDocument{
		Title:    e.options.Title,
		Exported: e.options.Now().UTC().Truncate(time.Millisecond),
		Messages: make([]jsonMessage, 0, t.Len()),
	}
	for _, m := range t.Messages {
		doc.Messages = append(doc.Messages, jsonMessage{
			Sender:    m.Sender(),
			Name:      e.options.label(m),
			Text:      m.Text,
			Timestamp: m.Timestamp.UTC(),
		})
	}
	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}
