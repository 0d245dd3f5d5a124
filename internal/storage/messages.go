// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/chetna-wellness/chetna/internal/kv"
	"github.com/chetna-wellness/chetna/internal/model"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// MessagesKey is the kv key holding the transcript snapshot.
	MessagesKey = "chetna_chat_messages"

	// TimestampLayout is the ISO-8601 layout written for message timestamps.
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

// =============================================================================
// SNAPSHOT TYPES
// =============================================================================

// storedMessage is the persisted form of a single message.
type storedMessage struct {
	Text      string `json:"text"`
	IsUser    bool   `json:"isUser"`
	Timestamp string `json:"timestamp"`
}

// EncodeSnapshot serializes a transcript into the persisted JSON array.
func EncodeSnapshot(tr model.Transcript) ([]byte, error) {
	stored := make([]storedMessage, len(tr.Messages))
	for i, m := range tr.Messages {
		stored[i] = storedMessage{
			Text:      m.Text,
			IsUser:    m.IsUser,
			Timestamp: m.Timestamp.UTC().Format(TimestampLayout),
		}
	}
	return json.Marshal(stored)
}

// DecodeSnapshot parses a persisted JSON array into a transcript.
// Restored messages receive fresh IDs and the transcript is tagged
// model.OriginRestored.
func DecodeSnapshot(data []byte) (model.Transcript, error) {
	var stored []storedMessage
	if err := json.Unmarshal(data, &stored); err != nil {
		return model.Transcript{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if len(stored) == 0 {
		return model.Transcript{}, ErrEmptySnapshot
	}

	msgs := make([]model.Message, 0, len(stored))
	for i, s := range stored {
		ts, err := parseTimestamp(s.Timestamp)
		if err != nil {
			return model.Transcript{}, fmt.Errorf("message %d: %w", i, err)
		}
		msgs = append(msgs, model.NewMessage(s.Text, s.IsUser, ts))
	}

	return model.Transcript{Messages: msgs, Origin: model.OriginRestored}, nil
}

// parseTimestamp accepts the written layout and any RFC 3339 variant.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrBadTimestamp
	}
	if ts, err := time.Parse(TimestampLayout, s); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
	}
	return ts.UTC(), nil
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptySnapshot is returned when the snapshot holds no messages.
	ErrEmptySnapshot = errors.New("snapshot has no messages")

	// ErrBadTimestamp is returned for unparseable message timestamps.
	ErrBadTimestamp = errors.New("invalid message timestamp")
)

// =============================================================================
// MESSAGE STORE
// =============================================================================

// MessageStore persists the transcript to a kv.Store.
// It is a pure persistence adapter; the chat controller owns the transcript.
type MessageStore struct {
	kv     kv.Store
	key    string
	logger zerolog.Logger
}

// NewMessageStore creates a message store writing under MessagesKey.
func NewMessageStore(store kv.Store, logger zerolog.Logger) *MessageStore {
	return &MessageStore{
		kv:     store,
		key:    MessagesKey,
		logger: logger.With().Str("component", "message_store").Logger(),
	}
}

// Load reads the persisted transcript.
// Returns false on a missing key, malformed JSON, bad timestamps or an
// empty array.
func (s *MessageStore) Load() (model.Transcript, bool) {
	raw, err := s.kv.Get(s.key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.Warn().Err(err).Msg("read transcript snapshot")
		}
		return model.Transcript{}, false
	}

	tr, err := DecodeSnapshot([]byte(raw))
	if err != nil {
		s.logger.Warn().Err(err).Msg("discarding unreadable transcript snapshot")
		return model.Transcript{}, false
	}

	s.logger.Debug().Int("messages", tr.Len()).Msg("transcript restored")
	return tr, true
}

// Save writes the transcript. Failures (quota, I/O) are logged and dropped.
func (s *MessageStore) Save(tr model.Transcript) {
	data, err := EncodeSnapshot(tr)
	if err != nil {
		s.logger.Warn().Err(err).Msg("encode transcript snapshot")
		return
	}
	if err := s.kv.Set(s.key, string(data)); err != nil {
		s.logger.Warn().Err(err).Int("bytes", len(data)).Msg("save transcript snapshot")
	}
}

// Clear replaces the persisted snapshot with a single welcome message and
// returns the new transcript.
func (s *MessageStore) Clear(welcome string, now time.Time) model.Transcript {
	tr := model.NewWelcomeTranscript(welcome, now)
	s.Save(tr)
	return tr
}

// Remove deletes the snapshot entirely.
func (s *MessageStore) Remove() error {
	return s.kv.Delete(s.key)
}
