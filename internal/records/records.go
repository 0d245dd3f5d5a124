// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package records is the remote record store the chat core writes to and
// reads from: chat message history and self-assessment results.
//
// The chat core only needs two operations (Store). SQLiteStore implements
// them over a local SQLite database, which also backs the history command.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/chetna-wellness/chetna/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNoUser        = errors.New("records: user id required")
	ErrDatabaseError = errors.New("records: database error")
)

// =============================================================================
// TYPES
// =============================================================================

// ConversationRecord is one stored chat message.
type ConversationRecord struct {
	ID        string
	UserID    string
	Message   string
	IsBot     bool
	CreatedAt time.Time
}

// Store is the record interface consumed by the chat controller.
type Store interface {
	// InsertConversation stores one chat message.
	InsertConversation(ctx context.Context, rec ConversationRecord) error

	// RecentTestResults returns up to limit results, newest first.
	RecentTestResults(ctx context.Context, userID string, limit int) ([]model.TestResult, error)
}

// =============================================================================
// SQLITE STORE
// =============================================================================

// SQLiteStore persists records in SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path.
func Open(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// InsertConversation stores one chat message.
func (s *SQLiteStore) InsertConversation(ctx context.Context, rec ConversationRecord) error {
	if strings.TrimSpace(rec.UserID) == "" {
		return ErrNoUser
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, message, is_bot, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Message, boolToInt(rec.IsBot), rec.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("%w: insert conversation: %v", ErrDatabaseError, err)
	}
	return nil
}

// Conversations returns a user's stored messages, oldest first.
// limit <= 0 returns all.
func (s *SQLiteStore) Conversations(ctx context.Context, userID string, limit int) ([]ConversationRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrNoUser
	}
	if limit <= 0 {
		limit = -1
	}

	// newest N, then reversed to display order
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, message, is_bot, created_at FROM conversations
		 WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query conversations: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var out []ConversationRecord
	for rows.Next() {
		var (
			rec   ConversationRecord
			isBot int
			ms    int64
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Message, &isBot, &ms); err != nil {
			return nil, fmt.Errorf("%w: scan conversation: %v", ErrDatabaseError, err)
		}
		rec.IsBot = isBot != 0
		rec.CreatedAt = time.UnixMilli(ms).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// DeleteConversations removes all stored messages for a user.
func (s *SQLiteStore) DeleteConversations(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, ErrNoUser
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: delete conversations: %v", ErrDatabaseError, err)
	}
	return res.RowsAffected()
}

// InsertTestResult stores a completed self-assessment.
func (s *SQLiteStore) InsertTestResult(ctx context.Context, r model.TestResult) (model.TestResult, error) {
	if strings.TrimSpace(r.UserID) == "" {
		return r, ErrNoUser
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	r.CreatedAt = r.CreatedAt.Truncate(time.Millisecond)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO test_results (id, user_id, test_name, score, max_score, severity, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.TestName, r.Score, r.MaxScore, r.Severity, r.CreatedAt.UnixMilli())
	if err != nil {
		return r, fmt.Errorf("%w: insert test result: %v", ErrDatabaseError, err)
	}
	return r, nil
}

// RecentTestResults returns up to limit results for userID, newest first.
// An empty userID yields an empty list.
func (s *SQLiteStore) RecentTestResults(ctx context.Context, userID string, limit int) ([]model.TestResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, test_name, score, max_score, severity, created_at FROM test_results
		 WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query test results: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var out []model.TestResult
	for rows.Next() {
		var (
			r  model.TestResult
			ms int64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.TestName, &r.Score, &r.MaxScore, &r.Severity, &ms); err != nil {
			return nil, fmt.Errorf("%w: scan test result: %v", ErrDatabaseError, err)
		}
		r.CreatedAt = time.UnixMilli(ms).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
