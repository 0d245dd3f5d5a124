// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package records

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chetna-wellness/chetna/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_Conversations(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	for i, text := range []string{"hello", "hi there", "I can't sleep"} {
		require.NoError(t, s.InsertConversation(ctx, ConversationRecord{
			UserID:    "u1",
			Message:   text,
			IsBot:     i%2 == 1,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.InsertConversation(ctx, ConversationRecord{UserID: "u2", Message: "other"}))

	all, err := s.Conversations(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "hello", all[0].Message)
	assert.True(t, all[1].IsBot)
	assert.Equal(t, base.Add(2*time.Minute), all[2].CreatedAt)
	assert.NotEmpty(t, all[0].ID)

	last2, err := s.Conversations(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, last2, 2)
	assert.Equal(t, "hi there", last2[0].Message)

	n, err := s.DeleteConversations(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestSQLiteStore_InsertRequiresUser(t *testing.T) {
	s := openTestStore(t)
	err := s.InsertConversation(context.Background(), ConversationRecord{Message: "x"})
	assert.True(t, errors.Is(err, ErrNoUser))
}

func TestSQLiteStore_RecentTestResults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		_, err := s.InsertTestResult(ctx, model.TestResult{
			UserID:    "u1",
			TestName:  "PHQ-9",
			Score:     i,
			MaxScore:  27,
			Severity:  "mild",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	got, err := s.RecentTestResults(ctx, "u1", 5)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, 6, got[0].Score, "newest first")
	assert.Equal(t, 2, got[4].Score)
	assert.Equal(t, base.Add(6*time.Hour), got[0].CreatedAt)

	none, err := s.RecentTestResults(ctx, "", 5)
	require.NoError(t, err)
	assert.Empty(t, none)

	other, err := s.RecentTestResults(ctx, "u2", 5)
	require.NoError(t, err)
	assert.Empty(t, other)
}
