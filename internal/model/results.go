// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// SELF-ASSESSMENT RESULTS
// =============================================================================

// TestResult is one completed self-assessment (PHQ-9, GAD-7, ...).
type TestResult struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TestName  string    `json:"test_name"`
	Score     int       `json:"score"`
	MaxScore  int       `json:"max_score"`
	Severity  string    `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}

// Percent returns the score as a percentage of the maximum.
// Returns 0 when the maximum is unknown.
func (r TestResult) Percent() int {
	if r.MaxScore <= 0 {
		return 0
	}
	return r.Score * 100 / r.MaxScore
}
