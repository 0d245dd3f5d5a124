// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"
	"unicode/utf8"
)

// Config holds the product constants of the chat core.
type Config struct {
	// GuestMessageLimit is how many messages a guest may send before
	// sign-in is required.
	GuestMessageLimit int

	// ExpiryInterval is the fixed auto-clear period.
	ExpiryInterval time.Duration

	// PacingPerChar, PacingMin and PacingMax shape the delay before an
	// assistant reply appears.
	PacingPerChar time.Duration
	PacingMin     time.Duration
	PacingMax     time.Duration

	// FallbackDelay is the wait before a canned reply replaces a failed one.
	FallbackDelay time.Duration

	// AutoSubmitDelay is the wait between a voice result or a selected
	// suggestion filling the input and its submission.
	AutoSubmitDelay time.Duration

	// RecentResultsLimit caps the self-assessment results used for
	// personalization.
	RecentResultsLimit int
}

// DefaultConfig returns the default chat configuration.
func DefaultConfig() Config {
	return Config{
		GuestMessageLimit:  5,
		ExpiryInterval:     20 * time.Minute,
		PacingPerChar:      20 * time.Millisecond,
		PacingMin:          800 * time.Millisecond,
		PacingMax:          2000 * time.Millisecond,
		FallbackDelay:      1000 * time.Millisecond,
		AutoSubmitDelay:    500 * time.Millisecond,
		RecentResultsLimit: 5,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.GuestMessageLimit <= 0 {
		c.GuestMessageLimit = d.GuestMessageLimit
	}
	if c.ExpiryInterval <= 0 {
		c.ExpiryInterval = d.ExpiryInterval
	}
	if c.PacingPerChar <= 0 {
		c.PacingPerChar = d.PacingPerChar
	}
	if c.PacingMin <= 0 {
		c.PacingMin = d.PacingMin
	}
	if c.PacingMax <= 0 {
		c.PacingMax = d.PacingMax
	}
	if c.PacingMax < c.PacingMin {
		c.PacingMax = c.PacingMin
	}
	if c.FallbackDelay <= 0 {
		c.FallbackDelay = d.FallbackDelay
	}
	if c.AutoSubmitDelay <= 0 {
		c.AutoSubmitDelay = d.AutoSubmitDelay
	}
	if c.RecentResultsLimit <= 0 {
		c.RecentResultsLimit = d.RecentResultsLimit
	}
	return c
}

// PacingDelay returns clamp(len(reply) * PacingPerChar, PacingMin, PacingMax).
// Length counts characters, not bytes.
func (c Config) PacingDelay(reply string) time.Duration {
	d := time.Duration(utf8.RuneCountInString(reply)) * c.PacingPerChar
	if d < c.PacingMin {
		return c.PacingMin
	}
	if d > c.PacingMax {
		return c.PacingMax
	}
	return d
}
