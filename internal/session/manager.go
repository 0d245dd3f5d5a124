// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"time"

	"github.com/chetna-wellness/chetna/internal/clock"
)

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager runs the fixed-interval expiry schedule.
type Manager struct {
	mu    sync.Mutex
	clock clock.Clock

	// Schedule
	interval   time.Duration
	timer      clock.Timer
	running    bool
	generation uint64 // bumped on Start/Stop so stale timers are ignored
	startedAt  time.Time
	nextExpiry time.Time
	expiries   int

	// Callbacks
	onExpiry func()
}

// Config holds configuration for the session manager.
type Config struct {
	// Interval is the time between expiries (default: 20 minutes)
	Interval time.Duration
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		Interval: 20 * time.Minute,
	}
}

// NewManager creates a stopped session manager.
// A nil clock uses the real wall clock.
func NewManager(cfg Config, clk clock.Clock) *Manager {
	if clk == nil {
		clk = clock.Real{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Manager{
		clock:    clk,
		interval: cfg.Interval,
	}
}

// =============================================================================
// CALLBACKS
// =============================================================================

// SetExpiryCallback sets the function called on every expiry.
// The callback runs without the manager's lock held.
func (m *Manager) SetExpiryCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpiry = fn
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Start arms the schedule. Starting a running manager restarts the period.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
	m.running = true
	m.startedAt = m.clock.Now()
	m.armLocked()
}

// Stop disarms the schedule. A callback already in flight still completes.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

// IsRunning returns true while the schedule is armed.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// NextExpiry returns when the next expiry fires, or the zero time when stopped.
func (m *Manager) NextExpiry() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return time.Time{}
	}
	return m.nextExpiry
}

// RemainingTime returns the time until the next expiry.
func (m *Manager) RemainingTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return 0
	}
	remaining := m.nextExpiry.Sub(m.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (m *Manager) armLocked() {
	gen := m.generation
	m.nextExpiry = m.clock.Now().Add(m.interval)
	m.timer = m.clock.AfterFunc(m.interval, func() { m.fire(gen) })
}

func (m *Manager) stopLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.generation++
	m.running = false
}

// fire runs one expiry and re-arms for the next period.
func (m *Manager) fire(gen uint64) {
	m.mu.Lock()
	if !m.running || gen != m.generation {
		m.mu.Unlock()
		return
	}
	m.expiries++
	m.armLocked()
	onExpiry := m.onExpiry
	m.mu.Unlock()

	// Execute callback outside lock
	if onExpiry != nil {
		onExpiry()
	}
}

// =============================================================================
// SESSION STATUS
// =============================================================================

// Status represents the current schedule status.
type Status struct {
	Running       bool
	Interval      time.Duration
	StartedAt     time.Time
	NextExpiry    time.Time
	RemainingTime time.Duration
	Expiries      int
}

// GetStatus returns the current schedule status.
func (m *Manager) GetStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Status{
		Running:   m.running,
		Interval:  m.interval,
		StartedAt: m.startedAt,
		Expiries:  m.expiries,
	}
	if m.running {
		s.NextExpiry = m.nextExpiry
		if r := m.nextExpiry.Sub(m.clock.Now()); r > 0 {
			s.RemainingTime = r
		}
	}
	return s
}
