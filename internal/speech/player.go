// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"sync"
)

// Player opens synthesized audio for playback.
type Player interface {
	Open(audio []byte) (Handle, error)
}

// Handle is one live audio resource.
type Handle interface {
	// Play starts or resumes playback.
	Play() error

	// Pause suspends playback, keeping the position.
	Pause() error

	// Rewind resets the position to the start. Playback stays stopped.
	Rewind() error

	// SetMuted silences or restores output without stopping playback.
	SetMuted(muted bool)

	// Done is closed when playback reaches the natural end.
	Done() <-chan struct{}

	// Release frees the underlying resource. The handle is unusable after.
	Release()
}

// =============================================================================
// NULL PLAYER
// =============================================================================

// NullPlayer discards audio. Playback ends as soon as it starts.
// It is used when no audio output program is available.
type NullPlayer struct{}

// Open returns a handle that finishes immediately on Play.
func (NullPlayer) Open(audio []byte) (Handle, error) {
	return &nullHandle{done: make(chan struct{})}, nil
}

type nullHandle struct {
	once     sync.Once
	mu       sync.Mutex
	released bool
	done     chan struct{}
}

func (h *nullHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return ErrReleased
	}
	h.once.Do(func() { close(h.done) })
	return nil
}

func (h *nullHandle) Pause() error          { return nil }
func (h *nullHandle) Rewind() error         { return nil }
func (h *nullHandle) SetMuted(bool)         {}
func (h *nullHandle) Done() <-chan struct{} { return h.done }

func (h *nullHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.released = true
}
