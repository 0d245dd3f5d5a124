// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package notify carries transient user notifications from the chat core
// to whichever layout is rendering it.
package notify

import (
	"sync"
	"time"
)

// Level is the notification severity.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Notification is a transient toast.
type Notification struct {
	Level   Level
	Title   string
	Message string

	// Blocking notifications ask the user to act (e.g. sign in) and stay
	// visible until dismissed.
	Blocking bool

	At time.Time
}

// Notifier receives notifications.
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a function to the Notifier interface.
type Func func(n Notification)

// Notify calls f(n).
func (f Func) Notify(n Notification) {
	if f != nil {
		f(n)
	}
}

// Discard drops every notification.
var Discard Notifier = Func(nil)

// =============================================================================
// QUEUE
// =============================================================================

// DefaultQueueSize is the queue capacity used when size <= 0.
const DefaultQueueSize = 16

// Queue buffers notifications on a channel. When the buffer is full the
// oldest notification is dropped so Notify never blocks.
type Queue struct {
	mu sync.Mutex
	ch chan Notification
}

// NewQueue creates a queue holding up to size notifications.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan Notification, size)}
}

// Notify enqueues n, dropping the oldest entry if the queue is full.
func (q *Queue) Notify(n Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		select {
		case q.ch <- n:
			return
		default:
		}
		select {
		case <-q.ch:
		default:
		}
	}
}

// C returns the receive side of the queue.
func (q *Queue) C() <-chan Notification {
	return q.ch
}

// Drain returns every queued notification without blocking.
func (q *Queue) Drain() []Notification {
	var out []Notification
	for {
		select {
		case n := <-q.ch:
			out = append(out, n)
		default:
			return out
		}
	}
}
