// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package kv provides the small string key-value store that backs local
// client state: the persisted transcript and the playback settings.
//
// Three backends are available:
//   - FileStore: one file per key, written atomically (default)
//   - PebbleStore: an embedded Pebble database
//   - MemoryStore: in-process map, used by tests and ephemeral sessions
package kv

import (
	"errors"
	"fmt"
	"regexp"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned by Get when the key has never been written.
	ErrNotFound = errors.New("kv: key not found")

	// ErrQuotaExceeded is returned by Set when the store is full.
	ErrQuotaExceeded = errors.New("kv: quota exceeded")

	// ErrInvalidKey is returned for keys outside [A-Za-z0-9_.-].
	ErrInvalidKey = errors.New("kv: invalid key")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("kv: store closed")
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is a flat string key-value store.
type Store interface {
	// Get returns the value for key or ErrNotFound.
	Get(key string) (string, error)

	// Set writes value under key, replacing any previous value.
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Close releases the store's resources.
	Close() error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

// ValidateKey checks that key is safe to use as a file name and DB key.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Open creates a store for the named backend rooted at dir.
// Supported backends: "file", "pebble", "memory".
func Open(backend, dir string) (Store, error) {
	switch backend {
	case "", "file":
		return NewFileStore(dir)
	case "pebble":
		return NewPebbleStore(dir)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("kv: unknown backend %q", backend)
	}
}
