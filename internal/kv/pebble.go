// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// PebbleStore keeps keys in an embedded Pebble database.
type PebbleStore struct {
	db *pebble.DB
}

// NewPebbleStore opens (or creates) a Pebble database at dir.
func NewPebbleStore(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", dir, err)
	}
	return &PebbleStore{db: db}, nil
}

// Get reads the value stored under key.
func (s *PebbleStore) Get(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	if s.db == nil {
		return "", ErrClosed
	}

	val, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	defer closer.Close()

	// val is only valid until closer.Close
	return string(val), nil
}

// Set writes value under key with a synced commit.
func (s *PebbleStore) Set(key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if s.db == nil {
		return ErrClosed
	}
	return s.db.Set([]byte(key), []byte(value), pebble.Sync)
}

// Delete removes key.
func (s *PebbleStore) Delete(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if s.db == nil {
		return ErrClosed
	}
	return s.db.Delete([]byte(key), pebble.Sync)
}

// Close closes the database.
func (s *PebbleStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
