// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import "sync"

// MemoryStore is an in-process store.
type MemoryStore struct {
	// QuotaBytes caps the total size of keys plus values (0 = unlimited).
	// Set returns ErrQuotaExceeded when a write would go over it.
	QuotaBytes int

	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Get reads the value stored under key.
func (s *MemoryStore) Get(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set writes value under key, honoring QuotaBytes.
func (s *MemoryStore) Set(key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.QuotaBytes > 0 {
		used := 0
		for k, v := range s.data {
			if k != key {
				used += len(k) + len(v)
			}
		}
		if used+len(key)+len(value) > s.QuotaBytes {
			return ErrQuotaExceeded
		}
	}
	s.data[key] = value
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
