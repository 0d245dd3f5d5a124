// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package kv

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/chetna-wellness/chetna/internal/util"
)

// FileStore keeps each key in its own file under BaseDir.
type FileStore struct {
	// BaseDir is the directory holding one file per key.
	// Default: ~/.chetna/local/
	BaseDir string

	mu     sync.RWMutex
	closed bool
}

// NewFileStore creates a file-backed store, creating dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &FileStore{BaseDir: dir}, nil
}

// Get reads the value stored under key.
func (s *FileStore) Get(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", ErrClosed
	}

	data, err := os.ReadFile(s.filePath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(data), nil
}

// Set writes value under key.
// RELIABILITY: Atomic write with fsync prevents a torn transcript on crash.
func (s *FileStore) Set(key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	return util.AtomicWriteFile(s.filePath(key), []byte(value), 0600)
}

// Delete removes key.
func (s *FileStore) Delete(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if err := os.Remove(s.filePath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Close marks the store closed.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FileStore) filePath(key string) string {
	return filepath.Join(s.BaseDir, key)
}
