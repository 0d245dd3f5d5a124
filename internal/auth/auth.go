// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth exposes the signed-in identity to the chat core.
//
// The chat core never mutates auth state; it reads CurrentUser and
// subscribes to changes so it can reset the guest message limit when a
// user signs in.
package auth

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chetna-wellness/chetna/internal/kv"
)

// UserKey is the kv key holding the signed-in user.
const UserKey = "chetna_user"

// ErrInvalidUser is returned by SignIn for a user without a name.
var ErrInvalidUser = errors.New("auth: user name required")

// User is a signed-in identity.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// DisplayName returns the first word of the user's name.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	fields := strings.Fields(u.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Provider exposes the current identity.
type Provider interface {
	// CurrentUser returns the signed-in user or nil for a guest.
	CurrentUser() *User

	// Subscribe registers fn for identity changes and returns a cancel func.
	Subscribe(fn func(*User)) func()
}

// =============================================================================
// SESSION
// =============================================================================

// Session is a local Provider that remembers the signed-in user in a kv store.
type Session struct {
	mu      sync.Mutex
	store   kv.Store
	logger  zerolog.Logger
	user    *User
	subs    map[int]func(*User)
	nextSub int
}

// NewSession creates a session, restoring any persisted user.
// store may be nil for a process-local session.
func NewSession(store kv.Store, logger zerolog.Logger) *Session {
	s := &Session{
		store:  store,
		logger: logger.With().Str("component", "auth").Logger(),
		subs:   make(map[int]func(*User)),
	}
	if store != nil {
		if raw, err := store.Get(UserKey); err == nil {
			var u User
			if err := json.Unmarshal([]byte(raw), &u); err == nil && u.ID != "" {
				s.user = &u
			} else {
				s.logger.Warn().Msg("discarding unreadable stored user")
			}
		}
	}
	return s
}

// CurrentUser returns a copy of the signed-in user or nil.
func (s *Session) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// SignIn makes u the current user. An empty ID is generated.
func (s *Session) SignIn(u User) (*User, error) {
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" {
		return nil, ErrInvalidUser
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()

	s.persist(&u)
	s.logger.Info().Str("user_id", u.ID).Msg("signed in")
	s.notify(&u)
	return &u, nil
}

// SignOut clears the current user.
func (s *Session) SignOut() {
	s.mu.Lock()
	had := s.user != nil
	s.user = nil
	s.mu.Unlock()

	if !had {
		return
	}
	s.persist(nil)
	s.logger.Info().Msg("signed out")
	s.notify(nil)
}

// Subscribe registers fn for identity changes.
func (s *Session) Subscribe(fn func(*User)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Session) notify(u *User) {
	s.mu.Lock()
	subs := make([]func(*User), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		if u == nil {
			fn(nil)
			continue
		}
		cp := *u
		fn(&cp)
	}
}

func (s *Session) persist(u *User) {
	if s.store == nil {
		return
	}
	if u == nil {
		if err := s.store.Delete(UserKey); err != nil {
			s.logger.Warn().Err(err).Msg("clear stored user")
		}
		return
	}
	data, err := json.Marshal(u)
	if err != nil {
		return
	}
	if err := s.store.Set(UserKey, string(data)); err != nil {
		s.logger.Warn().Err(err).Msg("store user")
	}
}
