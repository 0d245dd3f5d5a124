// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chetna-wellness/chetna/internal/kv"
)

func TestSession_SignInOut(t *testing.T) {
	mem := kv.NewMemoryStore()
	s := NewSession(mem, zerolog.Nop())
	assert.Nil(t, s.CurrentUser())

	var events []*User
	cancel := s.Subscribe(func(u *User) { events = append(events, u) })
	defer cancel()

	u, err := s.SignIn(User{Name: "  Asha Rao ", Email: "asha@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Asha", u.DisplayName())

	// restored by a fresh session over the same store
	restored := NewSession(mem, zerolog.Nop()).CurrentUser()
	require.NotNil(t, restored)
	assert.Equal(t, u.ID, restored.ID)

	s.SignOut()
	s.SignOut() // no second event
	assert.Nil(t, s.CurrentUser())
	assert.Nil(t, NewSession(mem, zerolog.Nop()).CurrentUser())

	require.Len(t, events, 2)
	assert.Equal(t, "Asha Rao", events[0].Name)
	assert.Nil(t, events[1])
}

func TestSession_SignInRequiresName(t *testing.T) {
	s := NewSession(nil, zerolog.Nop())
	_, err := s.SignIn(User{Name: " "})
	assert.ErrorIs(t, err, ErrInvalidUser)
}

func TestSession_CurrentUserIsCopy(t *testing.T) {
	s := NewSession(nil, zerolog.Nop())
	_, err := s.SignIn(User{ID: "u1", Name: "Ravi"})
	require.NoError(t, err)

	s.CurrentUser().Name = "changed"
	assert.Equal(t, "Ravi", s.CurrentUser().Name)
}

func TestDisplayName_Nil(t *testing.T) {
	var u *User
	assert.Equal(t, "", u.DisplayName())
}
