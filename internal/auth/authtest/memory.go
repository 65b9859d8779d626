// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

// Package authtest provides in-memory repositories for tests.
package authtest

import (
	"context"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/thryve/thryve/internal/auth"
)

// UserStore is an in-memory auth.UserRepository.
type UserStore struct {
	mu    sync.Mutex
	users map[string]*auth.User // id → user
}

// NewUserStore creates an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*auth.User)}
}

// Create implements auth.UserRepository.
func (s *UserStore) Create(_ context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return oops.Code("USER_CREATE_FAILED").Wrap(auth.ErrDuplicateEmail)
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

// GetByID implements auth.UserRepository.
func (s *UserStore) GetByID(_ context.Context, id string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, oops.Code("USER_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
}

// GetByEmail implements auth.UserRepository.
func (s *UserStore) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
}

// Update implements auth.UserRepository.
func (s *UserStore) Update(_ context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return oops.Code("USER_NOT_FOUND").With("id", user.ID).Wrap(auth.ErrNotFound)
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

// SetResetToken implements auth.UserRepository.
func (s *UserStore) SetResetToken(_ context.Context, userID, tokenHash string, expiresAt, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("user_id", userID).Wrap(auth.ErrNotFound)
	}
	u.SetResetToken(tokenHash, expiresAt)
	u.UpdatedAt = updatedAt
	return nil
}

// ConsumeResetToken implements auth.UserRepository.
func (s *UserStore) ConsumeResetToken(_ context.Context, tokenHash, passwordHash string, now time.Time) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.HasValidResetToken(tokenHash, now) {
			u.PasswordHash = passwordHash
			u.ClearResetToken()
			u.UpdatedAt = now
			return cloneUser(u), nil
		}
	}
	return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
}

// Len returns the number of stored users.
func (s *UserStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func cloneUser(u *auth.User) *auth.User {
	c := *u
	if u.ResetTokenHash != nil {
		h := *u.ResetTokenHash
		c.ResetTokenHash = &h
	}
	if u.ResetTokenExpiresAt != nil {
		e := *u.ResetTokenExpiresAt
		c.ResetTokenExpiresAt = &e
	}
	return &c
}

// PreferencesStore is an in-memory auth.PreferencesRepository.
type PreferencesStore struct {
	mu    sync.Mutex
	prefs map[string]auth.Preferences // userID → prefs
}

// NewPreferencesStore creates an empty PreferencesStore.
func NewPreferencesStore() *PreferencesStore {
	return &PreferencesStore{prefs: make(map[string]auth.Preferences)}
}

// Create implements auth.PreferencesRepository.
func (s *PreferencesStore) Create(_ context.Context, prefs *auth.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.prefs[prefs.UserID]; ok {
		return oops.Code("PREFERENCES_CREATE_FAILED").
			With("user_id", prefs.UserID).
			Errorf("preferences already exist")
	}
	s.prefs[prefs.UserID] = *prefs
	return nil
}

// GetByUser implements auth.PreferencesRepository.
func (s *PreferencesStore) GetByUser(_ context.Context, userID string) (*auth.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.prefs[userID]
	if !ok {
		return nil, oops.Code("PREFERENCES_NOT_FOUND").With("user_id", userID).Wrap(auth.ErrNotFound)
	}
	return &p, nil
}

// Verify interfaces are satisfied.
var (
	_ auth.UserRepository        = (*UserStore)(nil)
	_ auth.PreferencesRepository = (*PreferencesStore)(nil)
)
