// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput carries the fields accepted at registration.
// Shape validation happens before the service is called.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Profile  Profile
}

// Service provides registration, login and user lookup.
type Service struct {
	users  UserRepository
	prefs  PreferencesRepository
	hasher PasswordHasher
	tokens TokenIssuer
	logger *slog.Logger
}

// NewAuthService creates a new Service.
func NewAuthService(
	users UserRepository,
	prefs PreferencesRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
) (*Service, error) {
	return NewAuthServiceWithLogger(users, prefs, hasher, tokens, slog.Default())
}

// NewAuthServiceWithLogger creates a Service with an explicit logger.
func NewAuthServiceWithLogger(
	users UserRepository,
	prefs PreferencesRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	logger *slog.Logger,
) (*Service, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if prefs == nil {
		return nil, oops.Errorf("preferences repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("token issuer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:  users,
		prefs:  prefs,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}, nil
}

// dummyPasswordHash is verified against when a login email is unknown so that
// both failure paths cost one bcrypt comparison. It never matches a real password.
var dummyPasswordHash = sync.OnceValue(func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte("thryve-timing-equalizer"), BcryptCost)
	if err != nil {
		return ""
	}
	return string(hash)
})

// Register creates a user with default preferences and issues a session token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, string, error) {
	if err := ValidatePassword(in.Password); err != nil {
		return nil, "", err
	}

	_, err := s.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, "", oops.Code(CodeDuplicateEmail).Errorf(MsgDuplicateEmail)
	case !errors.Is(err, ErrNotFound):
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(in.Name, in.Email, passwordHash, in.Profile)
	if err != nil {
		return nil, "", err
	}

	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent registration can win between the lookup and the insert.
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, "", oops.Code(CodeDuplicateEmail).Errorf(MsgDuplicateEmail)
		}
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	if err := s.prefs.Create(ctx, DefaultPreferences(user.ID)); err != nil {
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create preferences").
			With("user_id", user.ID).
			Wrap(err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "issue token").
			With("user_id", user.ID).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, token, nil
}

// Login authenticates by email and password and issues a session token.
// Unknown email and wrong password fail with the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, lookupErr := s.users.GetByEmail(ctx, email)

	var targetHash string
	var userExists bool

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get user by email").
				Wrap(lookupErr)
		}
		targetHash = dummyPasswordHash()
	} else {
		targetHash = user.PasswordHash
		userExists = true
	}

	// Always verify so both failure paths take the same time.
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !userExists {
			return nil, "", oops.Code(CodeInvalidCredentials).Errorf(MsgInvalidCredentials)
		}
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID).
			Wrap(verifyErr)
	}

	if !userExists || !valid {
		return nil, "", oops.Code(CodeInvalidCredentials).Errorf(MsgInvalidCredentials)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token").
			With("user_id", user.ID).
			Wrap(err)
	}

	return user, token, nil
}

// GetUser returns the user with the given ID.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeUserNotFound).With("user_id", id).Errorf(MsgUserNotFound)
		}
		return nil, oops.Code("AUTH_GET_USER_FAILED").
			With("user_id", id).
			Wrap(err)
	}
	return user, nil
}

// Preferences returns the stored preferences of a user.
func (s *Service) Preferences(ctx context.Context, userID string) (*Preferences, error) {
	prefs, err := s.prefs.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeUserNotFound).With("user_id", userID).Errorf(MsgUserNotFound)
		}
		return nil, oops.Code("AUTH_GET_PREFERENCES_FAILED").
			With("user_id", userID).
			Wrap(err)
	}
	return prefs, nil
}
