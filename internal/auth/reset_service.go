// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// PasswordResetService handles password reset operations.
type PasswordResetService struct {
	users  UserRepository
	hasher PasswordHasher
	logger *slog.Logger
	now    func() time.Time
}

// NewPasswordResetService creates a new PasswordResetService.
func NewPasswordResetService(users UserRepository, hasher PasswordHasher) (*PasswordResetService, error) {
	return NewPasswordResetServiceWithLogger(users, hasher, slog.Default())
}

// NewPasswordResetServiceWithLogger creates a PasswordResetService with an explicit logger.
func NewPasswordResetServiceWithLogger(
	users UserRepository,
	hasher PasswordHasher,
	logger *slog.Logger,
) (*PasswordResetService, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PasswordResetService{
		users:  users,
		hasher: hasher,
		logger: logger,
		now:    time.Now,
	}, nil
}

// SetClock overrides the time source. Intended for tests.
func (s *PasswordResetService) SetClock(now func() time.Time) {
	s.now = now
}

// RequestReset issues a reset token for the user registered under email.
// The token hash and expiry are stored on the user; the plaintext token is
// returned for delivery and never persisted. Unknown emails fail with
// CodeUserNotFound.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (*User, string, error) {
	if email == "" {
		return nil, "", oops.Code(CodeValidation).Errorf("Email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", oops.Code(CodeUserNotFound).Errorf(MsgUserNotFound)
		}
		return nil, "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "GetByEmail").
			Wrap(err)
	}

	token, hash, err := GenerateResetToken()
	if err != nil {
		return nil, "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "GenerateResetToken").
			Wrap(err)
	}

	now := s.now()
	expiresAt := now.Add(ResetTokenExpiry)

	// Only the token fields are written; a reset consumed since the lookup keeps its new hash.
	if err := s.users.SetResetToken(ctx, user.ID, hash, expiresAt, now); err != nil {
		return nil, "", oops.Code("RESET_REQUEST_FAILED").
			With("operation", "SetResetToken").
			With("user_id", user.ID).
			Wrap(err)
	}

	user.SetResetToken(hash, expiresAt)
	user.UpdatedAt = now

	s.logger.InfoContext(ctx, "password reset requested", "user_id", user.ID)
	return user, token, nil
}

// ResetPassword replaces the password of the user holding token.
// The token is consumed by a single conditional update, so it cannot be used
// twice and is rejected once expired.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) (*User, error) {
	if token == "" {
		return nil, oops.Code(CodeInvalidResetToken).Errorf(MsgInvalidResetToken)
	}
	if err := ValidatePassword(newPassword); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "Hash").
			Wrap(err)
	}

	user, err := s.users.ConsumeResetToken(ctx, HashResetToken(token), passwordHash, s.now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeInvalidResetToken).Errorf(MsgInvalidResetToken)
		}
		return nil, oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "ConsumeResetToken").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "password reset completed", "user_id", user.ID)
	return user, nil
}
