// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package auth

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Password length bounds. bcrypt ignores input past 72 bytes, so longer
// passwords are rejected rather than silently truncated.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// Profile holds the optional biometric fields captured at registration.
type Profile struct {
	Age    *int
	Weight *float64
	Height *float64
}

// User is a registered account.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Age          *int
	Weight       *float64
	Height       *float64

	// ResetTokenHash and ResetTokenExpiresAt are either both set or both nil.
	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser creates a User with a fresh ULID.
// Email is stored as given; lookups are exact matches.
func NewUser(name, email, passwordHash string, profile Profile) (*User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, oops.Code(CodeValidation).Errorf("name is required")
	}
	if email == "" {
		return nil, oops.Code(CodeValidation).Errorf("email is required")
	}
	if passwordHash == "" {
		return nil, oops.Code(CodeValidation).Errorf("password hash is required")
	}

	now := time.Now()
	return &User{
		ID:           ulid.Make().String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Age:          profile.Age,
		Weight:       profile.Weight,
		Height:       profile.Height,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// SetResetToken records a pending reset token hash and its absolute expiry.
func (u *User) SetResetToken(tokenHash string, expiresAt time.Time) {
	u.ResetTokenHash = &tokenHash
	u.ResetTokenExpiresAt = &expiresAt
}

// ClearResetToken removes any pending reset token.
func (u *User) ClearResetToken() {
	u.ResetTokenHash = nil
	u.ResetTokenExpiresAt = nil
}

// HasValidResetToken reports whether tokenHash matches the pending token
// and the token has not expired at now.
func (u *User) HasValidResetToken(tokenHash string, now time.Time) bool {
	if u.ResetTokenHash == nil || u.ResetTokenExpiresAt == nil {
		return false
	}
	return *u.ResetTokenHash == tokenHash && u.ResetTokenExpiresAt.After(now)
}

// ValidatePassword checks plaintext password length: at least
// MinPasswordLength characters and at most MaxPasswordLength bytes.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return oops.Code(CodeValidation).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return oops.Code(CodeValidation).
			Errorf("password must be at most %d bytes", MaxPasswordLength)
	}
	return nil
}

// Default preference values applied at registration.
const (
	DefaultUnits             = "metric"
	DefaultTheme             = "light"
	DefaultCalorieGoal       = 2000
	DefaultWaterGoalML       = 2000
	DefaultSleepGoalHours    = 8.0
	DefaultWeeklyWorkoutGoal = 3
)

// Preferences holds per-user settings. One record per user.
type Preferences struct {
	UserID            string
	Units             string
	Theme             string
	Notifications     bool
	DailyCalorieGoal  int
	DailyWaterGoalML  int
	SleepGoalHours    float64
	WeeklyWorkoutGoal int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DefaultPreferences returns the settings every new user starts with.
func DefaultPreferences(userID string) *Preferences {
	now := time.Now()
	return &Preferences{
		UserID:            userID,
		Units:             DefaultUnits,
		Theme:             DefaultTheme,
		Notifications:     true,
		DailyCalorieGoal:  DefaultCalorieGoal,
		DailyWaterGoalML:  DefaultWaterGoalML,
		SleepGoalHours:    DefaultSleepGoalHours,
		WeeklyWorkoutGoal: DefaultWeeklyWorkoutGoal,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user. Returns an error wrapping ErrDuplicateEmail
	// if the email is already registered.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID. Returns an error wrapping ErrNotFound.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail retrieves a user by exact email. Returns an error wrapping ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update persists all mutable fields of the user.
	Update(ctx context.Context, user *User) error

	// SetResetToken stores a reset token hash and expiry on the user without
	// writing any other field. Returns an error wrapping ErrNotFound when no
	// user has the id.
	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt, updatedAt time.Time) error

	// ConsumeResetToken atomically replaces the password hash of the user whose
	// reset token hash equals tokenHash and whose expiry is after now, clearing
	// the reset token. Returns the updated user, or an error wrapping
	// ErrNotFound when no user matched.
	ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*User, error)
}

// PreferencesRepository manages per-user preferences.
type PreferencesRepository interface {
	// Create stores preferences for a user.
	Create(ctx context.Context, prefs *Preferences) error

	// GetByUser retrieves preferences. Returns an error wrapping ErrNotFound.
	GetByUser(ctx context.Context, userID string) (*Preferences, error)
}
