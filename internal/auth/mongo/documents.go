// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

// Package mongo provides MongoDB implementations of the auth repositories.
package mongo

import (
	"time"

	"github.com/thryve/thryve/internal/auth"
)

// Collection names.
const (
	UsersCollection       = "users"
	PreferencesCollection = "preferences"
)

// userDocument is the stored shape of a user.
type userDocument struct {
	ID                  string     `bson:"_id"`
	Name                string     `bson:"name"`
	Email               string     `bson:"email"`
	PasswordHash        string     `bson:"password_hash"`
	Age                 *int       `bson:"age,omitempty"`
	Weight              *float64   `bson:"weight,omitempty"`
	Height              *float64   `bson:"height,omitempty"`
	ResetTokenHash      *string    `bson:"reset_token_hash,omitempty"`
	ResetTokenExpiresAt *time.Time `bson:"reset_token_expires_at,omitempty"`
	CreatedAt           time.Time  `bson:"created_at"`
	UpdatedAt           time.Time  `bson:"updated_at"`
}

func newUserDocument(u *auth.User) userDocument {
	return userDocument{
		ID:                  u.ID,
		Name:                u.Name,
		Email:               u.Email,
		PasswordHash:        u.PasswordHash,
		Age:                 u.Age,
		Weight:              u.Weight,
		Height:              u.Height,
		ResetTokenHash:      u.ResetTokenHash,
		ResetTokenExpiresAt: u.ResetTokenExpiresAt,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

func (d userDocument) toUser() *auth.User {
	return &auth.User{
		ID:                  d.ID,
		Name:                d.Name,
		Email:               d.Email,
		PasswordHash:        d.PasswordHash,
		Age:                 d.Age,
		Weight:              d.Weight,
		Height:              d.Height,
		ResetTokenHash:      d.ResetTokenHash,
		ResetTokenExpiresAt: d.ResetTokenExpiresAt,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

// preferencesDocument is the stored shape of user preferences.
type preferencesDocument struct {
	UserID            string    `bson:"user_id"`
	Units             string    `bson:"units"`
	Theme             string    `bson:"theme"`
	Notifications     bool      `bson:"notifications"`
	DailyCalorieGoal  int       `bson:"daily_calorie_goal"`
	DailyWaterGoalML  int       `bson:"daily_water_goal_ml"`
	SleepGoalHours    float64   `bson:"sleep_goal_hours"`
	WeeklyWorkoutGoal int       `bson:"weekly_workout_goal"`
	CreatedAt         time.Time `bson:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at"`
}

func newPreferencesDocument(p *auth.Preferences) preferencesDocument {
	return preferencesDocument{
		UserID:            p.UserID,
		Units:             p.Units,
		Theme:             p.Theme,
		Notifications:     p.Notifications,
		DailyCalorieGoal:  p.DailyCalorieGoal,
		DailyWaterGoalML:  p.DailyWaterGoalML,
		SleepGoalHours:    p.SleepGoalHours,
		WeeklyWorkoutGoal: p.WeeklyWorkoutGoal,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func (d preferencesDocument) toPreferences() *auth.Preferences {
	return &auth.Preferences{
		UserID:            d.UserID,
		Units:             d.Units,
		Theme:             d.Theme,
		Notifications:     d.Notifications,
		DailyCalorieGoal:  d.DailyCalorieGoal,
		DailyWaterGoalML:  d.DailyWaterGoalML,
		SleepGoalHours:    d.SleepGoalHours,
		WeeklyWorkoutGoal: d.WeeklyWorkoutGoal,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}
