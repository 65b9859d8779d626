// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/thryve/thryve/internal/auth"
)

// PreferencesRepository implements auth.PreferencesRepository using PostgreSQL.
type PreferencesRepository struct {
	pool poolIface
}

// NewPreferencesRepository creates a new PreferencesRepository.
func NewPreferencesRepository(pool poolIface) *PreferencesRepository {
	return &PreferencesRepository{pool: pool}
}

// Create stores preferences for a user.
func (r *PreferencesRepository) Create(ctx context.Context, prefs *auth.Preferences) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO preferences (
			user_id, units, theme, notifications, daily_calorie_goal,
			daily_water_goal_ml, sleep_goal_hours, weekly_workout_goal,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		prefs.UserID,
		prefs.Units,
		prefs.Theme,
		prefs.Notifications,
		prefs.DailyCalorieGoal,
		prefs.DailyWaterGoalML,
		prefs.SleepGoalHours,
		prefs.WeeklyWorkoutGoal,
		prefs.CreatedAt,
		prefs.UpdatedAt,
	)
	if err != nil {
		return oops.Code("PREFERENCES_CREATE_FAILED").
			With("user_id", prefs.UserID).
			Wrap(err)
	}
	return nil
}

// GetByUser retrieves preferences for a user.
func (r *PreferencesRepository) GetByUser(ctx context.Context, userID string) (*auth.Preferences, error) {
	var p auth.Preferences
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, units, theme, notifications, daily_calorie_goal,
			daily_water_goal_ml, sleep_goal_hours, weekly_workout_goal,
			created_at, updated_at
		FROM preferences WHERE user_id = $1
	`, userID).Scan(
		&p.UserID,
		&p.Units,
		&p.Theme,
		&p.Notifications,
		&p.DailyCalorieGoal,
		&p.DailyWaterGoalML,
		&p.SleepGoalHours,
		&p.WeeklyWorkoutGoal,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PREFERENCES_NOT_FOUND").
			With("user_id", userID).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PREFERENCES_GET_FAILED").
			With("user_id", userID).
			Wrap(err)
	}
	return &p, nil
}

var _ auth.PreferencesRepository = (*PreferencesRepository)(nil)
