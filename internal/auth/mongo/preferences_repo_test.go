// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/thryve/thryve/internal/auth"
	"github.com/thryve/thryve/pkg/errutil"
)

func TestPreferencesRepository(t *testing.T) {
	mt := newMockT(t)

	mt.Run("creates defaults", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewPreferencesRepository(mt.DB)

		assert.NoError(mt, repo.Create(context.Background(), auth.DefaultPreferences("01HZ")))
	})

	mt.Run("decodes stored preferences", func(mt *mtest.T) {
		ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+PreferencesCollection, mtest.FirstBatch, bson.D{
			{Key: "user_id", Value: "01HZ"},
			{Key: "units", Value: "imperial"},
			{Key: "theme", Value: "dark"},
			{Key: "notifications", Value: true},
			{Key: "daily_calorie_goal", Value: 2200},
			{Key: "daily_water_goal_ml", Value: 2500},
			{Key: "sleep_goal_hours", Value: 7.5},
			{Key: "weekly_workout_goal", Value: 4},
			{Key: "created_at", Value: ts},
			{Key: "updated_at", Value: ts},
		}))
		repo := NewPreferencesRepository(mt.DB)

		prefs, err := repo.GetByUser(context.Background(), "01HZ")
		require.NoError(mt, err)
		assert.Equal(mt, "imperial", prefs.Units)
		assert.Equal(mt, "dark", prefs.Theme)
		assert.True(mt, prefs.Notifications)
		assert.Equal(mt, 2200, prefs.DailyCalorieGoal)
		assert.Equal(mt, 2500, prefs.DailyWaterGoalML)
		assert.InDelta(mt, 7.5, prefs.SleepGoalHours, 0.0001)
		assert.Equal(mt, 4, prefs.WeeklyWorkoutGoal)
	})

	mt.Run("reports missing preferences", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+PreferencesCollection, mtest.FirstBatch))
		repo := NewPreferencesRepository(mt.DB)

		_, err := repo.GetByUser(context.Background(), "missing")
		require.Error(mt, err)
		assert.True(mt, errors.Is(err, auth.ErrNotFound))
		errutil.AssertErrorCode(mt.T, err, "PREFERENCES_NOT_FOUND")
	})
}

func TestEnsureIndexes(t *testing.T) {
	mt := newMockT(t)

	mt.Run("creates both collections' indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())
		assert.NoError(mt, EnsureIndexes(context.Background(), mt.DB))
	})

	mt.Run("reports the failing collection", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    85,
			Message: "index options conflict",
			Name:    "IndexOptionsConflict",
		}))
		err := EnsureIndexes(context.Background(), mt.DB)
		require.Error(mt, err)
		errutil.AssertErrorCode(mt.T, err, "STORE_INDEX_FAILED")
		errutil.AssertErrorContext(mt.T, err, "collection", UsersCollection)
	})
}
