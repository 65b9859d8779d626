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

func newMockT(t *testing.T) *mtest.T {
	t.Helper()
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func usersNS(mt *mtest.T) string {
	return mt.DB.Name() + "." + UsersCollection
}

func userDoc(id, email string, extra ...bson.E) bson.D {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "Ada"},
		{Key: "email", Value: email},
		{Key: "password_hash", Value: "hash"},
		{Key: "created_at", Value: created},
		{Key: "updated_at", Value: created},
	}
	return append(doc, extra...)
}

func TestUserRepository_Create(t *testing.T) {
	mt := newMockT(t)

	mt.Run("inserts the user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewUserRepository(mt.DB)

		user, err := auth.NewUser("Ada", "ada@example.com", "hash", auth.Profile{})
		require.NoError(mt, err)
		assert.NoError(mt, repo.Create(context.Background(), user))
	})

	mt.Run("maps duplicate key to ErrDuplicateEmail", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: users index: users_email_key",
		}))
		repo := NewUserRepository(mt.DB)

		user, err := auth.NewUser("Ada", "ada@example.com", "hash", auth.Profile{})
		require.NoError(mt, err)
		err = repo.Create(context.Background(), user)
		require.Error(mt, err)
		assert.True(mt, errors.Is(err, auth.ErrDuplicateEmail))
		errutil.AssertErrorCode(mt.T, err, "USER_CREATE_FAILED")
	})

	mt.Run("wraps other write errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    121,
			Message: "Document failed validation",
		}))
		repo := NewUserRepository(mt.DB)

		user, err := auth.NewUser("Ada", "ada@example.com", "hash", auth.Profile{})
		require.NoError(mt, err)
		err = repo.Create(context.Background(), user)
		require.Error(mt, err)
		assert.False(mt, errors.Is(err, auth.ErrDuplicateEmail))
		errutil.AssertErrorCode(mt.T, err, "USER_CREATE_FAILED")
	})
}

func TestUserRepository_GetByEmail(t *testing.T) {
	mt := newMockT(t)

	mt.Run("decodes the stored user", func(mt *mtest.T) {
		expires := time.Date(2026, 1, 2, 4, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS(mt), mtest.FirstBatch,
			userDoc("01HZ", "ada@example.com",
				bson.E{Key: "age", Value: 36},
				bson.E{Key: "weight", Value: 60.5},
				bson.E{Key: "reset_token_hash", Value: "abc"},
				bson.E{Key: "reset_token_expires_at", Value: expires},
			)))
		repo := NewUserRepository(mt.DB)

		user, err := repo.GetByEmail(context.Background(), "ada@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, "01HZ", user.ID)
		assert.Equal(mt, "ada@example.com", user.Email)
		require.NotNil(mt, user.Age)
		assert.Equal(mt, 36, *user.Age)
		require.NotNil(mt, user.Weight)
		assert.InDelta(mt, 60.5, *user.Weight, 0.0001)
		assert.Nil(mt, user.Height)
		require.NotNil(mt, user.ResetTokenHash)
		assert.Equal(mt, "abc", *user.ResetTokenHash)
		require.NotNil(mt, user.ResetTokenExpiresAt)
		assert.True(mt, expires.Equal(*user.ResetTokenExpiresAt))
	})

	mt.Run("maps an empty result to ErrNotFound", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS(mt), mtest.FirstBatch))
		repo := NewUserRepository(mt.DB)

		_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
		require.Error(mt, err)
		assert.True(mt, errors.Is(err, auth.ErrNotFound))
		errutil.AssertErrorCode(mt.T, err, "USER_NOT_FOUND")
	})

	mt.Run("wraps command errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad query",
			Name:    "BadValue",
		}))
		repo := NewUserRepository(mt.DB)

		_, err := repo.GetByEmail(context.Background(), "ada@example.com")
		require.Error(mt, err)
		assert.False(mt, errors.Is(err, auth.ErrNotFound))
		errutil.AssertErrorCode(mt.T, err, "USER_GET_BY_EMAIL_FAILED")
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	mt := newMockT(t)

	mt.Run("finds by id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS(mt), mtest.FirstBatch,
			userDoc("01HZ", "ada@example.com")))
		repo := NewUserRepository(mt.DB)

		user, err := repo.GetByID(context.Background(), "01HZ")
		require.NoError(mt, err)
		assert.Equal(mt, "Ada", user.Name)
		assert.Nil(mt, user.ResetTokenHash)
	})

	mt.Run("reports missing users", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, usersNS(mt), mtest.FirstBatch))
		repo := NewUserRepository(mt.DB)

		_, err := repo.GetByID(context.Background(), "missing")
		require.Error(mt, err)
		assert.True(mt, errors.Is(err, auth.ErrNotFound))
		errutil.AssertErrorContext(mt.T, err, "id", "missing")
	})
}

func TestUserRepository_Update(t *testing.T) {
	mt := newMockT(t)

	mt.Run("replaces the document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		repo := NewUserRepository(mt.DB)

		user, err := auth.NewUser("Ada", "ada@example.com", "hash", auth.Profile{})
		require.NoError(mt, err)
		assert.NoError(mt, repo.Update(context.Background(), user))
	})

	mt.Run("reports an unmatched id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		repo := NewUserRepository(mt.DB)

		user, err := auth.NewUser("Ada", "ada@example.com", "hash", auth.Profile{})
		require.NoError(mt, err)
		err = repo.Update(context.Background(), user)
		require.Error(mt, err)
		assert.True(mt, errors.Is(err, auth.ErrNotFound))
	})
}

func TestUserRepository_ConsumeResetToken(t *testing.T) {
	mt := newMockT(t)
	now := time.Date(2026, 1, 2, 3, 30, 0, 0, time.UTC)

	mt.Run("returns the updated user", func(mt *mtest.T) {
		updated := userDoc("01HZ", "ada@example.com")
		updated[3] = bson.E{Key: "password_hash", Value: "new-hash"}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: updated}))
		repo := NewUserRepository(mt.DB)

		user, err := repo.ConsumeResetToken(context.Background(), "token-hash", "new-hash", now)
		require.NoError(mt, err)
		assert.Equal(mt, "new-hash", user.PasswordHash)
		assert.Nil(mt, user.ResetTokenHash)
		assert.Nil(mt, user.ResetTokenExpiresAt)
	})

	mt.Run("reports no matching token", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))
		repo := NewUserRepository(mt.DB)

		_, err := repo.ConsumeResetToken(context.Background(), "token-hash", "new-hash", now)
		require.Error(mt, err)
		assert.True(mt, errors.Is(err, auth.ErrNotFound))
		errutil.AssertErrorContext(mt.T, err, "operation", "consume reset token")
	})

	mt.Run("wraps command errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "invalid update",
			Name:    "BadValue",
		}))
		repo := NewUserRepository(mt.DB)

		_, err := repo.ConsumeResetToken(context.Background(), "token-hash", "new-hash", now)
		require.Error(mt, err)
		assert.False(mt, errors.Is(err, auth.ErrNotFound))
		errutil.AssertErrorCode(mt.T, err, "USER_CONSUME_RESET_FAILED")
	})
}

func TestUserRepository_SetResetToken(t *testing.T) {
	mt := newMockT(t)
	now := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	expires := now.Add(time.Hour)

	mt.Run("sets the token fields", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		repo := NewUserRepository(mt.DB)

		require.NoError(mt, repo.SetResetToken(context.Background(), "01HZ", "digest", expires, now))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)
		set := started.Command.Lookup("updates", "0", "u", "$set").Document()
		assert.Equal(mt, "digest", set.Lookup("reset_token_hash").StringValue())
		_, hasPassword := set.Lookup("password_hash").StringValueOK()
		assert.False(mt, hasPassword, "password hash must not be written")
	})

	mt.Run("reports an unmatched id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		repo := NewUserRepository(mt.DB)

		err := repo.SetResetToken(context.Background(), "missing", "digest", expires, now)
		require.Error(mt, err)
		assert.True(mt, errors.Is(err, auth.ErrNotFound))
		errutil.AssertErrorContext(mt.T, err, "user_id", "missing")
	})

	mt.Run("wraps command errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "invalid update",
			Name:    "BadValue",
		}))
		repo := NewUserRepository(mt.DB)

		err := repo.SetResetToken(context.Background(), "01HZ", "digest", expires, now)
		require.Error(mt, err)
		assert.False(mt, errors.Is(err, auth.ErrNotFound))
		errutil.AssertErrorCode(mt.T, err, "USER_SET_RESET_FAILED")
	})
}
