// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/thryve/thryve/internal/auth"
)

// UserRepository implements auth.UserRepository using MongoDB.
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a new UserRepository on db's users collection.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(UsersCollection)}
}

// Create stores a new user.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	if _, err := r.coll.InsertOne(ctx, newUserDocument(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return oops.Code("USER_CREATE_FAILED").
				With("operation", "insert user").
				With("user_id", user.ID).
				Wrap(auth.ErrDuplicateEmail)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("user_id", user.ID).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*auth.User, error) {
	user, err := r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").With("id", id).Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by exact email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	user, err := r.findOne(ctx, bson.D{{Key: "email", Value: email}})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").Wrap(err)
	}
	return user, nil
}

// Update replaces the stored user. Nil reset token fields are removed.
func (r *UserRepository) Update(ctx context.Context, user *auth.User) error {
	result, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: user.ID}}, newUserDocument(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return oops.Code("USER_UPDATE_FAILED").
				With("user_id", user.ID).
				Wrap(auth.ErrDuplicateEmail)
		}
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "replace user").
			With("user_id", user.ID).
			Wrap(err)
	}
	if result.MatchedCount == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("user_id", user.ID).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// SetResetToken sets the reset token fields with $set, leaving the rest of the
// document untouched.
func (r *UserRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt, updatedAt time.Time) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "reset_token_hash", Value: tokenHash},
		{Key: "reset_token_expires_at", Value: expiresAt},
		{Key: "updated_at", Value: updatedAt},
	}}}
	result, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: userID}}, update)
	if err != nil {
		return oops.Code("USER_SET_RESET_FAILED").
			With("operation", "set reset token").
			With("user_id", userID).
			Wrap(err)
	}
	if result.MatchedCount == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("user_id", userID).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// ConsumeResetToken matches on token hash and expiry and swaps the password in
// a single findAndModify.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*auth.User, error) {
	filter := bson.D{
		{Key: "reset_token_hash", Value: tokenHash},
		{Key: "reset_token_expires_at", Value: bson.D{{Key: "$gt", Value: now}}},
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "password_hash", Value: passwordHash},
			{Key: "updated_at", Value: now},
		}},
		{Key: "$unset", Value: bson.D{
			{Key: "reset_token_hash", Value: ""},
			{Key: "reset_token_expires_at", Value: ""},
		}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("operation", "consume reset token").
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_CONSUME_RESET_FAILED").
			With("operation", "consume reset token").
			Wrap(err)
	}
	return doc.toUser(), nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.D) (*auth.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context-specific info
	}
	return doc.toUser(), nil
}

var _ auth.UserRepository = (*UserRepository)(nil)
