// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package mongo

import (
	"context"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the repositories rely on. It is idempotent.
// The unique email index is what turns a racing second registration into a
// duplicate key error.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("users_email_key").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "reset_token_hash", Value: 1}},
			Options: options.Index().SetName("idx_users_reset_token_hash").SetSparse(true),
		},
	})
	if err != nil {
		return oops.Code("STORE_INDEX_FAILED").With("collection", UsersCollection).Wrap(err)
	}

	_, err = db.Collection(PreferencesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetName("preferences_user_id_key").SetUnique(true),
	})
	if err != nil {
		return oops.Code("STORE_INDEX_FAILED").With("collection", PreferencesCollection).Wrap(err)
	}
	return nil
}
