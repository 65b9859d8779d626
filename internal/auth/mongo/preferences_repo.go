// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package mongo

import (
	"context"
	"errors"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/thryve/thryve/internal/auth"
)

// PreferencesRepository implements auth.PreferencesRepository using MongoDB.
type PreferencesRepository struct {
	coll *mongo.Collection
}

// NewPreferencesRepository creates a new PreferencesRepository.
func NewPreferencesRepository(db *mongo.Database) *PreferencesRepository {
	return &PreferencesRepository{coll: db.Collection(PreferencesCollection)}
}

// Create stores preferences for a user.
func (r *PreferencesRepository) Create(ctx context.Context, prefs *auth.Preferences) error {
	if _, err := r.coll.InsertOne(ctx, newPreferencesDocument(prefs)); err != nil {
		return oops.Code("PREFERENCES_CREATE_FAILED").
			With("user_id", prefs.UserID).
			Wrap(err)
	}
	return nil
}

// GetByUser retrieves preferences for a user.
func (r *PreferencesRepository) GetByUser(ctx context.Context, userID string) (*auth.Preferences, error) {
	var doc preferencesDocument
	err := r.coll.FindOne(ctx, bson.D{{Key: "user_id", Value: userID}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, oops.Code("PREFERENCES_NOT_FOUND").
			With("user_id", userID).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PREFERENCES_GET_FAILED").
			With("user_id", userID).
			Wrap(err)
	}
	return doc.toPreferences(), nil
}

var _ auth.PreferencesRepository = (*PreferencesRepository)(nil)
