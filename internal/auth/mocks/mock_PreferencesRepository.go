// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/thryve/thryve/internal/auth"
)

// MockPreferencesRepository is a mock type for the PreferencesRepository type
type MockPreferencesRepository struct {
	mock.Mock
}

// Create provides a mock function with given fields: ctx, prefs
func (_m *MockPreferencesRepository) Create(ctx context.Context, prefs *auth.Preferences) error {
	ret := _m.Called(ctx, prefs)

	if len(ret) == 0 {
		panic("no return value specified for Create")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *auth.Preferences) error); ok {
		r0 = rf(ctx, prefs)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// GetByUser provides a mock function with given fields: ctx, userID
func (_m *MockPreferencesRepository) GetByUser(ctx context.Context, userID string) (*auth.Preferences, error) {
	ret := _m.Called(ctx, userID)

	if len(ret) == 0 {
		panic("no return value specified for GetByUser")
	}

	var r0 *auth.Preferences
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*auth.Preferences, error)); ok {
		return rf(ctx, userID)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*auth.Preferences)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// NewMockPreferencesRepository creates a new instance of MockPreferencesRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockPreferencesRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPreferencesRepository {
	m := &MockPreferencesRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
