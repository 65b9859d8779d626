// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/thryve/thryve/internal/auth"
)

// MockUserRepository is a mock type for the UserRepository type
type MockUserRepository struct {
	mock.Mock
}

// Create provides a mock function with given fields: ctx, user
func (_m *MockUserRepository) Create(ctx context.Context, user *auth.User) error {
	ret := _m.Called(ctx, user)

	if len(ret) == 0 {
		panic("no return value specified for Create")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *auth.User) error); ok {
		r0 = rf(ctx, user)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// GetByID provides a mock function with given fields: ctx, id
func (_m *MockUserRepository) GetByID(ctx context.Context, id string) (*auth.User, error) {
	ret := _m.Called(ctx, id)

	if len(ret) == 0 {
		panic("no return value specified for GetByID")
	}

	var r0 *auth.User
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*auth.User, error)); ok {
		return rf(ctx, id)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*auth.User)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// GetByEmail provides a mock function with given fields: ctx, email
func (_m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	ret := _m.Called(ctx, email)

	if len(ret) == 0 {
		panic("no return value specified for GetByEmail")
	}

	var r0 *auth.User
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*auth.User, error)); ok {
		return rf(ctx, email)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*auth.User)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// Update provides a mock function with given fields: ctx, user
func (_m *MockUserRepository) Update(ctx context.Context, user *auth.User) error {
	ret := _m.Called(ctx, user)

	if len(ret) == 0 {
		panic("no return value specified for Update")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *auth.User) error); ok {
		r0 = rf(ctx, user)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// SetResetToken provides a mock function with given fields: ctx, userID, tokenHash, expiresAt, updatedAt
func (_m *MockUserRepository) SetResetToken(ctx context.Context, userID string, tokenHash string, expiresAt time.Time, updatedAt time.Time) error {
	ret := _m.Called(ctx, userID, tokenHash, expiresAt, updatedAt)

	if len(ret) == 0 {
		panic("no return value specified for SetResetToken")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string, time.Time, time.Time) error); ok {
		r0 = rf(ctx, userID, tokenHash, expiresAt, updatedAt)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// ConsumeResetToken provides a mock function with given fields: ctx, tokenHash, passwordHash, now
func (_m *MockUserRepository) ConsumeResetToken(ctx context.Context, tokenHash string, passwordHash string, now time.Time) (*auth.User, error) {
	ret := _m.Called(ctx, tokenHash, passwordHash, now)

	if len(ret) == 0 {
		panic("no return value specified for ConsumeResetToken")
	}

	var r0 *auth.User
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string, time.Time) (*auth.User, error)); ok {
		return rf(ctx, tokenHash, passwordHash, now)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*auth.User)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// NewMockUserRepository creates a new instance of MockUserRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
