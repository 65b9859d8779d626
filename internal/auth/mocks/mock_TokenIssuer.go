// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/thryve/thryve/internal/auth"
)

// MockTokenIssuer is a mock type for the TokenIssuer type
type MockTokenIssuer struct {
	mock.Mock
}

// Issue provides a mock function with given fields: userID
func (_m *MockTokenIssuer) Issue(userID string) (string, error) {
	ret := _m.Called(userID)

	if len(ret) == 0 {
		panic("no return value specified for Issue")
	}

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(string) (string, error)); ok {
		return rf(userID)
	}
	r0 = ret.Get(0).(string)
	r1 = ret.Error(1)

	return r0, r1
}

// Verify provides a mock function with given fields: token
func (_m *MockTokenIssuer) Verify(token string) (*auth.Claims, error) {
	ret := _m.Called(token)

	if len(ret) == 0 {
		panic("no return value specified for Verify")
	}

	var r0 *auth.Claims
	var r1 error
	if rf, ok := ret.Get(0).(func(string) (*auth.Claims, error)); ok {
		return rf(token)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*auth.Claims)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// NewMockTokenIssuer creates a new instance of MockTokenIssuer. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockTokenIssuer(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTokenIssuer {
	m := &MockTokenIssuer{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
