// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

// Package auth provides authentication primitives for Thryve.
//
// # Domain Types
//
// Domain types should be created using their constructors:
//   - NewUser - creates a User with a validated name, email and password hash
//   - DefaultPreferences - creates the Preferences every new user starts with
//
// Direct struct initialization bypasses validation and may create invalid state.
// Repository implementations receive pre-validated types from these constructors.
//
// # Services
//
// Service types coordinate domain operations:
//   - Service - registration, login and user lookup
//   - PasswordResetService - forgot-password and reset-password flow
//
// Both depend on a PasswordHasher (bcrypt) and, for Service, a TokenIssuer
// (signed JWT session tokens). Services are created with New*Service
// constructors that validate dependencies.
//
// # Errors
//
// Failures surface as oops errors carrying one of the Code* constants in
// errors.go; the HTTP layer maps those codes to status codes.
package auth
