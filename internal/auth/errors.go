// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned by repositories when the email is already registered.
var ErrDuplicateEmail = errors.New("email already exists")

// Error codes surfaced to callers of this package.
const (
	CodeValidation         = "VALIDATION_FAILED"
	CodeDuplicateEmail     = "AUTH_DUPLICATE_EMAIL"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeMissingToken       = "AUTH_MISSING_TOKEN"
	CodeInvalidToken       = "AUTH_INVALID_TOKEN"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeInvalidResetToken  = "AUTH_INVALID_RESET_TOKEN"
)

// User-facing messages. Login deliberately uses one message for unknown
// email and wrong password.
const (
	MsgInvalidCredentials = "Invalid credentials"
	MsgDuplicateEmail     = "Email already exists"
	MsgUserNotFound       = "User not found"
	MsgInvalidResetToken  = "Invalid or expired token"
	MsgUnauthorized       = "Unauthorized"
)
