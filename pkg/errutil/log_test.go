// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package errutil_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thryve/thryve/pkg/errutil"
)

func TestCode(t *testing.T) {
	t.Run("nil error has no code", func(t *testing.T) {
		assert.Empty(t, errutil.Code(nil))
	})

	t.Run("plain error has no code", func(t *testing.T) {
		assert.Empty(t, errutil.Code(errors.New("boom")))
	})

	t.Run("returns code of oops error", func(t *testing.T) {
		err := oops.Code("USER_NOT_FOUND").Errorf("User not found")
		assert.Equal(t, "USER_NOT_FOUND", errutil.Code(err))
	})

	t.Run("wrapping without a code keeps the inner code", func(t *testing.T) {
		inner := oops.Code("AUTH_DUPLICATE_EMAIL").Errorf("Email already exists")
		err := oops.With("operation", "register").Wrap(inner)
		assert.Equal(t, "AUTH_DUPLICATE_EMAIL", errutil.Code(err))
	})
}

func TestLogError_WithOopsError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("MAIL_DELIVERY_FAILED").
		With("transport", "smtp").
		Errorf("dial tcp: connection refused")

	errutil.LogError(logger, "send reset email", err)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Equal(t, "send reset email", logEntry["msg"])
	assert.Equal(t, "MAIL_DELIVERY_FAILED", logEntry["code"])
	assert.Contains(t, logEntry, "context")
}

func TestLogError_WithStandardError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	errutil.LogError(logger, "operation failed", errors.New("standard error"))

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "ERROR", logEntry["level"])
	assert.Contains(t, logEntry["error"], "standard error")
	assert.NotContains(t, logEntry, "code")
}
