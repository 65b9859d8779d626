// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/thryve/thryve/internal/auth"
	"github.com/thryve/thryve/internal/notify"
	"github.com/thryve/thryve/pkg/errutil"
)

// Response messages not owned by the auth package.
const (
	MsgInternal     = "Something went wrong"
	MsgDelivery     = "Failed to send email. Please try again later."
	MsgRateLimited  = "Too many requests, please try again later."
	MsgInvalidBody  = "Invalid request body"
	MsgResetSent    = "Check your email for reset link"
	MsgResetDone    = "Password successfully reset"
	MsgTestSent     = "Test email sent successfully!"
	MsgTestFailed   = "Failed to send test email"
	MsgProtectedOK  = "Protected route OK"
	CodeRateLimited = "RATE_LIMITED"

	maxBodyBytes = 1 << 20
)

// errorMapping is the HTTP rendering of one error code. An empty message
// means the error's own message is shown.
type errorMapping struct {
	status  int
	message string
}

var errorMappings = map[string]errorMapping{
	auth.CodeValidation:         {status: http.StatusBadRequest},
	auth.CodeDuplicateEmail:     {status: http.StatusBadRequest, message: auth.MsgDuplicateEmail},
	auth.CodeInvalidCredentials: {status: http.StatusUnauthorized, message: auth.MsgInvalidCredentials},
	auth.CodeMissingToken:       {status: http.StatusUnauthorized, message: auth.MsgUnauthorized},
	auth.CodeInvalidToken:       {status: http.StatusUnauthorized, message: auth.MsgUnauthorized},
	auth.CodeUserNotFound:       {status: http.StatusNotFound, message: auth.MsgUserNotFound},
	auth.CodeInvalidResetToken:  {status: http.StatusBadRequest, message: auth.MsgInvalidResetToken},
	notify.CodeDeliveryFailed:   {status: http.StatusInternalServerError, message: MsgDelivery},
	CodeRateLimited:             {status: http.StatusTooManyRequests, message: MsgRateLimited},
}

// statusFor returns the status and client message for err.
func statusFor(err error) (int, string) {
	mapping, ok := errorMappings[errutil.Code(err)]
	if !ok {
		return http.StatusInternalServerError, MsgInternal
	}
	if mapping.message != "" {
		return mapping.status, mapping.message
	}
	return mapping.status, err.Error()
}

// writeError renders err as {"error": message}. Server errors are logged with
// their full oops context; client errors only at debug level.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		errutil.LogErrorContext(r.Context(), logger, "request failed", err)
	} else {
		logger.DebugContext(r.Context(), "request rejected",
			"status", status,
			"code", errutil.Code(err),
			"route", routePattern(r),
		)
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // client may disconnect mid-response
	json.NewEncoder(w).Encode(body)
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst zero so
// validation reports the missing fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return oops.Code(auth.CodeValidation).With("cause", err.Error()).Errorf(MsgInvalidBody)
	}
	return nil
}
