// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/samber/oops"

	"github.com/thryve/thryve/internal/auth"
	"github.com/thryve/thryve/internal/notify"
	"github.com/thryve/thryve/pkg/errutil"
)

// Auth event labels.
const (
	eventRegister      = "register"
	eventLogin         = "login"
	eventResetRequest  = "reset_request"
	eventResetComplete = "reset_complete"
)

func (s *Server) recordAuth(event string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	s.deps.Metrics.RecordAuthEvent(event, result)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) (err error) {
	defer func() { s.recordAuth(eventRegister, err) }()

	var req registerRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}

	user, token, err := s.deps.Auth.Register(r.Context(), auth.RegisterInput{
		Name:     strings.TrimSpace(req.Name),
		Email:    req.Email,
		Password: req.Password,
		Profile:  auth.Profile{Age: req.Age, Weight: req.Weight, Height: req.Height},
	})
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Token: token,
		User:  registeredUser{ID: user.ID, Name: user.Name, Email: user.Email},
	})
	return nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) (err error) {
	defer func() { s.recordAuth(eventLogin, err) }()

	var req loginRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}

	user, token, err := s.deps.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: newUserResponse(user)})
	return nil
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) error {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		return oops.Code(auth.CodeMissingToken).Errorf("no authenticated user on request")
	}

	user, err := s.deps.Auth.GetUser(r.Context(), userID)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, meResponse{User: newUserResponse(user)})
	return nil
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) (err error) {
	defer func() { s.recordAuth(eventResetRequest, err) }()

	var req emailRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}

	user, token, err := s.deps.Resets.RequestReset(r.Context(), req.Email)
	if err != nil {
		return err
	}

	body, err := notify.RenderResetEmail(user.Name, s.resetLink(token))
	if err != nil {
		return err
	}

	receipt, err := s.deps.Mailer.Send(r.Context(), user.Email, notify.ResetSubject, body)
	if err != nil {
		s.deps.Metrics.RecordMail(transportOf(err), "failure")
		return err
	}
	s.deps.Metrics.RecordMail(receipt.Transport, "success")

	s.logger.InfoContext(r.Context(), "password reset email sent",
		"user_id", user.ID,
		"message_id", receipt.MessageID,
		"transport", receipt.Transport,
	)
	writeJSON(w, http.StatusOK, messageResponse{Message: MsgResetSent})
	return nil
}

func (s *Server) resetLink(token string) string {
	return strings.TrimRight(s.opts.FrontendURL, "/") + "/reset-password/" + token
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) (err error) {
	defer func() { s.recordAuth(eventResetComplete, err) }()

	var req resetPasswordRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}

	user, err := s.deps.Resets.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		return err
	}

	s.logger.InfoContext(r.Context(), "password reset completed", "user_id", user.ID)
	writeJSON(w, http.StatusOK, messageResponse{Message: MsgResetDone})
	return nil
}

// handleTestEmail sends a fixed message to check mail delivery end to end.
func (s *Server) handleTestEmail(w http.ResponseWriter, r *http.Request) error {
	var req emailRequest
	if err := s.decode(w, r, &req); err != nil {
		return err
	}

	body, err := notify.RenderTestEmail(s.now())
	if err != nil {
		return err
	}

	receipt, err := s.deps.Mailer.Send(r.Context(), req.Email, notify.TestSubject, body)
	if err != nil {
		s.deps.Metrics.RecordMail(transportOf(err), "failure")
		errutil.LogErrorContext(r.Context(), s.logger, "test email failed", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: MsgTestFailed})
		return nil
	}
	s.deps.Metrics.RecordMail(receipt.Transport, "success")

	writeJSON(w, http.StatusOK, messageResponse{Message: MsgTestSent})
	return nil
}

// transportOf reads the transport recorded on a delivery error.
func transportOf(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if transport, ok := oopsErr.Context()["transport"].(string); ok {
			return transport
		}
	}
	return "unknown"
}
