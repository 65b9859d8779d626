// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

// Package web exposes the authentication flow over HTTP with chi.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/samber/oops"

	"github.com/thryve/thryve/internal/auth"
	"github.com/thryve/thryve/internal/notify"
	"github.com/thryve/thryve/internal/observability"
)

// Authenticator is the account side of the auth flow.
type Authenticator interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.User, string, error)
	Login(ctx context.Context, email, password string) (*auth.User, string, error)
	GetUser(ctx context.Context, id string) (*auth.User, error)
	Preferences(ctx context.Context, userID string) (*auth.Preferences, error)
}

// PasswordResetter is the credential recovery side of the auth flow.
type PasswordResetter interface {
	RequestReset(ctx context.Context, email string) (*auth.User, string, error)
	ResetPassword(ctx context.Context, token, newPassword string) (*auth.User, error)
}

// Options configures routing and responses.
type Options struct {
	Environment string
	Version     string

	// FrontendURL is the base of password reset links.
	FrontendURL string

	AllowedOrigins []string

	// TrustProxy takes the client address from X-Forwarded-For, X-Real-IP and
	// True-Client-IP. Leave it off unless a proxy in front sets those headers.
	TrustProxy bool

	// TestEmailEndpoint mounts POST /api/auth/test-email.
	TestEmailEndpoint bool
}

// Deps are the collaborators the server calls.
type Deps struct {
	Auth    Authenticator
	Resets  PasswordResetter
	Tokens  auth.TokenIssuer
	Mailer  notify.Mailer
	Limiter *RateLimiter                // optional: no rate limit when nil
	Metrics *observability.Metrics      // optional
	Ping    func(context.Context) error // optional: database status for /api/health
	Logger  *slog.Logger
	Now     func() time.Time
}

// Server holds the HTTP handlers.
type Server struct {
	opts      Options
	deps      Deps
	logger    *slog.Logger
	validator *requestValidator
	now       func() time.Time
	started   time.Time
}

// NewServer validates deps and builds a Server.
func NewServer(opts Options, deps Deps) (*Server, error) {
	switch {
	case deps.Auth == nil:
		return nil, oops.Code("WEB_CONFIG_INVALID").Errorf("auth service is required")
	case deps.Resets == nil:
		return nil, oops.Code("WEB_CONFIG_INVALID").Errorf("password reset service is required")
	case deps.Tokens == nil:
		return nil, oops.Code("WEB_CONFIG_INVALID").Errorf("token issuer is required")
	case deps.Mailer == nil:
		return nil, oops.Code("WEB_CONFIG_INVALID").Errorf("mailer is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	if opts.Environment == "" {
		opts.Environment = "development"
	}
	return &Server{
		opts:      opts,
		deps:      deps,
		logger:    logger,
		validator: newRequestValidator(),
		now:       now,
		started:   now(),
	}, nil
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if s.opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(RequestLogger(s.logger, s.deps.Metrics))
	r.Use(Recoverer(s.logger))
	r.Use(SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
	})

	authenticate := Authenticate(s.deps.Tokens, s.logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)

		r.Route("/auth", func(r chi.Router) {
			if s.deps.Limiter != nil {
				r.Use(RateLimit(s.deps.Limiter, s.deps.Metrics, s.logger))
			}
			r.Post("/register", s.handle(s.handleRegister))
			r.Post("/login", s.handle(s.handleLogin))
			r.With(authenticate).Get("/me", s.handle(s.handleMe))
			r.Post("/forgot-password", s.handle(s.handleForgotPassword))
			r.Post("/reset-password/{token}", s.handle(s.handleResetPassword))
			if s.opts.TestEmailEndpoint {
				r.Post("/test-email", s.handle(s.handleTestEmail))
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/preferences", s.handle(s.handlePreferences))
		})
	})

	return r
}

// handlerFunc is a handler that reports failures as errors.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Server) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			writeError(w, r, s.logger, err)
		}
	}
}

// decode reads and validates a request body.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil {
		return err
	}
	return s.validator.Struct(dst)
}
