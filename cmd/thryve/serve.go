// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/thryve/thryve/internal/auth"
	"github.com/thryve/thryve/internal/config"
	"github.com/thryve/thryve/internal/logging"
	"github.com/thryve/thryve/internal/notify"
	"github.com/thryve/thryve/internal/observability"
	"github.com/thryve/thryve/internal/store"
	"github.com/thryve/thryve/internal/web"
)

const serviceName = "thryve"

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API. The database URL scheme selects PostgreSQL or MongoDB;
configuration comes from defaults, --config, the environment and flags.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, nil)
		},
	}

	flags := cmd.Flags()
	flags.String("addr", ":3001", "API listen address")
	flags.String("database-url", "", "postgres:// or mongodb:// connection URL")
	flags.Bool("auto-migrate", true, "apply schema migrations (or MongoDB indexes) at startup")
	flags.String("log-format", "json", "log format (json or text)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("metrics-addr", "127.0.0.1:9100", "metrics/health HTTP address (empty = disabled)")
	flags.String("mail-transport", "log", "mail transport (smtp, ses or log)")
	flags.Bool("test-email", false, "mount POST /api/auth/test-email")

	return cmd
}

// runServeWithDeps starts the API with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, deps *ServeDeps) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.StoreOpener == nil {
		deps.StoreOpener = store.Open
	}
	if deps.MailerFactory == nil {
		deps.MailerFactory = notify.New
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, checker observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, checker, logger)
		}
	}
	if deps.ListenerFactory == nil {
		deps.ListenerFactory = net.Listen
	}
	if deps.LogWriter == nil {
		deps.LogWriter = os.Stderr
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return oops.With("operation", "load configuration").Wrap(err)
	}

	logger := logging.Setup(serviceName, cfg.Version, cfg.Log.Format, cfg.Log.Level, deps.LogWriter)
	slog.SetDefault(logger)

	logger.Info("starting thryve",
		"environment", cfg.Environment,
		"version", cfg.Version,
		"addr", cfg.HTTP.Addr,
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := deps.StoreOpener(ctx, store.Options{
		URL:            cfg.Database.URL,
		Database:       cfg.Database.Name,
		AutoMigrate:    cfg.Database.AutoMigrate,
		ConnectRetries: cfg.Database.ConnectRetries,
		ConnectBackoff: cfg.Database.ConnectBackoff,
	}, logger)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if closeErr := backend.Close(closeCtx); closeErr != nil {
			logger.Warn("error closing database", "error", closeErr)
		}
	}()

	mailer, err := deps.MailerFactory(ctx, notify.Config{
		Transport: cfg.Mail.Transport,
		From:      cfg.Mail.From,
		SMTP: notify.SMTPConfig{
			Host:     cfg.Mail.SMTP.Host,
			Port:     cfg.Mail.SMTP.Port,
			Username: cfg.Mail.SMTP.Username,
			Password: cfg.Mail.SMTP.Password,
		},
		SESRegion: cfg.Mail.SES.Region,
	}, logger)
	if err != nil {
		return oops.With("operation", "create mailer").Wrap(err)
	}
	notify.VerifyOnStartup(ctx, mailer, logger)

	var (
		metrics  *observability.Metrics
		registry prometheus.Registerer
		obsErrCh <-chan error
	)
	if cfg.Metrics.Addr != "" {
		obsServer := deps.ObservabilityServerFactory(cfg.Metrics.Addr, backend.Ping, logger)
		obsErrCh, err = obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			if stopErr := obsServer.Stop(stopCtx); stopErr != nil {
				logger.Warn("error stopping observability server", "error", stopErr)
			}
		}()
		metrics = obsServer.Metrics()
		registry = obsServer.Registry()
	}

	handler, limiter, err := buildAPI(cfg, backend, mailer, metrics, registry, logger)
	if err != nil {
		return err
	}
	defer limiter.Close()

	listener, err := deps.ListenerFactory("tcp", cfg.HTTP.Addr)
	if err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}

	httpSrv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	serveErrCh := make(chan error, 1)
	go func() {
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			serveErrCh <- serveErr
		}
		close(serveErrCh)
	}()

	cmd.Println("Thryve API listening on " + listener.Addr().String())
	logger.Info("api server ready", "addr", listener.Addr().String(), "driver", backend.Driver)
	if deps.Ready != nil {
		deps.Ready(listener.Addr().String())
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case serveErr := <-serveErrCh:
		runErr = oops.Code("HTTP_SERVE_FAILED").Wrap(serveErr)
	case obsErr, ok := <-obsErrCh:
		if ok && obsErr != nil {
			runErr = oops.Code("OBSERVABILITY_SERVE_FAILED").Wrap(obsErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error shutting down api server", "error", err)
	}

	logger.Info("shutdown complete")
	return runErr
}

// buildAPI wires the auth services, mailer and rate limiter into the HTTP handler.
func buildAPI(
	cfg *config.Config,
	backend *store.Backend,
	mailer notify.Mailer,
	metrics *observability.Metrics,
	registry prometheus.Registerer,
	logger *slog.Logger,
) (http.Handler, *web.RateLimiter, error) {
	tokens, err := auth.NewJWTIssuer(cfg.Auth.JWTSecret, auth.WithTTL(cfg.Auth.TokenTTL))
	if err != nil {
		return nil, nil, err
	}
	hasher := auth.NewBcryptHasher()

	authSvc, err := auth.NewAuthServiceWithLogger(backend.Users, backend.Preferences, hasher, tokens, logger)
	if err != nil {
		return nil, nil, oops.With("operation", "create auth service").Wrap(err)
	}
	resets, err := auth.NewPasswordResetServiceWithLogger(backend.Users, hasher, logger)
	if err != nil {
		return nil, nil, oops.With("operation", "create password reset service").Wrap(err)
	}

	limiterCfg := web.RateLimiterConfig{Max: cfg.RateLimit.AuthMax, Window: cfg.RateLimit.AuthWindow}
	var limiter *web.RateLimiter
	if registry != nil {
		limiter = web.NewRateLimiterWithRegistry(limiterCfg, registry)
	} else {
		limiter = web.NewRateLimiter(limiterCfg)
	}

	srv, err := web.NewServer(web.Options{
		Environment:       cfg.Environment,
		Version:           cfg.Version,
		FrontendURL:       cfg.FrontendBaseURL(),
		AllowedOrigins:    cfg.AllowedOrigins(),
		TestEmailEndpoint: cfg.Mail.TestEndpoint,
		TrustProxy:        cfg.HTTP.TrustProxy,
	}, web.Deps{
		Auth:    authSvc,
		Resets:  resets,
		Tokens:  tokens,
		Mailer:  mailer,
		Limiter: limiter,
		Metrics: metrics,
		Ping:    backend.Ping,
		Logger:  logger,
	})
	if err != nil {
		limiter.Close()
		return nil, nil, err
	}
	return srv.Handler(), limiter, nil
}
