// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

// Package store opens the credential store selected by the database URL.
package store

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/thryve/thryve/internal/auth"
	authmongo "github.com/thryve/thryve/internal/auth/mongo"
	authpg "github.com/thryve/thryve/internal/auth/postgres"
)

// Driver identifies a storage backend.
type Driver string

// Supported drivers.
const (
	DriverPostgres Driver = "postgres"
	DriverMongo    Driver = "mongo"
)

// Connection defaults.
const (
	DefaultConnectRetries   = 5
	DefaultConnectBackoff   = 500 * time.Millisecond
	mongoSelectionTimeout   = 5 * time.Second
	mongoMaxPoolSize        = 10
	mongoMinPoolSize        = 5
	DefaultMongoDatabase    = "thryve"
	defaultPingTimeout      = 2 * time.Second
	defaultDisconnectWindow = 5 * time.Second
)

// DetectDriver picks the driver from the URL scheme.
func DetectDriver(url string) (Driver, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres, nil
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return DriverMongo, nil
	case url == "":
		return "", oops.Code("STORE_CONFIG_INVALID").Errorf("database url is required")
	default:
		scheme, _, _ := strings.Cut(url, "://")
		return "", oops.Code("STORE_CONFIG_INVALID").
			With("scheme", scheme).
			Errorf("unsupported database url scheme")
	}
}

// Options configures Open.
type Options struct {
	URL string
	// Database names the MongoDB database. Ignored for PostgreSQL.
	Database string
	// AutoMigrate applies pending PostgreSQL migrations (or MongoDB indexes) on open.
	AutoMigrate bool
	// ConnectRetries bounds startup connection attempts after the first.
	ConnectRetries uint64
	// ConnectBackoff is the base of the exponential backoff between attempts.
	ConnectBackoff time.Duration
}

// Backend bundles the repositories of one storage driver.
type Backend struct {
	Driver      Driver
	Users       auth.UserRepository
	Preferences auth.PreferencesRepository

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping checks the backend is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := b.ping(ctx); err != nil {
		return oops.Code("STORE_PING_FAILED").With("driver", string(b.Driver)).Wrap(err)
	}
	return nil
}

// Close releases the connection pool.
func (b *Backend) Close(ctx context.Context) error {
	if b.close == nil {
		return nil
	}
	return b.close(ctx)
}

// Open connects to the database named by opts.URL, retrying with exponential
// backoff while it is unreachable.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver, err := DetectDriver(opts.URL)
	if err != nil {
		return nil, err
	}
	if opts.ConnectRetries == 0 {
		opts.ConnectRetries = DefaultConnectRetries
	}
	if opts.ConnectBackoff <= 0 {
		opts.ConnectBackoff = DefaultConnectBackoff
	}

	switch driver {
	case DriverPostgres:
		return openPostgres(ctx, opts, logger)
	default:
		return openMongo(ctx, opts, logger)
	}
}

func connectBackoff(opts Options) retry.Backoff {
	return retry.WithMaxRetries(opts.ConnectRetries, retry.NewExponential(opts.ConnectBackoff))
}

func openPostgres(ctx context.Context, opts Options, logger *slog.Logger) (*Backend, error) {
	pool, err := pgxpool.New(ctx, opts.URL)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").With("driver", string(DriverPostgres)).Wrap(err)
	}

	attempt := 0
	err = retry.Do(ctx, connectBackoff(opts), func(ctx context.Context) error {
		attempt++
		if pingErr := pool.Ping(ctx); pingErr != nil {
			logger.WarnContext(ctx, "database not reachable, retrying",
				"driver", DriverPostgres, "attempt", attempt, "error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("driver", string(DriverPostgres)).
			With("attempts", attempt).
			Wrap(err)
	}

	if opts.AutoMigrate {
		if err := migratePostgres(opts.URL, logger); err != nil {
			pool.Close()
			return nil, err
		}
	}

	logger.InfoContext(ctx, "connected to database", "driver", DriverPostgres)
	return &Backend{
		Driver:      DriverPostgres,
		Users:       authpg.NewUserRepository(pool),
		Preferences: authpg.NewPreferencesRepository(pool),
		ping:        pool.Ping,
		close: func(context.Context) error {
			pool.Close()
			return nil
		},
	}, nil
}

func migratePostgres(url string, logger *slog.Logger) error {
	migrator, err := NewMigrator(url)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return err
	}
	version, _, err := migrator.Version()
	if err != nil {
		return err
	}
	logger.Info("database schema up to date", "version", version)
	return nil
}

func openMongo(ctx context.Context, opts Options, logger *slog.Logger) (*Backend, error) {
	clientOpts := options.Client().
		ApplyURI(opts.URL).
		SetServerSelectionTimeout(mongoSelectionTimeout).
		SetMaxPoolSize(mongoMaxPoolSize).
		SetMinPoolSize(mongoMinPoolSize)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").With("driver", string(DriverMongo)).Wrap(err)
	}

	attempt := 0
	err = retry.Do(ctx, connectBackoff(opts), func(ctx context.Context) error {
		attempt++
		if pingErr := client.Ping(ctx, readpref.Primary()); pingErr != nil {
			logger.WarnContext(ctx, "database not reachable, retrying",
				"driver", DriverMongo, "attempt", attempt, "error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx)) //nolint:errcheck // connect error takes precedence
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("driver", string(DriverMongo)).
			With("attempts", attempt).
			Wrap(err)
	}

	name := opts.Database
	if name == "" {
		name = DefaultMongoDatabase
	}
	db := client.Database(name)

	if opts.AutoMigrate {
		if err := authmongo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.WithoutCancel(ctx)) //nolint:errcheck // index error takes precedence
			return nil, err
		}
	}

	logger.InfoContext(ctx, "connected to database", "driver", DriverMongo, "database", name)
	return &Backend{
		Driver:      DriverMongo,
		Users:       authmongo.NewUserRepository(db),
		Preferences: authmongo.NewPreferencesRepository(db),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultDisconnectWindow)
			defer cancel()
			if err := client.Disconnect(ctx); err != nil {
				return oops.Code("STORE_CLOSE_FAILED").With("driver", string(DriverMongo)).Wrap(err)
			}
			return nil
		},
	}, nil
}

// NewBackend wraps existing repositories, for tests and embedding.
func NewBackend(driver Driver, users auth.UserRepository, prefs auth.PreferencesRepository, ping func(context.Context) error) *Backend {
	if ping == nil {
		ping = func(context.Context) error { return nil }
	}
	return &Backend{Driver: driver, Users: users, Preferences: prefs, ping: ping}
}
