// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

// Package config loads runtime configuration from defaults, an optional YAML
// file, the environment (including .env files) and command-line flags, in that
// order of precedence.
package config

import (
	"strings"
	"time"

	"github.com/samber/oops"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Frontend defaults used to build password reset links.
const (
	DefaultProductionFrontendURL  = "https://thryve-ver2-git-master-kians-projects-0c2bedf0.vercel.app"
	DefaultDevelopmentFrontendURL = "http://localhost:5173"
)

// Config is the complete runtime configuration.
type Config struct {
	Environment string          `koanf:"environment"`
	Version     string          `koanf:"version"`
	Database    DatabaseConfig  `koanf:"database"`
	Auth        AuthConfig      `koanf:"auth"`
	HTTP        HTTPConfig      `koanf:"http"`
	RateLimit   RateLimitConfig `koanf:"ratelimit"`
	Mail        MailConfig      `koanf:"mail"`
	Log         LogConfig       `koanf:"log"`
	Metrics     MetricsConfig   `koanf:"metrics"`
}

// DatabaseConfig selects the store. The URL scheme picks the driver.
type DatabaseConfig struct {
	URL            string        `koanf:"url"`
	Name           string        `koanf:"name"`
	AutoMigrate    bool          `koanf:"auto_migrate"`
	ConnectRetries uint64        `koanf:"connect_retries"`
	ConnectBackoff time.Duration `koanf:"connect_backoff"`
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	Addr              string        `koanf:"addr"`
	FrontendURL       string        `koanf:"frontend_url"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	TrustProxy        bool          `koanf:"trust_proxy"`
}

// RateLimitConfig bounds requests to /api/auth per client address.
type RateLimitConfig struct {
	AuthMax    int           `koanf:"auth_max"`
	AuthWindow time.Duration `koanf:"auth_window"`
}

// MailConfig selects the mail transport.
type MailConfig struct {
	Transport    string     `koanf:"transport"`
	From         string     `koanf:"from"`
	TestEndpoint bool       `koanf:"test_endpoint"`
	SMTP         SMTPConfig `koanf:"smtp"`
	SES          SESConfig  `koanf:"ses"`
}

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// SESConfig holds Amazon SES settings.
type SESConfig struct {
	Region string `koanf:"region"`
}

// LogConfig controls log output.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// MetricsConfig controls the observability listener. An empty address disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// defaults are applied before any other source.
var defaults = map[string]any{
	"environment":              EnvDevelopment,
	"version":                  "0.1.0",
	"database.name":            "thryve",
	"database.auto_migrate":    true,
	"database.connect_retries": 5,
	"database.connect_backoff": "500ms",
	"auth.token_ttl":           "168h",
	"http.addr":                ":3001",
	"http.read_header_timeout": "10s",
	"http.shutdown_timeout":    "10s",
	"http.trust_proxy":         false,
	"ratelimit.auth_max":       100,
	"ratelimit.auth_window":    "15m",
	"mail.transport":           "log",
	"mail.smtp.host":           "smtp.gmail.com",
	"mail.smtp.port":           587,
	"log.format":               "json",
	"log.level":                "info",
	"metrics.addr":             "127.0.0.1:9100",
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, EnvProduction)
}

// FrontendBaseURL returns the base URL reset links point at, without a
// trailing slash. An explicit frontend URL wins. Otherwise production uses the
// hosted deployment and other environments use the first CORS origin or the local
// dev server.
func (c *Config) FrontendBaseURL() string {
	if c.HTTP.FrontendURL != "" {
		return strings.TrimRight(c.HTTP.FrontendURL, "/")
	}
	if c.IsProduction() {
		return DefaultProductionFrontendURL
	}
	for _, origin := range c.HTTP.CORSOrigins {
		if origin != "" && origin != "*" {
			return strings.TrimRight(origin, "/")
		}
	}
	return DefaultDevelopmentFrontendURL
}

// AllowedOrigins returns the CORS allow-list, falling back to the frontend.
func (c *Config) AllowedOrigins() []string {
	if len(c.HTTP.CORSOrigins) > 0 {
		return c.HTTP.CORSOrigins
	}
	return []string{c.FrontendBaseURL()}
}

// Validate checks that required settings are present and enumerations hold
// known values.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return invalid("database.url", "database url is required (DATABASE_URL or MONGO_URI)")
	}
	if c.Auth.JWTSecret == "" {
		return invalid("auth.jwt_secret", "jwt secret is required (JWT_SECRET)")
	}
	if c.Auth.TokenTTL <= 0 {
		return invalid("auth.token_ttl", "token ttl must be positive")
	}
	if c.HTTP.Addr == "" {
		return invalid("http.addr", "http address is required")
	}
	if c.RateLimit.AuthMax <= 0 || c.RateLimit.AuthWindow <= 0 {
		return invalid("ratelimit", "auth rate limit must allow at least one request per positive window")
	}
	switch strings.ToLower(c.Mail.Transport) {
	case "smtp", "ses", "log":
	default:
		return invalid("mail.transport", "mail transport must be 'smtp', 'ses' or 'log', got %q", c.Mail.Transport)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "log format must be 'json' or 'text', got %q", c.Log.Format)
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("field", field).Errorf(format, args...)
}
