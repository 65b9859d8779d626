// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// EnvPrefix marks structured environment variables: THRYVE_HTTP__ADDR maps to
// http.addr.
const EnvPrefix = "THRYVE_"

// legacyEnv maps the flat variable names deployments already use.
var legacyEnv = map[string]string{
	"NODE_ENV":        "environment",
	"DATABASE_URL":    "database.url",
	"MONGO_URI":       "database.url",
	"MONGODB_URI":     "database.url",
	"JWT_SECRET":      "auth.jwt_secret",
	"PORT":            "http.addr",
	"FRONTEND_URL":    "http.frontend_url",
	"FRONTEND_ORIGIN": "http.cors_origins",
	"EMAIL_USER":      "mail.smtp.username",
	"EMAIL_PASS":      "mail.smtp.password",
	"SMTP_HOST":       "mail.smtp.host",
	"SMTP_PORT":       "mail.smtp.port",
	"MAIL_TRANSPORT":  "mail.transport",
	"MAIL_FROM":       "mail.from",
	"AWS_REGION":      "mail.ses.region",
	"LOG_FORMAT":      "log.format",
	"LOG_LEVEL":       "log.level",
	"METRICS_ADDR":    "metrics.addr",
	"TRUST_PROXY":     "http.trust_proxy",
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"addr":           "http.addr",
	"database-url":   "database.url",
	"auto-migrate":   "database.auto_migrate",
	"log-format":     "log.format",
	"log-level":      "log.level",
	"metrics-addr":   "metrics.addr",
	"mail-transport": "mail.transport",
	"test-email":     "mail.test_endpoint",
}

// LoadOptions names the sources Load reads besides defaults and the environment.
type LoadOptions struct {
	// ConfigFile is an optional YAML file.
	ConfigFile string
	// EnvFiles are dotenv files loaded into the process environment. Missing
	// files are ignored; existing variables are never overridden.
	EnvFiles []string
	// Flags overrides settings with any flags the user set explicitly.
	Flags *pflag.FlagSet
}

// Load assembles the configuration. It does not validate; call Validate.
func Load(opts LoadOptions) (*Config, error) {
	if err := loadDotEnv(opts.EnvFiles); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("key", key).Wrap(err)
		}
	}

	if opts.ConfigFile != "" {
		if err := k.Load(file.Provider(opts.ConfigFile), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("file", opts.ConfigFile).Wrap(err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "environment").Wrap(err)
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal").Wrap(err)
	}
	return &cfg, nil
}

func loadDotEnv(files []string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return oops.Code("CONFIG_LOAD_FAILED").With("file", f).Wrap(err)
		}
	}
	return nil
}

// envKey maps one environment variable to a config key. Unknown variables map
// to "" and are skipped.
func envKey(name, value string) (string, any) {
	if strings.HasPrefix(name, EnvPrefix) {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), "__", ".")
		if key == "http.cors_origins" {
			return key, splitList(value)
		}
		return key, value
	}
	key, ok := legacyEnv[name]
	if !ok || value == "" {
		return "", nil
	}
	switch name {
	case "PORT":
		if !strings.Contains(value, ":") {
			value = ":" + value
		}
	case "FRONTEND_ORIGIN":
		return key, splitList(value)
	}
	return key, value
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
