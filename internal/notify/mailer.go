// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

// Package notify delivers transactional email through a transport chosen at
// startup: SMTP, Amazon SES, or a log-only transport for development.
package notify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// CodeDeliveryFailed is the oops code for any transport failure.
const CodeDeliveryFailed = "MAIL_DELIVERY_FAILED"

// Transport names accepted by New.
const (
	TransportSMTP = "smtp"
	TransportSES  = "ses"
	TransportLog  = "log"
)

// Receipt describes an accepted message.
type Receipt struct {
	MessageID string
	Transport string
}

// Mailer sends a single HTML message.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) (Receipt, error)
}

// Verifier is implemented by transports that can check connectivity without
// sending anything.
type Verifier interface {
	Verify(ctx context.Context) error
}

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Config selects and configures a transport.
type Config struct {
	Transport string
	From      string
	SMTP      SMTPConfig
	SESRegion string
}

// New builds the mailer named by cfg.Transport.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Mailer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(cfg.Transport) {
	case TransportSMTP:
		return NewSMTPMailer(cfg.SMTP, cfg.From)
	case TransportSES:
		return NewSESMailer(ctx, cfg.SESRegion, cfg.From)
	case TransportLog, "":
		return NewLogMailer(logger), nil
	default:
		return nil, oops.Code("MAIL_CONFIG_INVALID").
			With("transport", cfg.Transport).
			Errorf("unknown mail transport %q", cfg.Transport)
	}
}

// VerifyOnStartup checks the transport if it supports verification and logs
// the outcome. A failed check is reported but never fatal.
func VerifyOnStartup(ctx context.Context, m Mailer, logger *slog.Logger) bool {
	v, ok := m.(Verifier)
	if !ok {
		return true
	}
	if err := v.Verify(ctx); err != nil {
		logger.WarnContext(ctx, "mail transport verification failed", "error", err)
		return false
	}
	logger.InfoContext(ctx, "mail transport verified")
	return true
}

func newMessageID(domain string) string {
	return "<" + ulid.Make().String() + "@" + domain + ">"
}

func senderDomain(from string) string {
	if i := strings.LastIndexByte(from, '@'); i >= 0 && i < len(from)-1 {
		return strings.TrimSuffix(from[i+1:], ">")
	}
	return "thryve.local"
}

func deliveryError(transport string, err error) error {
	return oops.Code(CodeDeliveryFailed).With("transport", transport).Wrap(err)
}
