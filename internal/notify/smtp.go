// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package notify

import (
	"context"

	"github.com/samber/oops"
	"gopkg.in/gomail.v2"
)

// dialer is satisfied by *gomail.Dialer.
type dialer interface {
	Dial() (gomail.SendCloser, error)
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer dialer
	from   string
}

// NewSMTPMailer creates an SMTP mailer. Host and from are required.
func NewSMTPMailer(cfg SMTPConfig, from string) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("smtp host is required")
	}
	if from == "" {
		from = cfg.Username
	}
	if from == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("mail sender address is required")
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password),
		from:   from,
	}, nil
}

// Send delivers one message over a fresh connection.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, deliveryError(TransportSMTP, err)
	}

	id := newMessageID(senderDomain(m.from))
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetHeader("Message-ID", id)
	msg.SetBody("text/html", htmlBody)

	conn, err := m.dialer.Dial()
	if err != nil {
		return Receipt{}, deliveryError(TransportSMTP, err)
	}
	if err := gomail.Send(conn, msg); err != nil {
		_ = conn.Close()
		return Receipt{}, deliveryError(TransportSMTP, err)
	}
	if err := conn.Close(); err != nil {
		return Receipt{}, deliveryError(TransportSMTP, err)
	}
	return Receipt{MessageID: id, Transport: TransportSMTP}, nil
}

// Verify dials and authenticates against the relay, then hangs up.
func (m *SMTPMailer) Verify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return deliveryError(TransportSMTP, err)
	}
	conn, err := m.dialer.Dial()
	if err != nil {
		return deliveryError(TransportSMTP, err)
	}
	if err := conn.Close(); err != nil {
		return deliveryError(TransportSMTP, err)
	}
	return nil
}
