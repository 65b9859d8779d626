// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package notify

import (
	"context"
	"log/slog"
)

// LogMailer writes messages to the log instead of delivering them.
// Only for development: the body, and therefore any reset link, is logged.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the message and reports it as accepted.
func (m *LogMailer) Send(ctx context.Context, to, subject, htmlBody string) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, deliveryError(TransportLog, err)
	}
	id := newMessageID("thryve.local")
	m.logger.InfoContext(ctx, "mail not delivered (log transport)",
		"message_id", id,
		"to", to,
		"subject", subject,
		"body", htmlBody,
	)
	return Receipt{MessageID: id, Transport: TransportLog}, nil
}
