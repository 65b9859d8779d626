// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Thryve Contributors

package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/thryve/thryve/pkg/errutil"
)

type fakeConn struct {
	from     string
	to       []string
	raw      bytes.Buffer
	sendErr  error
	closeErr error
	closed   bool
}

func (c *fakeConn) Send(from string, to []string, msg io.WriterTo) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.from = from
	c.to = to
	_, err := msg.WriteTo(&c.raw)
	return err
}

func (c *fakeConn) Close() error {
	c.closed = true
	return c.closeErr
}

type fakeDialer struct {
	conn  *fakeConn
	err   error
	dials int
}

func (d *fakeDialer) Dial() (gomail.SendCloser, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func newTestSMTPMailer(d dialer) *SMTPMailer {
	return &SMTPMailer{dialer: d, from: "noreply@thryve.app"}
}

func TestNewSMTPMailer(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SMTPConfig
		from    string
		wantErr bool
	}{
		{name: "explicit sender", cfg: SMTPConfig{Host: "smtp.example.com"}, from: "noreply@thryve.app"},
		{name: "sender falls back to username", cfg: SMTPConfig{Host: "smtp.example.com", Username: "me@gmail.com"}},
		{name: "missing host", cfg: SMTPConfig{}, from: "noreply@thryve.app", wantErr: true},
		{name: "missing sender", cfg: SMTPConfig{Host: "smtp.example.com"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewSMTPMailer(tt.cfg, tt.from)
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "MAIL_CONFIG_INVALID")
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, m.from)
		})
	}
}

func TestSMTPMailer_Send(t *testing.T) {
	t.Run("writes one message and closes the connection", func(t *testing.T) {
		conn := &fakeConn{}
		m := newTestSMTPMailer(&fakeDialer{conn: conn})

		receipt, err := m.Send(context.Background(), "ada@example.com", ResetSubject, "<p>hi</p>")
		require.NoError(t, err)

		assert.Equal(t, TransportSMTP, receipt.Transport)
		assert.Contains(t, receipt.MessageID, "@thryve.app>")
		assert.Equal(t, "noreply@thryve.app", conn.from)
		assert.Equal(t, []string{"ada@example.com"}, conn.to)
		assert.True(t, conn.closed)
		assert.Contains(t, conn.raw.String(), "Subject: Password Reset")
		assert.Contains(t, conn.raw.String(), receipt.MessageID)
	})

	t.Run("dial failure", func(t *testing.T) {
		m := newTestSMTPMailer(&fakeDialer{err: errors.New("connection refused")})

		_, err := m.Send(context.Background(), "ada@example.com", ResetSubject, "body")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, CodeDeliveryFailed)
		errutil.AssertErrorContext(t, err, "transport", TransportSMTP)
	})

	t.Run("send failure still closes", func(t *testing.T) {
		conn := &fakeConn{sendErr: errors.New("550 mailbox unavailable")}
		m := newTestSMTPMailer(&fakeDialer{conn: conn})

		_, err := m.Send(context.Background(), "ada@example.com", ResetSubject, "body")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, CodeDeliveryFailed)
		assert.True(t, conn.closed)
	})

	t.Run("cancelled context does not dial", func(t *testing.T) {
		d := &fakeDialer{conn: &fakeConn{}}
		m := newTestSMTPMailer(d)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := m.Send(ctx, "ada@example.com", ResetSubject, "body")
		require.Error(t, err)
		assert.Zero(t, d.dials)
	})
}

func TestSMTPMailer_Verify(t *testing.T) {
	conn := &fakeConn{}
	m := newTestSMTPMailer(&fakeDialer{conn: conn})
	require.NoError(t, m.Verify(context.Background()))
	assert.True(t, conn.closed)

	m = newTestSMTPMailer(&fakeDialer{err: errors.New("535 authentication failed")})
	err := m.Verify(context.Background())
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeDeliveryFailed)
}
