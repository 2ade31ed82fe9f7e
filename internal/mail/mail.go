// Package mail provides outbound mail dispatch for credential flows.
// Delivery is fire-and-forget from the caller's point of view; only the
// reset-password flow uses it.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Dispatcher sends a single message to a recipient.
type Dispatcher interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPDispatcher delivers mail through a plain SMTP relay.
type SMTPDispatcher struct {
	addr string // host:port
	auth smtp.Auth
	from string
}

// NewSMTP creates a dispatcher for the given relay. user may be empty for
// unauthenticated relays.
func NewSMTP(host, port, user, password, from string) *SMTPDispatcher {
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, password, host)
	}
	return &SMTPDispatcher{
		addr: host + ":" + port,
		auth: auth,
		from: from,
	}
}

// Send delivers the message. The context is consulted before dialing;
// net/smtp itself does not support cancellation mid-send.
func (d *SMTPDispatcher) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", d.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(d.addr, d.auth, d.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogDispatcher logs messages instead of sending them. Used in
// development when no SMTP relay is configured.
type LogDispatcher struct{}

// Send logs the message content at info level.
func (LogDispatcher) Send(_ context.Context, to, subject, body string) error {
	slog.Info("mail (not sent, no SMTP configured)",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}
