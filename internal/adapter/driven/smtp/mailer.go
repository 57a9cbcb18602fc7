// Package smtp implements the Mailer port over SMTP submission with
// STARTTLS and PLAIN authentication.
package smtp

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/branchpulse/branchpulse/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Mailer = (*Mailer)(nil)

// Mailer submits HTML mail through a single configured SMTP server.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewMailer creates a Mailer. An empty host yields a disabled mailer, which
// the notification service surfaces as "email not configured".
func NewMailer(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool {
	return m.host != ""
}

// Send submits one HTML message to the given recipients. smtp.SendMail
// negotiates STARTTLS when the server advertises it and authenticates with
// the configured credentials.
func (m *Mailer) Send(ctx context.Context, recipients []string, subject, htmlBody string) error {
	if !m.Enabled() {
		return fmt.Errorf("smtp is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if err := smtp.SendMail(addr, auth, m.from, recipients, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send via %s: %w", addr, err)
	}

	return nil
}
