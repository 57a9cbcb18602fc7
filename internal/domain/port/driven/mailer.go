package driven

import "context"

// Mailer defines the driven port for outbound notification mail.
type Mailer interface {
	// Send submits an HTML message to the given recipients.
	Send(ctx context.Context, recipients []string, subject, htmlBody string) error
	// Enabled reports whether a mail transport is configured.
	Enabled() bool
}
