package providers

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/ndanaka/chatflow/pkg/ports"
)

// SMTPMailer implements ports.Mailer over plain SMTP with optional auth.
type SMTPMailer struct {
	addr string // host:port
	from string
	auth smtp.Auth
}

// NewSMTPMailer creates a mailer. Pass empty username to skip auth.
func NewSMTPMailer(addr, from, username, password string) *SMTPMailer {
	m := &SMTPMailer{addr: addr, from: from}
	if username != "" {
		host := addr
		if i := strings.IndexByte(addr, ':'); i >= 0 {
			host = addr[:i]
		}
		m.auth = smtp.PlainAuth("", username, password, host)
	}
	return m
}

// Send implements ports.Mailer. The context is honored only up to the SMTP
// dial; net/smtp has no per-command deadline.
func (m *SMTPMailer) Send(ctx context.Context, email ports.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	contentType := "text/plain"
	if email.IsBodyHTML {
		contentType = "text/html"
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(email.Recipients, ", "))
	if len(email.CC) > 0 {
		fmt.Fprintf(&msg, "Cc: %s\r\n", strings.Join(email.CC, ", "))
	}
	if email.ReplyTo != "" {
		fmt.Fprintf(&msg, "Reply-To: %s\r\n", email.ReplyTo)
	}
	fmt.Fprintf(&msg, "Subject: %s\r\n", email.Subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\nContent-Type: %s; charset=\"UTF-8\"\r\n\r\n", contentType)
	msg.WriteString(email.Body)

	recipients := append([]string{}, email.Recipients...)
	recipients = append(recipients, email.CC...)
	recipients = append(recipients, email.BCC...)

	if err := smtp.SendMail(m.addr, m.auth, m.from, recipients, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
