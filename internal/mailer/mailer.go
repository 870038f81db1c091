// Package mailer sends transactional email over SMTP. Only the
// password-reset flow uses it today. When no SMTP host is configured
// (local development), messages are logged instead of sent so the reset
// flow stays testable without a mail server.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/mleroux/taskforge/internal/config"
)

// Mailer implements the auth.MailSender contract over net/smtp.
type Mailer struct {
	cfg config.SMTPConfig
}

// New creates a mailer from the SMTP configuration.
func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// SendPasswordReset emails a password-reset token to the given address.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, token string) error {
	subject := "Password reset request"
	body := fmt.Sprintf(
		"A password reset was requested for your account.\r\n\r\n"+
			"Reset token: %s\r\n\r\n"+
			"The token expires in one hour. If you did not request a reset, ignore this message.\r\n",
		token,
	)

	if m.cfg.Host == "" {
		slog.Info("smtp not configured, logging reset email instead",
			slog.String("to", to),
		)
		slog.Debug("reset email body", slog.String("body", body))
		return nil
	}

	return m.send(ctx, to, subject, body)
}

// send delivers one message via SMTP with optional PLAIN auth.
func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	// net/smtp has no context support; honor cancellation before dialing.
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending mail via %s: %w", addr, err)
	}
	return nil
}
