// Package mailx is the outbound email collaborator used by the auth
// flows. Sends are fire-and-forget from the caller's perspective:
// failures are logged, never surfaced as hard errors.
package mailx

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
)

// Mailer delivers the notification emails the auth flows produce.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, name, token string) error
	SendPasswordChangedNotice(ctx context.Context, email, name string) error
}

// SMTPConfig holds connection details for the SMTP mailer.
type SMTPConfig struct {
	Addr     string // host:port
	From     string
	Username string
	Password string
	AuthHost string // hostname used for PLAIN auth, usually the host part of Addr
	ResetURL string // base URL the reset token is appended to
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, email, name, token string) error {
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nA password reset was requested for your BotFlow account.\r\n"+
			"Reset it here within the next hour: %s?token=%s\r\n\r\n"+
			"If you did not request this, you can ignore this email.\r\n",
		name, m.cfg.ResetURL, token,
	)
	return m.send(email, "Reset your BotFlow password", body)
}

func (m *SMTPMailer) SendPasswordChangedNotice(ctx context.Context, email, name string) error {
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nThe password for your BotFlow account was just changed.\r\n"+
			"If this wasn't you, contact support immediately.\r\n",
		name,
	)
	return m.send(email, "Your BotFlow password was changed", body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		m.cfg.From, to, subject, body,
	)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.AuthHost)
	}

	if err := smtp.SendMail(m.cfg.Addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("mailx: send to %s failed: %w", to, err)
	}
	return nil
}

// LogMailer logs instead of sending. Used in dev and in tests.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, email, name, token string) error {
	m.logger().Info("password reset email (not sent)",
		"to", email, "name", name, "token", token)
	return nil
}

func (m *LogMailer) SendPasswordChangedNotice(ctx context.Context, email, name string) error {
	m.logger().Info("password changed notice (not sent)", "to", email, "name", name)
	return nil
}

func (m *LogMailer) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}
