// Package mailer implements the notification boundary: best-effort
// delivery of HTML email, never retried by the caller.
package mailer

import (
	"context"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/spec-kit/helpdesk/internal/config"
)

// Mailer sends a single message to a list of recipients.
type Mailer interface {
	Send(ctx context.Context, subject string, recipients []string, htmlBody string) error
}

// SMTPMailer delivers mail through a configured SMTP relay.
type SMTPMailer struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
}

// NewSMTPMailer builds an SMTP-backed mailer.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send delivers a single HTML message.
func (m *SMTPMailer) Send(_ context.Context, subject string, recipients []string, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", recipients...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return m.dialer.DialAndSend(msg)
}

// NopMailer logs outbound mail instead of sending it. Used when SMTP is
// not configured.
type NopMailer struct {
	logger *zap.Logger
}

// NewNopMailer builds a logging-only mailer.
func NewNopMailer(logger *zap.Logger) *NopMailer {
	return &NopMailer{logger: logger}
}

// Send logs the message and discards it.
func (m *NopMailer) Send(_ context.Context, subject string, recipients []string, _ string) error {
	m.logger.Debug("mail delivery skipped (smtp not configured)",
		zap.String("subject", subject),
		zap.Strings("recipients", recipients))
	return nil
}
