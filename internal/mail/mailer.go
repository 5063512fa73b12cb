// Package mail sends verification and reset messages over SMTP. With no
// SMTP host configured the mailer logs instead of sending, which keeps
// development environments working without a relay.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/apihub-auth/internal/config"
)

// Mailer delivers plain-text messages.
type Mailer struct {
	cfg    config.MailConfig
	logger *zap.Logger
}

// NewMailer builds the mailer.
func NewMailer(cfg config.MailConfig, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger}
}

// Send delivers one message. The context bounds nothing here because
// net/smtp has no context support; callers treat failures as best-effort.
func (m *Mailer) Send(_ context.Context, to, subject, body string) error {
	if strings.TrimSpace(m.cfg.SMTPHost) == "" {
		m.logger.Info("mail delivery skipped (no SMTP host)",
			zap.String("to", to),
			zap.String("subject", subject),
		)
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.cfg.From, to, subject, body)

	addr := m.cfg.SMTPHost + ":" + m.cfg.SMTPPort
	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// VerificationURL builds the link embedded in verification mail.
func (m *Mailer) VerificationURL(token string) string {
	return m.cfg.PublicBaseURL + "/auth/verify-email/" + token
}

// PasswordResetURL builds the link embedded in reset mail.
func (m *Mailer) PasswordResetURL(token string) string {
	return m.cfg.PublicBaseURL + "/auth/reset-password/" + token
}
