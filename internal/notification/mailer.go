package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/frahmantamala/payroll-engine/internal"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type noopMailer struct {
	logger *slog.Logger
}

func (m noopMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Debug("email disabled, dropping message", "to", msg.To, "subject", msg.Subject)
	return nil
}

type smtpMailer struct {
	cfg  internal.NotificationConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer returns an SMTP mailer, or one that drops mail when SMTP is
// disabled or has no host.
func NewMailer(cfg internal.NotificationConfig, logger *slog.Logger) Mailer {
	if !cfg.Enabled || cfg.SMTPHost == "" {
		return noopMailer{logger: logger}
	}
	return &smtpMailer{cfg: cfg, send: smtp.SendMail}
}

func (m *smtpMailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.SMTPHost)
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	return m.send(addr, auth, m.cfg.From, []string{msg.To}, buildMessage(m.cfg.From, msg))
}

func buildMessage(from string, msg Message) []byte {
	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", msg.To),
		fmt.Sprintf("Subject: %s", msg.Subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n" + msg.HTML)
}
