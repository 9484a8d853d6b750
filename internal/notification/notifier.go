package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	TemplateLowBalance        = "low_balance.html"
	TemplatePayrollOutcome    = "payroll_outcome.html"
	TemplatePayslipPaid       = "payslip_paid.html"
	TemplateRemittanceOutcome = "remittance_outcome.html"
)

// Gate renders a named template and delivers it to one recipient.
type Gate interface {
	Send(ctx context.Context, templateName, recipient, subject string, payload interface{}) error
}

type Notifier struct {
	mailer    Mailer
	templates *template.Template
	logger    *slog.Logger
}

func NewNotifier(mailer Mailer, logger *slog.Logger) (*Notifier, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &Notifier{mailer: mailer, templates: tmpl, logger: logger}, nil
}

func (n *Notifier) Send(ctx context.Context, templateName, recipient, subject string, payload interface{}) error {
	if recipient == "" {
		n.logger.Warn("notification has no recipient, skipping", "template", templateName)
		return nil
	}

	var body bytes.Buffer
	if err := n.templates.ExecuteTemplate(&body, templateName, payload); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	if err := n.mailer.Send(ctx, Message{To: recipient, Subject: subject, HTML: body.String()}); err != nil {
		return fmt.Errorf("failed to send %s to %s: %w", templateName, recipient, err)
	}

	n.logger.Info("notification sent", "template", templateName, "to", recipient)
	return nil
}
