package notification

import (
	"context"
	"log/slog"
	"net/smtp"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/payroll-engine/internal"
)

var _ = Describe("Mailer", func() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	It("falls back to a noop mailer when SMTP is disabled", func() {
		m := NewMailer(internal.NotificationConfig{Enabled: false, SMTPHost: "smtp.example.com"}, logger)
		Expect(m).To(BeAssignableToTypeOf(noopMailer{}))
		Expect(m.Send(context.Background(), Message{To: "a@example.com"})).To(Succeed())
	})

	It("hands a complete HTML message to the SMTP relay", func() {
		m := NewMailer(internal.NotificationConfig{
			Enabled:  true,
			SMTPHost: "smtp.example.com",
			SMTPPort: 2525,
			Username: "mailer",
			Password: "secret",
			From:     "payroll@example.com",
		}, logger).(*smtpMailer)

		var (
			gotAddr string
			gotTo   []string
			gotMsg  string
			gotAuth smtp.Auth
		)
		m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotTo, gotMsg, gotAuth = addr, to, string(msg), a
			return nil
		}

		err := m.Send(context.Background(), Message{To: "ada@example.com", Subject: "Hello", HTML: "<p>hi</p>"})
		Expect(err).NotTo(HaveOccurred())
		Expect(gotAddr).To(Equal("smtp.example.com:2525"))
		Expect(gotTo).To(ConsistOf("ada@example.com"))
		Expect(gotAuth).NotTo(BeNil())
		Expect(gotMsg).To(ContainSubstring("Subject: Hello\r\n"))
		Expect(gotMsg).To(ContainSubstring("Content-Type: text/html"))
		Expect(gotMsg).To(HaveSuffix("\r\n<p>hi</p>"))
	})

	It("skips messages without a recipient", func() {
		called := false
		m := &smtpMailer{
			cfg: internal.NotificationConfig{SMTPHost: "smtp.example.com"},
			send: func(string, smtp.Auth, string, []string, []byte) error {
				called = true
				return nil
			},
		}
		Expect(m.Send(context.Background(), Message{To: "  "})).To(Succeed())
		Expect(called).To(BeFalse())
	})
})
