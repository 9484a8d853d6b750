package notification_test

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	companyDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/company"
	employeeDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/employee"
	"github.com/frahmantamala/payroll-engine/internal/core/events"
	"github.com/frahmantamala/payroll-engine/internal/notification"
)

type outbox struct {
	mu   sync.Mutex
	sent []notification.Message
	fail bool
}

func (o *outbox) Send(ctx context.Context, msg notification.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail {
		return stderrors.New("relay unavailable")
	}
	o.sent = append(o.sent, msg)
	return nil
}

type companies map[int64]*companyDatamodel.Company

func (c companies) Get(ctx context.Context, id int64) (*companyDatamodel.Company, error) {
	co, ok := c[id]
	if !ok {
		return nil, stderrors.New("company not found")
	}
	return co, nil
}

type staff map[int64]*employeeDatamodel.Employee

func (s staff) Get(ctx context.Context, companyID, id int64) (*employeeDatamodel.Employee, error) {
	e, ok := s[id]
	if !ok {
		return nil, stderrors.New("employee not found")
	}
	return e, nil
}

var _ = Describe("Subscriber", func() {
	var (
		mail       *outbox
		subscriber *notification.Subscriber
		ctx        context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		mail = &outbox{}
		notifier, err := notification.NewNotifier(mail, logger)
		Expect(err).NotTo(HaveOccurred())
		subscriber = notification.NewSubscriber(notifier,
			companies{1: {ID: 1, Name: "Acme Ltd", Email: "finance@acme.test"}},
			staff{7: {ID: 7, CompanyID: 1, Name: "Ada", Email: "ada@acme.test"}},
			"ops@payroll.test",
			logger,
		)
	})

	It("alerts the company when the wallet cannot cover a payroll", func() {
		err := subscriber.HandleLowBalance(ctx, events.NewLowBalanceEvent(1, 10, decimal.NewFromInt(200000), decimal.NewFromInt(50000)))
		Expect(err).NotTo(HaveOccurred())

		Expect(mail.sent).To(HaveLen(1))
		Expect(mail.sent[0].To).To(Equal("finance@acme.test"))
		Expect(mail.sent[0].HTML).To(ContainSubstring("NGN 150000.00"))
		Expect(mail.sent[0].HTML).To(ContainSubstring("Acme Ltd"))
	})

	It("sends low balance alerts to the fallback address for an unknown company", func() {
		err := subscriber.HandleLowBalance(ctx, events.NewLowBalanceEvent(9, 10, decimal.NewFromInt(2), decimal.NewFromInt(1)))
		Expect(err).NotTo(HaveOccurred())
		Expect(mail.sent[0].To).To(Equal("ops@payroll.test"))
	})

	It("summarises the payroll outcome", func() {
		err := subscriber.HandlePayrollDisbursed(ctx, events.NewPayrollDisbursedEvent(1, 10, "October 2026", "partially_completed", 2, 1))
		Expect(err).NotTo(HaveOccurred())

		Expect(mail.sent[0].Subject).To(Equal("Payroll October 2026: partially_completed"))
		Expect(mail.sent[0].HTML).To(ContainSubstring("Failed payments: 1"))
		Expect(mail.sent[0].HTML).To(ContainSubstring("can be retried"))
	})

	It("emails the employee when a payslip is paid", func() {
		err := subscriber.HandlePayslipPaid(ctx, events.NewPayslipPaidEvent(1, 10, 3, 7, "Ada", decimal.NewFromInt(250000), "salary_1_abc"))
		Expect(err).NotTo(HaveOccurred())

		Expect(mail.sent[0].To).To(Equal("ada@acme.test"))
		Expect(mail.sent[0].HTML).To(ContainSubstring("NGN 250000.00"))
		Expect(mail.sent[0].HTML).To(ContainSubstring("salary_1_abc"))
	})

	It("reports the remittance outcome", func() {
		err := subscriber.HandleRemittanceProcessed(ctx, events.NewRemittanceProcessedEvent(1, 4, "2026-10", "partial", decimal.NewFromInt(85750), 1, 1))
		Expect(err).NotTo(HaveOccurred())
		Expect(mail.sent[0].Subject).To(Equal("PAYE remittance 2026-10: partial"))
	})

	It("returns delivery failures for the bus to log", func() {
		mail.fail = true
		err := subscriber.HandlePayrollDisbursed(ctx, events.NewPayrollDisbursedEvent(1, 10, "October 2026", "completed", 3, 0))
		Expect(err).To(MatchError(ContainSubstring("relay unavailable")))
	})

	It("rejects a payload of the wrong type", func() {
		err := subscriber.HandlePayslipPaid(ctx, events.NewWalletCreditedEvent(1, decimal.NewFromInt(1), "r", decimal.NewFromInt(1)))
		Expect(err).To(HaveOccurred())
	})

	It("delivers through the event bus once registered", func() {
		bus := events.NewEventBus(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
		subscriber.Register(bus)

		Expect(bus.PublishSync(ctx, events.NewPayrollDisbursedEvent(1, 10, "October 2026", "completed", 3, 0))).To(Succeed())
		Expect(mail.sent).To(HaveLen(1))
	})
})
