package taxremittance_test

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	errors "github.com/frahmantamala/payroll-engine/internal"
	employeeDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/employee"
	payrollDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/payroll"
	remittanceDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/taxremittance"
	"github.com/frahmantamala/payroll-engine/internal/core/events"
	"github.com/frahmantamala/payroll-engine/internal/employee"
	"github.com/frahmantamala/payroll-engine/internal/payroll"
	"github.com/frahmantamala/payroll-engine/internal/taxremittance"
	"github.com/frahmantamala/payroll-engine/internal/taxremittance/postgres"
)

type payrollStub map[int64]*payrollDatamodel.Payroll

func (p payrollStub) Get(ctx context.Context, companyID, id int64) (*payrollDatamodel.Payroll, error) {
	b, ok := p[id]
	if !ok || b.CompanyID != companyID {
		return nil, payroll.ErrPayrollNotFound
	}
	return b, nil
}

type people map[int64]*employeeDatamodel.Employee

func (d people) Get(ctx context.Context, companyID, id int64) (*employeeDatamodel.Employee, error) {
	e, ok := d[id]
	if !ok {
		return nil, employee.ErrEmployeeNotFound
	}
	return e, nil
}

// fakeGate declines PIDs listed in declined and errors on PIDs listed in down.
type fakeGate struct {
	declined map[string]bool
	down     map[string]bool
	calls    []taxremittance.PayTaxRequest
}

func (g *fakeGate) PayTax(ctx context.Context, req taxremittance.PayTaxRequest) (*taxremittance.PayTaxResult, error) {
	g.calls = append(g.calls, req)
	if g.down[req.PID] {
		return nil, stderrors.New("tax authority returned 503: maintenance window")
	}
	if g.declined[req.PID] {
		return &taxremittance.PayTaxResult{Status: taxremittance.PayStatusFailure, Message: "Invalid PID"}, nil
	}
	return &taxremittance.PayTaxResult{
		Status:        taxremittance.PayStatusSuccess,
		PaymentRef:    "PAY-" + req.PID,
		ReceiptNumber: "RCPT-" + req.PID,
	}, nil
}

type capture struct {
	events []events.Event
}

func (c *capture) Publish(ctx context.Context, e events.Event) error {
	c.events = append(c.events, e)
	return nil
}

var _ = Describe("Service", func() {
	var (
		db        *gorm.DB
		service   *taxremittance.Service
		gate      *fakeGate
		published *capture
		payrolls  payrollStub
		staff     people
		ctx       context.Context
		now       = time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC)
	)

	pid := func(s string) *string { return &s }

	slip := func(employeeID int64, gross, paye int64) payrollDatamodel.Payslip {
		s := payrollDatamodel.Payslip{
			EmployeeID: employeeID,
			BaseSalary: decimal.NewFromInt(gross),
			GrossPay:   decimal.NewFromInt(gross),
			Status:     payrollDatamodel.PayslipCompleted,
		}
		if paye > 0 {
			s.Deductions = payrollDatamodel.LineItems{
				{Type: payroll.LineTax, Amount: decimal.NewFromInt(paye), Description: "PAYE Tax"},
			}
		}
		s.Recompute()
		return s
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&remittanceDatamodel.Remittance{}, &remittanceDatamodel.Line{})).To(Succeed())

		payrolls = payrollStub{
			10: {
				ID:        10,
				CompanyID: 1,
				Name:      "October 2026",
				Status:    payrollDatamodel.StatusCompleted,
				Period: payrollDatamodel.Period{
					StartDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
					EndDate:   time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC),
				},
				Payslips: []payrollDatamodel.Payslip{
					slip(1, 300000, 27750),
					slip(2, 500000, 58000),
					slip(3, 60000, 0),
				},
			},
			11: {ID: 11, CompanyID: 1, Name: "November 2026", Status: payrollDatamodel.StatusPending},
		}
		staff = people{
			1: {ID: 1, CompanyID: 1, Email: "one@example.com", TaxPID: pid("N-1")},
			2: {ID: 2, CompanyID: 1, Email: "two@example.com", TaxPID: pid("N-2")},
			3: {ID: 3, CompanyID: 1, Email: "three@example.com"},
		}
		gate = &fakeGate{declined: map[string]bool{}, down: map[string]bool{}}
		published = &capture{}
		service = taxremittance.NewService(postgres.NewRemittanceRepository(db), payrolls, staff, gate, slogger).
			WithPublisher(published).
			WithClock(func() time.Time { return now })
	})

	Describe("Build", func() {
		It("creates one pending line per employee with PAYE withheld", func() {
			rem, err := service.Build(ctx, 1, 10)
			Expect(err).NotTo(HaveOccurred())

			Expect(rem.Status).To(Equal(remittanceDatamodel.StatusPending))
			Expect(rem.Month).To(Equal("2026-10"))
			Expect(rem.TotalAmount.String()).To(Equal("85750"))
			Expect(rem.Lines).To(HaveLen(2))
			Expect(rem.Lines[0].TaxPID).To(Equal("N-1"))
			Expect(rem.Lines[0].Breakdown).NotTo(BeEmpty())
			Expect(rem.History).To(HaveLen(1))

			stored, err := service.Get(ctx, 1, rem.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Lines).To(HaveLen(2))
			Expect(stored.Lines[1].Amount.String()).To(Equal("58000"))
		})

		It("refuses a payroll that has not completed", func() {
			_, err := service.Build(ctx, 1, 11)
			Expect(err).To(MatchError(taxremittance.ErrPayrollNotCompleted))
		})

		It("refuses a second remittance for the same payroll", func() {
			_, err := service.Build(ctx, 1, 10)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Build(ctx, 1, 10)
			Expect(err).To(MatchError(taxremittance.ErrRemittanceExists))
		})

		It("reports an unknown payroll as not found", func() {
			_, err := service.Build(ctx, 1, 99)
			Expect(err).To(MatchError(payroll.ErrPayrollNotFound))
		})
	})

	Describe("Process", func() {
		It("completes when every line is accepted", func() {
			rem, err := service.Build(ctx, 1, 10)
			Expect(err).NotTo(HaveOccurred())

			rem, err = service.Process(ctx, 1, rem.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(rem.Status).To(Equal(remittanceDatamodel.StatusCompleted))
			Expect(rem.ProcessedDate).NotTo(BeNil())
			for _, l := range rem.Lines {
				Expect(l.Status).To(Equal(remittanceDatamodel.LineProcessed))
				Expect(*l.ReceiptNumber).To(HavePrefix("RCPT-"))
			}
			Expect(gate.calls).To(HaveLen(2))
			Expect(published.events).To(HaveLen(1))
			Expect(published.events[0].EventType()).To(Equal(events.EventTypeRemittanceProcessed))
		})

		It("settles on partial when some lines are declined", func() {
			gate.declined["N-2"] = true
			rem, err := service.Build(ctx, 1, 10)
			Expect(err).NotTo(HaveOccurred())

			rem, err = service.Process(ctx, 1, rem.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(rem.Status).To(Equal(remittanceDatamodel.StatusPartial))
			Expect(rem.Lines[1].Status).To(Equal(remittanceDatamodel.LineFailed))
			Expect(*rem.Lines[1].ErrorMessage).To(Equal("Invalid PID"))

			stored, err := service.Get(ctx, 1, rem.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(remittanceDatamodel.StatusPartial))
			Expect(stored.Lines[0].Status).To(Equal(remittanceDatamodel.LineProcessed))
		})

		It("fails a line whose employee has no PID without calling the authority", func() {
			staff[1].TaxPID = nil
			gate.down["N-2"] = true
			rem, err := service.Build(ctx, 1, 10)
			Expect(err).NotTo(HaveOccurred())

			rem, err = service.Process(ctx, 1, rem.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(rem.Status).To(Equal(remittanceDatamodel.StatusFailed))
			Expect(*rem.Lines[0].ErrorMessage).To(Equal("Employee or PID not found"))
			Expect(gate.calls).To(HaveLen(1))
		})

		It("refuses a remittance that is no longer pending", func() {
			rem, err := service.Build(ctx, 1, 10)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Process(ctx, 1, rem.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Process(ctx, 1, rem.ID)
			Expect(err).To(MatchError(taxremittance.ErrRemittanceNotPending))
		})

		It("scopes lookups to the company", func() {
			rem, err := service.Build(ctx, 1, 10)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Process(ctx, 2, rem.ID)
			Expect(err).To(MatchError(taxremittance.ErrRemittanceNotFound))
		})
	})

	Describe("RetryLine", func() {
		var remID int64

		BeforeEach(func() {
			gate.declined["N-2"] = true
			rem, err := service.Build(ctx, 1, 10)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Process(ctx, 1, rem.ID)
			Expect(err).NotTo(HaveOccurred())
			remID = rem.ID
		})

		It("completes the remittance once the last failed line is paid", func() {
			delete(gate.declined, "N-2")

			rem, err := service.RetryLine(ctx, 1, remID, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(rem.Status).To(Equal(remittanceDatamodel.StatusCompleted))
			Expect(rem.RetryCount).To(Equal(1))
			Expect(rem.Lines[1].ErrorMessage).To(BeNil())
		})

		It("keeps the line failed and reports an external error", func() {
			_, err := service.RetryLine(ctx, 1, remID, 2)
			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(errors.ErrorTypeExternal))

			stored, err := service.Get(ctx, 1, remID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(remittanceDatamodel.StatusPartial))
			Expect(stored.RetryCount).To(Equal(1))
		})

		It("refuses a line that did not fail", func() {
			_, err := service.RetryLine(ctx, 1, remID, 1)
			Expect(err).To(MatchError(taxremittance.ErrLineNotRetryable))
		})
	})

	It("lists remittances filtered by status", func() {
		_, err := service.Build(ctx, 1, 10)
		Expect(err).NotTo(HaveOccurred())

		items, err := service.List(ctx, 1, "pending")
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(1))

		items, err = service.List(ctx, 1, "completed")
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(BeEmpty())
	})
})
