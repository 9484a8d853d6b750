package payroll_test

import (
	"bytes"
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	errors "github.com/frahmantamala/payroll-engine/internal"
	employeeDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/employee"
	payrollDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/payroll"
	"github.com/frahmantamala/payroll-engine/internal/core/database"
	"github.com/frahmantamala/payroll-engine/internal/payroll"
	payrollPostgres "github.com/frahmantamala/payroll-engine/internal/payroll/postgres"
	"github.com/frahmantamala/payroll-engine/internal/transport"
)

var _ = Describe("Payroll Service", func() {
	var (
		db        *gorm.DB
		repo      payroll.RepositoryAPI
		employees *stubEmployees
		service   *payroll.Service
		ctx       context.Context
	)

	schedule := func(name string) *payrollDatamodel.Payroll {
		batches, err := service.Schedule(ctx, 1, payroll.ScheduleDTO{
			Name:        name,
			Frequency:   "Monthly",
			PeriodStart: day(2026, 10, 1),
			PeriodEnd:   day(2026, 10, 31),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(batches).To(HaveLen(1))
		return batches[0]
	}

	setStatus := func(id int64, status payrollDatamodel.Status) {
		Expect(db.Model(&payrollDatamodel.Payroll{}).Where("id = ?", id).Update("status", status).Error).To(Succeed())
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&payrollDatamodel.Payroll{}, &payrollDatamodel.Payslip{}, &payrollDatamodel.HistoryEntry{})).To(Succeed())

		repo = payrollPostgres.NewPayrollRepository(db)
		reports := payrollPostgres.NewReportRepository(sqlx.NewDb(sqlDB, "sqlite3"))
		employees = &stubEmployees{items: []employeeDatamodel.Employee{
			newEmployee(1, 150000), newEmployee(2, 200000), newEmployee(3, 100000),
		}}
		assembler := payroll.NewAssembler(employees, &stubRules{}, testLogger)
		service = payroll.NewService(repo, reports, assembler, database.NewTransactor(db), testLogger).
			WithClock(func() time.Time { return now })
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("stores scheduled batches with payslips and history", func() {
		p := schedule("October payroll")

		stored, err := service.Get(ctx, 1, p.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Frequency).To(Equal(payrollDatamodel.FrequencyMonthly))
		Expect(stored.Payslips).To(HaveLen(3))
		Expect(stored.History).To(HaveLen(1))
		Expect(stored.Summary.TotalNet.Equal(netSum(stored))).To(BeTrue())
	})

	It("hides payrolls of other companies", func() {
		p := schedule("October payroll")

		_, err := service.Get(ctx, 2, p.ID)
		Expect(err).To(MatchError(payroll.ErrPayrollNotFound))
	})

	Describe("Update", func() {
		It("merges payslip edits and recomputes the summary", func() {
			p := schedule("October payroll")
			extra := payrollDatamodel.LineItems{{Type: "overtime", Amount: decimal.NewFromInt(10000)}}
			before := p.Summary.TotalNet

			updated, err := service.Update(ctx, 1, p.ID, payroll.UpdatePayrollDTO{
				Payslips: []payroll.PayslipUpdate{{EmployeeID: 1, Allowances: &extra}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Summary.TotalNet.Equal(netSum(updated))).To(BeTrue())
			Expect(updated.Summary.TotalNet.Equal(before)).To(BeFalse())

			stored, err := service.Get(ctx, 1, p.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Summary.TotalNet.Equal(updated.Summary.TotalNet)).To(BeTrue())
		})

		It("walks the transition table and records history", func() {
			p := schedule("October payroll")
			pending := "Pending"

			updated, err := service.Update(ctx, 1, p.ID, payroll.UpdatePayrollDTO{Status: &pending})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(payrollDatamodel.StatusPending))

			stored, err := service.Get(ctx, 1, p.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.History).To(HaveLen(2))
		})

		It("rejects edits once the payroll is completed", func() {
			p := schedule("October payroll")
			setStatus(p.ID, payrollDatamodel.StatusCompleted)
			name := "Renamed"

			_, err := service.Update(ctx, 1, p.ID, payroll.UpdatePayrollDTO{Name: &name})
			Expect(err).To(MatchError(payroll.ErrPayrollImmutable))
		})

		It("leaves processing and settled statuses to the disbursement run", func() {
			p := schedule("October payroll")
			setStatus(p.ID, payrollDatamodel.StatusPending)
			processing := "processing"

			_, err := service.Update(ctx, 1, p.ID, payroll.UpdatePayrollDTO{Status: &processing})
			Expect(err).To(MatchError(payroll.ErrStatusReserved))
			appErr, _ := errors.IsAppError(err)
			Expect(appErr.Details.(payroll.TransitionDetails).AllowedTransitions).To(Equal([]payrollDatamodel.Status{payrollDatamodel.StatusDraft}))

			stored, err := service.Get(ctx, 1, p.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(payrollDatamodel.StatusPending))
		})

		It("refuses any edit while the batch is being paid", func() {
			p := schedule("October payroll")
			setStatus(p.ID, payrollDatamodel.StatusProcessing)
			completed := "completed"

			_, err := service.Update(ctx, 1, p.ID, payroll.UpdatePayrollDTO{Status: &completed})
			Expect(err).To(MatchError(payroll.ErrPayrollInFlight))
		})

		It("rejects payslip edits while processing", func() {
			p := schedule("October payroll")
			setStatus(p.ID, payrollDatamodel.StatusProcessing)
			salary := decimal.NewFromInt(1)

			_, err := service.Update(ctx, 1, p.ID, payroll.UpdatePayrollDTO{
				Payslips: []payroll.PayslipUpdate{{EmployeeID: 1, BaseSalary: &salary}},
			})
			Expect(err).To(MatchError(payroll.ErrPayrollNotMutable))
		})
	})

	Describe("employee removal", func() {
		It("excises the employee from every draft and pending payroll only", func() {
			draft := schedule("Draft run")
			pending := schedule("Pending run")
			setStatus(pending.ID, payrollDatamodel.StatusPending)
			done := schedule("Completed run")
			setStatus(done.ID, payrollDatamodel.StatusCompleted)

			affected, err := service.RemoveEmployeeFromMutable(ctx, 1, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(affected).To(Equal(2))

			for _, id := range []int64{draft.ID, pending.ID} {
				p, err := service.Get(ctx, 1, id)
				Expect(err).NotTo(HaveOccurred())
				Expect(p.TotalEmployees).To(Equal(2))
				Expect(p.Payslips).To(HaveLen(2))
				Expect(p.Summary.TotalNet.Equal(netSum(p))).To(BeTrue())
			}

			untouched, err := service.Get(ctx, 1, done.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(untouched.Payslips).To(HaveLen(3))
		})

		It("rolls the whole cascade back when the outer transaction fails", func() {
			draft := schedule("Draft run")
			tx := database.NewTransactor(db)

			err := tx.WithinTx(ctx, func(ctx context.Context) error {
				if _, err := service.RemoveEmployeeFromMutable(ctx, 1, 2); err != nil {
					return err
				}
				return errors.NewInternalError("employee delete failed", nil)
			})
			Expect(err).To(HaveOccurred())

			p, err := service.Get(ctx, 1, draft.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Payslips).To(HaveLen(3))
		})

		It("refuses to remove an employee from a completed payroll", func() {
			p := schedule("October payroll")
			setStatus(p.ID, payrollDatamodel.StatusCompleted)

			_, err := service.RemoveEmployee(ctx, 1, p.ID, 1)
			Expect(err).To(MatchError(payroll.ErrPayrollNotMutable))
		})

		It("reports an employee who is not in the payroll", func() {
			p := schedule("October payroll")

			_, err := service.RemoveEmployee(ctx, 1, p.ID, 99)
			Expect(err).To(MatchError(payroll.ErrPayslipNotFound))
		})
	})

	Describe("Delete", func() {
		It("deletes drafts", func() {
			p := schedule("October payroll")

			Expect(service.Delete(ctx, 1, p.ID)).To(Succeed())
			_, err := service.Get(ctx, 1, p.ID)
			Expect(err).To(MatchError(payroll.ErrPayrollNotFound))
		})

		It("refuses to delete completed payrolls", func() {
			p := schedule("October payroll")
			setStatus(p.ID, payrollDatamodel.StatusCompleted)

			Expect(service.Delete(ctx, 1, p.ID)).To(MatchError(payroll.ErrPayrollImmutable))
		})
	})

	Describe("queries", func() {
		It("filters and paginates the listing", func() {
			schedule("A")
			p := schedule("B")
			setStatus(p.ID, payrollDatamodel.StatusPending)

			result, err := service.List(ctx, 1, payroll.ListFilter{Status: "pending", Page: transport.Page{Page: 1, Limit: 10}})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Payrolls).To(HaveLen(1))
			Expect(result.Pagination.Total).To(Equal(int64(1)))
			Expect(result.Pagination.TotalPages).To(Equal(1))
		})

		It("summarises counts and net totals per status", func() {
			a := schedule("A")
			schedule("B")

			report, err := service.Summary(ctx, 1, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Summary["draft"].Count).To(Equal(int64(2)))
			Expect(report.Summary["draft"].Amount.Equal(a.Summary.TotalNet.Mul(decimal.NewFromInt(2)))).To(BeTrue())
			Expect(report.Summary["completed"].Count).To(BeZero())
			Expect(report.Upcoming).To(HaveLen(2))
		})

		It("lists pending payrolls whose next run has arrived", func() {
			p := schedule("October payroll")
			setStatus(p.ID, payrollDatamodel.StatusPending)
			Expect(db.Model(&payrollDatamodel.Payroll{}).Where("id = ?", p.ID).
				Update("schedule_next_run", now.Add(-time.Hour)).Error).To(Succeed())

			due, err := service.Due(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(due).To(HaveLen(1))
			Expect(due[0].ID).To(Equal(p.ID))
		})
	})

	It("renders a payslip as PDF", func() {
		p := schedule("October payroll")

		body, err := service.PayslipPDF(ctx, 1, p.ID, p.Payslips[0].ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(bytes.HasPrefix(body, []byte("%PDF"))).To(BeTrue())

		_, err = service.PayslipPDF(ctx, 1, p.ID, 9999)
		Expect(err).To(MatchError(payroll.ErrPayslipNotFound))
	})
})
