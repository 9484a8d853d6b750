package payroll_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/frahmantamala/payroll-engine/internal"
	compensationDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/compensation"
	employeeDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/employee"
	payrollDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/payroll"
	"github.com/frahmantamala/payroll-engine/internal/payroll"
)

type stubEmployees struct {
	items []employeeDatamodel.Employee
}

func (s *stubEmployees) Present(ctx context.Context, companyID int64) ([]employeeDatamodel.Employee, error) {
	return s.items, nil
}

type stubRules struct {
	byKind map[compensationDatamodel.Kind][]compensationDatamodel.Rule
	calls  int
}

func (s *stubRules) Active(ctx context.Context, companyID int64, kind compensationDatamodel.Kind) ([]compensationDatamodel.Rule, error) {
	s.calls++
	return s.byKind[kind], nil
}

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

var _ = Describe("Assembler", func() {
	var (
		employees *stubEmployees
		rules     *stubRules
		assembler *payroll.Assembler
		ctx       context.Context
	)

	BeforeEach(func() {
		employees = &stubEmployees{items: []employeeDatamodel.Employee{newEmployee(1, 150000), newEmployee(2, 200000)}}
		rules = &stubRules{byKind: map[compensationDatamodel.Kind][]compensationDatamodel.Rule{}}
		assembler = payroll.NewAssembler(employees, rules, testLogger).WithClock(func() time.Time { return now })
		ctx = context.Background()
	})

	request := func(recurring bool) payroll.ScheduleDTO {
		return payroll.ScheduleDTO{
			Name:        "October payroll",
			Frequency:   payrollDatamodel.FrequencyMonthly,
			PeriodStart: day(2026, 10, 1),
			PeriodEnd:   day(2026, 10, 31),
			IsRecurring: recurring,
		}
	}

	It("builds one draft batch with a summary over every payslip", func() {
		batches, err := assembler.Assemble(ctx, 1, request(false))
		Expect(err).NotTo(HaveOccurred())
		Expect(batches).To(HaveLen(1))

		b := batches[0]
		Expect(b.Status).To(Equal(payrollDatamodel.StatusDraft))
		Expect(b.TotalEmployees).To(Equal(2))
		Expect(b.Summary.TotalNet.Equal(netSum(b))).To(BeTrue())
		Expect(*b.Schedule.NextRun).To(Equal(day(2026, 11, 1)))
	})

	It("fails when nobody is present", func() {
		employees.items = nil

		_, err := assembler.Assemble(ctx, 1, request(false))
		Expect(err).To(MatchError(payroll.ErrNoEligibleEmployees))
	})

	It("reports every employee with bad data and builds nothing", func() {
		employees.items = append(employees.items, newEmployee(3, 0), newEmployee(4, 0))

		batches, err := assembler.Assemble(ctx, 1, request(false))
		Expect(batches).To(BeNil())

		appErr, ok := errors.IsAppError(err)
		Expect(ok).To(BeTrue())
		details, ok := appErr.Details.(errors.ValidationErrors)
		Expect(ok).To(BeTrue())
		Expect(details.Errors).To(HaveLen(2))
		Expect(details.Errors[0].Code).To(Equal(string(errors.ErrCodeMissingSalary)))
	})

	It("expands recurring schedules and keeps one-time rules in the first period", func() {
		oneTime := newRule("Signing bonus", compensationDatamodel.KindExtraEarning, compensationDatamodel.AmountFixed, 5000, 1)
		oneTime.Frequency = compensationDatamodel.FrequencyOneTime
		recurring := newRule("Union dues", compensationDatamodel.KindDeduction, compensationDatamodel.AmountFixed, 1000, 1)
		rules.byKind[compensationDatamodel.KindExtraEarning] = []compensationDatamodel.Rule{oneTime}
		rules.byKind[compensationDatamodel.KindDeduction] = []compensationDatamodel.Rule{recurring}

		batches, err := assembler.Assemble(ctx, 1, request(true))
		Expect(err).NotTo(HaveOccurred())
		Expect(batches).To(HaveLen(3))
		Expect(rules.calls).To(Equal(2))

		Expect(amounts(batches[0].Payslips[0].Allowances)).To(HaveKey("Signing bonus"))
		Expect(amounts(batches[1].Payslips[0].Allowances)).NotTo(HaveKey("Signing bonus"))
		Expect(amounts(batches[2].Payslips[0].Deductions)).To(HaveKeyWithValue("Union dues", "1000"))
		Expect(batches[1].Name).To(Equal("October payroll (November 2026)"))
		Expect(batches[2].Period.EndDate).To(Equal(day(2026, 12, 31)))
	})
})
