package payroll_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/payroll-engine/internal"
	payrollDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/payroll"
	"github.com/frahmantamala/payroll-engine/internal/payroll"
)

func batchOf(salaries ...int64) *payrollDatamodel.Payroll {
	p := &payrollDatamodel.Payroll{ID: 1, CompanyID: 1, Status: payrollDatamodel.StatusDraft}
	for i, s := range salaries {
		slip, err := payroll.BuildPayslip(newEmployee(int64(i+1), s), nil, nil, now)
		Expect(err).NotTo(HaveOccurred())
		slip.ID = int64(i + 1)
		p.Payslips = append(p.Payslips, *slip)
	}
	payroll.RecomputeSummary(p)
	return p
}

func netSum(p *payrollDatamodel.Payroll) decimal.Decimal {
	total := decimal.Zero
	for _, s := range p.Payslips {
		total = total.Add(s.NetPay)
	}
	return total
}

var _ = Describe("Lifecycle", func() {
	DescribeTable("transition table",
		func(from, to payrollDatamodel.Status, allowed bool) {
			Expect(payroll.CanTransition(from, to)).To(Equal(allowed))
		},
		Entry("draft to pending", payrollDatamodel.StatusDraft, payrollDatamodel.StatusPending, true),
		Entry("draft to processing", payrollDatamodel.StatusDraft, payrollDatamodel.StatusProcessing, false),
		Entry("pending to processing", payrollDatamodel.StatusPending, payrollDatamodel.StatusProcessing, true),
		Entry("pending to draft", payrollDatamodel.StatusPending, payrollDatamodel.StatusDraft, true),
		Entry("processing to partially completed", payrollDatamodel.StatusProcessing, payrollDatamodel.StatusPartiallyCompleted, true),
		Entry("processing to pending", payrollDatamodel.StatusProcessing, payrollDatamodel.StatusPending, false),
		Entry("failed to pending", payrollDatamodel.StatusFailed, payrollDatamodel.StatusPending, true),
		Entry("partially completed to pending", payrollDatamodel.StatusPartiallyCompleted, payrollDatamodel.StatusPending, true),
		Entry("partially completed to completed", payrollDatamodel.StatusPartiallyCompleted, payrollDatamodel.StatusCompleted, false),
		Entry("completed to draft", payrollDatamodel.StatusCompleted, payrollDatamodel.StatusDraft, false),
	)

	It("records a history entry for every accepted transition", func() {
		p := batchOf(150000)

		Expect(payroll.Transition(p, payrollDatamodel.StatusPending, "", now)).To(Succeed())
		Expect(payroll.Transition(p, payrollDatamodel.StatusProcessing, "Started payroll processing", now)).To(Succeed())

		Expect(p.History).To(HaveLen(2))
		Expect(p.History[0].Message).To(Equal("Status changed from draft to pending"))
		Expect(p.History[1].Status).To(Equal(payrollDatamodel.StatusProcessing))
	})

	It("explains a rejected transition with the allowed targets", func() {
		p := batchOf(150000)

		err := payroll.Transition(p, payrollDatamodel.StatusCompleted, "", now)

		appErr, ok := errors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(errors.ErrCodeInvalidTransition))
		details, ok := appErr.Details.(payroll.TransitionDetails)
		Expect(ok).To(BeTrue())
		Expect(details.CurrentStatus).To(Equal(payrollDatamodel.StatusDraft))
		Expect(details.AllowedTransitions).To(ConsistOf(payrollDatamodel.StatusPending))
		Expect(p.Status).To(Equal(payrollDatamodel.StatusDraft))
		Expect(p.History).To(BeEmpty())
	})

	Describe("summary", func() {
		It("is idempotent", func() {
			p := batchOf(150000, 200000)
			first := p.Summary

			payroll.RecomputeSummary(p)
			payroll.RecomputeSummary(p)

			Expect(p.Summary.TotalNet.Equal(first.TotalNet)).To(BeTrue())
			Expect(p.Summary.TotalGross.Equal(first.TotalGross)).To(BeTrue())
		})

		It("tracks payslip removal", func() {
			p := batchOf(150000, 200000, 100000)

			removed := payroll.RemovePayslip(p, 2)

			Expect(removed).NotTo(BeNil())
			Expect(removed.EmployeeID).To(Equal(int64(2)))
			Expect(p.TotalEmployees).To(Equal(2))
			Expect(p.Summary.TotalNet.Equal(netSum(p))).To(BeTrue())
			Expect(payroll.RemovePayslip(p, 2)).To(BeNil())
		})
	})

	It("only allows edits while draft or pending", func() {
		Expect(payroll.IsMutable(payrollDatamodel.StatusDraft)).To(BeTrue())
		Expect(payroll.IsMutable(payrollDatamodel.StatusPending)).To(BeTrue())
		Expect(payroll.IsMutable(payrollDatamodel.StatusProcessing)).To(BeFalse())
		Expect(payroll.IsMutable(payrollDatamodel.StatusCompleted)).To(BeFalse())
	})

	It("sums outstanding net pay over unpaid payslips", func() {
		p := batchOf(150000, 150000)
		p.Payslips[0].Status = payrollDatamodel.PayslipCompleted

		Expect(payroll.Outstanding(p).String()).To(Equal("162849"))
		Expect(payroll.AllPaid(p)).To(BeFalse())
	})
})
