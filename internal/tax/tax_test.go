package tax_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/payroll-engine/internal/tax"
)

var _ = Describe("Calculate", func() {
	Context("when gross is not positive", func() {
		DescribeTable("returns an all-zero result",
			func(gross int64) {
				r := tax.Calculate(decimal.NewFromInt(gross))
				Expect(r.MonthlyTax.IsZero()).To(BeTrue())
				Expect(r.AnnualTax.IsZero()).To(BeTrue())
				Expect(r.TaxableIncome.IsZero()).To(BeTrue())
				Expect(r.Breakdown).To(BeEmpty())
			},
			Entry("zero", int64(0)),
			Entry("negative", int64(-5000)),
		)
	})

	Context("when reliefs exceed gross", func() {
		It("charges no tax and returns an empty breakdown", func() {
			r := tax.Calculate(decimal.NewFromInt(15000))
			Expect(r.MonthlyTax.IsZero()).To(BeTrue())
			Expect(r.TaxableIncome.IsZero()).To(BeTrue())
			Expect(r.Breakdown).To(BeEmpty())
			Expect(r.ConsolidatedRelief.String()).To(Equal("200000"))
		})
	})

	Context("with a gross of 195000", func() {
		var r tax.Result

		BeforeEach(func() {
			r = tax.Calculate(decimal.NewFromInt(195000))
		})

		It("derives reliefs from the annual figure", func() {
			Expect(r.PensionContribution.String()).To(Equal("187200"))
			Expect(r.ConsolidatedRelief.String()).To(Equal("468000"))
			Expect(r.TaxableIncome.String()).To(Equal("1684800"))
		})

		It("applies the bands cumulatively", func() {
			Expect(r.Breakdown).To(HaveLen(5))
			Expect(r.Breakdown[0].Name).To(Equal("First ₦300,000"))
			Expect(r.Breakdown[0].Rate.String()).To(Equal("7"))
			Expect(r.Breakdown[0].Tax.String()).To(Equal("21000"))
			Expect(r.Breakdown[4].Name).To(Equal("Next ₦1,600,000"))
			Expect(r.Breakdown[4].Amount.String()).To(Equal("84800"))
			Expect(r.Breakdown[4].Tax.String()).To(Equal("17808"))
		})

		It("rounds annual and monthly totals", func() {
			Expect(r.AnnualTax.String()).To(Equal("241808"))
			Expect(r.MonthlyTax.String()).To(Equal("20151"))
		})
	})

	Context("with income above the last band threshold", func() {
		It("charges the remainder at 24 percent", func() {
			r := tax.Calculate(decimal.NewFromInt(1000000))
			last := r.Breakdown[len(r.Breakdown)-1]
			Expect(last.Name).To(Equal("Above ₦3,200,000"))
			Expect(last.Rate.String()).To(Equal("24"))
			// 12,000,000 annual minus 960,000 pension and 2,400,000 relief
			Expect(r.TaxableIncome.String()).To(Equal("8640000"))
			Expect(last.Amount.String()).To(Equal("5440000"))
		})
	})

	It("keeps annual close to twelve times monthly", func() {
		for _, g := range []int64{50000, 120000, 195000, 450000, 2500000} {
			r := tax.Calculate(decimal.NewFromInt(g))
			diff := r.MonthlyTax.Mul(decimal.NewFromInt(12)).Sub(r.AnnualTax).Abs()
			Expect(diff.LessThanOrEqual(decimal.NewFromInt(6))).To(BeTrue(), "gross %d", g)
		}
	})

	It("is deterministic", func() {
		gross := decimal.NewFromInt(321456)
		Expect(tax.Calculate(gross)).To(Equal(tax.Calculate(gross)))
	})
})
