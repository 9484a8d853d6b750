// Package tax computes monthly PAYE from a monthly gross figure.
package tax

import (
	"github.com/shopspring/decimal"
)

var (
	monthsPerYear   = decimal.NewFromInt(12)
	pensionRate     = decimal.RequireFromString("0.08")
	reliefRate      = decimal.RequireFromString("0.2")
	minimumRelief   = decimal.NewFromInt(200000)
	hundred         = decimal.NewFromInt(100)
	progressiveBand = []band{
		{name: "First ₦300,000", width: decimal.NewFromInt(300000), rate: decimal.RequireFromString("0.07")},
		{name: "Next ₦300,000", width: decimal.NewFromInt(300000), rate: decimal.RequireFromString("0.11")},
		{name: "Next ₦500,000", width: decimal.NewFromInt(500000), rate: decimal.RequireFromString("0.15")},
		{name: "Next ₦500,000", width: decimal.NewFromInt(500000), rate: decimal.RequireFromString("0.19")},
		{name: "Next ₦1,600,000", width: decimal.NewFromInt(1600000), rate: decimal.RequireFromString("0.21")},
		{name: "Above ₦3,200,000", rate: decimal.RequireFromString("0.24"), open: true},
	}
)

type band struct {
	name  string
	width decimal.Decimal
	rate  decimal.Decimal
	open  bool
}

// Band is the portion of taxable income charged at one rate.
// Rate is expressed in percent.
type Band struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Rate   decimal.Decimal `json:"rate"`
	Tax    decimal.Decimal `json:"tax"`
}

type Result struct {
	MonthlyTax          decimal.Decimal `json:"monthly_tax"`
	AnnualTax           decimal.Decimal `json:"annual_tax"`
	TaxableIncome       decimal.Decimal `json:"taxable_income"`
	PensionContribution decimal.Decimal `json:"pension_contribution"`
	ConsolidatedRelief  decimal.Decimal `json:"consolidated_relief"`
	Breakdown           []Band          `json:"breakdown"`
}

// Calculate is pure: identical input always yields identical output, which
// lets scheduling and remittance agree on the same figures.
func Calculate(monthlyGross decimal.Decimal) Result {
	if !monthlyGross.IsPositive() {
		return zero()
	}

	annual := monthlyGross.Mul(monthsPerYear)
	pension := annual.Mul(pensionRate)
	relief := decimal.Max(annual.Mul(reliefRate), minimumRelief)
	taxable := annual.Sub(pension).Sub(relief)

	if !taxable.IsPositive() {
		r := zero()
		r.PensionContribution = pension
		r.ConsolidatedRelief = relief
		return r
	}

	remaining := taxable
	total := decimal.Zero
	breakdown := make([]Band, 0, len(progressiveBand))
	for _, b := range progressiveBand {
		if !remaining.IsPositive() {
			break
		}
		portion := remaining
		if !b.open {
			portion = decimal.Min(remaining, b.width)
		}
		charged := portion.Mul(b.rate)
		total = total.Add(charged)
		remaining = remaining.Sub(portion)

		breakdown = append(breakdown, Band{
			Name:   b.name,
			Amount: portion,
			Rate:   b.rate.Mul(hundred),
			Tax:    charged,
		})
	}

	return Result{
		MonthlyTax:          total.Div(monthsPerYear).Round(0),
		AnnualTax:           total.Round(0),
		TaxableIncome:       taxable,
		PensionContribution: pension,
		ConsolidatedRelief:  relief,
		Breakdown:           breakdown,
	}
}

// MonthlyTax is a shortcut for Calculate(gross).MonthlyTax.
func MonthlyTax(monthlyGross decimal.Decimal) decimal.Decimal {
	return Calculate(monthlyGross).MonthlyTax
}

func zero() Result {
	return Result{
		MonthlyTax:          decimal.Zero,
		AnnualTax:           decimal.Zero,
		TaxableIncome:       decimal.Zero,
		PensionContribution: decimal.Zero,
		ConsolidatedRelief:  decimal.Zero,
		Breakdown:           []Band{},
	}
}
