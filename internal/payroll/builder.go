package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/payroll-engine/internal"
	"github.com/frahmantamala/payroll-engine/internal/compensation"
	compensationDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/compensation"
	employeeDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/employee"
	payrollDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/payroll"
	"github.com/frahmantamala/payroll-engine/internal/tax"
)

var (
	hundred          = decimal.NewFromInt(100)
	transportPercent = decimal.NewFromInt(15)
	housingPercent   = decimal.NewFromInt(15)
	pensionPercent   = decimal.NewFromInt(8)
)

const (
	LineTransport = "transport"
	LineHousing   = "housing"
	LineTax       = "tax"
	LinePension   = "pension"
)

// BuildPayslip computes one employee's payslip. Rules are resolved at the
// given instant; the slip is returned unsaved with status pending.
func BuildPayslip(emp employeeDatamodel.Employee, deductions, earnings []compensationDatamodel.Rule, at time.Time) (*payrollDatamodel.Payslip, error) {
	base := emp.Salary
	if !base.IsPositive() {
		return nil, errors.NewValidationError(
			fmt.Sprintf("employee %s (%d) has no salary", emp.Name, emp.ID),
			errors.ErrCodeMissingSalary)
	}

	subject := compensation.Subject{
		EmployeeID:   emp.ID,
		DepartmentID: emp.DepartmentID,
		BaseSalary:   base,
	}

	allowances := payrollDatamodel.LineItems{
		{Type: LineTransport, Amount: percentOf(base, transportPercent), Description: "Transport Allowance"},
		{Type: LineHousing, Amount: percentOf(base, housingPercent), Description: "Housing Allowance"},
	}
	allowances = append(allowances, compensation.Resolve(subject, earnings, at)...)
	gross := base.Add(allowances.Sum())

	deductionItems := payrollDatamodel.LineItems{
		{Type: LineTax, Amount: tax.MonthlyTax(gross).Round(0), Description: "PAYE Tax"},
		{Type: LinePension, Amount: percentOf(base, pensionPercent), Description: "Pension Contribution"},
	}
	deductionItems = append(deductionItems, compensation.Resolve(subject, deductions, at)...)

	slip := &payrollDatamodel.Payslip{
		EmployeeID:   emp.ID,
		EmployeeName: emp.Name,
		BaseSalary:   base,
		Allowances:   allowances,
		Deductions:   deductionItems,
		Status:       payrollDatamodel.PayslipPending,
	}
	slip.Recompute()

	if slip.NetPay.IsNegative() {
		return nil, errors.NewValidationError(
			fmt.Sprintf("employee %s (%d) would have negative net pay %s", emp.Name, emp.ID, slip.NetPay.String()),
			errors.ErrCodeNegativeNetPay)
	}
	return slip, nil
}

// TaxDeduction returns the PAYE line of a payslip, or zero if absent.
func TaxDeduction(slip payrollDatamodel.Payslip) decimal.Decimal {
	for _, d := range slip.Deductions {
		if d.Type == LineTax {
			return d.Amount
		}
	}
	return decimal.Zero
}

func percentOf(base, percent decimal.Decimal) decimal.Decimal {
	return base.Mul(percent).Div(hundred).Round(0)
}
