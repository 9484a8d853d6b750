package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/payroll-engine/internal"
	payrollDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/payroll"
)

var transitions = map[payrollDatamodel.Status][]payrollDatamodel.Status{
	payrollDatamodel.StatusDraft:              {payrollDatamodel.StatusPending},
	payrollDatamodel.StatusPending:            {payrollDatamodel.StatusProcessing, payrollDatamodel.StatusDraft},
	payrollDatamodel.StatusProcessing:         {payrollDatamodel.StatusCompleted, payrollDatamodel.StatusFailed, payrollDatamodel.StatusPartiallyCompleted},
	payrollDatamodel.StatusFailed:             {payrollDatamodel.StatusDraft, payrollDatamodel.StatusPending},
	payrollDatamodel.StatusPartiallyCompleted: {payrollDatamodel.StatusPending},
	payrollDatamodel.StatusCompleted:          {},
}

// TransitionDetails is attached to rejected status changes.
type TransitionDetails struct {
	CurrentStatus      payrollDatamodel.Status   `json:"current_status"`
	RequestedStatus    payrollDatamodel.Status   `json:"requested_status"`
	AllowedTransitions []payrollDatamodel.Status `json:"allowed_transitions"`
}

func AllowedTransitions(from payrollDatamodel.Status) []payrollDatamodel.Status {
	allowed := transitions[from]
	out := make([]payrollDatamodel.Status, len(allowed))
	copy(out, allowed)
	return out
}

func CanTransition(from, to payrollDatamodel.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves p to the target status and appends a history entry.
func Transition(p *payrollDatamodel.Payroll, to payrollDatamodel.Status, message string, at time.Time) error {
	if !CanTransition(p.Status, to) {
		return errors.NewValidationError(
			fmt.Sprintf("Invalid status transition from %s to %s", p.Status, to),
			errors.ErrCodeInvalidTransition,
		).WithDetails(TransitionDetails{
			CurrentStatus:      p.Status,
			RequestedStatus:    to,
			AllowedTransitions: AllowedTransitions(p.Status),
		})
	}

	from := p.Status
	p.Status = to
	if message == "" {
		message = fmt.Sprintf("Status changed from %s to %s", from, to)
	}
	Record(p, message, at)
	return nil
}

// Record appends a history entry for the current status.
func Record(p *payrollDatamodel.Payroll, message string, at time.Time) {
	p.History = append(p.History, payrollDatamodel.HistoryEntry{
		PayrollID: p.ID,
		Status:    p.Status,
		Message:   message,
		Timestamp: at,
	})
}

// IsMutable reports whether payslips may still be edited or removed.
func IsMutable(status payrollDatamodel.Status) bool {
	return status == payrollDatamodel.StatusDraft || status == payrollDatamodel.StatusPending
}

// RecomputeSummary rebuilds totals from the current payslips.
func RecomputeSummary(p *payrollDatamodel.Payroll) {
	s := payrollDatamodel.Summary{
		TotalGross:      decimal.Zero,
		TotalDeductions: decimal.Zero,
		TotalAllowances: decimal.Zero,
		TotalNet:        decimal.Zero,
	}
	for _, slip := range p.Payslips {
		s.TotalGross = s.TotalGross.Add(slip.GrossPay)
		s.TotalDeductions = s.TotalDeductions.Add(slip.Deductions.Sum())
		s.TotalAllowances = s.TotalAllowances.Add(slip.Allowances.Sum())
		s.TotalNet = s.TotalNet.Add(slip.NetPay)
	}
	p.Summary = s
	p.TotalEmployees = len(p.Payslips)
}

// RemovePayslip splices the employee's payslip out of p and recomputes the
// summary. It returns the removed payslip, or nil if the employee had none.
func RemovePayslip(p *payrollDatamodel.Payroll, employeeID int64) *payrollDatamodel.Payslip {
	for i := range p.Payslips {
		if p.Payslips[i].EmployeeID != employeeID {
			continue
		}
		removed := p.Payslips[i]
		p.Payslips = append(p.Payslips[:i], p.Payslips[i+1:]...)
		RecomputeSummary(p)
		return &removed
	}
	return nil
}

// Outstanding sums net pay over payslips that are not yet completed.
func Outstanding(p *payrollDatamodel.Payroll) decimal.Decimal {
	total := decimal.Zero
	for _, slip := range p.Payslips {
		if slip.Status != payrollDatamodel.PayslipCompleted {
			total = total.Add(slip.NetPay)
		}
	}
	return total
}

// AllPaid reports whether every payslip is completed.
func AllPaid(p *payrollDatamodel.Payroll) bool {
	for _, slip := range p.Payslips {
		if slip.Status != payrollDatamodel.PayslipCompleted {
			return false
		}
	}
	return true
}
