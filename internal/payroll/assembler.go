package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	errors "github.com/frahmantamala/payroll-engine/internal"
	"github.com/frahmantamala/payroll-engine/internal/compensation"
	compensationDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/compensation"
	employeeDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/employee"
	payrollDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/payroll"
)

// EmployeeSource lists the employees eligible for a pay run.
type EmployeeSource interface {
	Present(ctx context.Context, companyID int64) ([]employeeDatamodel.Employee, error)
}

// RuleSource lists the active rules of one kind.
type RuleSource interface {
	Active(ctx context.Context, companyID int64, kind compensationDatamodel.Kind) ([]compensationDatamodel.Rule, error)
}

var ErrNoEligibleEmployees = errors.NewValidationError("No active employees found", errors.ErrCodeNoEligibleEmployees)

// Assembler builds draft batches in memory. Nothing is persisted here.
type Assembler struct {
	employees EmployeeSource
	rules     RuleSource
	logger    *slog.Logger
	now       func() time.Time
}

func NewAssembler(employees EmployeeSource, rules RuleSource, logger *slog.Logger) *Assembler {
	return &Assembler{
		employees: employees,
		rules:     rules,
		logger:    logger,
		now:       time.Now,
	}
}

func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	a.now = now
	return a
}

// Assemble returns one draft batch per period. Rules are read once and
// shared by every period; one-time rules only reach the first period.
// Any per-employee error aborts the whole call.
func (a *Assembler) Assemble(ctx context.Context, companyID int64, req ScheduleDTO) ([]*payrollDatamodel.Payroll, error) {
	employees, err := a.employees.Present(ctx, companyID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load employees", err)
	}
	if len(employees) == 0 {
		return nil, ErrNoEligibleEmployees
	}

	deductions, err := a.rules.Active(ctx, companyID, compensationDatamodel.KindDeduction)
	if err != nil {
		return nil, errors.NewInternalError("failed to load deductions", err)
	}
	earnings, err := a.rules.Active(ctx, companyID, compensationDatamodel.KindExtraEarning)
	if err != nil {
		return nil, errors.NewInternalError("failed to load extra earnings", err)
	}
	recurringDeductions := compensation.Recurring(deductions)
	recurringEarnings := compensation.Recurring(earnings)

	now := a.now()
	periods := Periods(req.Frequency, req.PeriodStart, req.PeriodEnd, req.IsRecurring)
	batches := make([]*payrollDatamodel.Payroll, 0, len(periods))
	var problems []errors.ValidationError

	for i, period := range periods {
		d, e := deductions, earnings
		name := req.Name
		if i > 0 {
			d, e = recurringDeductions, recurringEarnings
			name = fmt.Sprintf("%s (%s)", req.Name, PeriodLabel(req.Frequency, period))
		}

		at := now
		if period.StartDate.After(at) {
			at = period.StartDate
		}

		batch := &payrollDatamodel.Payroll{
			CompanyID: companyID,
			Name:      name,
			Period:    period,
			Frequency: req.Frequency,
			Status:    payrollDatamodel.StatusDraft,
			Payslips:  make([]payrollDatamodel.Payslip, 0, len(employees)),
		}

		for _, emp := range employees {
			slip, err := BuildPayslip(emp, d, e, at)
			if err != nil {
				problems = append(problems, employeeProblem(emp, period, err))
				continue
			}
			batch.Payslips = append(batch.Payslips, *slip)
		}

		RecomputeSummary(batch)
		next := Step(req.Frequency, period.StartDate)
		batch.Schedule = payrollDatamodel.Schedule{
			NextRun:     &next,
			IsRecurring: req.IsRecurring,
		}
		Record(batch, "Payroll scheduled", now)
		batches = append(batches, batch)
	}

	if len(problems) > 0 {
		a.logger.Warn("payroll assembly rejected", "company_id", companyID, "problems", len(problems))
		return nil, errors.NewValidationError("Payroll could not be assembled", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: problems})
	}

	a.logger.Info("payroll assembled", "company_id", companyID, "batches", len(batches), "employees", len(employees))
	return batches, nil
}

func employeeProblem(emp employeeDatamodel.Employee, period payrollDatamodel.Period, err error) errors.ValidationError {
	code := string(errors.ErrCodeValidationFailed)
	msg := err.Error()
	if appErr, ok := errors.IsAppError(err); ok {
		code = string(appErr.Code)
		msg = appErr.Message
	}
	return errors.ValidationError{
		Field:   fmt.Sprintf("employees[%d]", emp.ID),
		Message: fmt.Sprintf("%s (period starting %s)", msg, period.StartDate.Format("2006-01-02")),
		Code:    code,
	}
}
