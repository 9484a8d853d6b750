package taxremittance

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/payroll-engine/internal"
	employeeDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/employee"
	payrollDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/payroll"
	remittanceDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/taxremittance"
	"github.com/frahmantamala/payroll-engine/internal/core/events"
	"github.com/frahmantamala/payroll-engine/internal/payroll"
	"github.com/frahmantamala/payroll-engine/internal/tax"
)

type RepositoryAPI interface {
	Create(ctx context.Context, r *remittanceDatamodel.Remittance) error
	GetByID(ctx context.Context, companyID, id int64) (*remittanceDatamodel.Remittance, error)
	ExistsForPayroll(ctx context.Context, payrollID int64) (bool, error)
	List(ctx context.Context, companyID int64, status string) ([]remittanceDatamodel.Remittance, error)
	// Save writes the remittance row and its lines.
	Save(ctx context.Context, r *remittanceDatamodel.Remittance) error
}

type PayrollLookup interface {
	Get(ctx context.Context, companyID, id int64) (*payrollDatamodel.Payroll, error)
}

type EmployeeLookup interface {
	Get(ctx context.Context, companyID, id int64) (*employeeDatamodel.Employee, error)
}

var (
	ErrRemittanceNotFound   = errors.NewNotFoundError("Tax remittance not found", errors.ErrCodeRemittanceNotFound)
	ErrRemittanceNotPending = errors.NewValidationError("Tax remittance is not pending", errors.ErrCodeRemittanceNotPending)
	ErrRemittanceExists     = errors.NewConflictError("A tax remittance already exists for this payroll", errors.ErrCodeRemittanceExists)
	ErrPayrollNotCompleted  = errors.NewValidationError("Tax can only be remitted for completed payrolls", errors.ErrCodePayrollNotCompleted)
	ErrLineNotRetryable     = errors.NewNotFoundError("Failed payment not found for this employee", errors.ErrCodeLineNotRetryable)
	ErrNothingToRemit       = errors.NewValidationError("Payroll has no PAYE deductions to remit", errors.ErrCodeValidationFailed)
)

const msgMissingPID = "Employee or PID not found"

type Service struct {
	repo      RepositoryAPI
	payrolls  PayrollLookup
	employees EmployeeLookup
	gate      TaxAuthorityGate
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, payrolls PayrollLookup, employees EmployeeLookup, gate TaxAuthorityGate, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		payrolls:  payrolls,
		employees: employees,
		gate:      gate,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) WithPublisher(p events.Publisher) *Service {
	s.publisher = p
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Build collects the PAYE lines of a completed payroll into a pending
// remittance with a per-employee band breakdown.
func (s *Service) Build(ctx context.Context, companyID, payrollID int64) (*remittanceDatamodel.Remittance, error) {
	p, err := s.payrolls.Get(ctx, companyID, payrollID)
	if err != nil {
		return nil, err
	}
	if p.Status != payrollDatamodel.StatusCompleted {
		return nil, ErrPayrollNotCompleted.WithDetails(map[string]interface{}{"current_status": p.Status})
	}

	exists, err := s.repo.ExistsForPayroll(ctx, p.ID)
	if err != nil {
		return nil, errors.NewInternalError("failed to check existing remittance", err)
	}
	if exists {
		return nil, ErrRemittanceExists
	}

	now := s.now()
	r := &remittanceDatamodel.Remittance{
		CompanyID:   companyID,
		PayrollID:   p.ID,
		Month:       p.Period.StartDate.Format("2006-01"),
		TotalAmount: decimal.Zero,
		Status:      remittanceDatamodel.StatusPending,
		AppliedDate: now,
	}

	for _, slip := range p.Payslips {
		amount := payroll.TaxDeduction(slip)
		if !amount.IsPositive() {
			continue
		}

		line := remittanceDatamodel.Line{
			EmployeeID: slip.EmployeeID,
			Amount:     amount,
			Breakdown:  bands(tax.Calculate(slip.GrossPay).Breakdown),
			Status:     remittanceDatamodel.LinePending,
		}
		emp, err := s.employees.Get(ctx, companyID, slip.EmployeeID)
		if err == nil && emp.TaxPID != nil {
			line.TaxPID = *emp.TaxPID
		}
		r.Lines = append(r.Lines, line)
		r.TotalAmount = r.TotalAmount.Add(amount)
	}
	if len(r.Lines) == 0 {
		return nil, ErrNothingToRemit
	}

	record(r, fmt.Sprintf("Remittance created from payroll %s", p.Name), now)

	if err := s.repo.Create(ctx, r); err != nil {
		s.logger.Error("failed to create tax remittance", "error", err, "payroll_id", p.ID)
		return nil, errors.NewInternalError("failed to create tax remittance", err)
	}

	s.logger.Info("tax remittance created",
		"remittance_id", r.ID,
		"payroll_id", p.ID,
		"lines", len(r.Lines),
		"total", r.TotalAmount.String())
	return r, nil
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (*remittanceDatamodel.Remittance, error) {
	return s.repo.GetByID(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, companyID int64, status string) ([]remittanceDatamodel.Remittance, error) {
	items, err := s.repo.List(ctx, companyID, status)
	if err != nil {
		return nil, errors.NewInternalError("failed to list tax remittances", err)
	}
	return items, nil
}

// Process pays every pending line through the tax authority and settles the
// remittance on completed, failed or partial.
func (s *Service) Process(ctx context.Context, companyID, id int64) (*remittanceDatamodel.Remittance, error) {
	r, err := s.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if r.Status != remittanceDatamodel.StatusPending {
		return nil, ErrRemittanceNotPending.WithDetails(map[string]interface{}{"current_status": r.Status})
	}

	var processed, failed int
	for i := range r.Lines {
		line := &r.Lines[i]
		if line.Status == remittanceDatamodel.LineProcessed {
			continue
		}
		if err := s.pay(ctx, r, line); err != nil {
			failed++
			continue
		}
		processed++
	}

	now := s.now()
	switch {
	case failed == 0:
		r.Status = remittanceDatamodel.StatusCompleted
	case processed == 0:
		r.Status = remittanceDatamodel.StatusFailed
	default:
		r.Status = remittanceDatamodel.StatusPartial
	}
	r.ProcessedDate = &now
	record(r, fmt.Sprintf("Processed %d successful and %d failed payments", processed, failed), now)

	if err := s.repo.Save(ctx, r); err != nil {
		return nil, errors.NewInternalError("failed to update tax remittance", err)
	}

	s.logger.Info("tax remittance processed",
		"remittance_id", r.ID,
		"status", r.Status,
		"processed", processed,
		"failed", failed)

	s.publish(ctx, events.NewRemittanceProcessedEvent(companyID, r.ID, r.Month, string(r.Status), r.TotalAmount, processed, failed))
	return r, nil
}

// RetryLine re-submits the failed line of one employee.
func (s *Service) RetryLine(ctx context.Context, companyID, id, employeeID int64) (*remittanceDatamodel.Remittance, error) {
	r, err := s.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	var line *remittanceDatamodel.Line
	for i := range r.Lines {
		if r.Lines[i].EmployeeID == employeeID && r.Lines[i].Status == remittanceDatamodel.LineFailed {
			line = &r.Lines[i]
			break
		}
	}
	if line == nil {
		return nil, ErrLineNotRetryable
	}

	now := s.now()
	r.RetryCount++
	payErr := s.pay(ctx, r, line)
	if payErr == nil {
		if allProcessed(r) {
			r.Status = remittanceDatamodel.StatusCompleted
		}
		record(r, fmt.Sprintf("Successfully retried payment for employee %d", employeeID), now)
	} else {
		record(r, fmt.Sprintf("Retry failed for employee %d: %v", employeeID, payErr), now)
	}

	if err := s.repo.Save(ctx, r); err != nil {
		return nil, errors.NewInternalError("failed to update tax remittance", err)
	}
	if payErr != nil {
		return nil, errors.NewExternalError("Payment retry failed", payErr)
	}
	return r, nil
}

// pay submits one line and records the outcome on it.
func (s *Service) pay(ctx context.Context, r *remittanceDatamodel.Remittance, line *remittanceDatamodel.Line) error {
	err := s.submit(ctx, r, line)
	if err != nil {
		msg := err.Error()
		line.Status = remittanceDatamodel.LineFailed
		line.ErrorMessage = &msg
		s.logger.Warn("tax payment failed",
			"remittance_id", r.ID,
			"employee_id", line.EmployeeID,
			"error", err)
	}
	return err
}

func (s *Service) submit(ctx context.Context, r *remittanceDatamodel.Remittance, line *remittanceDatamodel.Line) error {
	emp, err := s.employees.Get(ctx, r.CompanyID, line.EmployeeID)
	if err != nil {
		if _, ok := errors.IsAppError(err); ok {
			return stderrors.New(msgMissingPID)
		}
		return err
	}
	if emp.TaxPID == nil || *emp.TaxPID == "" {
		return stderrors.New(msgMissingPID)
	}
	line.TaxPID = *emp.TaxPID

	res, err := s.gate.PayTax(ctx, PayTaxRequest{
		PID:         *emp.TaxPID,
		Amount:      line.Amount,
		AppliedDate: s.now(),
		Email:       emp.Email,
		Mobile:      emp.Phone,
	})
	if err != nil {
		return err
	}
	if res.Status != PayStatusSuccess {
		if res.Message != "" {
			return stderrors.New(res.Message)
		}
		return stderrors.New("Payment failed")
	}

	processedAt := s.now()
	line.Status = remittanceDatamodel.LineProcessed
	line.PaymentReference = &res.PaymentRef
	line.ReceiptNumber = &res.ReceiptNumber
	line.ErrorMessage = nil
	line.ProcessedAt = &processedAt
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func record(r *remittanceDatamodel.Remittance, msg string, at time.Time) {
	r.History = append(r.History, remittanceDatamodel.HistoryEntry{Status: r.Status, Message: msg, Timestamp: at})
}

func allProcessed(r *remittanceDatamodel.Remittance) bool {
	for _, l := range r.Lines {
		if l.Status != remittanceDatamodel.LineProcessed {
			return false
		}
	}
	return true
}

func bands(in []tax.Band) []remittanceDatamodel.Band {
	out := make([]remittanceDatamodel.Band, len(in))
	for i, b := range in {
		out[i] = remittanceDatamodel.Band{Name: b.Name, Amount: b.Amount, Rate: b.Rate, Tax: b.Tax}
	}
	return out
}
