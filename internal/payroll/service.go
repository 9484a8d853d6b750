package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	errors "github.com/frahmantamala/payroll-engine/internal"
	payrollDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/payroll"
	"github.com/frahmantamala/payroll-engine/internal/core/database"
)

type RepositoryAPI interface {
	CreateBatch(ctx context.Context, batches []*payrollDatamodel.Payroll) error
	GetByID(ctx context.Context, companyID, id int64) (*payrollDatamodel.Payroll, error)
	List(ctx context.Context, companyID int64, filter ListFilter) ([]payrollDatamodel.Payroll, int64, error)
	// Save writes the payroll row, its payslips and any history entries
	// that have not been stored yet.
	Save(ctx context.Context, p *payrollDatamodel.Payroll) error
	SavePayslip(ctx context.Context, slip *payrollDatamodel.Payslip) error
	// ClaimForProcessing moves the payroll to processing only while it is in
	// one of from, and reports whether this caller made the move.
	ClaimForProcessing(ctx context.Context, companyID, id int64, from []payrollDatamodel.Status, at time.Time) (bool, error)
	DeletePayslip(ctx context.Context, id int64) error
	Delete(ctx context.Context, companyID, id int64) error
	ListMutableWithEmployee(ctx context.Context, companyID, employeeID int64) ([]*payrollDatamodel.Payroll, error)
	ListDue(ctx context.Context, now time.Time) ([]payrollDatamodel.Payroll, error)
}

type ReportRepositoryAPI interface {
	StatusTotals(ctx context.Context, companyID int64, from, to *time.Time) ([]StatusTotal, error)
	Upcoming(ctx context.Context, companyID int64, after time.Time, limit int) ([]UpcomingRun, error)
}

var (
	ErrPayrollNotFound   = errors.NewNotFoundError("Payroll record not found", errors.ErrCodePayrollNotFound)
	ErrPayslipNotFound   = errors.NewNotFoundError("Payslip not found", errors.ErrCodePayslipNotFound)
	ErrPayrollImmutable  = errors.NewValidationError("Completed payrolls cannot be modified", errors.ErrCodePayrollImmutable)
	ErrPayrollNotMutable = errors.NewValidationError("Payslips can only be changed while the payroll is draft or pending", errors.ErrCodePayrollNotMutable)
	ErrPayrollInFlight   = errors.NewConflictError("Payroll is being processed", errors.ErrCodePayrollNotMutable)
	ErrStatusReserved    = errors.NewValidationError("Processing and settled statuses are only set by payroll processing", errors.ErrCodeStatusReserved)
)

// settable are the statuses a caller may request through Update. The rest
// are owned by the disbursement run.
var settable = map[payrollDatamodel.Status]bool{
	payrollDatamodel.StatusDraft:   true,
	payrollDatamodel.StatusPending: true,
}

type Service struct {
	repo      RepositoryAPI
	reports   ReportRepositoryAPI
	assembler *Assembler
	tx        database.Transactor
	logger    *slog.Logger
	now       func() time.Time

	companies  CompanyLookup
	employees  EmployeeLookup
	archiveDir string
}

func NewService(repo RepositoryAPI, reports ReportRepositoryAPI, assembler *Assembler, tx database.Transactor, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		reports:   reports,
		assembler: assembler,
		tx:        tx,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	if s.assembler != nil {
		s.assembler.WithClock(now)
	}
	return s
}

// WithDocuments enables payslip rendering with company and employee details.
func (s *Service) WithDocuments(companies CompanyLookup, employees EmployeeLookup, archiveDir string) *Service {
	s.companies = companies
	s.employees = employees
	s.archiveDir = archiveDir
	return s
}

// Schedule assembles and stores draft batches in one transaction.
func (s *Service) Schedule(ctx context.Context, companyID int64, dto ScheduleDTO) ([]*payrollDatamodel.Payroll, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	batches, err := s.assembler.Assemble(ctx, companyID, dto)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.repo.CreateBatch(ctx, batches)
	})
	if err != nil {
		s.logger.Error("failed to store payroll batches", "error", err, "company_id", companyID)
		return nil, errors.NewInternalError("Error scheduling payroll", err)
	}

	s.logger.Info("payroll scheduled", "company_id", companyID, "batches", len(batches))
	return batches, nil
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (*payrollDatamodel.Payroll, error) {
	return s.repo.GetByID(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, companyID int64, filter ListFilter) (*ListResult, error) {
	items, total, err := s.repo.List(ctx, companyID, filter)
	if err != nil {
		s.logger.Error("failed to list payrolls", "error", err, "company_id", companyID)
		return nil, errors.NewInternalError("Error fetching payrolls", err)
	}
	return &ListResult{Payrolls: items, Pagination: NewPagination(total, filter.Page)}, nil
}

// Summary counts payrolls and sums net pay per status, and lists the next
// five scheduled runs.
func (s *Service) Summary(ctx context.Context, companyID int64, from, to *time.Time) (*SummaryReport, error) {
	totals, err := s.reports.StatusTotals(ctx, companyID, from, to)
	if err != nil {
		return nil, errors.NewInternalError("Error fetching payroll summary", err)
	}
	upcoming, err := s.reports.Upcoming(ctx, companyID, s.now(), 5)
	if err != nil {
		return nil, errors.NewInternalError("Error fetching payroll summary", err)
	}

	report := &SummaryReport{
		Summary:  make(map[string]StatusTotal),
		Upcoming: upcoming,
	}
	for _, st := range []payrollDatamodel.Status{
		payrollDatamodel.StatusDraft,
		payrollDatamodel.StatusPending,
		payrollDatamodel.StatusProcessing,
		payrollDatamodel.StatusCompleted,
		payrollDatamodel.StatusFailed,
		payrollDatamodel.StatusPartiallyCompleted,
	} {
		report.Summary[string(st)] = StatusTotal{Status: string(st)}
	}
	for _, t := range totals {
		report.Summary[t.Status] = t
	}
	return report, nil
}

// Update applies payslip merges, renames, period changes and a status
// transition. Payslip merges are only accepted while draft or pending.
func (s *Service) Update(ctx context.Context, companyID, id int64, dto UpdatePayrollDTO) (*payrollDatamodel.Payroll, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var updated *payrollDatamodel.Payroll
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, companyID, id)
		if err != nil {
			return err
		}
		if p.Status == payrollDatamodel.StatusCompleted {
			return ErrPayrollImmutable
		}
		if p.Status == payrollDatamodel.StatusProcessing && len(dto.Payslips) == 0 {
			return ErrPayrollInFlight
		}

		if len(dto.Payslips) > 0 {
			if !IsMutable(p.Status) {
				return ErrPayrollNotMutable
			}
			if err := mergePayslips(p, dto.Payslips); err != nil {
				return err
			}
			RecomputeSummary(p)
		}

		if dto.Name != nil {
			p.Name = strings.TrimSpace(*dto.Name)
		}
		if dto.Period != nil {
			if err := applyPeriod(p, *dto.Period); err != nil {
				return err
			}
		}
		if dto.Status != nil {
			to := payrollDatamodel.Status(strings.ToLower(strings.TrimSpace(*dto.Status)))
			if CanTransition(p.Status, to) && !settable[to] {
				return ErrStatusReserved.WithDetails(TransitionDetails{
					CurrentStatus:      p.Status,
					RequestedStatus:    to,
					AllowedTransitions: settableFrom(p.Status),
				})
			}
			if err := Transition(p, to, "", s.now()); err != nil {
				return err
			}
		}

		if err := s.repo.Save(ctx, p); err != nil {
			return errors.NewInternalError("Error updating payroll record", err)
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payroll updated", "payroll_id", id, "status", updated.Status)
	return updated, nil
}

func settableFrom(from payrollDatamodel.Status) []payrollDatamodel.Status {
	out := []payrollDatamodel.Status{}
	for _, to := range AllowedTransitions(from) {
		if settable[to] {
			out = append(out, to)
		}
	}
	return out
}

// Delete removes a payroll that has not been paid out or started paying.
func (s *Service) Delete(ctx context.Context, companyID, id int64) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, companyID, id)
		if err != nil {
			return err
		}
		switch p.Status {
		case payrollDatamodel.StatusCompleted:
			return ErrPayrollImmutable
		case payrollDatamodel.StatusProcessing:
			return ErrPayrollInFlight
		}
		if err := s.repo.Delete(ctx, companyID, id); err != nil {
			return errors.NewInternalError("Error deleting payroll record", err)
		}
		s.logger.Info("payroll deleted", "payroll_id", id)
		return nil
	})
}

// RemoveEmployee splices one employee out of a draft or pending payroll.
func (s *Service) RemoveEmployee(ctx context.Context, companyID, payrollID, employeeID int64) (*RemoveEmployeeResult, error) {
	var result *RemoveEmployeeResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, companyID, payrollID)
		if err != nil {
			return err
		}
		if !IsMutable(p.Status) {
			return ErrPayrollNotMutable
		}
		if err := s.excise(ctx, p, employeeID); err != nil {
			return err
		}
		result = &RemoveEmployeeResult{PayrollID: p.ID, EmployeeID: employeeID, Payroll: p}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveEmployeeFromMutable excises the employee from every draft or pending
// payroll of the company. It joins the caller's transaction when one is open.
func (s *Service) RemoveEmployeeFromMutable(ctx context.Context, companyID, employeeID int64) (int, error) {
	affected := 0
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		payrolls, err := s.repo.ListMutableWithEmployee(ctx, companyID, employeeID)
		if err != nil {
			return err
		}
		for _, p := range payrolls {
			if err := s.excise(ctx, p, employeeID); err != nil {
				return err
			}
			affected++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// Due returns pending payrolls whose next run has arrived.
func (s *Service) Due(ctx context.Context) ([]payrollDatamodel.Payroll, error) {
	return s.repo.ListDue(ctx, s.now())
}

func (s *Service) excise(ctx context.Context, p *payrollDatamodel.Payroll, employeeID int64) error {
	removed := RemovePayslip(p, employeeID)
	if removed == nil {
		return ErrPayslipNotFound
	}
	Record(p, fmt.Sprintf("Employee %s removed from payroll", removed.EmployeeName), s.now())

	if err := s.repo.DeletePayslip(ctx, removed.ID); err != nil {
		return errors.NewInternalError("failed to remove payslip", err)
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return errors.NewInternalError("failed to update payroll", err)
	}
	s.logger.Info("employee removed from payroll", "payroll_id", p.ID, "employee_id", employeeID)
	return nil
}

func mergePayslips(p *payrollDatamodel.Payroll, updates []PayslipUpdate) error {
	for _, u := range updates {
		var slip *payrollDatamodel.Payslip
		for i := range p.Payslips {
			if p.Payslips[i].EmployeeID == u.EmployeeID {
				slip = &p.Payslips[i]
				break
			}
		}
		if slip == nil {
			continue
		}
		if u.BaseSalary != nil {
			slip.BaseSalary = *u.BaseSalary
		}
		if u.Allowances != nil {
			slip.Allowances = *u.Allowances
		}
		if u.Deductions != nil {
			slip.Deductions = *u.Deductions
		}
		slip.Recompute()
		if slip.NetPay.IsNegative() {
			return errors.NewValidationFieldError(fmt.Sprintf("payslips[%d]", u.EmployeeID),
				"net pay cannot be negative", errors.ErrCodeNegativeNetPay)
		}
	}
	return nil
}

func applyPeriod(p *payrollDatamodel.Payroll, period PeriodDTO) error {
	start, end := p.Period.StartDate, p.Period.EndDate
	if period.StartDate != nil {
		start = *period.StartDate
	}
	if period.EndDate != nil {
		end = *period.EndDate
	}
	if end.Before(start) {
		return errors.NewValidationFieldError("period.end_date", "end_date cannot be before start_date", errors.ErrCodeInvalidDate)
	}
	p.Period = payrollDatamodel.Period{StartDate: start, EndDate: end}
	return nil
}
