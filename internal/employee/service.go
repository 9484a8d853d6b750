package employee

import (
	"context"
	"log/slog"
	"strings"

	errors "github.com/frahmantamala/payroll-engine/internal"
	employeeDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/employee"
	"github.com/frahmantamala/payroll-engine/internal/core/database"
)

type RepositoryAPI interface {
	Create(ctx context.Context, e *employeeDatamodel.Employee) error
	GetByID(ctx context.Context, companyID, id int64) (*employeeDatamodel.Employee, error)
	GetByEmail(ctx context.Context, email string) (*employeeDatamodel.Employee, error)
	List(ctx context.Context, companyID int64, filter ListFilter) ([]employeeDatamodel.Employee, int64, error)
	ListByStatus(ctx context.Context, companyID int64, status string) ([]employeeDatamodel.Employee, error)
	Update(ctx context.Context, e *employeeDatamodel.Employee) error
	Delete(ctx context.Context, companyID, id int64) error
}

type DepartmentLookup interface {
	Exists(ctx context.Context, companyID, departmentID int64) (bool, error)
}

// AccountVerifier resolves the registered account name for a bank account.
type AccountVerifier interface {
	ResolveAccount(ctx context.Context, accountNumber, bankCode string) (string, error)
}

// PayrollExciser removes an employee's payslips from every editable payroll.
type PayrollExciser interface {
	RemoveEmployeeFromMutable(ctx context.Context, companyID, employeeID int64) (int, error)
}

var (
	ErrEmployeeNotFound   = errors.NewNotFoundError("Employee not found", errors.ErrCodeEmployeeNotFound)
	ErrDepartmentNotFound = errors.NewNotFoundError("Department not found", errors.ErrCodeDepartmentNotFound)
	ErrDuplicateEmail     = errors.NewConflictError("Employee with this email already exists", errors.ErrCodeDuplicateEmail)
)

type Service struct {
	repo        RepositoryAPI
	departments DepartmentLookup
	verifier    AccountVerifier
	payrolls    PayrollExciser
	tx          database.Transactor
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, departments DepartmentLookup, tx database.Transactor, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		departments: departments,
		tx:          tx,
		logger:      logger,
	}
}

func (s *Service) WithAccountVerifier(v AccountVerifier) *Service {
	s.verifier = v
	return s
}

// WithPayrollExciser is set after construction because the payroll service
// itself reads employees.
func (s *Service) WithPayrollExciser(p PayrollExciser) *Service {
	s.payrolls = p
	return s
}

func (s *Service) Create(ctx context.Context, companyID int64, dto CreateEmployeeDTO) (*employeeDatamodel.Employee, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.ensureUniqueEmail(ctx, dto.Email, 0); err != nil {
		return nil, err
	}
	if err := s.ensureDepartment(ctx, companyID, dto.DepartmentID); err != nil {
		return nil, err
	}

	bank := dto.BankDetails
	if dto.VerifyAccount && s.verifier != nil {
		name, err := s.verifier.ResolveAccount(ctx, bank.AccountNumber, bank.BankCode)
		if err != nil {
			s.logger.Warn("bank account verification failed", "error", err, "bank_code", bank.BankCode)
			return nil, errors.NewValidationFieldError("bank_details.account_number",
				"bank account could not be verified", errors.ErrCodeInvalidValue).WithCause(err)
		}
		bank.AccountName = name
	}

	e := &employeeDatamodel.Employee{
		CompanyID:     companyID,
		DepartmentID:  dto.DepartmentID,
		Name:          dto.Name,
		Email:         dto.Email,
		Phone:         dto.Phone,
		Position:      dto.Position,
		Salary:        dto.Salary,
		Bank:          bank,
		TaxPID:        dto.TaxPID,
		Status:        employeeDatamodel.StatusPresent,
		PayrollStatus: employeeDatamodel.PayrollStatusActive,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		s.logger.Error("failed to create employee", "error", err, "company_id", companyID)
		return nil, errors.NewInternalError("failed to create employee", err)
	}

	s.logger.Info("employee created", "employee_id", e.ID, "company_id", companyID)
	return e, nil
}

func (s *Service) Get(ctx context.Context, companyID, id int64) (*employeeDatamodel.Employee, error) {
	return s.repo.GetByID(ctx, companyID, id)
}

func (s *Service) List(ctx context.Context, companyID int64, filter ListFilter) (*ListResult, error) {
	filter.Status = strings.ToLower(filter.Status)
	items, total, err := s.repo.List(ctx, companyID, filter)
	if err != nil {
		s.logger.Error("failed to list employees", "error", err, "company_id", companyID)
		return nil, errors.NewInternalError("failed to list employees", err)
	}
	return &ListResult{Employees: items, Total: total, Page: filter.Page.Page, Limit: filter.Limit}, nil
}

// Present returns employees eligible for a pay run.
func (s *Service) Present(ctx context.Context, companyID int64) ([]employeeDatamodel.Employee, error) {
	return s.repo.ListByStatus(ctx, companyID, employeeDatamodel.StatusPresent)
}

func (s *Service) Update(ctx context.Context, companyID, id int64, dto UpdateEmployeeDTO) (*employeeDatamodel.Employee, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	e, err := s.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if dto.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*dto.Email))
		if err := s.ensureUniqueEmail(ctx, email, e.ID); err != nil {
			return nil, err
		}
		e.Email = email
	}
	if dto.DepartmentID != nil {
		if err := s.ensureDepartment(ctx, companyID, dto.DepartmentID); err != nil {
			return nil, err
		}
		e.DepartmentID = dto.DepartmentID
	}
	if dto.Name != nil {
		e.Name = strings.TrimSpace(*dto.Name)
	}
	if dto.Phone != nil {
		e.Phone = *dto.Phone
	}
	if dto.Position != nil {
		e.Position = *dto.Position
	}
	if dto.Salary != nil {
		e.Salary = *dto.Salary
	}
	if dto.BankDetails != nil {
		e.Bank = *dto.BankDetails
	}
	if dto.TaxPID != nil {
		e.TaxPID = dto.TaxPID
	}
	if dto.Status != nil {
		e.Status = strings.ToLower(*dto.Status)
	}
	if dto.PayrollStatus != nil {
		e.PayrollStatus = strings.ToLower(*dto.PayrollStatus)
	}

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, errors.NewInternalError("failed to update employee", err)
	}
	return e, nil
}

// Delete removes the employee and excises them from draft and pending
// payrolls in the same transaction.
func (s *Service) Delete(ctx context.Context, companyID, id int64) (*DeleteResult, error) {
	result := &DeleteResult{EmployeeID: id}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetByID(ctx, companyID, id); err != nil {
			return err
		}
		if s.payrolls != nil {
			n, err := s.payrolls.RemoveEmployeeFromMutable(ctx, companyID, id)
			if err != nil {
				return err
			}
			result.PayrollsAffected = n
		}
		return s.repo.Delete(ctx, companyID, id)
	})
	if err != nil {
		if _, ok := errors.IsAppError(err); ok {
			return nil, err
		}
		s.logger.Error("failed to delete employee", "error", err, "employee_id", id)
		return nil, errors.NewInternalError("failed to delete employee", err)
	}

	s.logger.Info("employee deleted", "employee_id", id, "payrolls_affected", result.PayrollsAffected)
	return result, nil
}

// EmployeeExists backs rule target validation.
func (s *Service) EmployeeExists(ctx context.Context, companyID, employeeID int64) (bool, error) {
	_, err := s.repo.GetByID(ctx, companyID, employeeID)
	if err == nil {
		return true, nil
	}
	if appErr, ok := errors.IsAppError(err); ok && appErr.Code == errors.ErrCodeEmployeeNotFound {
		return false, nil
	}
	return false, err
}

func (s *Service) DepartmentExists(ctx context.Context, companyID, departmentID int64) (bool, error) {
	return s.departments.Exists(ctx, companyID, departmentID)
}

func (s *Service) ensureUniqueEmail(ctx context.Context, email string, selfID int64) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if appErr, ok := errors.IsAppError(err); ok && appErr.Code == errors.ErrCodeEmployeeNotFound {
			return nil
		}
		return errors.NewInternalError("failed to check email", err)
	}
	if existing.ID != selfID {
		return ErrDuplicateEmail
	}
	return nil
}

func (s *Service) ensureDepartment(ctx context.Context, companyID int64, departmentID *int64) error {
	if departmentID == nil {
		return nil
	}
	ok, err := s.departments.Exists(ctx, companyID, *departmentID)
	if err != nil {
		return errors.NewInternalError("failed to look up department", err)
	}
	if !ok {
		return ErrDepartmentNotFound
	}
	return nil
}
