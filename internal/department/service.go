package department

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/payroll-engine/internal"
	employeeDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/employee"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context, companyID int64, status string) ([]*employeeDatamodel.Department, error)
	GetByID(ctx context.Context, companyID, id int64) (*employeeDatamodel.Department, error)
	GetByCode(ctx context.Context, companyID int64, code string) (*employeeDatamodel.Department, error)
	Create(ctx context.Context, d *employeeDatamodel.Department) error
	Update(ctx context.Context, d *employeeDatamodel.Department) error
}

var (
	ErrDepartmentNotFound  = errors.NewNotFoundError("Department not found", errors.ErrCodeDepartmentNotFound)
	ErrDuplicateDepartment = errors.NewConflictError("Department code already exists", errors.ErrCodeDuplicateDepartment)
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) Create(ctx context.Context, companyID int64, dto CreateDepartmentDTO) (*DepartmentResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	d := NewDepartment(companyID, dto.Name, dto.Code, dto.Description)
	existing, err := s.repo.GetByCode(ctx, companyID, d.Code)
	if err != nil {
		s.logger.Error("failed to look up department code", "error", err, "code", d.Code)
		return nil, errors.NewInternalError("failed to create department", err)
	}
	if existing != nil {
		return nil, ErrDuplicateDepartment
	}

	if err := s.repo.Create(ctx, d); err != nil {
		s.logger.Error("failed to create department", "error", err, "company_id", companyID)
		return nil, errors.NewInternalError("failed to create department", err)
	}

	s.logger.Info("department created", "department_id", d.ID, "code", d.Code)
	resp := ToResponse(d)
	return &resp, nil
}

// List returns departments of the company; an empty status returns all.
func (s *Service) List(ctx context.Context, companyID int64, status string) ([]DepartmentResponse, error) {
	items, err := s.repo.GetAll(ctx, companyID, status)
	if err != nil {
		s.logger.Error("failed to get departments from repository", "error", err)
		return nil, errors.NewInternalError("failed to list departments", err)
	}

	responses := make([]DepartmentResponse, 0, len(items))
	for _, d := range items {
		responses = append(responses, ToResponse(d))
	}
	return responses, nil
}

func (s *Service) Deactivate(ctx context.Context, companyID, id int64) (*DepartmentResponse, error) {
	d, err := s.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, errors.NewInternalError("failed to load department", err)
	}
	if d == nil {
		return nil, ErrDepartmentNotFound
	}

	Deactivate(d)
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, errors.NewInternalError("failed to deactivate department", err)
	}

	s.logger.Info("department deactivated", "department_id", d.ID)
	resp := ToResponse(d)
	return &resp, nil
}

// Exists reports whether the department belongs to the company, active or not.
func (s *Service) Exists(ctx context.Context, companyID, id int64) (bool, error) {
	d, err := s.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return false, err
	}
	return d != nil, nil
}
