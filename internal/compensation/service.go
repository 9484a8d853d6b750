package compensation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	errors "github.com/frahmantamala/payroll-engine/internal"
	compensationDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/compensation"
)

type RepositoryAPI interface {
	Create(ctx context.Context, rule *compensationDatamodel.Rule) error
	GetByID(ctx context.Context, companyID int64, kind compensationDatamodel.Kind, id int64) (*compensationDatamodel.Rule, error)
	List(ctx context.Context, companyID int64, kind compensationDatamodel.Kind, filter ListFilter) ([]compensationDatamodel.Rule, error)
	Update(ctx context.Context, rule *compensationDatamodel.Rule) error
	AddApplication(ctx context.Context, app *compensationDatamodel.Application) error
	UpdateApplication(ctx context.Context, app *compensationDatamodel.Application) error
}

// TargetDirectory answers whether a target exists inside a company.
type TargetDirectory interface {
	EmployeeExists(ctx context.Context, companyID, employeeID int64) (bool, error)
	DepartmentExists(ctx context.Context, companyID, departmentID int64) (bool, error)
}

type targetLookup func(ctx context.Context, companyID, id int64) (bool, error)

var (
	ErrRuleNotFound        = errors.NewNotFoundError("Rule not found", errors.ErrCodeRuleNotFound)
	ErrApplicationNotFound = errors.NewNotFoundError("Application not found", errors.ErrCodeApplicationNotFound)
)

type Service struct {
	repo    RepositoryAPI
	targets map[compensationDatamodel.TargetType]targetLookup
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo RepositoryAPI, directory TargetDirectory, logger *slog.Logger) *Service {
	return &Service{
		repo: repo,
		targets: map[compensationDatamodel.TargetType]targetLookup{
			compensationDatamodel.TargetEmployee:   directory.EmployeeExists,
			compensationDatamodel.TargetDepartment: directory.DepartmentExists,
		},
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Create(ctx context.Context, companyID int64, kind compensationDatamodel.Kind, dto CreateRuleDTO) (*compensationDatamodel.Rule, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	rule := &compensationDatamodel.Rule{
		CompanyID:   companyID,
		Kind:        kind,
		Name:        dto.Name,
		Description: dto.Description,
		Amount:      dto.Amount,
		Type:        compensationDatamodel.AmountType(dto.Type),
		Frequency:   compensationDatamodel.Frequency(dto.Frequency),
		Status:      compensationDatamodel.StatusActive,
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		s.logger.Error("failed to create rule", "error", err, "company_id", companyID, "kind", kind)
		return nil, errors.NewInternalError("failed to create rule", err)
	}

	s.logger.Info("rule created", "rule_id", rule.ID, "company_id", companyID, "kind", kind)
	return rule, nil
}

// Apply attaches the rule to an employee or department of the same company.
func (s *Service) Apply(ctx context.Context, companyID int64, kind compensationDatamodel.Kind, ruleID int64, dto ApplyRuleDTO) (*compensationDatamodel.Rule, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	targetType, err := compensationDatamodel.ParseTargetType(dto.TargetType)
	if err != nil {
		return nil, errors.NewValidationFieldError("target_type",
			"target_type must be one of: employee, department", errors.ErrCodeInvalidTargetType)
	}

	exists, err := s.targets[targetType](ctx, companyID, dto.TargetID)
	if err != nil {
		return nil, errors.NewInternalError("failed to look up target", err)
	}
	if !exists {
		return nil, errors.NewNotFoundError(string(targetType)+" not found or doesn't belong to company", errors.ErrCodeTargetNotFound)
	}

	rule, err := s.repo.GetByID(ctx, companyID, kind, ruleID)
	if err != nil {
		return nil, err
	}

	start := s.now()
	if dto.StartDate != nil {
		start = *dto.StartDate
	}
	app := compensationDatamodel.Application{
		RuleID:     rule.ID,
		TargetType: targetType,
		TargetID:   dto.TargetID,
		StartDate:  start,
		EndDate:    dto.EndDate,
		Status:     compensationDatamodel.StatusActive,
	}
	if err := s.repo.AddApplication(ctx, &app); err != nil {
		s.logger.Error("failed to apply rule", "error", err, "rule_id", ruleID)
		return nil, errors.NewInternalError("failed to apply rule", err)
	}
	rule.Applications = append(rule.Applications, app)

	s.logger.Info("rule applied", "rule_id", rule.ID, "target_type", targetType, "target_id", dto.TargetID)
	return rule, nil
}

func (s *Service) List(ctx context.Context, companyID int64, kind compensationDatamodel.Kind, status, targetType string, targetID int64) ([]compensationDatamodel.Rule, error) {
	filter := ListFilter{Status: strings.ToLower(status), TargetID: targetID}
	if targetType != "" {
		t, err := compensationDatamodel.ParseTargetType(targetType)
		if err != nil {
			return nil, errors.NewValidationFieldError("target_type",
				"target_type must be one of: employee, department", errors.ErrCodeInvalidTargetType)
		}
		filter.TargetType = t
	}
	return s.repo.List(ctx, companyID, kind, filter)
}

// Active returns the company's active rules of one kind with their applications.
func (s *Service) Active(ctx context.Context, companyID int64, kind compensationDatamodel.Kind) ([]compensationDatamodel.Rule, error) {
	return s.repo.List(ctx, companyID, kind, ListFilter{Status: compensationDatamodel.StatusActive})
}

func (s *Service) Update(ctx context.Context, companyID int64, kind compensationDatamodel.Kind, ruleID int64, dto UpdateRuleDTO) (*compensationDatamodel.Rule, error) {
	if dto.Type != nil {
		t := strings.ToLower(*dto.Type)
		dto.Type = &t
	}
	if dto.Frequency != nil {
		f := strings.ToLower(*dto.Frequency)
		dto.Frequency = &f
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	rule, err := s.repo.GetByID(ctx, companyID, kind, ruleID)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		rule.Name = strings.TrimSpace(*dto.Name)
	}
	if dto.Description != nil {
		rule.Description = *dto.Description
	}
	if dto.Amount != nil {
		rule.Amount = *dto.Amount
	}
	if dto.Type != nil {
		rule.Type = compensationDatamodel.AmountType(*dto.Type)
	}
	if dto.Frequency != nil {
		rule.Frequency = compensationDatamodel.Frequency(*dto.Frequency)
	}
	if dto.Status != nil {
		rule.Status = *dto.Status
	}
	if rule.Type == compensationDatamodel.AmountPercentage && rule.Amount.GreaterThan(hundred) {
		return nil, errors.NewValidationFieldError("amount", "amount must not exceed 100", errors.ErrCodeInvalidAmount)
	}

	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, errors.NewInternalError("failed to update rule", err)
	}
	return rule, nil
}

// RemoveApplication deactivates one application and closes it at now.
func (s *Service) RemoveApplication(ctx context.Context, companyID int64, kind compensationDatamodel.Kind, ruleID, applicationID int64) (*compensationDatamodel.Rule, error) {
	rule, err := s.repo.GetByID(ctx, companyID, kind, ruleID)
	if err != nil {
		return nil, err
	}

	for i := range rule.Applications {
		app := &rule.Applications[i]
		if app.ID != applicationID {
			continue
		}
		now := s.now()
		app.Status = compensationDatamodel.StatusInactive
		app.EndDate = &now
		if err := s.repo.UpdateApplication(ctx, app); err != nil {
			return nil, errors.NewInternalError("failed to remove application", err)
		}
		return rule, nil
	}

	return nil, ErrApplicationNotFound
}

// Delete is a soft delete: the rule becomes inactive and stops resolving.
func (s *Service) Delete(ctx context.Context, companyID int64, kind compensationDatamodel.Kind, ruleID int64) (*compensationDatamodel.Rule, error) {
	rule, err := s.repo.GetByID(ctx, companyID, kind, ruleID)
	if err != nil {
		return nil, err
	}
	rule.Status = compensationDatamodel.StatusInactive
	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, errors.NewInternalError("failed to delete rule", err)
	}
	s.logger.Info("rule deactivated", "rule_id", ruleID, "company_id", companyID)
	return rule, nil
}
