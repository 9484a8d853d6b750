package company

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/payroll-engine/internal"
	companyDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/company"
)

type RepositoryAPI interface {
	Create(ctx context.Context, c *companyDatamodel.Company) error
	GetByID(ctx context.Context, id int64) (*companyDatamodel.Company, error)
	ListActive(ctx context.Context) ([]companyDatamodel.Company, error)
}

var ErrCompanyNotFound = errors.NewNotFoundError("Company not found", errors.ErrCodeCompanyNotFound)

// Service is a read-mostly view over company records owned elsewhere.
type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Get(ctx context.Context, id int64) (*companyDatamodel.Company, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListActive(ctx context.Context) ([]companyDatamodel.Company, error) {
	companies, err := s.repo.ListActive(ctx)
	if err != nil {
		s.logger.Error("failed to list active companies", "error", err)
		return nil, errors.NewInternalError("failed to list companies", err)
	}
	return companies, nil
}

// ContactEmail returns the company's address for notifications, or fallback
// when the company has none.
func (s *Service) ContactEmail(ctx context.Context, id int64, fallback string) string {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil || c.Email == "" {
		return fallback
	}
	return c.Email
}
