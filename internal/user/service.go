package user

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/payroll-engine/internal"
	userDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/user"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	ListByCompany(ctx context.Context, companyID int64) ([]userDatamodel.User, error)
}

// PasswordHasher is auth.HashPassword bound to the configured cost.
type PasswordHasher func(password string) (string, error)

var (
	ErrUserNotFound   = errors.NewNotFoundError("User not found", errors.ErrCodeUserNotFound)
	ErrDuplicateEmail = errors.NewConflictError("A user with this email already exists", errors.ErrCodeDuplicateEmail)
)

type Service struct {
	repo   RepositoryAPI
	hash   PasswordHasher
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, hash PasswordHasher, logger *slog.Logger) *Service {
	return &Service{repo: repo, hash: hash, logger: logger}
}

// Get returns a user of the given company.
func (s *Service) Get(ctx context.Context, companyID, id int64) (*userDatamodel.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.CompanyID != companyID {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, companyID int64) ([]userDatamodel.User, error) {
	users, err := s.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, errors.NewInternalError("failed to list users", err)
	}
	return users, nil
}

func (s *Service) Create(ctx context.Context, companyID int64, dto CreateUserDTO) (*userDatamodel.User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.EmailExists(ctx, dto.Email)
	if err != nil {
		return nil, errors.NewInternalError("failed to check email", err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	hash, err := s.hash(dto.Password)
	if err != nil {
		return nil, errors.NewInternalError("failed to hash password", err)
	}

	u := &userDatamodel.User{
		CompanyID:    companyID,
		Email:        dto.Email,
		Name:         dto.Name,
		PasswordHash: hash,
		Role:         dto.Role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, errors.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user created", "user_id", u.ID, "company_id", companyID, "role", u.Role)
	return u, nil
}
