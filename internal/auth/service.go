package auth

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	errors "github.com/frahmantamala/payroll-engine/internal"
	userDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/user"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
}

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(token string) (*Claims, error)
}

type Service struct {
	users  UserRepository
	tokens TokenGenerator
	logger *slog.Logger
}

func NewService(users UserRepository, tokens TokenGenerator, logger *slog.Logger) *Service {
	return &Service{users: users, tokens: tokens, logger: logger}
}

// Authenticate checks the password against the stored bcrypt hash. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	u, err := s.users.GetByEmail(ctx, dto.Email)
	if err != nil {
		if isNotFound(err) {
			return AuthTokens{}, errors.ErrInvalidCredentials
		}
		return AuthTokens{}, errors.NewInternalError("failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.Warn("login rejected", "user_id", u.ID)
		return AuthTokens{}, errors.ErrInvalidCredentials
	}
	if !u.IsActive {
		return AuthTokens{}, errors.ErrUserInactive
	}

	s.logger.Info("user logged in", "user_id", u.ID, "company_id", u.CompanyID, "role", u.Role)
	return s.issue(actorOf(u))
}

// RefreshTokens re-reads the user so a deactivation or role change takes
// effect on the next refresh.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return AuthTokens{}, errors.ErrInvalidToken
		}
		return AuthTokens{}, errors.NewInternalError("failed to load user", err)
	}
	if !u.IsActive {
		return AuthTokens{}, errors.ErrUserInactive
	}

	return s.issue(actorOf(u))
}

func (s *Service) ValidateAccessToken(token string) (*Claims, error) {
	return s.tokens.ValidateAccessToken(token)
}

func (s *Service) issue(actor *errors.Actor) (AuthTokens, error) {
	access, err := s.tokens.GenerateAccessToken(actor)
	if err != nil {
		return AuthTokens{}, errors.NewInternalError("failed to issue access token", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(actor)
	if err != nil {
		return AuthTokens{}, errors.NewInternalError("failed to issue refresh token", err)
	}
	return AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// HashPassword is used by seeding and user creation.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func actorOf(u *userDatamodel.User) *errors.Actor {
	return &errors.Actor{UserID: u.ID, CompanyID: u.CompanyID, Email: u.Email, Role: u.Role}
}

func isNotFound(err error) bool {
	appErr, ok := errors.IsAppError(err)
	return ok && appErr.Type == errors.ErrorTypeNotFound
}
