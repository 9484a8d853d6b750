package user

import (
	"net/mail"
	"strings"
	"time"

	errors "github.com/frahmantamala/payroll-engine/internal"
	userDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/user"
)

type CreateUserDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (d *CreateUserDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))

	var fields []errors.ValidationError
	if d.Name == "" {
		fields = append(fields, errors.ValidationError{Field: "name", Message: "name is required", Code: string(errors.ErrCodeValidationFailed)})
	}
	if _, err := mail.ParseAddress(d.Email); err != nil {
		fields = append(fields, errors.ValidationError{Field: "email", Message: "a valid email is required", Code: string(errors.ErrCodeValidationFailed)})
	}
	if len(d.Password) < 8 {
		fields = append(fields, errors.ValidationError{Field: "password", Message: "password must be at least 8 characters", Code: string(errors.ErrCodeValidationFailed)})
	}
	if d.Role == "" {
		d.Role = errors.RoleFinance
	}
	switch d.Role {
	case errors.RoleAdmin, errors.RoleFinance, errors.RoleEmployee:
	default:
		fields = append(fields, errors.ValidationError{Field: "role", Message: "role must be admin, finance or employee", Code: string(errors.ErrCodeInvalidRole)})
	}

	if len(fields) > 0 {
		return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: fields})
	}
	return nil
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func ToResponse(u *userDatamodel.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		CompanyID: u.CompanyID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}
