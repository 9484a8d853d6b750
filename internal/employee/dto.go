package employee

import (
	"strings"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/payroll-engine/internal"
	"github.com/frahmantamala/payroll-engine/internal/core/common/validation"
	employeeDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/employee"
	"github.com/frahmantamala/payroll-engine/internal/transport"
)

type CreateEmployeeDTO struct {
	Name          string                        `json:"name"`
	Email         string                        `json:"email"`
	Phone         string                        `json:"phone"`
	Position      string                        `json:"position"`
	DepartmentID  *int64                        `json:"department_id,omitempty"`
	Salary        decimal.Decimal               `json:"salary"`
	BankDetails   employeeDatamodel.BankDetails `json:"bank_details"`
	TaxPID        *string                       `json:"tax_pid,omitempty"`
	VerifyAccount bool                          `json:"verify_account"`
}

func (d *CreateEmployeeDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.BankDetails.AccountNumber = strings.TrimSpace(d.BankDetails.AccountNumber)
	d.BankDetails.BankCode = strings.TrimSpace(d.BankDetails.BankCode)
}

func (d CreateEmployeeDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(150)
	v.Field("email", d.Email).Required().Email()
	v.Field("salary", d.Salary).NonNegative()
	if d.VerifyAccount {
		v.Field("bank_details.account_number", d.BankDetails.AccountNumber).Required()
		v.Field("bank_details.bank_code", d.BankDetails.BankCode).Required()
	}
	return v.Validate()
}

type UpdateEmployeeDTO struct {
	Name          *string                        `json:"name,omitempty"`
	Email         *string                        `json:"email,omitempty"`
	Phone         *string                        `json:"phone,omitempty"`
	Position      *string                        `json:"position,omitempty"`
	DepartmentID  *int64                         `json:"department_id,omitempty"`
	Salary        *decimal.Decimal               `json:"salary,omitempty"`
	BankDetails   *employeeDatamodel.BankDetails `json:"bank_details,omitempty"`
	TaxPID        *string                        `json:"tax_pid,omitempty"`
	Status        *string                        `json:"status,omitempty"`
	PayrollStatus *string                        `json:"payroll_status,omitempty"`
}

func (d UpdateEmployeeDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", *d.Name).Required().MaxLength(150)
	}
	if d.Email != nil {
		v.Field("email", *d.Email).Required().Email()
	}
	if d.Salary != nil {
		v.Field("salary", d.Salary).NonNegative()
	}
	if d.Status != nil {
		v.Field("status", *d.Status).Required().OneOf(employeeDatamodel.StatusPresent, employeeDatamodel.StatusInactive, employeeDatamodel.StatusAbsent)
	}
	if d.PayrollStatus != nil {
		v.Field("payroll_status", *d.PayrollStatus).Required().OneOf(employeeDatamodel.PayrollStatusActive, employeeDatamodel.PayrollStatusInactive)
	}
	return v.Validate()
}

type ListFilter struct {
	Status       string
	DepartmentID int64
	Search       string
	transport.Page
}

type ListResult struct {
	Employees []employeeDatamodel.Employee `json:"employees"`
	Total     int64                        `json:"total"`
	Page      int                          `json:"page"`
	Limit     int                          `json:"limit"`
}

type DeleteResult struct {
	EmployeeID       int64 `json:"employee_id"`
	PayrollsAffected int   `json:"payrolls_affected"`
}
