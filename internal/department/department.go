package department

import (
	"strings"
	"time"

	employeeDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/employee"
)

type DepartmentResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type DepartmentsResponse struct {
	Departments []DepartmentResponse `json:"departments"`
}

func ToResponse(d *employeeDatamodel.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:          d.ID,
		Name:        d.Name,
		Code:        d.Code,
		Description: d.Description,
		Status:      d.Status,
	}
}

func NewDepartment(companyID int64, name, code, description string) *employeeDatamodel.Department {
	return &employeeDatamodel.Department{
		CompanyID:   companyID,
		Name:        strings.TrimSpace(name),
		Code:        NormalizeCode(code),
		Description: description,
		Status:      employeeDatamodel.DepartmentStatusActive,
	}
}

// NormalizeCode upper-cases codes so "eng" and "ENG" collide.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func Deactivate(d *employeeDatamodel.Department) {
	d.Status = employeeDatamodel.DepartmentStatusInactive
	d.UpdatedAt = time.Now()
}
