package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	employeeDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/employee"
	"github.com/frahmantamala/payroll-engine/internal/core/database"
	"github.com/frahmantamala/payroll-engine/internal/employee"
)

type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) employee.RepositoryAPI {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) Create(ctx context.Context, e *employeeDatamodel.Employee) error {
	return database.Conn(ctx, r.db).Create(e).Error
}

func (r *EmployeeRepository) GetByID(ctx context.Context, companyID, id int64) (*employeeDatamodel.Employee, error) {
	var e employeeDatamodel.Employee
	err := database.Conn(ctx, r.db).Where("id = ? AND company_id = ?", id, companyID).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*employeeDatamodel.Employee, error) {
	var e employeeDatamodel.Employee
	err := database.Conn(ctx, r.db).Where("email = ?", email).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *EmployeeRepository) List(ctx context.Context, companyID int64, filter employee.ListFilter) ([]employeeDatamodel.Employee, int64, error) {
	q := database.Conn(ctx, r.db).Model(&employeeDatamodel.Employee{}).Where("company_id = ?", companyID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.DepartmentID > 0 {
		q = q.Where("department_id = ?", filter.DepartmentID)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []employeeDatamodel.Employee
	err := q.Order("name ASC").Limit(filter.Limit).Offset(filter.Offset()).Find(&items).Error
	return items, total, err
}

func (r *EmployeeRepository) ListByStatus(ctx context.Context, companyID int64, status string) ([]employeeDatamodel.Employee, error) {
	var items []employeeDatamodel.Employee
	err := database.Conn(ctx, r.db).
		Where("company_id = ? AND status = ?", companyID, status).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *EmployeeRepository) Update(ctx context.Context, e *employeeDatamodel.Employee) error {
	return database.Conn(ctx, r.db).Save(e).Error
}

func (r *EmployeeRepository) Delete(ctx context.Context, companyID, id int64) error {
	return database.Conn(ctx, r.db).
		Where("id = ? AND company_id = ?", id, companyID).
		Delete(&employeeDatamodel.Employee{}).Error
}
