package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	employeeDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/employee"
	"github.com/frahmantamala/payroll-engine/internal/core/database"
	"github.com/frahmantamala/payroll-engine/internal/department"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) department.RepositoryAPI {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) GetAll(ctx context.Context, companyID int64, status string) ([]*employeeDatamodel.Department, error) {
	var items []*employeeDatamodel.Department
	q := database.Conn(ctx, r.db).Where("company_id = ?", companyID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("name ASC").Find(&items).Error
	return items, err
}

// GetByID returns nil, nil when no department matches.
func (r *DepartmentRepository) GetByID(ctx context.Context, companyID, id int64) (*employeeDatamodel.Department, error) {
	var d employeeDatamodel.Department
	err := database.Conn(ctx, r.db).Where("id = ? AND company_id = ?", id, companyID).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *DepartmentRepository) GetByCode(ctx context.Context, companyID int64, code string) (*employeeDatamodel.Department, error) {
	var d employeeDatamodel.Department
	err := database.Conn(ctx, r.db).Where("company_id = ? AND code = ?", companyID, code).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *DepartmentRepository) Create(ctx context.Context, d *employeeDatamodel.Department) error {
	return database.Conn(ctx, r.db).Create(d).Error
}

func (r *DepartmentRepository) Update(ctx context.Context, d *employeeDatamodel.Department) error {
	return database.Conn(ctx, r.db).Save(d).Error
}
