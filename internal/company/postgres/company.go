package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/payroll-engine/internal/company"
	companyDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/company"
	"github.com/frahmantamala/payroll-engine/internal/core/database"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) company.RepositoryAPI {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Create(ctx context.Context, c *companyDatamodel.Company) error {
	return database.Conn(ctx, r.db).Create(c).Error
}

func (r *CompanyRepository) GetByID(ctx context.Context, id int64) (*companyDatamodel.Company, error) {
	var c companyDatamodel.Company
	if err := database.Conn(ctx, r.db).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, company.ErrCompanyNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CompanyRepository) ListActive(ctx context.Context) ([]companyDatamodel.Company, error) {
	var items []companyDatamodel.Company
	err := database.Conn(ctx, r.db).
		Where("status = ?", companyDatamodel.StatusActive).
		Order("id ASC").
		Find(&items).Error
	return items, err
}
