package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	remittanceDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/taxremittance"
	"github.com/frahmantamala/payroll-engine/internal/core/database"
	"github.com/frahmantamala/payroll-engine/internal/taxremittance"
)

type RemittanceRepository struct {
	db *gorm.DB
}

func NewRemittanceRepository(db *gorm.DB) taxremittance.RepositoryAPI {
	return &RemittanceRepository{db: db}
}

func (r *RemittanceRepository) Create(ctx context.Context, rem *remittanceDatamodel.Remittance) error {
	return database.Conn(ctx, r.db).Create(rem).Error
}

func (r *RemittanceRepository) GetByID(ctx context.Context, companyID, id int64) (*remittanceDatamodel.Remittance, error) {
	var rem remittanceDatamodel.Remittance
	err := database.Conn(ctx, r.db).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&rem).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, taxremittance.ErrRemittanceNotFound
		}
		return nil, err
	}
	return &rem, nil
}

func (r *RemittanceRepository) ExistsForPayroll(ctx context.Context, payrollID int64) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Model(&remittanceDatamodel.Remittance{}).
		Where("payroll_id = ?", payrollID).
		Count(&count).Error
	return count > 0, err
}

func (r *RemittanceRepository) List(ctx context.Context, companyID int64, status string) ([]remittanceDatamodel.Remittance, error) {
	q := database.Conn(ctx, r.db).Where("company_id = ?", companyID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var items []remittanceDatamodel.Remittance
	err := q.Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("month DESC, id DESC").
		Find(&items).Error
	return items, err
}

func (r *RemittanceRepository) Save(ctx context.Context, rem *remittanceDatamodel.Remittance) error {
	return database.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(rem).Error; err != nil {
			return err
		}
		for i := range rem.Lines {
			rem.Lines[i].RemittanceID = rem.ID
			if err := tx.Save(&rem.Lines[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
