package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	payrollDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/payroll"
	"github.com/frahmantamala/payroll-engine/internal/core/database"
	"github.com/frahmantamala/payroll-engine/internal/payroll"
)

type PayrollRepository struct {
	db *gorm.DB
}

func NewPayrollRepository(db *gorm.DB) payroll.RepositoryAPI {
	return &PayrollRepository{db: db}
}

func (r *PayrollRepository) CreateBatch(ctx context.Context, batches []*payrollDatamodel.Payroll) error {
	db := database.Conn(ctx, r.db)
	for _, p := range batches {
		if err := db.Create(p).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *PayrollRepository) GetByID(ctx context.Context, companyID, id int64) (*payrollDatamodel.Payroll, error) {
	var p payrollDatamodel.Payroll
	err := withChildren(database.Conn(ctx, r.db)).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payroll.ErrPayrollNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PayrollRepository) List(ctx context.Context, companyID int64, filter payroll.ListFilter) ([]payrollDatamodel.Payroll, int64, error) {
	q := database.Conn(ctx, r.db).Model(&payrollDatamodel.Payroll{}).Where("company_id = ?", companyID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Frequency != "" {
		q = q.Where("frequency = ?", filter.Frequency)
	}
	if filter.From != nil {
		q = q.Where("period_start_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("period_start_date <= ?", *filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []payrollDatamodel.Payroll
	err := q.Preload("Payslips", orderByID).
		Order(filter.OrderClause()).
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&items).Error
	return items, total, err
}

func (r *PayrollRepository) Save(ctx context.Context, p *payrollDatamodel.Payroll) error {
	return database.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(p).Error; err != nil {
			return err
		}
		for i := range p.Payslips {
			p.Payslips[i].PayrollID = p.ID
			if err := tx.Save(&p.Payslips[i]).Error; err != nil {
				return err
			}
		}
		for i := range p.History {
			if p.History[i].ID != 0 {
				continue
			}
			p.History[i].PayrollID = p.ID
			if err := tx.Create(&p.History[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PayrollRepository) SavePayslip(ctx context.Context, slip *payrollDatamodel.Payslip) error {
	return database.Conn(ctx, r.db).Save(slip).Error
}

func (r *PayrollRepository) ClaimForProcessing(ctx context.Context, companyID, id int64, from []payrollDatamodel.Status, at time.Time) (bool, error) {
	res := database.Conn(ctx, r.db).Model(&payrollDatamodel.Payroll{}).
		Where("id = ? AND company_id = ? AND status IN ?", id, companyID, from).
		Updates(map[string]interface{}{
			"status":     payrollDatamodel.StatusProcessing,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *PayrollRepository) DeletePayslip(ctx context.Context, id int64) error {
	return database.Conn(ctx, r.db).Delete(&payrollDatamodel.Payslip{}, id).Error
}

func (r *PayrollRepository) Delete(ctx context.Context, companyID, id int64) error {
	return database.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("payroll_id = ?", id).Delete(&payrollDatamodel.Payslip{}).Error; err != nil {
			return err
		}
		if err := tx.Where("payroll_id = ?", id).Delete(&payrollDatamodel.HistoryEntry{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND company_id = ?", id, companyID).Delete(&payrollDatamodel.Payroll{}).Error
	})
}

func (r *PayrollRepository) ListMutableWithEmployee(ctx context.Context, companyID, employeeID int64) ([]*payrollDatamodel.Payroll, error) {
	var items []*payrollDatamodel.Payroll
	err := withChildren(database.Conn(ctx, r.db)).
		Where("company_id = ? AND status IN ?", companyID,
			[]payrollDatamodel.Status{payrollDatamodel.StatusDraft, payrollDatamodel.StatusPending}).
		Where("EXISTS (SELECT 1 FROM payslips WHERE payslips.payroll_id = payrolls.id AND payslips.employee_id = ?)", employeeID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *PayrollRepository) ListDue(ctx context.Context, now time.Time) ([]payrollDatamodel.Payroll, error) {
	var items []payrollDatamodel.Payroll
	err := database.Conn(ctx, r.db).
		Where("status = ? AND schedule_next_run <= ?", payrollDatamodel.StatusPending, now).
		Order("schedule_next_run ASC").
		Find(&items).Error
	return items, err
}

func withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Payslips", orderByID).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("occurred_at ASC, id ASC")
		})
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
