package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/payroll-engine/internal/compensation"
	compensationDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/compensation"
	"github.com/frahmantamala/payroll-engine/internal/core/database"
)

type RuleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) compensation.RepositoryAPI {
	return &RuleRepository{db: db}
}

func (r *RuleRepository) Create(ctx context.Context, rule *compensationDatamodel.Rule) error {
	return database.Conn(ctx, r.db).Omit("Applications").Create(rule).Error
}

func (r *RuleRepository) GetByID(ctx context.Context, companyID int64, kind compensationDatamodel.Kind, id int64) (*compensationDatamodel.Rule, error) {
	var rule compensationDatamodel.Rule
	err := database.Conn(ctx, r.db).
		Preload("Applications", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ? AND company_id = ? AND kind = ?", id, companyID, kind).
		First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, compensation.ErrRuleNotFound
		}
		return nil, err
	}
	return &rule, nil
}

func (r *RuleRepository) List(ctx context.Context, companyID int64, kind compensationDatamodel.Kind, filter compensation.ListFilter) ([]compensationDatamodel.Rule, error) {
	q := database.Conn(ctx, r.db).
		Preload("Applications", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("company_id = ? AND kind = ?", companyID, kind)

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.TargetType != "" && filter.TargetID > 0 {
		q = q.Where(`EXISTS (SELECT 1 FROM rule_applications ra
			WHERE ra.rule_id = compensation_rules.id
			AND ra.target_type = ? AND ra.target_id = ? AND ra.status = ?)`,
			filter.TargetType, filter.TargetID, compensationDatamodel.StatusActive)
	}

	var rules []compensationDatamodel.Rule
	err := q.Order("id ASC").Find(&rules).Error
	return rules, err
}

func (r *RuleRepository) Update(ctx context.Context, rule *compensationDatamodel.Rule) error {
	return database.Conn(ctx, r.db).Omit("Applications").Save(rule).Error
}

func (r *RuleRepository) AddApplication(ctx context.Context, app *compensationDatamodel.Application) error {
	return database.Conn(ctx, r.db).Create(app).Error
}

func (r *RuleRepository) UpdateApplication(ctx context.Context, app *compensationDatamodel.Application) error {
	return database.Conn(ctx, r.db).Save(app).Error
}
