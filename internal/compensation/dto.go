package compensation

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/payroll-engine/internal"
	"github.com/frahmantamala/payroll-engine/internal/core/common/validation"
	compensationDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/compensation"
)

type CreateRuleDTO struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Frequency   string          `json:"frequency"`
}

func (d *CreateRuleDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Type = strings.ToLower(strings.TrimSpace(d.Type))
	d.Frequency = strings.ToLower(strings.TrimSpace(d.Frequency))
	if d.Type == "" {
		d.Type = string(compensationDatamodel.AmountFixed)
	}
	if d.Frequency == "" {
		d.Frequency = string(compensationDatamodel.FrequencyOneTime)
	}
}

func (d CreateRuleDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(120)
	v.Field("amount", d.Amount).NonNegative()
	v.Field("type", d.Type).OneOf(string(compensationDatamodel.AmountFixed), string(compensationDatamodel.AmountPercentage))
	v.Field("frequency", d.Frequency).OneOf(string(compensationDatamodel.FrequencyOneTime), string(compensationDatamodel.FrequencyRecurring))
	if d.Type == string(compensationDatamodel.AmountPercentage) {
		v.Field("amount", d.Amount).MaxDecimal(hundred)
	}
	return v.Validate()
}

type UpdateRuleDTO struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Type        *string          `json:"type,omitempty"`
	Frequency   *string          `json:"frequency,omitempty"`
	Status      *string          `json:"status,omitempty"`
}

func (d UpdateRuleDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", *d.Name).Required().MaxLength(120)
	}
	if d.Amount != nil {
		v.Field("amount", d.Amount).NonNegative()
	}
	if d.Type != nil {
		v.Field("type", *d.Type).Required().OneOf(string(compensationDatamodel.AmountFixed), string(compensationDatamodel.AmountPercentage))
	}
	if d.Frequency != nil {
		v.Field("frequency", *d.Frequency).Required().OneOf(string(compensationDatamodel.FrequencyOneTime), string(compensationDatamodel.FrequencyRecurring))
	}
	if d.Status != nil {
		v.Field("status", *d.Status).Required().OneOf(compensationDatamodel.StatusActive, compensationDatamodel.StatusInactive)
	}
	return v.Validate()
}

type ApplyRuleDTO struct {
	TargetType string     `json:"target_type"`
	TargetID   int64      `json:"target_id"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

func (d ApplyRuleDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("target_type", d.TargetType).Required()
	v.Field("target_id", d.TargetID).Required().MinInt(1, errors.ErrCodeInvalidValue)
	if d.StartDate != nil && d.EndDate != nil {
		v.Field("end_date", *d.EndDate).NotBefore(*d.StartDate, "start_date")
	}
	return v.Validate()
}

type ListFilter struct {
	Status     string
	TargetType compensationDatamodel.TargetType
	TargetID   int64
}
