package compensation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind separates deductions from extra earnings. Both live in one table.
type Kind string

const (
	KindDeduction    Kind = "deduction"
	KindExtraEarning Kind = "extra_earning"
)

type AmountType string

const (
	AmountFixed      AmountType = "fixed"
	AmountPercentage AmountType = "percentage"
)

type Frequency string

const (
	FrequencyOneTime   Frequency = "one-time"
	FrequencyRecurring Frequency = "recurring"
)

type TargetType string

const (
	TargetEmployee   TargetType = "employee"
	TargetDepartment TargetType = "department"
)

// ParseTargetType normalises casing so "Employee" and "employee" are the same target.
func ParseTargetType(s string) (TargetType, error) {
	switch t := TargetType(strings.ToLower(strings.TrimSpace(s))); t {
	case TargetEmployee, TargetDepartment:
		return t, nil
	default:
		return "", fmt.Errorf("unknown target type %q", s)
	}
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Rule struct {
	ID           int64           `gorm:"primaryKey" json:"id"`
	CompanyID    int64           `gorm:"column:company_id;not null;index" json:"company_id"`
	Kind         Kind            `gorm:"column:kind;not null;index" json:"kind"`
	Name         string          `gorm:"column:name;not null" json:"name"`
	Description  string          `gorm:"column:description" json:"description"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(18,2);not null" json:"amount"`
	Type         AmountType      `gorm:"column:type;not null" json:"type"`
	Frequency    Frequency       `gorm:"column:frequency;not null" json:"frequency"`
	Status       string          `gorm:"column:status;default:active" json:"status"`
	Applications []Application   `gorm:"foreignKey:RuleID" json:"applications"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Rule) TableName() string { return "compensation_rules" }

type Application struct {
	ID         int64      `gorm:"primaryKey" json:"id"`
	RuleID     int64      `gorm:"column:rule_id;not null;index" json:"rule_id"`
	TargetType TargetType `gorm:"column:target_type;not null" json:"target_type"`
	TargetID   int64      `gorm:"column:target_id;not null" json:"target_id"`
	StartDate  time.Time  `gorm:"column:start_date;not null" json:"start_date"`
	EndDate    *time.Time `gorm:"column:end_date" json:"end_date"`
	Status     string     `gorm:"column:status;default:active" json:"status"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Application) TableName() string { return "rule_applications" }

// ActiveAt reports whether the application is live at the given instant.
func (a Application) ActiveAt(now time.Time) bool {
	if a.Status != StatusActive {
		return false
	}
	if now.Before(a.StartDate) {
		return false
	}
	return a.EndDate == nil || !now.After(*a.EndDate)
}
