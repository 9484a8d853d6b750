package taxremittance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusPartial    Status = "partial"
)

type LineStatus string

const (
	LinePending   LineStatus = "pending"
	LineProcessed LineStatus = "processed"
	LineFailed    LineStatus = "failed"
)

type Band struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Rate   decimal.Decimal `json:"rate"`
	Tax    decimal.Decimal `json:"tax"`
}

type HistoryEntry struct {
	Status    Status    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type Line struct {
	ID               int64           `gorm:"primaryKey" json:"id"`
	RemittanceID     int64           `gorm:"column:remittance_id;not null;index" json:"remittance_id"`
	EmployeeID       int64           `gorm:"column:employee_id;not null" json:"employee_id"`
	TaxPID           string          `gorm:"column:tax_pid" json:"tax_pid"`
	Amount           decimal.Decimal `gorm:"column:amount;type:numeric(18,2);not null" json:"amount"`
	Breakdown        []Band          `gorm:"column:breakdown;serializer:json;type:jsonb" json:"tax_breakdown"`
	Status           LineStatus      `gorm:"column:status;default:pending" json:"status"`
	PaymentReference *string         `gorm:"column:payment_reference" json:"payment_reference,omitempty"`
	ReceiptNumber    *string         `gorm:"column:receipt_number" json:"receipt_number,omitempty"`
	ErrorMessage     *string         `gorm:"column:error_message" json:"error_message,omitempty"`
	ProcessedAt      *time.Time      `gorm:"column:processed_at" json:"processed_at,omitempty"`
}

func (Line) TableName() string { return "tax_remittance_lines" }

type Remittance struct {
	ID            int64           `gorm:"primaryKey" json:"id"`
	CompanyID     int64           `gorm:"column:company_id;not null;index" json:"company_id"`
	PayrollID     int64           `gorm:"column:payroll_id;not null;uniqueIndex" json:"payroll_id"`
	Month         string          `gorm:"column:month;not null" json:"month"`
	TotalAmount   decimal.Decimal `gorm:"column:total_amount;type:numeric(18,2);not null" json:"total_amount"`
	Status        Status          `gorm:"column:status;default:pending" json:"status"`
	AppliedDate   time.Time       `gorm:"column:applied_date" json:"applied_date"`
	ProcessedDate *time.Time      `gorm:"column:processed_date" json:"processed_date,omitempty"`
	RetryCount    int             `gorm:"column:retry_count;default:0" json:"retry_count"`
	Lines         []Line          `gorm:"foreignKey:RemittanceID" json:"breakdown"`
	History       []HistoryEntry  `gorm:"column:processing_history;serializer:json;type:jsonb" json:"processing_history"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Remittance) TableName() string { return "tax_remittances" }
