package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft              Status = "draft"
	StatusPending            Status = "pending"
	StatusProcessing         Status = "processing"
	StatusCompleted          Status = "completed"
	StatusFailed             Status = "failed"
	StatusPartiallyCompleted Status = "partially_completed"
)

type Frequency string

const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiWeekly Frequency = "bi-weekly"
	FrequencyMonthly  Frequency = "monthly"
)

type PayslipStatus string

const (
	PayslipPending    PayslipStatus = "pending"
	PayslipProcessing PayslipStatus = "processing"
	PayslipCompleted  PayslipStatus = "completed"
	PayslipFailed     PayslipStatus = "failed"
)

type LineItem struct {
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

type LineItems []LineItem

func (l LineItems) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, item := range l {
		total = total.Add(item.Amount)
	}
	return total
}

type Payslip struct {
	ID               int64           `gorm:"primaryKey" json:"id"`
	PayrollID        int64           `gorm:"column:payroll_id;not null;index" json:"payroll_id"`
	EmployeeID       int64           `gorm:"column:employee_id;not null;index" json:"employee_id"`
	EmployeeName     string          `gorm:"column:employee_name" json:"employee_name"`
	BaseSalary       decimal.Decimal `gorm:"column:base_salary;type:numeric(18,2)" json:"base_salary"`
	Allowances       LineItems       `gorm:"column:allowances;serializer:json;type:jsonb" json:"allowances"`
	Deductions       LineItems       `gorm:"column:deductions;serializer:json;type:jsonb" json:"deductions"`
	GrossPay         decimal.Decimal `gorm:"column:gross_pay;type:numeric(18,2)" json:"gross_pay"`
	NetPay           decimal.Decimal `gorm:"column:net_pay;type:numeric(18,2)" json:"net_pay"`
	Status           PayslipStatus   `gorm:"column:status;default:pending" json:"status"`
	TransactionRef   *string         `gorm:"column:transaction_ref" json:"transaction_ref,omitempty"`
	PaymentReference *string         `gorm:"column:payment_reference" json:"payment_reference,omitempty"`
	PaymentDate      *time.Time      `gorm:"column:payment_date" json:"payment_date,omitempty"`
	RetryCount       int             `gorm:"column:retry_count;default:0" json:"retry_count"`
	LastRetry        *time.Time      `gorm:"column:last_retry" json:"last_retry,omitempty"`
	ErrorMessage     *string         `gorm:"column:error_message" json:"error_message,omitempty"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Payslip) TableName() string { return "payslips" }

// Recompute restores gross = base + allowances and net = gross - deductions.
func (p *Payslip) Recompute() {
	p.GrossPay = p.BaseSalary.Add(p.Allowances.Sum())
	p.NetPay = p.GrossPay.Sub(p.Deductions.Sum())
}

type Period struct {
	StartDate time.Time `gorm:"column:start_date;not null" json:"start_date"`
	EndDate   time.Time `gorm:"column:end_date;not null" json:"end_date"`
}

type Summary struct {
	TotalGross      decimal.Decimal `gorm:"column:total_gross;type:numeric(18,2)" json:"total_gross"`
	TotalDeductions decimal.Decimal `gorm:"column:total_deductions;type:numeric(18,2)" json:"total_deductions"`
	TotalAllowances decimal.Decimal `gorm:"column:total_allowances;type:numeric(18,2)" json:"total_allowances"`
	TotalNet        decimal.Decimal `gorm:"column:total_net;type:numeric(18,2)" json:"total_net"`
}

type Schedule struct {
	NextRun     *time.Time `gorm:"column:next_run" json:"next_run,omitempty"`
	LastRun     *time.Time `gorm:"column:last_run" json:"last_run,omitempty"`
	IsRecurring bool       `gorm:"column:is_recurring;default:false" json:"is_recurring"`
}

type HistoryEntry struct {
	ID        int64     `gorm:"primaryKey" json:"-"`
	PayrollID int64     `gorm:"column:payroll_id;not null;index" json:"-"`
	Status    Status    `gorm:"column:status;not null" json:"status"`
	Message   string    `gorm:"column:message" json:"message"`
	Timestamp time.Time `gorm:"column:occurred_at;not null" json:"timestamp"`
}

func (HistoryEntry) TableName() string { return "payroll_history" }

type Payroll struct {
	ID             int64          `gorm:"primaryKey" json:"id"`
	CompanyID      int64          `gorm:"column:company_id;not null;index" json:"company_id"`
	Name           string         `gorm:"column:name;not null" json:"name"`
	Period         Period         `gorm:"embedded;embeddedPrefix:period_" json:"period"`
	Frequency      Frequency      `gorm:"column:frequency;not null" json:"frequency"`
	Status         Status         `gorm:"column:status;default:draft;index" json:"status"`
	TotalEmployees int            `gorm:"column:total_employees" json:"total_employees"`
	Payslips       []Payslip      `gorm:"foreignKey:PayrollID" json:"payslips"`
	Summary        Summary        `gorm:"embedded;embeddedPrefix:summary_" json:"summary"`
	History        []HistoryEntry `gorm:"foreignKey:PayrollID" json:"processing_history"`
	Schedule       Schedule       `gorm:"embedded;embeddedPrefix:schedule_" json:"schedule"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Payroll) TableName() string { return "payrolls" }

// PayslipByID returns a pointer into Payslips so callers can mutate in place.
func (p *Payroll) PayslipByID(id int64) *Payslip {
	for i := range p.Payslips {
		if p.Payslips[i].ID == id {
			return &p.Payslips[i]
		}
	}
	return nil
}
