package employee

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPresent  = "present"
	StatusInactive = "inactive"
	StatusAbsent   = "absent"

	PayrollStatusActive   = "active"
	PayrollStatusInactive = "inactive"

	DepartmentStatusActive   = "active"
	DepartmentStatusInactive = "inactive"
)

type BankDetails struct {
	AccountNumber string `gorm:"column:account_number" json:"account_number"`
	AccountName   string `gorm:"column:account_name" json:"account_name"`
	BankCode      string `gorm:"column:bank_code" json:"bank_code"`
	BankName      string `gorm:"column:bank_name" json:"bank_name"`
}

// Complete reports whether a transfer can be addressed to these details.
func (b BankDetails) Complete() bool {
	return strings.TrimSpace(b.AccountNumber) != "" &&
		strings.TrimSpace(b.AccountName) != "" &&
		strings.TrimSpace(b.BankCode) != ""
}

type Employee struct {
	ID            int64           `gorm:"primaryKey" json:"id"`
	CompanyID     int64           `gorm:"column:company_id;not null;index" json:"company_id"`
	DepartmentID  *int64          `gorm:"column:department_id;index" json:"department_id"`
	Name          string          `gorm:"column:name;not null" json:"name"`
	Email         string          `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Phone         string          `gorm:"column:phone" json:"phone"`
	Position      string          `gorm:"column:position" json:"position"`
	Salary        decimal.Decimal `gorm:"column:salary;type:numeric(18,2);not null" json:"salary"`
	Bank          BankDetails     `gorm:"embedded;embeddedPrefix:bank_" json:"bank_details"`
	TaxPID        *string         `gorm:"column:tax_pid" json:"tax_pid"`
	Status        string          `gorm:"column:status;default:present" json:"status"`
	PayrollStatus string          `gorm:"column:payroll_status;default:active" json:"payroll_status"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Employee) TableName() string { return "employees" }

type Department struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	CompanyID   int64     `gorm:"column:company_id;not null;uniqueIndex:idx_departments_company_code" json:"company_id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Code        string    `gorm:"column:code;not null;uniqueIndex:idx_departments_company_code" json:"code"`
	Description string    `gorm:"column:description" json:"description"`
	Status      string    `gorm:"column:status;default:active" json:"status"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Department) TableName() string { return "departments" }
