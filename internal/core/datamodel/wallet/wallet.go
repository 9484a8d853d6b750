package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

type TransactionType string

const (
	TypeWalletCredit   TransactionType = "wallet_credit"
	TypeWalletDebit    TransactionType = "wallet_debit"
	TypeSalaryCredit   TransactionType = "salary_credit"
	TypeBonusCredit    TransactionType = "bonus_credit"
	TypeDeductionDebit TransactionType = "deduction_debit"
	TypeCredit         TransactionType = "credit"
	TypeDebit          TransactionType = "debit"
)

type TransactionStatus string

const (
	TransactionPending    TransactionStatus = "pending"
	TransactionSuccessful TransactionStatus = "successful"
	TransactionFailed     TransactionStatus = "failed"
)

type Wallet struct {
	ID               int64           `gorm:"primaryKey" json:"id"`
	CompanyID        int64           `gorm:"column:company_id;uniqueIndex;not null" json:"company_id"`
	AvailableBalance decimal.Decimal `gorm:"column:available_balance;type:numeric(18,2);not null;default:0" json:"available_balance"`
	BookedBalance    decimal.Decimal `gorm:"column:booked_balance;type:numeric(18,2);not null;default:0" json:"booked_balance"`
	CustomerID       string          `gorm:"column:customer_id" json:"customer_id,omitempty"`
	ProviderWalletID string          `gorm:"column:provider_wallet_id" json:"wallet_id,omitempty"`
	AccountNumber    string          `gorm:"column:account_number" json:"account_number,omitempty"`
	AccountName      string          `gorm:"column:account_name" json:"account_name,omitempty"`
	BankName         string          `gorm:"column:bank_name" json:"bank_name,omitempty"`
	BankCode         string          `gorm:"column:bank_code" json:"bank_code,omitempty"`
	Status           string          `gorm:"column:status;default:pending" json:"status"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Wallet) TableName() string { return "wallets" }

type Transaction struct {
	ID                    int64                  `gorm:"primaryKey" json:"id"`
	CompanyID             int64                  `gorm:"column:company_id;not null;index" json:"company_id"`
	WalletID              int64                  `gorm:"column:wallet_id;not null;index" json:"wallet_id"`
	EmployeeID            *int64                 `gorm:"column:employee_id" json:"employee_id,omitempty"`
	PayrollID             *int64                 `gorm:"column:payroll_id" json:"payroll_id,omitempty"`
	PayslipID             *int64                 `gorm:"column:payslip_id" json:"payslip_id,omitempty"`
	Amount                decimal.Decimal        `gorm:"column:amount;type:numeric(18,2);not null" json:"amount"`
	Type                  TransactionType        `gorm:"column:type;not null" json:"type"`
	Status                TransactionStatus      `gorm:"column:status;default:pending" json:"status"`
	Reference             string                 `gorm:"column:reference;uniqueIndex;not null" json:"reference"`
	Provider              string                 `gorm:"column:provider" json:"provider,omitempty"`
	ProviderTransactionID *string                `gorm:"column:provider_transaction_id" json:"provider_transaction_id,omitempty"`
	Description           string                 `gorm:"column:description" json:"description"`
	Metadata              map[string]interface{} `gorm:"column:metadata;serializer:json;type:jsonb" json:"metadata,omitempty"`
	BalanceBefore         decimal.Decimal        `gorm:"column:balance_before;type:numeric(18,2)" json:"balance_before"`
	BalanceAfter          decimal.Decimal        `gorm:"column:balance_after;type:numeric(18,2)" json:"balance_after"`
	CreatedAt             time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Transaction) TableName() string { return "wallet_transactions" }
