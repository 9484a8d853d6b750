package wallet

import (
	"strings"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/payroll-engine/internal"
	walletDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/wallet"
	"github.com/frahmantamala/payroll-engine/internal/transport"
)

// BalanceChange is the available balance around one ledger movement.
type BalanceChange struct {
	WalletID int64
	Before   decimal.Decimal
	After    decimal.Decimal
}

type BalanceResponse struct {
	CompanyID        int64           `json:"company_id"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	BookedBalance    decimal.Decimal `json:"booked_balance"`
	AccountNumber    string          `json:"account_number,omitempty"`
	AccountName      string          `json:"account_name,omitempty"`
	BankName         string          `json:"bank_name,omitempty"`
	Status           string          `json:"status"`
}

func ToBalanceResponse(w *walletDatamodel.Wallet) BalanceResponse {
	return BalanceResponse{
		CompanyID:        w.CompanyID,
		AvailableBalance: w.AvailableBalance,
		BookedBalance:    w.BookedBalance,
		AccountNumber:    w.AccountNumber,
		AccountName:      w.AccountName,
		BankName:         w.BankName,
		Status:           w.Status,
	}
}

type TransactionFilter struct {
	Type   string
	Status string
	From   *time.Time
	To     *time.Time
	transport.Page
}

// TransactionView is a ledger row as read by the listing query.
type TransactionView struct {
	ID                    int64               `db:"id" json:"id"`
	EmployeeID            *int64              `db:"employee_id" json:"employee_id,omitempty"`
	PayrollID             *int64              `db:"payroll_id" json:"payroll_id,omitempty"`
	PayslipID             *int64              `db:"payslip_id" json:"payslip_id,omitempty"`
	Amount                decimal.Decimal     `db:"amount" json:"amount"`
	Type                  string              `db:"type" json:"type"`
	Status                string              `db:"status" json:"status"`
	Reference             string              `db:"reference" json:"reference"`
	ProviderTransactionID *string             `db:"provider_transaction_id" json:"provider_transaction_id,omitempty"`
	Description           *string             `db:"description" json:"description,omitempty"`
	Metadata              types.NullJSONText  `db:"metadata" json:"metadata,omitempty"`
	BalanceBefore         decimal.NullDecimal `db:"balance_before" json:"balance_before"`
	BalanceAfter          decimal.NullDecimal `db:"balance_after" json:"balance_after"`
	CreatedAt             time.Time           `db:"created_at" json:"created_at"`
}

type TransactionList struct {
	Transactions []TransactionView `json:"transactions"`
	Total        int64             `json:"total"`
	Page         int               `json:"page"`
	Limit        int               `json:"limit"`
}

const (
	WebhookWalletCredit = "wallet_credit"
	WebhookWalletDebit  = "wallet_debit"
	WebhookBankTransfer = "bank_transfer"
)

// WebhookEvent is the body the wallet provider posts on ledger activity.
type WebhookEvent struct {
	Data *WebhookData `json:"data"`
}

type WebhookData struct {
	Type          string          `json:"type"`
	CustomerID    string          `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reference     string          `json:"reference"`
	TransactionID string          `json:"transaction_id"`
	Narration     string          `json:"narration"`
	Status        string          `json:"status"`
}

func (e *WebhookEvent) Validate() error {
	if e.Data == nil {
		return errors.NewValidationError("Invalid webhook payload", errors.ErrCodeValidationFailed)
	}
	e.Data.Type = strings.ToLower(strings.TrimSpace(e.Data.Type))
	if e.Data.Type == "" {
		return errors.NewValidationFieldError("data.type", "data.type is required", errors.ErrCodeValidationFailed)
	}
	return nil
}
