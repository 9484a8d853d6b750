package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventTypeWalletLowBalance    = "wallet.low_balance"
	EventTypeWalletCredited      = "wallet.credited"
	EventTypePayrollDisbursed    = "payroll.disbursed"
	EventTypePayslipPaid         = "payslip.paid"
	EventTypeRemittanceProcessed = "tax_remittance.processed"
)

func newBase(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

type LowBalanceEvent struct {
	BaseEvent
	CompanyID      int64           `json:"company_id"`
	PayrollID      int64           `json:"payroll_id"`
	RequiredAmount decimal.Decimal `json:"required_amount"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
}

func NewLowBalanceEvent(companyID, payrollID int64, required, current decimal.Decimal) *LowBalanceEvent {
	return &LowBalanceEvent{
		BaseEvent: newBase(EventTypeWalletLowBalance, map[string]interface{}{
			"company_id":      companyID,
			"payroll_id":      payrollID,
			"required_amount": required.String(),
			"current_balance": current.String(),
		}),
		CompanyID:      companyID,
		PayrollID:      payrollID,
		RequiredAmount: required,
		CurrentBalance: current,
	}
}

type WalletCreditedEvent struct {
	BaseEvent
	CompanyID int64           `json:"company_id"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
	Balance   decimal.Decimal `json:"balance"`
}

func NewWalletCreditedEvent(companyID int64, amount decimal.Decimal, reference string, balance decimal.Decimal) *WalletCreditedEvent {
	return &WalletCreditedEvent{
		BaseEvent: newBase(EventTypeWalletCredited, map[string]interface{}{
			"company_id": companyID,
			"amount":     amount.String(),
			"reference":  reference,
			"balance":    balance.String(),
		}),
		CompanyID: companyID,
		Amount:    amount,
		Reference: reference,
		Balance:   balance,
	}
}

type PayrollDisbursedEvent struct {
	BaseEvent
	CompanyID   int64  `json:"company_id"`
	PayrollID   int64  `json:"payroll_id"`
	PayrollName string `json:"payroll_name"`
	Status      string `json:"status"`
	Successful  int    `json:"successful"`
	Failed      int    `json:"failed"`
}

func NewPayrollDisbursedEvent(companyID, payrollID int64, name, status string, successful, failed int) *PayrollDisbursedEvent {
	return &PayrollDisbursedEvent{
		BaseEvent: newBase(EventTypePayrollDisbursed, map[string]interface{}{
			"company_id":   companyID,
			"payroll_id":   payrollID,
			"payroll_name": name,
			"status":       status,
			"successful":   successful,
			"failed":       failed,
		}),
		CompanyID:   companyID,
		PayrollID:   payrollID,
		PayrollName: name,
		Status:      status,
		Successful:  successful,
		Failed:      failed,
	}
}

type PayslipPaidEvent struct {
	BaseEvent
	CompanyID        int64           `json:"company_id"`
	PayrollID        int64           `json:"payroll_id"`
	PayslipID        int64           `json:"payslip_id"`
	EmployeeID       int64           `json:"employee_id"`
	EmployeeName     string          `json:"employee_name"`
	NetPay           decimal.Decimal `json:"net_pay"`
	PaymentReference string          `json:"payment_reference"`
}

func NewPayslipPaidEvent(companyID, payrollID, payslipID, employeeID int64, employeeName string, netPay decimal.Decimal, reference string) *PayslipPaidEvent {
	return &PayslipPaidEvent{
		BaseEvent: newBase(EventTypePayslipPaid, map[string]interface{}{
			"company_id":        companyID,
			"payroll_id":        payrollID,
			"payslip_id":        payslipID,
			"employee_id":       employeeID,
			"employee_name":     employeeName,
			"net_pay":           netPay.String(),
			"payment_reference": reference,
		}),
		CompanyID:        companyID,
		PayrollID:        payrollID,
		PayslipID:        payslipID,
		EmployeeID:       employeeID,
		EmployeeName:     employeeName,
		NetPay:           netPay,
		PaymentReference: reference,
	}
}

type RemittanceProcessedEvent struct {
	BaseEvent
	CompanyID    int64           `json:"company_id"`
	RemittanceID int64           `json:"remittance_id"`
	Month        string          `json:"month"`
	Status       string          `json:"status"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Processed    int             `json:"processed"`
	Failed       int             `json:"failed"`
}

func NewRemittanceProcessedEvent(companyID, remittanceID int64, month, status string, total decimal.Decimal, processed, failed int) *RemittanceProcessedEvent {
	return &RemittanceProcessedEvent{
		BaseEvent: newBase(EventTypeRemittanceProcessed, map[string]interface{}{
			"company_id":    companyID,
			"remittance_id": remittanceID,
			"month":         month,
			"status":        status,
			"total_amount":  total.String(),
			"processed":     processed,
			"failed":        failed,
		}),
		CompanyID:    companyID,
		RemittanceID: remittanceID,
		Month:        month,
		Status:       status,
		TotalAmount:  total,
		Processed:    processed,
		Failed:       failed,
	}
}
