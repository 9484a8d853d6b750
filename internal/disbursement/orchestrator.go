package disbursement

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/payroll-engine/internal"
	employeeDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/employee"
	payrollDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/payroll"
	walletDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/wallet"
	"github.com/frahmantamala/payroll-engine/internal/core/database"
	"github.com/frahmantamala/payroll-engine/internal/core/events"
	"github.com/frahmantamala/payroll-engine/internal/payroll"
	"github.com/frahmantamala/payroll-engine/internal/wallet"
	"github.com/frahmantamala/payroll-engine/internal/walletprovider"
)

type PayrollStore interface {
	GetByID(ctx context.Context, companyID, id int64) (*payrollDatamodel.Payroll, error)
	Save(ctx context.Context, p *payrollDatamodel.Payroll) error
	SavePayslip(ctx context.Context, slip *payrollDatamodel.Payslip) error
	ClaimForProcessing(ctx context.Context, companyID, id int64, from []payrollDatamodel.Status, at time.Time) (bool, error)
}

type EmployeeDirectory interface {
	Get(ctx context.Context, companyID, id int64) (*employeeDatamodel.Employee, error)
}

// WalletGate is the slice of the wallet ledger a disbursement needs.
type WalletGate interface {
	GetBalance(ctx context.Context, companyID int64) (*walletDatamodel.Wallet, error)
	Debit(ctx context.Context, companyID int64, amount decimal.Decimal) (*wallet.BalanceChange, error)
	RecordTransaction(ctx context.Context, t *walletDatamodel.Transaction) error
	TransferToBank(ctx context.Context, req walletprovider.TransferRequest) (*walletprovider.TransferResult, error)
}

var (
	ErrPayrollNotPending   = errors.NewValidationError("Payroll must be pending to be processed", errors.ErrCodePayrollNotPending)
	ErrPayslipNotRetryable = errors.NewValidationError("Payslip cannot be retried", errors.ErrCodePayslipNotRetryable)
)

const (
	msgMissingBankDetails = "Missing or incomplete bank details"
	msgNonPositiveNetPay  = "Net pay must be greater than zero"
	msgEmployeeNotFound   = "Employee record not found"
)

type Orchestrator struct {
	payrolls  PayrollStore
	employees EmployeeDirectory
	wallets   WalletGate
	tx        database.Transactor
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewOrchestrator(payrolls PayrollStore, employees EmployeeDirectory, wallets WalletGate, tx database.Transactor, publisher events.Publisher, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		payrolls:  payrolls,
		employees: employees,
		wallets:   wallets,
		tx:        tx,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Process pays every outstanding payslip of a pending payroll, one transfer
// at a time, and settles the payroll on completed, failed or
// partially_completed.
func (o *Orchestrator) Process(ctx context.Context, companyID, payrollID int64) (*Result, error) {
	p, err := o.payrolls.GetByID(ctx, companyID, payrollID)
	if err != nil {
		return nil, err
	}
	if p.Status != payrollDatamodel.StatusPending {
		return nil, ErrPayrollNotPending.WithDetails(map[string]interface{}{"current_status": p.Status})
	}

	if err := o.ensureFunds(ctx, p, payroll.Outstanding(p)); err != nil {
		return nil, err
	}

	now := o.now()
	p, err = o.claim(ctx, p, []payrollDatamodel.Status{payrollDatamodel.StatusPending}, now)
	if err != nil {
		if stderrors.Is(err, payroll.ErrPayrollInFlight) {
			return nil, ErrPayrollNotPending.WithDetails(map[string]interface{}{"current_status": payrollDatamodel.StatusProcessing})
		}
		return nil, err
	}
	payroll.Record(p, "Payroll processing started", now)
	p.Schedule.LastRun = &now

	o.logger.Info("payroll processing started",
		"payroll_id", p.ID,
		"company_id", companyID,
		"payslips", len(p.Payslips))

	result := &Result{PayrollID: p.ID, Failures: []Failure{}}
	var paid []*payrollDatamodel.Payslip

	for i := range p.Payslips {
		slip := &p.Payslips[i]
		if slip.Status == payrollDatamodel.PayslipCompleted {
			continue
		}

		ok, err := o.disburse(ctx, p, slip, result)
		if err != nil {
			return nil, o.abort(ctx, p, err)
		}
		if ok {
			result.Successful++
			paid = append(paid, slip)
		}
	}

	status := settledStatus(p)
	msg := fmt.Sprintf("Payroll processing %s: %d successful, %d failed", status, result.Successful, result.Failed)
	if err := payroll.Transition(p, status, msg, o.now()); err != nil {
		return nil, o.abort(ctx, p, err)
	}
	if err := o.payrolls.Save(ctx, p); err != nil {
		return nil, o.abort(ctx, p, err)
	}
	result.Status = p.Status

	o.logger.Info("payroll processing finished",
		"payroll_id", p.ID,
		"status", p.Status,
		"successful", result.Successful,
		"failed", result.Failed)

	o.publish(ctx, events.NewPayrollDisbursedEvent(companyID, p.ID, p.Name, string(p.Status), result.Successful, result.Failed))
	for _, slip := range paid {
		o.publish(ctx, paidEvent(p, slip))
	}

	return result, nil
}

// RetryPayslip re-runs the transfer for one unpaid payslip of a failed or
// partially completed payroll.
func (o *Orchestrator) RetryPayslip(ctx context.Context, companyID, payrollID, payslipID int64) (*Result, error) {
	p, err := o.payrolls.GetByID(ctx, companyID, payrollID)
	if err != nil {
		return nil, err
	}
	if p.Status != payrollDatamodel.StatusFailed && p.Status != payrollDatamodel.StatusPartiallyCompleted {
		return nil, ErrPayslipNotRetryable.WithDetails(map[string]interface{}{"payroll_status": p.Status})
	}

	slip := p.PayslipByID(payslipID)
	if slip == nil {
		return nil, payroll.ErrPayslipNotFound
	}
	if slip.Status == payrollDatamodel.PayslipCompleted {
		return nil, ErrPayslipNotRetryable.WithDetails(map[string]interface{}{"payslip_status": slip.Status})
	}

	if err := o.ensureFunds(ctx, p, slip.NetPay); err != nil {
		return nil, err
	}

	from := p.Status
	p, err = o.claim(ctx, p, []payrollDatamodel.Status{from}, o.now())
	if err != nil {
		return nil, err
	}
	// The batch is only moved to processing through pending.
	p.Status = from
	for _, step := range []payrollDatamodel.Status{payrollDatamodel.StatusPending, payrollDatamodel.StatusProcessing} {
		if err := payroll.Transition(p, step, "", o.now()); err != nil {
			return nil, o.abort(ctx, p, err)
		}
	}

	slip = p.PayslipByID(payslipID)
	if slip == nil || slip.Status == payrollDatamodel.PayslipCompleted {
		// Paid by another run between the first read and the claim.
		if err := payroll.Transition(p, settledStatus(p), fmt.Sprintf("Retry of payslip %d skipped", payslipID), o.now()); err != nil {
			return nil, o.abort(ctx, p, err)
		}
		if err := o.payrolls.Save(ctx, p); err != nil {
			return nil, o.abort(ctx, p, err)
		}
		return nil, ErrPayslipNotRetryable.WithDetails(map[string]interface{}{"payslip_status": payrollDatamodel.PayslipCompleted})
	}

	result := &Result{PayrollID: p.ID, Failures: []Failure{}}
	ok, err := o.disburse(ctx, p, slip, result)
	if err != nil {
		return nil, o.abort(ctx, p, err)
	}
	if ok {
		result.Successful++
	}

	status := settledStatus(p)
	msg := fmt.Sprintf("Retry of payslip %d %s", slip.ID, slip.Status)
	if status == payrollDatamodel.StatusCompleted {
		msg = "All payslips paid after retry"
	}
	if err := payroll.Transition(p, status, msg, o.now()); err != nil {
		return nil, o.abort(ctx, p, err)
	}

	if err := o.payrolls.Save(ctx, p); err != nil {
		return nil, errors.NewInternalError("failed to update payroll after retry", err)
	}
	result.Status = p.Status

	o.logger.Info("payslip retry finished",
		"payroll_id", p.ID,
		"payslip_id", slip.ID,
		"payslip_status", slip.Status,
		"payroll_status", p.Status)

	if ok {
		o.publish(ctx, paidEvent(p, slip))
	}
	if p.Status == payrollDatamodel.StatusCompleted {
		o.publish(ctx, events.NewPayrollDisbursedEvent(companyID, p.ID, p.Name, string(p.Status), result.Successful, result.Failed))
	}
	return result, nil
}

// claim moves the payroll to processing while it is still in one of from and
// returns a fresh copy. Losing the claim to a concurrent run yields
// ErrPayrollInFlight.
func (o *Orchestrator) claim(ctx context.Context, p *payrollDatamodel.Payroll, from []payrollDatamodel.Status, at time.Time) (*payrollDatamodel.Payroll, error) {
	claimed, err := o.payrolls.ClaimForProcessing(ctx, p.CompanyID, p.ID, from, at)
	if err != nil {
		return nil, errors.NewInternalError("failed to start payroll processing", err)
	}
	if !claimed {
		o.logger.Warn("payroll already claimed by another run", "payroll_id", p.ID, "company_id", p.CompanyID)
		return nil, payroll.ErrPayrollInFlight
	}

	fresh, err := o.payrolls.GetByID(ctx, p.CompanyID, p.ID)
	if err != nil {
		p.Status = payrollDatamodel.StatusProcessing
		return nil, o.abort(ctx, p, err)
	}
	return fresh, nil
}

// disburse pays one payslip. A false result with a nil error means the
// payslip was marked failed; an error means the run cannot continue.
func (o *Orchestrator) disburse(ctx context.Context, p *payrollDatamodel.Payroll, slip *payrollDatamodel.Payslip, result *Result) (bool, error) {
	emp, err := o.employees.Get(ctx, p.CompanyID, slip.EmployeeID)
	if err != nil {
		if appErr, ok := errors.IsAppError(err); ok && appErr.Type == errors.ErrorTypeNotFound {
			return false, o.markFailed(ctx, slip, msgEmployeeNotFound, result, nil)
		}
		return false, err
	}
	if !emp.Bank.Complete() {
		return false, o.markFailed(ctx, slip, msgMissingBankDetails, result, nil)
	}
	if !slip.NetPay.IsPositive() {
		return false, o.markFailed(ctx, slip, msgNonPositiveNetPay, result, nil)
	}

	before := *slip
	err = o.tx.WithinTx(ctx, func(ctx context.Context) error {
		return o.transfer(ctx, p, slip, emp)
	})
	if err == nil {
		return true, nil
	}

	*slip = before
	if isSystemError(err) {
		return false, err
	}
	o.logger.Warn("payslip transfer failed",
		"payroll_id", p.ID,
		"payslip_id", slip.ID,
		"employee_id", slip.EmployeeID,
		"error", err)
	return false, o.markFailed(ctx, slip, err.Error(), result, emp)
}

// transfer is the unit of work for one payslip: debit, provider transfer,
// payslip update and ledger entry commit or roll back together.
func (o *Orchestrator) transfer(ctx context.Context, p *payrollDatamodel.Payroll, slip *payrollDatamodel.Payslip, emp *employeeDatamodel.Employee) error {
	change, err := o.wallets.Debit(ctx, p.CompanyID, slip.NetPay)
	if err != nil {
		return err
	}

	narration := fmt.Sprintf("Salary Payment - %s", p.Name)
	reference := wallet.NewReference("salary")
	// The idempotency key survives a rolled back attempt, so the provider
	// answers a repeat with the transfer it already made.
	res, err := o.wallets.TransferToBank(ctx, walletprovider.TransferRequest{
		Amount:         slip.NetPay,
		SortCode:       emp.Bank.BankCode,
		AccountNumber:  emp.Bank.AccountNumber,
		AccountName:    emp.Bank.AccountName,
		Narration:      narration,
		Reference:      reference,
		IdempotencyKey: IdempotencyKey(slip),
		Metadata: map[string]interface{}{
			"company_id":  p.CompanyID,
			"employee_id": emp.ID,
			"payroll_id":  p.ID,
			"payslip_id":  slip.ID,
		},
	})
	if err != nil {
		return err
	}

	if err := o.book(ctx, p, slip, emp, change, res, reference, narration); err != nil {
		o.logger.Error("transfer sent but not recorded",
			"payroll_id", p.ID,
			"payslip_id", slip.ID,
			"employee_id", emp.ID,
			"reference", reference,
			"provider_reference", res.Reference,
			"provider_transaction_id", res.TransactionID,
			"error", err)
		return err
	}
	return nil
}

// IdempotencyKey identifies one transfer attempt of a payslip. It only
// changes once a failed attempt has been recorded.
func IdempotencyKey(slip *payrollDatamodel.Payslip) string {
	return fmt.Sprintf("payslip-%d-attempt-%d", slip.ID, slip.RetryCount)
}

// book marks the payslip paid and writes the salary credit to the ledger.
func (o *Orchestrator) book(ctx context.Context, p *payrollDatamodel.Payroll, slip *payrollDatamodel.Payslip, emp *employeeDatamodel.Employee,
	change *wallet.BalanceChange, res *walletprovider.TransferResult, reference, narration string) error {
	paidAt := o.now()
	slip.Status = payrollDatamodel.PayslipCompleted
	slip.TransactionRef = stringPtr(res.TransactionID)
	slip.PaymentReference = stringPtr(res.Reference)
	slip.PaymentDate = &paidAt
	slip.ErrorMessage = nil
	if err := o.payrolls.SavePayslip(ctx, slip); err != nil {
		return errors.NewInternalError("failed to update payslip", err)
	}

	txn := &walletDatamodel.Transaction{
		CompanyID:     p.CompanyID,
		WalletID:      change.WalletID,
		EmployeeID:    &emp.ID,
		PayrollID:     &p.ID,
		PayslipID:     &slip.ID,
		Amount:        slip.NetPay,
		Type:          walletDatamodel.TypeSalaryCredit,
		Status:        walletDatamodel.TransactionSuccessful,
		Reference:     reference,
		Description:   narration,
		Metadata:      bankMetadata(emp),
		BalanceBefore: change.Before,
		BalanceAfter:  change.After,
	}
	if res.TransactionID != "" {
		txn.ProviderTransactionID = stringPtr(res.TransactionID)
	}
	return o.wallets.RecordTransaction(ctx, txn)
}

// markFailed stores the failure on the payslip. When the transfer itself was
// attempted a failed salary credit is added to the ledger.
func (o *Orchestrator) markFailed(ctx context.Context, slip *payrollDatamodel.Payslip, msg string, result *Result, emp *employeeDatamodel.Employee) error {
	now := o.now()
	slip.Status = payrollDatamodel.PayslipFailed
	slip.ErrorMessage = &msg
	slip.RetryCount++
	slip.LastRetry = &now
	result.fail(slip, msg)

	if err := o.payrolls.SavePayslip(ctx, slip); err != nil {
		return errors.NewInternalError("failed to mark payslip failed", err)
	}
	if emp == nil {
		return nil
	}

	meta := bankMetadata(emp)
	meta["error"] = msg
	return o.wallets.RecordTransaction(ctx, &walletDatamodel.Transaction{
		CompanyID:   emp.CompanyID,
		EmployeeID:  &emp.ID,
		PayrollID:   &slip.PayrollID,
		PayslipID:   &slip.ID,
		Amount:      slip.NetPay,
		Type:        walletDatamodel.TypeSalaryCredit,
		Status:      walletDatamodel.TransactionFailed,
		Reference:   wallet.NewReference("failed_salary"),
		Description: "Salary Transfer Failed",
		Metadata:    meta,
	})
}

// ensureFunds compares the available balance with the amount due and raises
// a low balance alert when it falls short.
func (o *Orchestrator) ensureFunds(ctx context.Context, p *payrollDatamodel.Payroll, required decimal.Decimal) error {
	w, err := o.wallets.GetBalance(ctx, p.CompanyID)
	if err != nil {
		return err
	}
	if w.AvailableBalance.GreaterThanOrEqual(required) {
		return nil
	}

	o.logger.Warn("insufficient wallet balance",
		"payroll_id", p.ID,
		"company_id", p.CompanyID,
		"required", required.String(),
		"available", w.AvailableBalance.String())
	o.publish(ctx, events.NewLowBalanceEvent(p.CompanyID, p.ID, required, w.AvailableBalance))
	return errors.NewInsufficientFundsError(required.String(), w.AvailableBalance.String())
}

// abort moves a processing payroll to failed after a system error and
// surfaces the original cause.
func (o *Orchestrator) abort(ctx context.Context, p *payrollDatamodel.Payroll, cause error) error {
	o.logger.Error("payroll processing aborted", "payroll_id", p.ID, "error", cause)

	if p.Status == payrollDatamodel.StatusProcessing {
		msg := fmt.Sprintf("Payroll processing failed: %v", cause)
		if err := payroll.Transition(p, payrollDatamodel.StatusFailed, msg, o.now()); err == nil {
			if err := o.payrolls.Save(context.WithoutCancel(ctx), p); err != nil {
				o.logger.Error("failed to record aborted payroll", "payroll_id", p.ID, "error", err)
			}
		}
	}

	if _, ok := errors.IsAppError(cause); ok {
		return cause
	}
	return errors.NewInternalError("Failed to process payroll", cause)
}

// settledStatus counts every payslip that is not completed as failed, so a
// retry never settles a batch that still has unattempted payslips.
func settledStatus(p *payrollDatamodel.Payroll) payrollDatamodel.Status {
	var completed, failed int
	for _, slip := range p.Payslips {
		if slip.Status == payrollDatamodel.PayslipCompleted {
			completed++
		} else {
			failed++
		}
	}
	switch {
	case failed == 0:
		return payrollDatamodel.StatusCompleted
	case completed == 0:
		return payrollDatamodel.StatusFailed
	default:
		return payrollDatamodel.StatusPartiallyCompleted
	}
}

// isSystemError separates infrastructure failures, which stop a run, from
// per-payslip failures such as provider rejections or a short balance.
func isSystemError(err error) bool {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	appErr, ok := errors.IsAppError(err)
	if !ok {
		return true
	}
	return appErr.Type == errors.ErrorTypeInternal
}

func (o *Orchestrator) publish(ctx context.Context, event events.Event) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(ctx, event); err != nil {
		o.logger.Error("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func paidEvent(p *payrollDatamodel.Payroll, slip *payrollDatamodel.Payslip) events.Event {
	ref := ""
	if slip.PaymentReference != nil {
		ref = *slip.PaymentReference
	}
	return events.NewPayslipPaidEvent(p.CompanyID, p.ID, slip.ID, slip.EmployeeID, slip.EmployeeName, slip.NetPay, ref)
}

func bankMetadata(emp *employeeDatamodel.Employee) map[string]interface{} {
	return map[string]interface{}{
		"bank_details": map[string]interface{}{
			"sort_code":      emp.Bank.BankCode,
			"account_number": emp.Bank.AccountNumber,
			"account_name":   emp.Bank.AccountName,
		},
	}
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
