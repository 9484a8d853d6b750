package wallet

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/payroll-engine/internal"
	walletDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/wallet"
	"github.com/frahmantamala/payroll-engine/internal/core/database"
	"github.com/frahmantamala/payroll-engine/internal/core/events"
	"github.com/frahmantamala/payroll-engine/internal/walletprovider"
)

const providerName = "xpress_wallet"

type RepositoryAPI interface {
	GetByCompany(ctx context.Context, companyID int64) (*walletDatamodel.Wallet, error)
	GetByProviderWalletID(ctx context.Context, providerWalletID string) (*walletDatamodel.Wallet, error)
	Create(ctx context.Context, w *walletDatamodel.Wallet) error
	// DecrementIfCovered subtracts amount only when the available balance
	// covers it and reports whether the row changed.
	DecrementIfCovered(ctx context.Context, walletID int64, amount decimal.Decimal) (bool, error)
	Increment(ctx context.Context, walletID int64, amount decimal.Decimal) error
	CreateTransaction(ctx context.Context, t *walletDatamodel.Transaction) error
	// FindTransaction matches on reference or, when given, the provider id.
	FindTransaction(ctx context.Context, reference, providerTransactionID string) (*walletDatamodel.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id int64, status walletDatamodel.TransactionStatus, providerTransactionID *string) error
}

type TransactionQueryAPI interface {
	ListTransactions(ctx context.Context, companyID int64, filter TransactionFilter) ([]TransactionView, int64, error)
}

// Transferer sends money out of the company wallet to a bank account.
type Transferer interface {
	TransferToBank(ctx context.Context, req walletprovider.TransferRequest) (*walletprovider.TransferResult, error)
}

var (
	ErrWalletNotFound      = errors.NewNotFoundError("Company wallet not found", errors.ErrCodeWalletNotFound)
	ErrTransactionNotFound = errors.NewNotFoundError("Wallet transaction not found", errors.ErrCodeTransactionNotFound)
	ErrInsufficientFunds   = errors.NewInsufficientFundsError("0", "0")
	ErrInvalidAmount       = errors.NewValidationFieldError("amount", "amount must be greater than zero", errors.ErrCodeInvalidAmount)
)

type Service struct {
	repo      RepositoryAPI
	queries   TransactionQueryAPI
	provider  Transferer
	tx        database.Transactor
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, queries TransactionQueryAPI, provider Transferer, tx database.Transactor, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		queries:  queries,
		provider: provider,
		tx:       tx,
		logger:   logger,
	}
}

func (s *Service) WithPublisher(p events.Publisher) *Service {
	s.publisher = p
	return s
}

func (s *Service) GetBalance(ctx context.Context, companyID int64) (*walletDatamodel.Wallet, error) {
	return s.repo.GetByCompany(ctx, companyID)
}

// Open creates the company wallet when it does not exist yet.
func (s *Service) Open(ctx context.Context, w *walletDatamodel.Wallet) (*walletDatamodel.Wallet, error) {
	existing, err := s.repo.GetByCompany(ctx, w.CompanyID)
	if err == nil {
		return existing, nil
	}
	if !stderrors.Is(err, ErrWalletNotFound) {
		return nil, err
	}
	if w.Status == "" {
		w.Status = walletDatamodel.StatusActive
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return nil, errors.NewInternalError("failed to create wallet", err)
	}
	return w, nil
}

// Debit takes amount from the available balance with a conditional update.
// Inside a caller's transaction the wallet row stays locked until commit.
func (s *Service) Debit(ctx context.Context, companyID int64, amount decimal.Decimal) (*BalanceChange, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var change *BalanceChange
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		w, err := s.repo.GetByCompany(ctx, companyID)
		if err != nil {
			return err
		}
		ok, err := s.repo.DecrementIfCovered(ctx, w.ID, amount)
		if err != nil {
			return errors.NewInternalError("failed to debit wallet", err)
		}
		if !ok {
			current, err := s.repo.GetByCompany(ctx, companyID)
			if err != nil {
				return err
			}
			return errors.NewInsufficientFundsError(amount.String(), current.AvailableBalance.String())
		}
		after, err := s.repo.GetByCompany(ctx, companyID)
		if err != nil {
			return err
		}
		change = &BalanceChange{
			WalletID: w.ID,
			Before:   after.AvailableBalance.Add(amount),
			After:    after.AvailableBalance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("wallet debited", "company_id", companyID, "amount", amount.String(), "balance", change.After.String())
	return change, nil
}

// Credit adds amount to the balance and records a successful wallet credit.
// A reference that is already on the ledger is not applied twice.
func (s *Service) Credit(ctx context.Context, companyID int64, amount decimal.Decimal, reference, description string, metadata map[string]interface{}) (*walletDatamodel.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var txn *walletDatamodel.Transaction
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if reference != "" {
			existing, err := s.repo.FindTransaction(ctx, reference, "")
			if err == nil {
				txn = existing
				return nil
			}
			if !stderrors.Is(err, ErrTransactionNotFound) {
				return err
			}
		}

		w, err := s.repo.GetByCompany(ctx, companyID)
		if err != nil {
			return err
		}
		if err := s.repo.Increment(ctx, w.ID, amount); err != nil {
			return errors.NewInternalError("failed to credit wallet", err)
		}
		after, err := s.repo.GetByCompany(ctx, companyID)
		if err != nil {
			return err
		}

		if description == "" {
			description = "Wallet Credit"
		}
		txn = &walletDatamodel.Transaction{
			CompanyID:     companyID,
			WalletID:      w.ID,
			Amount:        amount,
			Type:          walletDatamodel.TypeWalletCredit,
			Status:        walletDatamodel.TransactionSuccessful,
			Reference:     reference,
			Description:   description,
			Metadata:      metadata,
			BalanceBefore: after.AvailableBalance.Sub(amount),
			BalanceAfter:  after.AvailableBalance,
		}
		return s.RecordTransaction(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewWalletCreditedEvent(companyID, amount, txn.Reference, txn.BalanceAfter))
	return txn, nil
}

// RecordTransaction appends a ledger row. Missing references and providers
// are filled in.
func (s *Service) RecordTransaction(ctx context.Context, t *walletDatamodel.Transaction) error {
	if t.Reference == "" {
		t.Reference = NewReference(string(t.Type))
	}
	if t.Provider == "" {
		t.Provider = providerName
	}
	if t.Status == "" {
		t.Status = walletDatamodel.TransactionPending
	}
	if t.WalletID == 0 {
		w, err := s.repo.GetByCompany(ctx, t.CompanyID)
		if err != nil {
			return err
		}
		t.WalletID = w.ID
	}
	if err := s.repo.CreateTransaction(ctx, t); err != nil {
		s.logger.Error("failed to record wallet transaction", "error", err, "reference", t.Reference)
		return errors.NewInternalError("failed to record wallet transaction", err)
	}
	return nil
}

// UpdateTransactionStatus is the only mutation a ledger row accepts after
// creation.
func (s *Service) UpdateTransactionStatus(ctx context.Context, reference string, status walletDatamodel.TransactionStatus, providerTransactionID *string) error {
	t, err := s.repo.FindTransaction(ctx, reference, "")
	if err != nil {
		return err
	}
	return s.repo.UpdateTransactionStatus(ctx, t.ID, status, providerTransactionID)
}

// TransferToBank forwards to the provider and converts its failures into
// external errors that keep the vendor status, message and reference.
func (s *Service) TransferToBank(ctx context.Context, req walletprovider.TransferRequest) (*walletprovider.TransferResult, error) {
	if s.provider == nil {
		return nil, errors.NewInternalError("wallet provider is not configured", nil)
	}
	result, err := s.provider.TransferToBank(ctx, req)
	if err != nil {
		var perr *walletprovider.Error
		if stderrors.As(err, &perr) {
			return nil, errors.NewExternalError(perr.Message, perr).WithDetails(map[string]interface{}{
				"status":    perr.StatusCode,
				"message":   perr.Message,
				"reference": perr.Reference,
			})
		}
		return nil, errors.NewExternalError("bank transfer failed", err)
	}
	return result, nil
}

func (s *Service) ListTransactions(ctx context.Context, companyID int64, filter TransactionFilter) (*TransactionList, error) {
	items, total, err := s.queries.ListTransactions(ctx, companyID, filter)
	if err != nil {
		return nil, errors.NewInternalError("failed to list wallet transactions", err)
	}
	if items == nil {
		items = []TransactionView{}
	}
	return &TransactionList{Transactions: items, Total: total, Page: filter.Page.Page, Limit: filter.Limit}, nil
}

// HandleWebhook applies one provider notification. Unknown wallets and event
// types are acknowledged without changes.
func (s *Service) HandleWebhook(ctx context.Context, event WebhookEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	data := event.Data

	switch data.Type {
	case WebhookWalletCredit:
		return s.webhookCredit(ctx, data)
	case WebhookWalletDebit:
		return s.webhookDebit(ctx, data)
	case WebhookBankTransfer:
		return s.webhookTransfer(ctx, data)
	default:
		s.logger.Warn("unhandled webhook type", "type", data.Type)
		return nil
	}
}

func (s *Service) webhookCredit(ctx context.Context, data *WebhookData) error {
	w, err := s.repo.GetByProviderWalletID(ctx, data.CustomerID)
	if err != nil {
		if stderrors.Is(err, ErrWalletNotFound) {
			s.logger.Warn("wallet not found for credit", "customer_id", data.CustomerID)
			return nil
		}
		return err
	}

	_, err = s.Credit(ctx, w.CompanyID, data.Amount, data.Reference, narration(data, "Wallet Credit"), webhookMetadata(data))
	if err != nil {
		return err
	}
	s.logger.Info("wallet credit processed", "wallet_id", w.ID, "amount", data.Amount.String(), "reference", data.Reference)
	return nil
}

func (s *Service) webhookDebit(ctx context.Context, data *WebhookData) error {
	w, err := s.repo.GetByProviderWalletID(ctx, data.CustomerID)
	if err != nil {
		if stderrors.Is(err, ErrWalletNotFound) {
			s.logger.Warn("wallet not found for debit", "customer_id", data.CustomerID)
			return nil
		}
		return err
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if data.Reference != "" {
			if _, err := s.repo.FindTransaction(ctx, data.Reference, ""); err == nil {
				return nil
			}
		}

		txn := &walletDatamodel.Transaction{
			CompanyID:   w.CompanyID,
			WalletID:    w.ID,
			Amount:      data.Amount,
			Type:        walletDatamodel.TypeWalletDebit,
			Reference:   data.Reference,
			Description: narration(data, "Wallet Debit"),
			Metadata:    webhookMetadata(data),
		}
		if data.TransactionID != "" {
			txn.ProviderTransactionID = &data.TransactionID
		}

		change, err := s.Debit(ctx, w.CompanyID, data.Amount)
		switch {
		case err == nil:
			txn.Status = walletDatamodel.TransactionSuccessful
			txn.BalanceBefore = change.Before
			txn.BalanceAfter = change.After
		case stderrors.Is(err, ErrInsufficientFunds), stderrors.Is(err, ErrInvalidAmount):
			s.logger.Warn("webhook debit not applied", "wallet_id", w.ID, "amount", data.Amount.String(), "error", err)
			txn.Status = walletDatamodel.TransactionFailed
			txn.BalanceBefore = w.AvailableBalance
			txn.BalanceAfter = w.AvailableBalance
		default:
			return err
		}
		return s.RecordTransaction(ctx, txn)
	})
}

func (s *Service) webhookTransfer(ctx context.Context, data *WebhookData) error {
	t, err := s.repo.FindTransaction(ctx, data.Reference, data.TransactionID)
	if err != nil {
		if stderrors.Is(err, ErrTransactionNotFound) {
			s.logger.Warn("unmatched bank transfer webhook", "reference", data.Reference, "transaction_id", data.TransactionID)
			return nil
		}
		return err
	}

	status := walletDatamodel.TransactionFailed
	if data.Status == string(walletDatamodel.TransactionSuccessful) {
		status = walletDatamodel.TransactionSuccessful
	}
	var providerID *string
	if data.TransactionID != "" {
		providerID = &data.TransactionID
	}
	if err := s.repo.UpdateTransactionStatus(ctx, t.ID, status, providerID); err != nil {
		return errors.NewInternalError("failed to update transfer status", err)
	}
	s.logger.Info("bank transfer transaction updated", "reference", t.Reference, "status", status)
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

// NewReference builds a unique ledger reference with a readable prefix.
func NewReference(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), uuid.NewString()[:8])
}

func narration(data *WebhookData, fallback string) string {
	if data.Narration != "" {
		return data.Narration
	}
	return fallback
}

func webhookMetadata(data *WebhookData) map[string]interface{} {
	return map[string]interface{}{
		"source":         "wallet_provider_webhook",
		"customer_id":    data.CustomerID,
		"transaction_id": data.TransactionID,
		"status":         data.Status,
	}
}
