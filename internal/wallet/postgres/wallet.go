package postgres

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	walletDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/wallet"
	"github.com/frahmantamala/payroll-engine/internal/core/database"
	"github.com/frahmantamala/payroll-engine/internal/wallet"
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) wallet.RepositoryAPI {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByCompany(ctx context.Context, companyID int64) (*walletDatamodel.Wallet, error) {
	return r.first(ctx, "company_id = ?", companyID)
}

func (r *WalletRepository) GetByProviderWalletID(ctx context.Context, providerWalletID string) (*walletDatamodel.Wallet, error) {
	if providerWalletID == "" {
		return nil, wallet.ErrWalletNotFound
	}
	return r.first(ctx, "provider_wallet_id = ?", providerWalletID)
}

func (r *WalletRepository) first(ctx context.Context, query string, args ...interface{}) (*walletDatamodel.Wallet, error) {
	var w walletDatamodel.Wallet
	if err := database.Conn(ctx, r.db).Where(query, args...).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wallet.ErrWalletNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) Create(ctx context.Context, w *walletDatamodel.Wallet) error {
	return database.Conn(ctx, r.db).Create(w).Error
}

func (r *WalletRepository) DecrementIfCovered(ctx context.Context, walletID int64, amount decimal.Decimal) (bool, error) {
	res := database.Conn(ctx, r.db).
		Model(&walletDatamodel.Wallet{}).
		Where("id = ? AND available_balance >= ?", walletID, amount).
		Update("available_balance", gorm.Expr("available_balance - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *WalletRepository) Increment(ctx context.Context, walletID int64, amount decimal.Decimal) error {
	res := database.Conn(ctx, r.db).
		Model(&walletDatamodel.Wallet{}).
		Where("id = ?", walletID).
		Update("available_balance", gorm.Expr("available_balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return wallet.ErrWalletNotFound
	}
	return nil
}

func (r *WalletRepository) CreateTransaction(ctx context.Context, t *walletDatamodel.Transaction) error {
	return database.Conn(ctx, r.db).Create(t).Error
}

func (r *WalletRepository) FindTransaction(ctx context.Context, reference, providerTransactionID string) (*walletDatamodel.Transaction, error) {
	if reference == "" && providerTransactionID == "" {
		return nil, wallet.ErrTransactionNotFound
	}

	q := database.Conn(ctx, r.db)
	switch {
	case reference != "" && providerTransactionID != "":
		q = q.Where("reference = ? OR provider_transaction_id = ?", reference, providerTransactionID)
	case reference != "":
		q = q.Where("reference = ?", reference)
	default:
		q = q.Where("provider_transaction_id = ?", providerTransactionID)
	}

	var t walletDatamodel.Transaction
	if err := q.Order("id DESC").First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wallet.ErrTransactionNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *WalletRepository) UpdateTransactionStatus(ctx context.Context, id int64, status walletDatamodel.TransactionStatus, providerTransactionID *string) error {
	updates := map[string]interface{}{"status": status}
	if providerTransactionID != nil {
		updates["provider_transaction_id"] = *providerTransactionID
	}
	res := database.Conn(ctx, r.db).Model(&walletDatamodel.Transaction{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return wallet.ErrTransactionNotFound
	}
	return nil
}
