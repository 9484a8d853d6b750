package postgres

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/payroll-engine/internal/wallet"
)

// TransactionQuery lists ledger rows with sqlx.
type TransactionQuery struct {
	db *sqlx.DB
}

func NewTransactionQuery(db *sqlx.DB) wallet.TransactionQueryAPI {
	return &TransactionQuery{db: db}
}

func (q *TransactionQuery) ListTransactions(ctx context.Context, companyID int64, filter wallet.TransactionFilter) ([]wallet.TransactionView, int64, error) {
	where := []string{"company_id = ?"}
	args := []interface{}{companyID}
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.From != nil {
		where = append(where, "created_at >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		where = append(where, "created_at <= ?")
		args = append(args, *filter.To)
	}
	clause := strings.Join(where, " AND ")

	var total int64
	if err := q.db.GetContext(ctx, &total, q.db.Rebind(`SELECT COUNT(*) FROM wallet_transactions WHERE `+clause), args...); err != nil {
		return nil, 0, err
	}

	query := q.db.Rebind(`SELECT id, employee_id, payroll_id, payslip_id, amount, type, status, reference,
		provider_transaction_id, description, metadata, balance_before, balance_after, created_at
		FROM wallet_transactions WHERE ` + clause + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`)

	var rows []wallet.TransactionView
	if err := q.db.SelectContext(ctx, &rows, query, append(args, filter.Limit, filter.Offset())...); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
