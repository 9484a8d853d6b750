package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/payroll-engine/internal/payroll"
)

// ReportRepository runs read-only aggregate queries with sqlx.
type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) payroll.ReportRepositoryAPI {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) StatusTotals(ctx context.Context, companyID int64, from, to *time.Time) ([]payroll.StatusTotal, error) {
	query := `SELECT status, COUNT(*) AS count, COALESCE(SUM(summary_total_net), 0) AS amount
		FROM payrolls WHERE company_id = ?`
	args := []interface{}{companyID}
	if from != nil {
		query += ` AND period_start_date >= ?`
		args = append(args, *from)
	}
	if to != nil {
		query += ` AND period_end_date <= ?`
		args = append(args, *to)
	}
	query += ` GROUP BY status`

	var rows []payroll.StatusTotal
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ReportRepository) Upcoming(ctx context.Context, companyID int64, after time.Time, limit int) ([]payroll.UpcomingRun, error) {
	query := r.db.Rebind(`SELECT id, name, status, frequency, schedule_next_run AS next_run,
		COALESCE(summary_total_net, 0) AS total_net
		FROM payrolls
		WHERE company_id = ? AND schedule_next_run > ?
		ORDER BY schedule_next_run ASC
		LIMIT ?`)

	var rows []payroll.UpcomingRun
	if err := r.db.SelectContext(ctx, &rows, query, companyID, after, limit); err != nil {
		return nil, err
	}
	return rows, nil
}
