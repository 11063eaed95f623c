package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/twmarket/stock-pipeline/internal/models"
)

// GetRevenueCursor returns the last processed month (yyyymm) for a
// security, or 0 when the security has never been processed.
func (db *DB) GetRevenueCursor(code string) (int, error) {
	var month int
	err := db.conn.QueryRow(
		`SELECT last_month FROM revenue_cursors WHERE security_code = $1`, code,
	).Scan(&month)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get revenue cursor for %s: %w", code, err)
	}
	return month, nil
}

// ApplyRevenue writes one monthly revenue record gated by the per-security
// cursor: the record is applied only when its month is strictly after the
// stored cursor, and the cursor advances in the same transaction. Returns
// false with no error when the record is gated out.
func (db *DB) ApplyRevenue(r *models.RevenueRecord) (bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var cursor int
	err = tx.QueryRow(
		`SELECT last_month FROM revenue_cursors WHERE security_code = $1 FOR UPDATE`,
		r.SecurityCode,
	).Scan(&cursor)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to lock revenue cursor for %s: %w", r.SecurityCode, err)
	}

	if r.Month <= cursor {
		return false, nil
	}

	now := time.Now()
	_, err = tx.Exec(`
		INSERT INTO revenues (
			security_code, month, monthly, last_month, last_year_this_month,
			monthly_accumulated, last_year_monthly_accumulated,
			compared_with_last_month, compared_with_last_year_same_month,
			accumulated_compared_with_last_year,
			avg_price, lowest_price, highest_price, created_time, updated_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
		ON CONFLICT (security_code, month) DO UPDATE SET
			monthly = EXCLUDED.monthly,
			last_month = EXCLUDED.last_month,
			last_year_this_month = EXCLUDED.last_year_this_month,
			monthly_accumulated = EXCLUDED.monthly_accumulated,
			last_year_monthly_accumulated = EXCLUDED.last_year_monthly_accumulated,
			compared_with_last_month = EXCLUDED.compared_with_last_month,
			compared_with_last_year_same_month = EXCLUDED.compared_with_last_year_same_month,
			accumulated_compared_with_last_year = EXCLUDED.accumulated_compared_with_last_year,
			avg_price = EXCLUDED.avg_price,
			lowest_price = EXCLUDED.lowest_price,
			highest_price = EXCLUDED.highest_price,
			updated_time = EXCLUDED.updated_time
	`,
		r.SecurityCode, r.Month, r.Monthly, r.LastMonth, r.LastYearThisMonth,
		r.MonthlyAccumulated, r.LastYearMonthlyAccumulated,
		r.ComparedWithLastMonth, r.ComparedWithLastYearSameMonth,
		r.AccumulatedComparedWithLastYear,
		r.AvgPrice, r.LowestPrice, r.HighestPrice, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert revenue for %s month %d: %w", r.SecurityCode, r.Month, err)
	}

	_, err = tx.Exec(`
		INSERT INTO revenue_cursors (security_code, last_month, updated_time)
		VALUES ($1, $2, $3)
		ON CONFLICT (security_code) DO UPDATE SET
			last_month = EXCLUDED.last_month,
			updated_time = EXCLUDED.updated_time
	`, r.SecurityCode, r.Month, now)
	if err != nil {
		return false, fmt.Errorf("failed to advance revenue cursor for %s: %w", r.SecurityCode, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit revenue for %s: %w", r.SecurityCode, err)
	}
	return true, nil
}

// GetRevenue retrieves one monthly revenue record
func (db *DB) GetRevenue(code string, month int) (*models.RevenueRecord, error) {
	query := `
		SELECT security_code, month, monthly, last_month, last_year_this_month,
		       monthly_accumulated, last_year_monthly_accumulated,
		       compared_with_last_month, compared_with_last_year_same_month,
		       accumulated_compared_with_last_year,
		       avg_price, lowest_price, highest_price, created_time, updated_time
		FROM revenues
		WHERE security_code = $1 AND month = $2
	`
	var r models.RevenueRecord
	err := db.conn.QueryRow(query, code, month).Scan(
		&r.SecurityCode, &r.Month, &r.Monthly, &r.LastMonth, &r.LastYearThisMonth,
		&r.MonthlyAccumulated, &r.LastYearMonthlyAccumulated,
		&r.ComparedWithLastMonth, &r.ComparedWithLastYearSameMonth,
		&r.AccumulatedComparedWithLastYear,
		&r.AvgPrice, &r.LowestPrice, &r.HighestPrice, &r.CreatedTime, &r.UpdatedTime,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("revenue not found for %s month %d", code, month)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get revenue: %w", err)
	}
	return &r, nil
}
