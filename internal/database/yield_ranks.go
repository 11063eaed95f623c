package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/twmarket/stock-pipeline/internal/models"
)

// UpsertYieldRank inserts or overwrites a security's yield row for a date
func (db *DB) UpsertYieldRank(y *models.YieldRank) error {
	query := `
		INSERT INTO yield_ranks (
			date, security_code, yield, daily_quote_serial, dividend_serial,
			created_time, updated_time
		) VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (date, security_code) DO UPDATE SET
			yield = EXCLUDED.yield,
			daily_quote_serial = EXCLUDED.daily_quote_serial,
			dividend_serial = EXCLUDED.dividend_serial,
			updated_time = EXCLUDED.updated_time
	`
	_, err := db.conn.Exec(query,
		y.Date, y.SecurityCode, y.Yield, y.DailyQuoteSerial, y.DividendSerial, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert yield rank for %s on %s: %w",
			y.SecurityCode, y.Date.Format("2006-01-02"), err)
	}
	return nil
}

// GetYieldRank retrieves one security's yield row for a date
func (db *DB) GetYieldRank(code string, date time.Time) (*models.YieldRank, error) {
	query := `
		SELECT date, security_code, yield, daily_quote_serial, dividend_serial,
		       created_time, updated_time
		FROM yield_ranks
		WHERE security_code = $1 AND date = $2
	`
	var y models.YieldRank
	err := db.conn.QueryRow(query, code, date).Scan(
		&y.Date, &y.SecurityCode, &y.Yield, &y.DailyQuoteSerial, &y.DividendSerial,
		&y.CreatedTime, &y.UpdatedTime,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("yield rank not found for %s on %s", code, date.Format("2006-01-02"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get yield rank: %w", err)
	}
	return &y, nil
}

// GetYieldRanksByDate retrieves all yield rows for a date ordered by yield
// descending, i.e. the cross-sectional ranking. The rank is positional; it
// is never stored.
func (db *DB) GetYieldRanksByDate(date time.Time) ([]*models.YieldRank, error) {
	query := `
		SELECT date, security_code, yield, daily_quote_serial, dividend_serial,
		       created_time, updated_time
		FROM yield_ranks
		WHERE date = $1
		ORDER BY yield DESC
	`
	rows, err := db.conn.Query(query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get yield ranks for %s: %w", date.Format("2006-01-02"), err)
	}
	defer rows.Close()

	var ranks []*models.YieldRank
	for rows.Next() {
		var y models.YieldRank
		err := rows.Scan(
			&y.Date, &y.SecurityCode, &y.Yield, &y.DailyQuoteSerial, &y.DividendSerial,
			&y.CreatedTime, &y.UpdatedTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan yield rank: %w", err)
		}
		ranks = append(ranks, &y)
	}
	return ranks, rows.Err()
}
