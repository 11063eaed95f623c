package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/twmarket/stock-pipeline/internal/models"
)

const dailyQuoteColumns = `
	serial, security_code, date, open, high, low, close, volume, value,
	change, change_range, bid, ask, price_earning_ratio, price_to_book_ratio,
	moving_average_5, moving_average_10, moving_average_20,
	moving_average_60, moving_average_120, moving_average_240,
	highest_price, highest_price_date_on, lowest_price, lowest_price_date_on,
	average_price, created_time, updated_time
`

func scanDailyQuote(scan func(dest ...interface{}) error) (*models.DailyQuote, error) {
	var q models.DailyQuote
	err := scan(
		&q.Serial, &q.SecurityCode, &q.Date, &q.Open, &q.High, &q.Low, &q.Close,
		&q.Volume, &q.Value, &q.Change, &q.ChangeRange, &q.Bid, &q.Ask,
		&q.PriceEarningRatio, &q.PriceToBookRatio,
		&q.MovingAverage5, &q.MovingAverage10, &q.MovingAverage20,
		&q.MovingAverage60, &q.MovingAverage120, &q.MovingAverage240,
		&q.HighestPrice, &q.HighestPriceDateOn, &q.LowestPrice, &q.LowestPriceDateOn,
		&q.AveragePrice, &q.CreatedTime, &q.UpdatedTime,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// UpsertDailyQuote inserts or overwrites the quote for (security, date).
// Derived fields (moving averages, trailing-year stats) are written by
// UpdateQuoteDerived, not here, so an ingest re-run cannot wipe them.
func (db *DB) UpsertDailyQuote(q *models.DailyQuote) error {
	query := `
		INSERT INTO daily_quotes (
			security_code, date, open, high, low, close, volume, value,
			change, change_range, bid, ask, price_earning_ratio,
			created_time, updated_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
		ON CONFLICT (security_code, date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			value = EXCLUDED.value,
			change = EXCLUDED.change,
			change_range = EXCLUDED.change_range,
			bid = EXCLUDED.bid,
			ask = EXCLUDED.ask,
			price_earning_ratio = EXCLUDED.price_earning_ratio,
			updated_time = EXCLUDED.updated_time
		RETURNING serial
	`
	err := db.conn.QueryRow(query,
		q.SecurityCode, q.Date, q.Open, q.High, q.Low, q.Close, q.Volume, q.Value,
		q.Change, q.ChangeRange, q.Bid, q.Ask, q.PriceEarningRatio, time.Now(),
	).Scan(&q.Serial)
	if err != nil {
		return fmt.Errorf("failed to upsert daily quote for %s on %s: %w",
			q.SecurityCode, q.Date.Format("2006-01-02"), err)
	}
	return nil
}

// UpdateQuoteDerived writes the recomputed derived fields for one quote row
func (db *DB) UpdateQuoteDerived(q *models.DailyQuote) error {
	query := `
		UPDATE daily_quotes SET
			moving_average_5 = $3,
			moving_average_10 = $4,
			moving_average_20 = $5,
			moving_average_60 = $6,
			moving_average_120 = $7,
			moving_average_240 = $8,
			highest_price = $9,
			highest_price_date_on = $10,
			lowest_price = $11,
			lowest_price_date_on = $12,
			average_price = $13,
			price_to_book_ratio = $14,
			updated_time = NOW()
		WHERE security_code = $1 AND date = $2
	`
	result, err := db.conn.Exec(query,
		q.SecurityCode, q.Date,
		q.MovingAverage5, q.MovingAverage10, q.MovingAverage20,
		q.MovingAverage60, q.MovingAverage120, q.MovingAverage240,
		q.HighestPrice, q.HighestPriceDateOn, q.LowestPrice, q.LowestPriceDateOn,
		q.AveragePrice, q.PriceToBookRatio,
	)
	if err != nil {
		return fmt.Errorf("failed to update derived fields for %s on %s: %w",
			q.SecurityCode, q.Date.Format("2006-01-02"), err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("daily quote not found for %s on %s",
			q.SecurityCode, q.Date.Format("2006-01-02"))
	}
	return nil
}

// GetDailyQuote retrieves the quote for a specific security and date.
// Returns nil without error when no row exists.
func (db *DB) GetDailyQuote(code string, date time.Time) (*models.DailyQuote, error) {
	query := `SELECT ` + dailyQuoteColumns + ` FROM daily_quotes WHERE security_code = $1 AND date = $2`

	q, err := scanDailyQuote(db.conn.QueryRow(query, code, date).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily quote: %w", err)
	}
	return q, nil
}

// GetDailyQuoteBySerial retrieves one quote row by its serial
func (db *DB) GetDailyQuoteBySerial(serial int64) (*models.DailyQuote, error) {
	query := `SELECT ` + dailyQuoteColumns + ` FROM daily_quotes WHERE serial = $1`

	q, err := scanDailyQuote(db.conn.QueryRow(query, serial).Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("daily quote not found: %d", serial)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily quote: %w", err)
	}
	return q, nil
}

// GetQuoteHistory retrieves up to limit quotes for a security with dates at
// or before the given date, newest first.
func (db *DB) GetQuoteHistory(code string, date time.Time, limit int) ([]*models.DailyQuote, error) {
	query := `
		SELECT ` + dailyQuoteColumns + `
		FROM daily_quotes
		WHERE security_code = $1 AND date <= $2
		ORDER BY date DESC
		LIMIT $3
	`
	rows, err := db.conn.Query(query, code, date, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote history: %w", err)
	}
	defer rows.Close()

	var quotes []*models.DailyQuote
	for rows.Next() {
		q, err := scanDailyQuote(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// GetQuotesSince retrieves all quotes for a security in [since, until],
// oldest first. Used by the valuation-band window reads.
func (db *DB) GetQuotesSince(code string, since, until time.Time) ([]*models.DailyQuote, error) {
	query := `
		SELECT ` + dailyQuoteColumns + `
		FROM daily_quotes
		WHERE security_code = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`
	rows, err := db.conn.Query(query, code, since, until)
	if err != nil {
		return nil, fmt.Errorf("failed to get quotes since %s: %w", since.Format("2006-01-02"), err)
	}
	defer rows.Close()

	var quotes []*models.DailyQuote
	for rows.Next() {
		q, err := scanDailyQuote(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// GetQuotesByDate retrieves every security's quote for one trading date
func (db *DB) GetQuotesByDate(date time.Time) ([]*models.DailyQuote, error) {
	query := `SELECT ` + dailyQuoteColumns + ` FROM daily_quotes WHERE date = $1 ORDER BY security_code`

	rows, err := db.conn.Query(query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get quotes for %s: %w", date.Format("2006-01-02"), err)
	}
	defer rows.Close()

	var quotes []*models.DailyQuote
	for rows.Next() {
		q, err := scanDailyQuote(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// GetLatestQuote retrieves the most recent quote for a security at or
// before the given date, looking back at most windowDays calendar days.
// Returns nil without error when no quote falls inside the window.
func (db *DB) GetLatestQuote(code string, date time.Time, windowDays int) (*models.DailyQuote, error) {
	query := `
		SELECT ` + dailyQuoteColumns + `
		FROM daily_quotes
		WHERE security_code = $1 AND date <= $2 AND date >= $3
		ORDER BY date DESC
		LIMIT 1
	`
	since := date.AddDate(0, 0, -windowDays)
	q, err := scanDailyQuote(db.conn.QueryRow(query, code, date, since).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest quote: %w", err)
	}
	return q, nil
}
