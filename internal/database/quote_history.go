package database

import (
	"database/sql"
	"fmt"

	"github.com/twmarket/stock-pipeline/internal/models"
)

// GetQuoteHistoryRecord retrieves a security's all-time extremes, or nil
// when no record exists yet.
func (db *DB) GetQuoteHistoryRecord(code string) (*models.QuoteHistoryRecord, error) {
	query := `
		SELECT security_code,
		       maximum_price, maximum_price_date_on,
		       minimum_price, minimum_price_date_on,
		       maximum_price_to_book_ratio, maximum_price_to_book_ratio_date_on,
		       minimum_price_to_book_ratio, minimum_price_to_book_ratio_date_on,
		       updated_time
		FROM quote_history_records
		WHERE security_code = $1
	`
	var r models.QuoteHistoryRecord
	err := db.conn.QueryRow(query, code).Scan(
		&r.SecurityCode,
		&r.MaximumPrice, &r.MaximumPriceDateOn,
		&r.MinimumPrice, &r.MinimumPriceDateOn,
		&r.MaximumPriceToBookRatio, &r.MaximumPriceToBookRatioDateOn,
		&r.MinimumPriceToBookRatio, &r.MinimumPriceToBookRatioDateOn,
		&r.UpdatedTime,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote history record for %s: %w", code, err)
	}
	return &r, nil
}

// UpsertQuoteHistoryRecord writes a security's extremes row wholesale. The
// monotonic merge decision is made by the caller; this is the plain write.
func (db *DB) UpsertQuoteHistoryRecord(r *models.QuoteHistoryRecord) error {
	query := `
		INSERT INTO quote_history_records (
			security_code,
			maximum_price, maximum_price_date_on,
			minimum_price, minimum_price_date_on,
			maximum_price_to_book_ratio, maximum_price_to_book_ratio_date_on,
			minimum_price_to_book_ratio, minimum_price_to_book_ratio_date_on,
			updated_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (security_code) DO UPDATE SET
			maximum_price = EXCLUDED.maximum_price,
			maximum_price_date_on = EXCLUDED.maximum_price_date_on,
			minimum_price = EXCLUDED.minimum_price,
			minimum_price_date_on = EXCLUDED.minimum_price_date_on,
			maximum_price_to_book_ratio = EXCLUDED.maximum_price_to_book_ratio,
			maximum_price_to_book_ratio_date_on = EXCLUDED.maximum_price_to_book_ratio_date_on,
			minimum_price_to_book_ratio = EXCLUDED.minimum_price_to_book_ratio,
			minimum_price_to_book_ratio_date_on = EXCLUDED.minimum_price_to_book_ratio_date_on,
			updated_time = NOW()
	`
	_, err := db.conn.Exec(query,
		r.SecurityCode,
		r.MaximumPrice, r.MaximumPriceDateOn,
		r.MinimumPrice, r.MinimumPriceDateOn,
		r.MaximumPriceToBookRatio, r.MaximumPriceToBookRatioDateOn,
		r.MinimumPriceToBookRatio, r.MinimumPriceToBookRatioDateOn,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert quote history record for %s: %w", r.SecurityCode, err)
	}
	return nil
}
