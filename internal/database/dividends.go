package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/twmarket/stock-pipeline/internal/models"
)

const dividendColumns = `
	serial, security_code, year, year_of_dividend, quarter,
	cash_dividend, cash_from_earnings, cash_from_capital_reserve,
	stock_dividend, stock_from_earnings, stock_from_capital_reserve,
	sum, ex_dividend_date1, ex_dividend_date2, payable_date1, payable_date2,
	payout_ratio, payout_ratio_cash, payout_ratio_stock,
	created_time, updated_time
`

func scanDividend(scan func(dest ...interface{}) error) (*models.Dividend, error) {
	var d models.Dividend
	err := scan(
		&d.Serial, &d.SecurityCode, &d.Year, &d.YearOfDividend, &d.Quarter,
		&d.CashDividend, &d.CashFromEarnings, &d.CashFromCapitalReserve,
		&d.StockDividend, &d.StockFromEarnings, &d.StockFromCapitalReserve,
		&d.Sum, &d.ExDividendDate1, &d.ExDividendDate2, &d.PayableDate1, &d.PayableDate2,
		&d.PayoutRatio, &d.PayoutRatioCash, &d.PayoutRatioStock,
		&d.CreatedTime, &d.UpdatedTime,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpsertDividend inserts or overwrites a dividend on (security, year, quarter)
func (db *DB) UpsertDividend(d *models.Dividend) error {
	query := `
		INSERT INTO dividends (
			security_code, year, year_of_dividend, quarter,
			cash_dividend, cash_from_earnings, cash_from_capital_reserve,
			stock_dividend, stock_from_earnings, stock_from_capital_reserve,
			sum, ex_dividend_date1, ex_dividend_date2, payable_date1, payable_date2,
			payout_ratio, payout_ratio_cash, payout_ratio_stock,
			created_time, updated_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $19)
		ON CONFLICT (security_code, year, quarter) DO UPDATE SET
			year_of_dividend = EXCLUDED.year_of_dividend,
			cash_dividend = EXCLUDED.cash_dividend,
			cash_from_earnings = EXCLUDED.cash_from_earnings,
			cash_from_capital_reserve = EXCLUDED.cash_from_capital_reserve,
			stock_dividend = EXCLUDED.stock_dividend,
			stock_from_earnings = EXCLUDED.stock_from_earnings,
			stock_from_capital_reserve = EXCLUDED.stock_from_capital_reserve,
			sum = EXCLUDED.sum,
			ex_dividend_date1 = EXCLUDED.ex_dividend_date1,
			ex_dividend_date2 = EXCLUDED.ex_dividend_date2,
			payable_date1 = EXCLUDED.payable_date1,
			payable_date2 = EXCLUDED.payable_date2,
			payout_ratio = EXCLUDED.payout_ratio,
			payout_ratio_cash = EXCLUDED.payout_ratio_cash,
			payout_ratio_stock = EXCLUDED.payout_ratio_stock,
			updated_time = EXCLUDED.updated_time
		RETURNING serial
	`
	err := db.conn.QueryRow(query,
		d.SecurityCode, d.Year, d.YearOfDividend, d.Quarter,
		d.CashDividend, d.CashFromEarnings, d.CashFromCapitalReserve,
		d.StockDividend, d.StockFromEarnings, d.StockFromCapitalReserve,
		d.Sum, d.ExDividendDate1, d.ExDividendDate2, d.PayableDate1, d.PayableDate2,
		d.PayoutRatio, d.PayoutRatioCash, d.PayoutRatioStock, time.Now(),
	).Scan(&d.Serial)
	if err != nil {
		return fmt.Errorf("failed to upsert dividend for %s year %d: %w", d.SecurityCode, d.Year, err)
	}
	return nil
}

// GetDividendsByYears retrieves a security's dividends for the given years
func (db *DB) GetDividendsByYears(code string, years []int) ([]*models.Dividend, error) {
	query := `
		SELECT ` + dividendColumns + `
		FROM dividends
		WHERE security_code = $1 AND year = ANY($2)
		ORDER BY year DESC, quarter
	`
	rows, err := db.conn.Query(query, code, pq.Array(years))
	if err != nil {
		return nil, fmt.Errorf("failed to get dividends for %s: %w", code, err)
	}
	defer rows.Close()

	var dividends []*models.Dividend
	for rows.Next() {
		d, err := scanDividend(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dividend: %w", err)
		}
		dividends = append(dividends, d)
	}
	return dividends, rows.Err()
}

// GetLatestAnnualDividend retrieves the most recent annual dividend row with
// year >= minYear and an announced ex-dividend date. Returns nil without
// error when the security has none.
func (db *DB) GetLatestAnnualDividend(code string, minYear int) (*models.Dividend, error) {
	query := `
		SELECT ` + dividendColumns + `
		FROM dividends
		WHERE security_code = $1
		  AND year >= $2
		  AND quarter = ''
		  AND (ex_dividend_date1 != '-' OR ex_dividend_date2 != '-')
		ORDER BY year DESC
		LIMIT 1
	`
	d, err := scanDividend(db.conn.QueryRow(query, code, minYear).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest annual dividend for %s: %w", code, err)
	}
	return d, nil
}

// GetDividendsWithExDividendDate retrieves dividends whose ex-dividend date
// matches the given day (formatted yyyy-mm-dd). Used by notifications.
func (db *DB) GetDividendsWithExDividendDate(day string) ([]*models.Dividend, error) {
	query := `
		SELECT ` + dividendColumns + `
		FROM dividends
		WHERE ex_dividend_date1 = $1 OR ex_dividend_date2 = $1
	`
	rows, err := db.conn.Query(query, day)
	if err != nil {
		return nil, fmt.Errorf("failed to get ex-dividend rows for %s: %w", day, err)
	}
	defer rows.Close()

	var dividends []*models.Dividend
	for rows.Next() {
		d, err := scanDividend(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dividend: %w", err)
		}
		dividends = append(dividends, d)
	}
	return dividends, rows.Err()
}

// GetDividendsWithPayableDate retrieves dividends whose payable date
// matches the given day (formatted yyyy-mm-dd). Used by notifications.
func (db *DB) GetDividendsWithPayableDate(day string) ([]*models.Dividend, error) {
	query := `
		SELECT ` + dividendColumns + `
		FROM dividends
		WHERE payable_date1 = $1 OR payable_date2 = $1
	`
	rows, err := db.conn.Query(query, day)
	if err != nil {
		return nil, fmt.Errorf("failed to get payable-date rows for %s: %w", day, err)
	}
	defer rows.Close()

	var dividends []*models.Dividend
	for rows.Next() {
		d, err := scanDividend(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dividend: %w", err)
		}
		dividends = append(dividends, d)
	}
	return dividends, rows.Err()
}
