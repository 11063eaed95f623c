package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/twmarket/stock-pipeline/internal/models"
)

// CreateStockOwnership records a member's lot in a security. Cost is stored
// as the signed negative of shares × unit price.
func (db *DB) CreateStockOwnership(o *models.StockOwnership) error {
	query := `
		INSERT INTO stock_ownership_details (
			member_id, security_code, share_quantity, share_price, cost, is_sold,
			cumulate_cash_dividend, cumulate_stock_dividend, cumulate_total_dividend,
			created_time, updated_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING serial
	`
	err := db.conn.QueryRow(query,
		o.MemberID, o.SecurityCode, o.ShareQuantity, o.SharePrice, o.Cost, o.IsSold,
		o.CumulateCashDividend, o.CumulateStockDividend, o.CumulateTotalDividend,
		time.Now(),
	).Scan(&o.Serial)
	if err != nil {
		return fmt.Errorf("failed to create stock ownership for member %d %s: %w",
			o.MemberID, o.SecurityCode, err)
	}
	return nil
}

// UpdateOwnershipDividends writes a lot's accumulated dividend totals
func (db *DB) UpdateOwnershipDividends(serial int64, cash, stock, total decimal.Decimal) error {
	query := `
		UPDATE stock_ownership_details SET
			cumulate_cash_dividend = $2,
			cumulate_stock_dividend = $3,
			cumulate_total_dividend = $4,
			updated_time = NOW()
		WHERE serial = $1
	`
	result, err := db.conn.Exec(query, serial, cash, stock, total)
	if err != nil {
		return fmt.Errorf("failed to update ownership dividends for %d: %w", serial, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("stock ownership not found: %d", serial)
	}
	return nil
}

// closedLotWindowDays keeps a sold lot in snapshot scope for a few days, so
// a member who just liquidated still gets their closing history rows.
const closedLotWindowDays = 7

// GetSnapshotHoldings retrieves the lots in snapshot scope on the date:
// every unsold lot created on or before it, plus lots sold within the
// trailing window.
func (db *DB) GetSnapshotHoldings(date time.Time) ([]*models.StockOwnership, error) {
	query := `
		SELECT serial, member_id, security_code, share_quantity, share_price, cost, is_sold,
		       cumulate_cash_dividend, cumulate_stock_dividend, cumulate_total_dividend,
		       created_time, updated_time
		FROM stock_ownership_details
		WHERE created_time <= $1 AND (is_sold = false OR updated_time >= $2)
		ORDER BY member_id, security_code
	`
	rows, err := db.conn.Query(query, date.AddDate(0, 0, 1), date.AddDate(0, 0, -closedLotWindowDays))
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot holdings: %w", err)
	}
	defer rows.Close()

	var holdings []*models.StockOwnership
	for rows.Next() {
		var o models.StockOwnership
		err := rows.Scan(
			&o.Serial, &o.MemberID, &o.SecurityCode, &o.ShareQuantity, &o.SharePrice,
			&o.Cost, &o.IsSold,
			&o.CumulateCashDividend, &o.CumulateStockDividend, &o.CumulateTotalDividend,
			&o.CreatedTime, &o.UpdatedTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock ownership: %w", err)
		}
		holdings = append(holdings, &o)
	}
	return holdings, rows.Err()
}

// UpsertDailyMoneyHistory inserts or overwrites a member's snapshot for one
// calendar day. Re-running for the same (member, date) overwrites in place.
func (db *DB) UpsertDailyMoneyHistory(h *models.DailyMoneyHistory) error {
	query := `
		INSERT INTO daily_money_history (
			member_id, date, market_value, cost, profit_and_loss, profit_and_loss_percentage,
			previous_day_market_value, previous_day_profit_and_loss,
			previous_day_profit_and_loss_percentage,
			created_time, updated_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (member_id, date) DO UPDATE SET
			market_value = EXCLUDED.market_value,
			cost = EXCLUDED.cost,
			profit_and_loss = EXCLUDED.profit_and_loss,
			profit_and_loss_percentage = EXCLUDED.profit_and_loss_percentage,
			previous_day_market_value = EXCLUDED.previous_day_market_value,
			previous_day_profit_and_loss = EXCLUDED.previous_day_profit_and_loss,
			previous_day_profit_and_loss_percentage = EXCLUDED.previous_day_profit_and_loss_percentage,
			updated_time = EXCLUDED.updated_time
	`
	_, err := db.conn.Exec(query,
		h.MemberID, h.Date, h.MarketValue, h.Cost, h.ProfitAndLoss, h.ProfitAndLossPercentage,
		h.PreviousDayMarketValue, h.PreviousDayProfitAndLoss,
		h.PreviousDayProfitAndLossPercentage,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert money history for member %d on %s: %w",
			h.MemberID, h.Date.Format("2006-01-02"), err)
	}
	return nil
}

// GetDailyMoneyHistory retrieves a member's snapshot for one day
func (db *DB) GetDailyMoneyHistory(memberID int64, date time.Time) (*models.DailyMoneyHistory, error) {
	query := `
		SELECT member_id, date, market_value, cost, profit_and_loss, profit_and_loss_percentage,
		       previous_day_market_value, previous_day_profit_and_loss,
		       previous_day_profit_and_loss_percentage,
		       created_time, updated_time
		FROM daily_money_history
		WHERE member_id = $1 AND date = $2
	`
	var h models.DailyMoneyHistory
	err := db.conn.QueryRow(query, memberID, date).Scan(
		&h.MemberID, &h.Date, &h.MarketValue, &h.Cost, &h.ProfitAndLoss, &h.ProfitAndLossPercentage,
		&h.PreviousDayMarketValue, &h.PreviousDayProfitAndLoss,
		&h.PreviousDayProfitAndLossPercentage,
		&h.CreatedTime, &h.UpdatedTime,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("money history not found for member %d on %s",
			memberID, date.Format("2006-01-02"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get money history: %w", err)
	}
	return &h, nil
}

// GetPreviousMoneyHistory retrieves the latest snapshot strictly before the
// date, or nil when the member has none.
func (db *DB) GetPreviousMoneyHistory(memberID int64, date time.Time) (*models.DailyMoneyHistory, error) {
	query := `
		SELECT member_id, date, market_value, cost, profit_and_loss, profit_and_loss_percentage,
		       previous_day_market_value, previous_day_profit_and_loss,
		       previous_day_profit_and_loss_percentage,
		       created_time, updated_time
		FROM daily_money_history
		WHERE member_id = $1 AND date < $2
		ORDER BY date DESC
		LIMIT 1
	`
	var h models.DailyMoneyHistory
	err := db.conn.QueryRow(query, memberID, date).Scan(
		&h.MemberID, &h.Date, &h.MarketValue, &h.Cost, &h.ProfitAndLoss, &h.ProfitAndLossPercentage,
		&h.PreviousDayMarketValue, &h.PreviousDayProfitAndLoss,
		&h.PreviousDayProfitAndLossPercentage,
		&h.CreatedTime, &h.UpdatedTime,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get previous money history: %w", err)
	}
	return &h, nil
}
