package database

import (
	"fmt"
	"time"

	"github.com/twmarket/stock-pipeline/internal/models"
)

// UpsertMarketIndex inserts or overwrites an index record on (category, date)
func (db *DB) UpsertMarketIndex(m *models.MarketIndex) error {
	query := `
		INSERT INTO market_indexes (
			category, date, index, change, trade_value, trading_volume, transaction,
			created_time, updated_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (category, date) DO UPDATE SET
			index = EXCLUDED.index,
			change = EXCLUDED.change,
			trade_value = EXCLUDED.trade_value,
			trading_volume = EXCLUDED.trading_volume,
			transaction = EXCLUDED.transaction,
			updated_time = EXCLUDED.updated_time
		RETURNING serial
	`
	err := db.conn.QueryRow(query,
		m.Category, m.Date, m.Index, m.Change, m.TradeValue, m.TradingVolume, m.Transaction,
		time.Now(),
	).Scan(&m.Serial)
	if err != nil {
		return fmt.Errorf("failed to upsert market index %s on %s: %w",
			m.Category, m.Date.Format("2006-01-02"), err)
	}
	return nil
}

// GetMarketIndexRange retrieves index records for a category within a date
// range, oldest first.
func (db *DB) GetMarketIndexRange(category string, start, end time.Time) ([]*models.MarketIndex, error) {
	query := `
		SELECT serial, category, date, index, change, trade_value, trading_volume, transaction,
		       created_time, updated_time
		FROM market_indexes
		WHERE category = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`
	rows, err := db.conn.Query(query, category, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get market indexes: %w", err)
	}
	defer rows.Close()

	var indexes []*models.MarketIndex
	for rows.Next() {
		var m models.MarketIndex
		err := rows.Scan(
			&m.Serial, &m.Category, &m.Date, &m.Index, &m.Change,
			&m.TradeValue, &m.TradingVolume, &m.Transaction,
			&m.CreatedTime, &m.UpdatedTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan market index: %w", err)
		}
		indexes = append(indexes, &m)
	}
	return indexes, rows.Err()
}
