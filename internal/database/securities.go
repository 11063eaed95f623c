package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/twmarket/stock-pipeline/internal/models"
)

const securityColumns = `
	code, name, market_id, industry_id, suspended, issued_shares,
	net_asset_value_per_share, last_one_eps, last_four_eps,
	qfii_shares_held, qfii_share_holding_percentage, weight,
	created_time, updated_time
`

// UpsertSecurity inserts or overwrites a security on its code. created_time
// is preserved on conflict; updated_time is bumped.
func (db *DB) UpsertSecurity(s *models.Security) error {
	query := `
		INSERT INTO securities (
			code, name, market_id, industry_id, suspended, issued_shares,
			net_asset_value_per_share, last_one_eps, last_four_eps,
			qfii_shares_held, qfii_share_holding_percentage, weight,
			created_time, updated_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			market_id = EXCLUDED.market_id,
			industry_id = EXCLUDED.industry_id,
			suspended = EXCLUDED.suspended,
			issued_shares = EXCLUDED.issued_shares,
			net_asset_value_per_share = EXCLUDED.net_asset_value_per_share,
			last_one_eps = EXCLUDED.last_one_eps,
			last_four_eps = EXCLUDED.last_four_eps,
			qfii_shares_held = EXCLUDED.qfii_shares_held,
			qfii_share_holding_percentage = EXCLUDED.qfii_share_holding_percentage,
			weight = EXCLUDED.weight,
			updated_time = EXCLUDED.updated_time
	`
	now := time.Now()
	_, err := db.conn.Exec(query,
		s.Code, s.Name, s.MarketID, s.IndustryID, s.Suspended, s.IssuedShares,
		s.NetAssetValuePerShare, s.LastOneEPS, s.LastFourEPS,
		s.QFIISharesHeld, s.QFIIShareHoldingPercentage, s.Weight, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert security %s: %w", s.Code, err)
	}
	return nil
}

// ApplySecurityCorrection overwrites only the fields present in the
// correction, leaving the rest of the row intact.
func (db *DB) ApplySecurityCorrection(c *models.SecurityCorrection) error {
	query := `
		UPDATE securities SET
			name = COALESCE($2, name),
			market_id = COALESCE($3, market_id),
			industry_id = COALESCE($4, industry_id),
			net_asset_value_per_share = COALESCE($5, net_asset_value_per_share),
			suspended = COALESCE($6, suspended),
			updated_time = NOW()
		WHERE code = $1
	`
	result, err := db.conn.Exec(query,
		c.Code, c.Name, c.MarketID, c.IndustryID, c.NetAssetValuePerShare, c.Suspended,
	)
	if err != nil {
		return fmt.Errorf("failed to apply security correction for %s: %w", c.Code, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("security not found: %s", c.Code)
	}
	return nil
}

// GetSecurity retrieves a security by code. Returns nil without error when
// the code is unknown.
func (db *DB) GetSecurity(code string) (*models.Security, error) {
	query := `SELECT ` + securityColumns + ` FROM securities WHERE code = $1`

	var s models.Security
	err := db.conn.QueryRow(query, code).Scan(
		&s.Code, &s.Name, &s.MarketID, &s.IndustryID, &s.Suspended, &s.IssuedShares,
		&s.NetAssetValuePerShare, &s.LastOneEPS, &s.LastFourEPS,
		&s.QFIISharesHeld, &s.QFIIShareHoldingPercentage, &s.Weight,
		&s.CreatedTime, &s.UpdatedTime,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get security: %w", err)
	}
	return &s, nil
}

// GetActiveSecurities retrieves all securities that are not suspended
func (db *DB) GetActiveSecurities() ([]*models.Security, error) {
	query := `SELECT ` + securityColumns + ` FROM securities WHERE suspended = false ORDER BY code`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active securities: %w", err)
	}
	defer rows.Close()

	var securities []*models.Security
	for rows.Next() {
		var s models.Security
		err := rows.Scan(
			&s.Code, &s.Name, &s.MarketID, &s.IndustryID, &s.Suspended, &s.IssuedShares,
			&s.NetAssetValuePerShare, &s.LastOneEPS, &s.LastFourEPS,
			&s.QFIISharesHeld, &s.QFIIShareHoldingPercentage, &s.Weight,
			&s.CreatedTime, &s.UpdatedTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan security: %w", err)
		}
		securities = append(securities, &s)
	}
	return securities, rows.Err()
}

// GetSecuritiesByMarket retrieves active securities for one market tier
func (db *DB) GetSecuritiesByMarket(marketID int) ([]*models.Security, error) {
	query := `SELECT ` + securityColumns + ` FROM securities WHERE suspended = false AND market_id = $1 ORDER BY code`

	rows, err := db.conn.Query(query, marketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get securities for market %d: %w", marketID, err)
	}
	defer rows.Close()

	var securities []*models.Security
	for rows.Next() {
		var s models.Security
		err := rows.Scan(
			&s.Code, &s.Name, &s.MarketID, &s.IndustryID, &s.Suspended, &s.IssuedShares,
			&s.NetAssetValuePerShare, &s.LastOneEPS, &s.LastFourEPS,
			&s.QFIISharesHeld, &s.QFIIShareHoldingPercentage, &s.Weight,
			&s.CreatedTime, &s.UpdatedTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan security: %w", err)
		}
		securities = append(securities, &s)
	}
	return securities, rows.Err()
}
