package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/twmarket/stock-pipeline/internal/models"
)

// UpsertEstimate inserts or overwrites the valuation band row for
// (security, date)
func (db *DB) UpsertEstimate(e *models.Estimate) error {
	query := `
		INSERT INTO estimates (
			security_code, date, closing_price, percentage,
			cheap, fair, expensive,
			price_cheap, price_fair, price_expensive,
			dividend_cheap, dividend_fair, dividend_expensive,
			eps_cheap, eps_fair, eps_expensive,
			pbr_cheap, pbr_fair, pbr_expensive,
			per_cheap, per_fair, per_expensive,
			year_count, created_time, updated_time
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $24
		)
		ON CONFLICT (security_code, date) DO UPDATE SET
			closing_price = EXCLUDED.closing_price,
			percentage = EXCLUDED.percentage,
			cheap = EXCLUDED.cheap,
			fair = EXCLUDED.fair,
			expensive = EXCLUDED.expensive,
			price_cheap = EXCLUDED.price_cheap,
			price_fair = EXCLUDED.price_fair,
			price_expensive = EXCLUDED.price_expensive,
			dividend_cheap = EXCLUDED.dividend_cheap,
			dividend_fair = EXCLUDED.dividend_fair,
			dividend_expensive = EXCLUDED.dividend_expensive,
			eps_cheap = EXCLUDED.eps_cheap,
			eps_fair = EXCLUDED.eps_fair,
			eps_expensive = EXCLUDED.eps_expensive,
			pbr_cheap = EXCLUDED.pbr_cheap,
			pbr_fair = EXCLUDED.pbr_fair,
			pbr_expensive = EXCLUDED.pbr_expensive,
			per_cheap = EXCLUDED.per_cheap,
			per_fair = EXCLUDED.per_fair,
			per_expensive = EXCLUDED.per_expensive,
			year_count = EXCLUDED.year_count,
			updated_time = EXCLUDED.updated_time
	`
	_, err := db.conn.Exec(query,
		e.SecurityCode, e.Date, e.ClosingPrice, e.Percentage,
		e.Composite.Cheap, e.Composite.Fair, e.Composite.Expensive,
		e.Price.Cheap, e.Price.Fair, e.Price.Expensive,
		e.Dividend.Cheap, e.Dividend.Fair, e.Dividend.Expensive,
		e.EPS.Cheap, e.EPS.Fair, e.EPS.Expensive,
		e.PBR.Cheap, e.PBR.Fair, e.PBR.Expensive,
		e.PER.Cheap, e.PER.Fair, e.PER.Expensive,
		e.YearCount, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert estimate for %s on %s: %w",
			e.SecurityCode, e.Date.Format("2006-01-02"), err)
	}
	return nil
}

// GetEstimate retrieves the valuation band row for (security, date)
func (db *DB) GetEstimate(code string, date time.Time) (*models.Estimate, error) {
	query := `
		SELECT security_code, date, closing_price, percentage,
		       cheap, fair, expensive,
		       price_cheap, price_fair, price_expensive,
		       dividend_cheap, dividend_fair, dividend_expensive,
		       eps_cheap, eps_fair, eps_expensive,
		       pbr_cheap, pbr_fair, pbr_expensive,
		       per_cheap, per_fair, per_expensive,
		       year_count, created_time, updated_time
		FROM estimates
		WHERE security_code = $1 AND date = $2
	`
	var e models.Estimate
	err := db.conn.QueryRow(query, code, date).Scan(
		&e.SecurityCode, &e.Date, &e.ClosingPrice, &e.Percentage,
		&e.Composite.Cheap, &e.Composite.Fair, &e.Composite.Expensive,
		&e.Price.Cheap, &e.Price.Fair, &e.Price.Expensive,
		&e.Dividend.Cheap, &e.Dividend.Fair, &e.Dividend.Expensive,
		&e.EPS.Cheap, &e.EPS.Fair, &e.EPS.Expensive,
		&e.PBR.Cheap, &e.PBR.Fair, &e.PBR.Expensive,
		&e.PER.Cheap, &e.PER.Fair, &e.PER.Expensive,
		&e.YearCount, &e.CreatedTime, &e.UpdatedTime,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("estimate not found for %s on %s", code, date.Format("2006-01-02"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}
	return &e, nil
}
