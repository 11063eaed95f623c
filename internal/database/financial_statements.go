package database

import (
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/twmarket/stock-pipeline/internal/models"
)

// UpsertFinancialStatement inserts or overwrites a statement on
// (security, year, quarter). Append-mostly: a key never duplicates.
func (db *DB) UpsertFinancialStatement(fs *models.FinancialStatement) error {
	query := `
		INSERT INTO financial_statements (
			security_code, year, quarter,
			gross_profit_margin, operating_profit_margin, pre_tax_income_margin,
			net_income_margin, earnings_per_share, return_on_equity, return_on_assets,
			net_asset_value_per_share, created_time, updated_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		ON CONFLICT (security_code, year, quarter) DO UPDATE SET
			gross_profit_margin = EXCLUDED.gross_profit_margin,
			operating_profit_margin = EXCLUDED.operating_profit_margin,
			pre_tax_income_margin = EXCLUDED.pre_tax_income_margin,
			net_income_margin = EXCLUDED.net_income_margin,
			earnings_per_share = EXCLUDED.earnings_per_share,
			return_on_equity = EXCLUDED.return_on_equity,
			return_on_assets = EXCLUDED.return_on_assets,
			net_asset_value_per_share = EXCLUDED.net_asset_value_per_share,
			updated_time = EXCLUDED.updated_time
		RETURNING serial
	`
	err := db.conn.QueryRow(query,
		fs.SecurityCode, fs.Year, fs.Quarter,
		fs.GrossProfitMargin, fs.OperatingProfitMargin, fs.PreTaxIncomeMargin,
		fs.NetIncomeMargin, fs.EarningsPerShare, fs.ReturnOnEquity, fs.ReturnOnAssets,
		fs.NetAssetValuePerShare, time.Now(),
	).Scan(&fs.Serial)
	if err != nil {
		return fmt.Errorf("failed to upsert financial statement for %s %d%s: %w",
			fs.SecurityCode, fs.Year, fs.Quarter, err)
	}
	return nil
}

// GetFinancialStatements retrieves a security's quarterly statements for
// the given years, oldest first.
func (db *DB) GetFinancialStatements(code string, years []int) ([]*models.FinancialStatement, error) {
	query := `
		SELECT serial, security_code, year, quarter,
		       gross_profit_margin, operating_profit_margin, pre_tax_income_margin,
		       net_income_margin, earnings_per_share, return_on_equity, return_on_assets,
		       net_asset_value_per_share, created_time, updated_time
		FROM financial_statements
		WHERE security_code = $1 AND year = ANY($2) AND quarter IN ('Q1','Q2','Q3','Q4')
		ORDER BY year ASC, quarter ASC
	`
	rows, err := db.conn.Query(query, code, pq.Array(years))
	if err != nil {
		return nil, fmt.Errorf("failed to get financial statements for %s: %w", code, err)
	}
	defer rows.Close()

	var statements []*models.FinancialStatement
	for rows.Next() {
		var fs models.FinancialStatement
		err := rows.Scan(
			&fs.Serial, &fs.SecurityCode, &fs.Year, &fs.Quarter,
			&fs.GrossProfitMargin, &fs.OperatingProfitMargin, &fs.PreTaxIncomeMargin,
			&fs.NetIncomeMargin, &fs.EarningsPerShare, &fs.ReturnOnEquity, &fs.ReturnOnAssets,
			&fs.NetAssetValuePerShare, &fs.CreatedTime, &fs.UpdatedTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan financial statement: %w", err)
		}
		statements = append(statements, &fs)
	}
	return statements, rows.Err()
}
