package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinancialStatement is one reporting period for a security. A given
// (security_code, year, quarter) key is unique; updates overwrite in place.
type FinancialStatement struct {
	Serial                int64           `json:"serial"`
	SecurityCode          string          `json:"security_code"`
	Year                  int             `json:"year"`
	Quarter               string          `json:"quarter"` // Q1..Q4, or "" for annual-only rows
	GrossProfitMargin     decimal.Decimal `json:"gross_profit_margin"`
	OperatingProfitMargin decimal.Decimal `json:"operating_profit_margin"`
	PreTaxIncomeMargin    decimal.Decimal `json:"pre_tax_income_margin"`
	NetIncomeMargin       decimal.Decimal `json:"net_income_margin"`
	EarningsPerShare      decimal.Decimal `json:"earnings_per_share"`
	ReturnOnEquity        decimal.Decimal `json:"return_on_equity"`
	ReturnOnAssets        decimal.Decimal `json:"return_on_assets"`
	NetAssetValuePerShare decimal.Decimal `json:"net_asset_value_per_share"`
	CreatedTime           time.Time       `json:"created_time"`
	UpdatedTime           time.Time       `json:"updated_time"`
}
