package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockOwnership is one member's lot in a security: share count, signed
// cost (stored negative), and the dividends accumulated while held.
type StockOwnership struct {
	Serial                int64           `json:"serial"`
	MemberID              int64           `json:"member_id"`
	SecurityCode          string          `json:"security_code"`
	ShareQuantity         int64           `json:"share_quantity"`
	SharePrice            decimal.Decimal `json:"share_price"`
	Cost                  decimal.Decimal `json:"cost"` // negative of shares × unit cost
	IsSold                bool            `json:"is_sold"`
	CumulateCashDividend  decimal.Decimal `json:"cumulate_cash_dividend"`
	CumulateStockDividend decimal.Decimal `json:"cumulate_stock_dividend"`
	CumulateTotalDividend decimal.Decimal `json:"cumulate_total_dividend"`
	CreatedTime           time.Time       `json:"created_time"`
	UpdatedTime           time.Time       `json:"updated_time"`
}

// DailyMoneyHistory is the per-member mark-to-market snapshot for one
// calendar day. The previous_day fields are copied from the latest snapshot
// strictly before Date, not recomputed, so subscribers can diff days.
type DailyMoneyHistory struct {
	MemberID                           int64           `json:"member_id"`
	Date                               time.Time       `json:"date"`
	MarketValue                        decimal.Decimal `json:"market_value"`
	Cost                               decimal.Decimal `json:"cost"`
	ProfitAndLoss                      decimal.Decimal `json:"profit_and_loss"`
	ProfitAndLossPercentage            decimal.Decimal `json:"profit_and_loss_percentage"`
	PreviousDayMarketValue             decimal.Decimal `json:"previous_day_market_value"`
	PreviousDayProfitAndLoss           decimal.Decimal `json:"previous_day_profit_and_loss"`
	PreviousDayProfitAndLossPercentage decimal.Decimal `json:"previous_day_profit_and_loss_percentage"`
	CreatedTime                        time.Time       `json:"created_time"`
	UpdatedTime                        time.Time       `json:"updated_time"`
}
