package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketIndex is one day's record of a market-wide index (e.g. the
// capitalization-weighted index). One row per (category, date).
type MarketIndex struct {
	Serial        int64           `json:"serial"`
	Category      string          `json:"category"`
	Date          time.Time       `json:"date"`
	Index         decimal.Decimal `json:"index"`
	Change        decimal.Decimal `json:"change"`
	TradeValue    decimal.Decimal `json:"trade_value"`
	TradingVolume decimal.Decimal `json:"trading_volume"`
	Transaction   decimal.Decimal `json:"transaction"`
	CreatedTime   time.Time       `json:"created_time"`
	UpdatedTime   time.Time       `json:"updated_time"`
}

// Holiday is one non-trading day of the market calendar. Reference data,
// not produced by the pipeline.
type Holiday struct {
	Date   time.Time `json:"date"`
	Reason string    `json:"reason"`
}
