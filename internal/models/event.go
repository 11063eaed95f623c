package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types published to the market-events topic
const (
	EventExDividend     = "EX_DIVIDEND"
	EventPayableDate    = "DIVIDEND_PAYABLE"
	EventPublicOffering = "PUBLIC_OFFERING"
	EventSnapshotDelta  = "SNAPSHOT_DELTA"
)

// MarketEvent is the envelope for notification messages. Delivery is owned
// by external subscribers; this repository only publishes.
type MarketEvent struct {
	EventType     string          `json:"event_type"`
	SecurityCode  string          `json:"security_code,omitempty"`
	MemberID      int64           `json:"member_id,omitempty"`
	Date          string          `json:"date"`
	CashDividend  decimal.Decimal `json:"cash_dividend,omitempty"`
	StockDividend decimal.Decimal `json:"stock_dividend,omitempty"`
	MarketValue   decimal.Decimal `json:"market_value,omitempty"`
	Delta         decimal.Decimal `json:"delta,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}
