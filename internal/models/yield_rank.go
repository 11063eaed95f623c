package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// YieldRank holds one security's dividend yield on a date, with provenance
// pointing at the exact quote and dividend rows it was computed from. The
// cross-sectional rank itself is derived at read time and never persisted.
type YieldRank struct {
	Date             time.Time       `json:"date"`
	SecurityCode     string          `json:"security_code"`
	Yield            decimal.Decimal `json:"yield"`
	DailyQuoteSerial int64           `json:"daily_quote_serial"`
	DividendSerial   int64           `json:"dividend_serial"`
	CreatedTime      time.Time       `json:"created_time"`
	UpdatedTime      time.Time       `json:"updated_time"`
}
