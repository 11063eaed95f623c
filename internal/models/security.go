package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Market identifiers used by the exchange feeds
const (
	MarketListed   = 1
	MarketOTC      = 2
	MarketEmerging = 3
)

// Security represents one listed/OTC tradable instrument identified by a
// stable code. Securities are never hard-deleted; delisting flips Suspended.
type Security struct {
	Code                       string          `json:"code"`
	Name                       string          `json:"name"`
	MarketID                   int             `json:"market_id"`
	IndustryID                 int             `json:"industry_id"`
	Suspended                  bool            `json:"suspended"`
	IssuedShares               int64           `json:"issued_shares"`
	NetAssetValuePerShare      decimal.Decimal `json:"net_asset_value_per_share"`
	LastOneEPS                 decimal.Decimal `json:"last_one_eps"`
	LastFourEPS                decimal.Decimal `json:"last_four_eps"`
	QFIISharesHeld             int64           `json:"qfii_shares_held"`
	QFIIShareHoldingPercentage decimal.Decimal `json:"qfii_share_holding_percentage"`
	Weight                     decimal.Decimal `json:"weight"`
	CreatedTime                time.Time       `json:"created_time"`
	UpdatedTime                time.Time       `json:"updated_time"`
}

// SecurityCorrection is a one-way metadata correction applied through the
// same overwrite merge rule as feed data. Nil pointers leave fields untouched.
type SecurityCorrection struct {
	Code                  string           `json:"code"`
	Name                  *string          `json:"name,omitempty"`
	MarketID              *int             `json:"market_id,omitempty"`
	IndustryID            *int             `json:"industry_id,omitempty"`
	NetAssetValuePerShare *decimal.Decimal `json:"net_asset_value_per_share,omitempty"`
	Suspended             *bool            `json:"suspended,omitempty"`
}
