package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBand is one estimator's cheap/fair/expensive triplet.
type PriceBand struct {
	Cheap     decimal.Decimal `json:"cheap"`
	Fair      decimal.Decimal `json:"fair"`
	Expensive decimal.Decimal `json:"expensive"`
}

// IsZero reports whether the estimator produced nothing.
func (b PriceBand) IsZero() bool {
	return b.Cheap.IsZero() && b.Fair.IsZero() && b.Expensive.IsZero()
}

// Estimate is the valuation band row for (security_code, date): the five
// estimator triplets, the weighted composite, and the closing price's
// percentage distance into the cheap→fair span.
type Estimate struct {
	SecurityCode string          `json:"security_code"`
	Date         time.Time       `json:"date"`
	ClosingPrice decimal.Decimal `json:"closing_price"`
	Percentage   decimal.Decimal `json:"percentage"`

	Composite PriceBand `json:"composite"`
	Price     PriceBand `json:"price"`
	Dividend  PriceBand `json:"dividend"`
	EPS       PriceBand `json:"eps"`
	PBR       PriceBand `json:"pbr"`
	PER       PriceBand `json:"per"`

	YearCount   int       `json:"year_count"`
	CreatedTime time.Time `json:"created_time"`
	UpdatedTime time.Time `json:"updated_time"`
}
