package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteHistoryRecord tracks all-time price and price-to-book extremes for a
// security. A candidate only overwrites a stored extreme when it strictly
// improves it; equal values keep the earlier occurrence date.
type QuoteHistoryRecord struct {
	SecurityCode                  string          `json:"security_code"`
	MaximumPrice                  decimal.Decimal `json:"maximum_price"`
	MaximumPriceDateOn            time.Time       `json:"maximum_price_date_on"`
	MinimumPrice                  decimal.Decimal `json:"minimum_price"`
	MinimumPriceDateOn            time.Time       `json:"minimum_price_date_on"`
	MaximumPriceToBookRatio       decimal.Decimal `json:"maximum_price_to_book_ratio"`
	MaximumPriceToBookRatioDateOn time.Time       `json:"maximum_price_to_book_ratio_date_on"`
	MinimumPriceToBookRatio       decimal.Decimal `json:"minimum_price_to_book_ratio"`
	MinimumPriceToBookRatioDateOn time.Time       `json:"minimum_price_to_book_ratio_date_on"`
	UpdatedTime                   time.Time       `json:"updated_time"`
}
