package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyQuote is one trading day's quote for a security. One row per
// (security_code, date); moving averages and the trailing-year stats are
// recomputed in place as history arrives.
type DailyQuote struct {
	Serial            int64           `json:"serial"`
	SecurityCode      string          `json:"security_code"`
	Date              time.Time       `json:"date"`
	Open              decimal.Decimal `json:"open"`
	High              decimal.Decimal `json:"high"`
	Low               decimal.Decimal `json:"low"`
	Close             decimal.Decimal `json:"close"`
	Volume            int64           `json:"volume"`
	Value             decimal.Decimal `json:"value"`
	Change            decimal.Decimal `json:"change"`
	ChangeRange       decimal.Decimal `json:"change_range"`
	Bid               decimal.Decimal `json:"bid"`
	Ask               decimal.Decimal `json:"ask"`
	PriceEarningRatio decimal.Decimal `json:"price_earning_ratio"`
	PriceToBookRatio  decimal.Decimal `json:"price_to_book_ratio"`

	MovingAverage5   decimal.Decimal `json:"moving_average_5"`
	MovingAverage10  decimal.Decimal `json:"moving_average_10"`
	MovingAverage20  decimal.Decimal `json:"moving_average_20"`
	MovingAverage60  decimal.Decimal `json:"moving_average_60"`
	MovingAverage120 decimal.Decimal `json:"moving_average_120"`
	MovingAverage240 decimal.Decimal `json:"moving_average_240"`

	// Trailing-year (240 trading day) stats ending at Date.
	HighestPrice       decimal.Decimal `json:"highest_price"`
	HighestPriceDateOn time.Time       `json:"highest_price_date_on"`
	LowestPrice        decimal.Decimal `json:"lowest_price"`
	LowestPriceDateOn  time.Time       `json:"lowest_price_date_on"`
	AveragePrice       decimal.Decimal `json:"average_price"`

	CreatedTime time.Time `json:"created_time"`
	UpdatedTime time.Time `json:"updated_time"`
}

// CurrentQuote is the read-only projection served to the API layer.
type CurrentQuote struct {
	Code        string          `json:"code"`
	Date        time.Time       `json:"date"`
	Price       decimal.Decimal `json:"price"`
	Change      decimal.Decimal `json:"change"`
	ChangeRange decimal.Decimal `json:"change_range"`
}
