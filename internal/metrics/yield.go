package metrics

import (
	"github.com/shopspring/decimal"

	"github.com/twmarket/stock-pipeline/internal/models"
)

// ComputeYield derives a security's dividend yield for quote.Date from an
// exact quote+dividend pair, keeping both serials as provenance. Returns
// nil when either input is missing or the closing price is zero.
func ComputeYield(quote *models.DailyQuote, dividend *models.Dividend) *models.YieldRank {
	if quote == nil || dividend == nil || !quote.Close.IsPositive() {
		return nil
	}
	return &models.YieldRank{
		Date:             quote.Date,
		SecurityCode:     quote.SecurityCode,
		Yield:            dividend.Sum.Div(quote.Close).Mul(decimal.NewFromInt(100)),
		DailyQuoteSerial: quote.Serial,
		DividendSerial:   dividend.Serial,
	}
}
