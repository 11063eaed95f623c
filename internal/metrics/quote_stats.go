package metrics

import (
	"github.com/shopspring/decimal"

	"github.com/twmarket/stock-pipeline/internal/models"
)

var movingAverageWindows = []int{5, 10, 20, 60, 120, 240}

// ComputeQuoteStats fills q's moving averages and trailing-year price stats
// from history, the security's quote rows ending at q.Date ordered most
// recent first (q itself included). A window with fewer rows than its width
// is left at zero, never extrapolated. Trailing extremes cover the whole
// slice; ties keep the earliest occurrence.
func ComputeQuoteStats(q *models.DailyQuote, history []*models.DailyQuote) {
	q.MovingAverage5 = decimal.Zero
	q.MovingAverage10 = decimal.Zero
	q.MovingAverage20 = decimal.Zero
	q.MovingAverage60 = decimal.Zero
	q.MovingAverage120 = decimal.Zero
	q.MovingAverage240 = decimal.Zero
	q.HighestPrice = decimal.Zero
	q.LowestPrice = decimal.Zero
	q.AveragePrice = decimal.Zero

	for _, w := range movingAverageWindows {
		if len(history) < w {
			break
		}
		sum := decimal.Zero
		for _, h := range history[:w] {
			sum = sum.Add(h.Close)
		}
		avg := sum.Div(decimal.NewFromInt(int64(w)))
		switch w {
		case 5:
			q.MovingAverage5 = avg
		case 10:
			q.MovingAverage10 = avg
		case 20:
			q.MovingAverage20 = avg
		case 60:
			q.MovingAverage60 = avg
		case 120:
			q.MovingAverage120 = avg
		case 240:
			q.MovingAverage240 = avg
		}
	}

	if len(history) == 0 {
		return
	}

	// Walk oldest to newest so equal extremes keep the earlier date.
	sum := decimal.Zero
	for i := len(history) - 1; i >= 0; i-- {
		h := history[i]
		sum = sum.Add(h.Close)
		if q.HighestPrice.IsZero() || h.Close.GreaterThan(q.HighestPrice) {
			q.HighestPrice = h.Close
			q.HighestPriceDateOn = h.Date
		}
		if q.LowestPrice.IsZero() || h.Close.LessThan(q.LowestPrice) {
			q.LowestPrice = h.Close
			q.LowestPriceDateOn = h.Date
		}
	}
	q.AveragePrice = sum.Div(decimal.NewFromInt(int64(len(history))))
}
