package metrics

import (
	"github.com/shopspring/decimal"

	"github.com/twmarket/stock-pipeline/internal/models"
)

// Fixed dividend-yield multiples: x15 ~ 6.6% yield, x20 ~ 5%, x30 ~ 3.3%.
var (
	multipleCheap     = decimal.NewFromInt(15)
	multipleFair      = decimal.NewFromInt(20)
	multipleExpensive = decimal.NewFromInt(30)
)

// Composite band weights. The P/E estimator is nearly ignored: historical
// P/E data from the feeds is too noisy to deserve more.
var compositeWeights = map[string]decimal.Decimal{
	"price":    decimal.NewFromFloat(0.2),
	"dividend": decimal.NewFromFloat(0.29),
	"eps":      decimal.NewFromFloat(0.3),
	"pbr":      decimal.NewFromFloat(0.2),
	"per":      decimal.NewFromFloat(0.01),
}

var hundred = decimal.NewFromInt(100)

// PriceBandFromPercentiles builds a band at the given percentile levels of
// the security's own closing-price history.
func PriceBandFromPercentiles(closes []decimal.Decimal, cheap, fair, expensive float64) models.PriceBand {
	if len(closes) == 0 {
		return models.PriceBand{}
	}
	return models.PriceBand{
		Cheap:     Percentile(closes, cheap),
		Fair:      Percentile(closes, fair),
		Expensive: Percentile(closes, expensive),
	}
}

// PriceEstimator: 20th/50th/80th percentile of historical closing prices.
func PriceEstimator(closes []decimal.Decimal) models.PriceBand {
	return PriceBandFromPercentiles(closes, 20, 50, 80)
}

// DividendEstimator: trailing annual dividend per share at target-yield
// multiples.
func DividendEstimator(dividendPerShare decimal.Decimal) models.PriceBand {
	if !dividendPerShare.IsPositive() {
		return models.PriceBand{}
	}
	return models.PriceBand{
		Cheap:     dividendPerShare.Mul(multipleCheap),
		Fair:      dividendPerShare.Mul(multipleFair),
		Expensive: dividendPerShare.Mul(multipleExpensive),
	}
}

// EPSEstimator: trailing-4-quarter EPS scaled by the historical payout
// ratio, at the same target-yield multiples. payoutRatio is a percentage.
func EPSEstimator(lastFourEPS, payoutRatio decimal.Decimal) models.PriceBand {
	if !lastFourEPS.IsPositive() || !payoutRatio.IsPositive() {
		return models.PriceBand{}
	}
	base := lastFourEPS.Mul(payoutRatio).Div(hundred)
	return models.PriceBand{
		Cheap:     base.Mul(multipleCheap),
		Fair:      base.Mul(multipleFair),
		Expensive: base.Mul(multipleExpensive),
	}
}

// PBREstimator: 20th/50th/80th percentile of historical price-to-book
// ratios applied to the current book value per share.
func PBREstimator(ratios []decimal.Decimal, bookValuePerShare decimal.Decimal) models.PriceBand {
	if len(ratios) == 0 || !bookValuePerShare.IsPositive() {
		return models.PriceBand{}
	}
	return models.PriceBand{
		Cheap:     Percentile(ratios, 20).Mul(bookValuePerShare),
		Fair:      Percentile(ratios, 50).Mul(bookValuePerShare),
		Expensive: Percentile(ratios, 80).Mul(bookValuePerShare),
	}
}

// PEREstimator: 10th/50th/80th percentile of historical price-to-earnings
// ratios applied to the historical average EPS.
func PEREstimator(ratios []decimal.Decimal, averageEPS decimal.Decimal) models.PriceBand {
	if len(ratios) == 0 || !averageEPS.IsPositive() {
		return models.PriceBand{}
	}
	return models.PriceBand{
		Cheap:     Percentile(ratios, 10).Mul(averageEPS),
		Fair:      Percentile(ratios, 50).Mul(averageEPS),
		Expensive: Percentile(ratios, 80).Mul(averageEPS),
	}
}

// HistoricalPayoutRatio picks the 70th percentile of the plausible payout
// ratios (0 < r <= 100) from a security's dividend history.
func HistoricalPayoutRatio(dividends []*models.Dividend) decimal.Decimal {
	var ratios []decimal.Decimal
	for _, d := range dividends {
		if d.PayoutRatio.IsPositive() && d.PayoutRatio.LessThanOrEqual(hundred) {
			ratios = append(ratios, d.PayoutRatio)
		}
	}
	return Percentile(ratios, 70)
}

// CompositeBand combines the estimator bands into the final weighted band.
// Estimators that produced nothing are left out and the remaining weights
// renormalized, so one missing input degrades the band instead of zeroing
// it.
func CompositeBand(e *models.Estimate) models.PriceBand {
	parts := []struct {
		name string
		band models.PriceBand
	}{
		{"price", e.Price},
		{"dividend", e.Dividend},
		{"eps", e.EPS},
		{"pbr", e.PBR},
		{"per", e.PER},
	}

	var out models.PriceBand
	total := decimal.Zero
	for _, p := range parts {
		if p.band.IsZero() {
			continue
		}
		w := compositeWeights[p.name]
		out.Cheap = out.Cheap.Add(p.band.Cheap.Mul(w))
		out.Fair = out.Fair.Add(p.band.Fair.Mul(w))
		out.Expensive = out.Expensive.Add(p.band.Expensive.Mul(w))
		total = total.Add(w)
	}
	if total.IsZero() {
		return models.PriceBand{}
	}
	out.Cheap = out.Cheap.Div(total)
	out.Fair = out.Fair.Div(total)
	out.Expensive = out.Expensive.Div(total)
	return out
}

// BandPercentage is the closing price's distance into the cheap-to-fair
// span, as a percentage. Zero when the band is degenerate.
func BandPercentage(closing decimal.Decimal, band models.PriceBand) decimal.Decimal {
	span := band.Fair.Sub(band.Cheap)
	if span.IsZero() {
		return decimal.Zero
	}
	return closing.Sub(band.Cheap).Div(span).Mul(hundred)
}
