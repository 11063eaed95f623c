// Package metrics derives secondary analytics from the canonical store:
// moving averages, trailing-year extremes, valuation bands and dividend
// yields.
package metrics

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Percentile returns the p-th percentile (0 <= p <= 100) of values using
// linear interpolation between order statistics (the PERCENTILE_CONT
// definition). This is the single percentile implementation for the whole
// package; every estimator goes through it so repeated runs over the same
// window are reproducible bit-for-bit. Returns zero for an empty slice.
func Percentile(values []decimal.Decimal, p float64) decimal.Decimal {
	n := len(values)
	if n == 0 {
		return decimal.Zero
	}
	if n == 1 {
		return values[0]
	}

	sorted := make([]decimal.Decimal, n)
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	rank := p / 100 * float64(n-1)
	lower := int(rank)
	if lower >= n-1 {
		return sorted[n-1]
	}
	frac := decimal.NewFromFloat(rank - float64(lower))
	return sorted[lower].Add(sorted[lower+1].Sub(sorted[lower]).Mul(frac))
}

// Mean returns the arithmetic mean of values, zero for an empty slice.
func Mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(values))))
}
