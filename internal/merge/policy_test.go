package merge

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmarket/stock-pipeline/internal/models"
	"github.com/twmarket/stock-pipeline/internal/source"
)

func day(n int) time.Time {
	return time.Date(2024, 7, n, 0, 0, 0, 0, time.UTC)
}

func extremeQuote(n int, price float64) *models.DailyQuote {
	p := decimal.NewFromFloat(price)
	return &models.DailyQuote{
		SecurityCode: "2330",
		Date:         day(n),
		High:         p,
		Low:          p,
		Close:        p,
	}
}

func TestMergeExtremes(t *testing.T) {
	t.Run("sequence keeps running max and min with dates", func(t *testing.T) {
		var rec *models.QuoteHistoryRecord
		for i, price := range []float64{10, 15, 8, 20} {
			rec, _ = MergeExtremes(rec, extremeQuote(i+1, price))
		}

		assert.True(t, rec.MaximumPrice.Equal(decimal.NewFromInt(20)))
		assert.Equal(t, day(4), rec.MaximumPriceDateOn)
		assert.True(t, rec.MinimumPrice.Equal(decimal.NewFromInt(8)))
		assert.Equal(t, day(3), rec.MinimumPriceDateOn)
	})

	t.Run("equal value keeps the earlier date", func(t *testing.T) {
		rec, changed := MergeExtremes(nil, extremeQuote(1, 15))
		require.True(t, changed)

		rec2, changed := MergeExtremes(rec, extremeQuote(2, 15))
		assert.False(t, changed)
		assert.Equal(t, day(1), rec2.MaximumPriceDateOn)
		assert.Equal(t, day(1), rec2.MinimumPriceDateOn)
	})

	t.Run("zero stored minimum is treated as unset", func(t *testing.T) {
		rec := &models.QuoteHistoryRecord{
			SecurityCode:       "2330",
			MaximumPrice:       decimal.NewFromInt(30),
			MaximumPriceDateOn: day(1),
		}
		merged, changed := MergeExtremes(rec, extremeQuote(5, 12))
		require.True(t, changed)
		assert.True(t, merged.MinimumPrice.Equal(decimal.NewFromInt(12)))
		assert.Equal(t, day(5), merged.MinimumPriceDateOn)
	})

	t.Run("merge does not mutate the existing record", func(t *testing.T) {
		rec, _ := MergeExtremes(nil, extremeQuote(1, 10))
		before := rec.MaximumPrice

		merged, changed := MergeExtremes(rec, extremeQuote(2, 20))
		require.True(t, changed)
		assert.True(t, rec.MaximumPrice.Equal(before))
		assert.True(t, merged.MaximumPrice.Equal(decimal.NewFromInt(20)))
	})

	t.Run("price-to-book extremes ignore zero candidates for the minimum", func(t *testing.T) {
		q := extremeQuote(1, 100)
		q.PriceToBookRatio = decimal.NewFromFloat(2.5)
		rec, _ := MergeExtremes(nil, q)

		q2 := extremeQuote(2, 100)
		// Ratio unavailable for this day.
		_, changed := MergeExtremes(rec, q2)
		assert.False(t, changed)
	})
}

func TestGateRevenue(t *testing.T) {
	assert.True(t, GateRevenue(0, 202401))
	assert.True(t, GateRevenue(202406, 202407))
	assert.False(t, GateRevenue(202406, 202406))
	assert.False(t, GateRevenue(202406, 202405))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		rec  source.Record
		ok   bool
	}{
		{
			name: "valid quote",
			rec:  source.QuoteRecord{Quote: extremeQuote(1, 10)},
			ok:   true,
		},
		{
			name: "quote without code",
			rec:  source.QuoteRecord{Quote: &models.DailyQuote{Date: day(1)}},
			ok:   false,
		},
		{
			name: "quote without date",
			rec:  source.QuoteRecord{Quote: &models.DailyQuote{SecurityCode: "2330"}},
			ok:   false,
		},
		{
			name: "security without code",
			rec:  source.SecurityRecord{Security: &models.Security{}},
			ok:   false,
		},
		{
			name: "dividend without year",
			rec:  source.DividendRecord{Dividend: &models.Dividend{SecurityCode: "2330"}},
			ok:   false,
		},
		{
			name: "revenue with malformed month",
			rec:  source.RevenueRecord{Revenue: &models.RevenueRecord{SecurityCode: "2330", Month: 7}},
			ok:   false,
		},
		{
			name: "valid revenue",
			rec:  source.RevenueRecord{Revenue: &models.RevenueRecord{SecurityCode: "2330", Month: 202407}},
			ok:   true,
		},
		{
			name: "holiday without date",
			rec:  source.HolidayRecord{Holiday: &models.Holiday{}},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.rec)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, source.IsValidationError(err))
			}
		})
	}
}
