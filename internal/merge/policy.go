// Package merge reconciles normalized records into the canonical store.
// The conflict policies live here as explicit functions, independent of any
// storage engine's conflict syntax, so idempotence and monotonicity are
// testable without a database.
package merge

import (
	"fmt"

	"github.com/twmarket/stock-pipeline/internal/models"
	"github.com/twmarket/stock-pipeline/internal/source"
)

// MergeExtremes folds one day's quote into a security's all-time extremes.
// A candidate overwrites a stored extreme only when it strictly improves
// it; equal values keep the earlier occurrence date. A zero stored minimum
// means "unset" and is always replaced. Returns the (possibly new) record
// and whether anything changed.
func MergeExtremes(existing *models.QuoteHistoryRecord, q *models.DailyQuote) (*models.QuoteHistoryRecord, bool) {
	if existing == nil {
		return &models.QuoteHistoryRecord{
			SecurityCode:                  q.SecurityCode,
			MaximumPrice:                  q.High,
			MaximumPriceDateOn:            q.Date,
			MinimumPrice:                  q.Low,
			MinimumPriceDateOn:            q.Date,
			MaximumPriceToBookRatio:       q.PriceToBookRatio,
			MaximumPriceToBookRatioDateOn: q.Date,
			MinimumPriceToBookRatio:       q.PriceToBookRatio,
			MinimumPriceToBookRatioDateOn: q.Date,
		}, true
	}

	r := *existing
	changed := false

	if q.High.GreaterThan(r.MaximumPrice) {
		r.MaximumPrice = q.High
		r.MaximumPriceDateOn = q.Date
		changed = true
	}
	if q.Low.LessThan(r.MinimumPrice) || r.MinimumPrice.IsZero() {
		r.MinimumPrice = q.Low
		r.MinimumPriceDateOn = q.Date
		changed = true
	}
	if q.PriceToBookRatio.GreaterThan(r.MaximumPriceToBookRatio) {
		r.MaximumPriceToBookRatio = q.PriceToBookRatio
		r.MaximumPriceToBookRatioDateOn = q.Date
		changed = true
	}
	if (q.PriceToBookRatio.LessThan(r.MinimumPriceToBookRatio) || r.MinimumPriceToBookRatio.IsZero()) &&
		q.PriceToBookRatio.IsPositive() {
		r.MinimumPriceToBookRatio = q.PriceToBookRatio
		r.MinimumPriceToBookRatioDateOn = q.Date
		changed = true
	}

	if !changed {
		return existing, false
	}
	return &r, true
}

// GateRevenue reports whether a revenue month passes the cursor: only a
// month strictly after the stored cursor is applied.
func GateRevenue(cursor, month int) bool {
	return month > cursor
}

// Validate checks a record's natural key. A record failing validation is
// rejected and reported, never silently dropped.
func Validate(rec source.Record) error {
	switch r := rec.(type) {
	case source.SecurityRecord:
		if r.Security == nil || r.Security.Code == "" {
			return &source.ValidationError{Kind: rec.Kind(), Reason: "missing security code"}
		}
	case source.QuoteRecord:
		if r.Quote == nil || r.Quote.SecurityCode == "" {
			return &source.ValidationError{Kind: rec.Kind(), Reason: "missing security code"}
		}
		if r.Quote.Date.IsZero() {
			return &source.ValidationError{Kind: rec.Kind(), Reason: "missing trade date"}
		}
	case source.DividendRecord:
		if r.Dividend == nil || r.Dividend.SecurityCode == "" {
			return &source.ValidationError{Kind: rec.Kind(), Reason: "missing security code"}
		}
		if r.Dividend.Year == 0 {
			return &source.ValidationError{Kind: rec.Kind(), Reason: "missing year"}
		}
	case source.StatementRecord:
		if r.Statement == nil || r.Statement.SecurityCode == "" {
			return &source.ValidationError{Kind: rec.Kind(), Reason: "missing security code"}
		}
		if r.Statement.Year == 0 {
			return &source.ValidationError{Kind: rec.Kind(), Reason: "missing year"}
		}
	case source.RevenueRecord:
		if r.Revenue == nil || r.Revenue.SecurityCode == "" {
			return &source.ValidationError{Kind: rec.Kind(), Reason: "missing security code"}
		}
		if r.Revenue.Month < 190001 {
			return &source.ValidationError{Kind: rec.Kind(), Reason: fmt.Sprintf("bad month %d", r.Revenue.Month)}
		}
	case source.IndexRecord:
		if r.Index == nil || r.Index.Category == "" || r.Index.Date.IsZero() {
			return &source.ValidationError{Kind: rec.Kind(), Reason: "missing category or date"}
		}
	case source.HolidayRecord:
		if r.Holiday == nil || r.Holiday.Date.IsZero() {
			return &source.ValidationError{Kind: rec.Kind(), Reason: "missing date"}
		}
	default:
		return &source.ValidationError{Kind: rec.Kind(), Reason: "unknown record kind"}
	}
	return nil
}
