package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/twmarket/stock-pipeline/internal/config"
	"github.com/twmarket/stock-pipeline/internal/merge"
	"github.com/twmarket/stock-pipeline/internal/models"
)

// engineWorkers bounds the per-security fan-out of a daily metrics run.
const engineWorkers = 8

// dividendLookbackYears bounds how stale the "latest annual dividend" used
// for yields may be.
const dividendLookbackYears = 3

// Store is the slice of the persistence layer the engine reads source data
// from and writes derived rows to. *database.DB satisfies it.
type Store interface {
	GetActiveSecurities() ([]*models.Security, error)
	GetSecurity(code string) (*models.Security, error)
	GetDailyQuote(code string, date time.Time) (*models.DailyQuote, error)
	GetQuoteHistory(code string, date time.Time, limit int) ([]*models.DailyQuote, error)
	GetQuotesSince(code string, since, until time.Time) ([]*models.DailyQuote, error)
	GetLatestQuote(code string, date time.Time, windowDays int) (*models.DailyQuote, error)
	GetDividendsByYears(code string, years []int) ([]*models.Dividend, error)
	GetLatestAnnualDividend(code string, minYear int) (*models.Dividend, error)
	GetFinancialStatements(code string, years []int) ([]*models.FinancialStatement, error)
	GetQuoteHistoryRecord(code string) (*models.QuoteHistoryRecord, error)
	UpsertQuoteHistoryRecord(r *models.QuoteHistoryRecord) error
	UpdateQuoteDerived(q *models.DailyQuote) error
	UpsertEstimate(e *models.Estimate) error
	UpsertYieldRank(y *models.YieldRank) error
}

// Engine computes derived metrics security by security. It shares the
// per-security lock set with the merge applier so a computation always sees
// a settled quote history.
type Engine struct {
	store Store
	cfg   config.MetricsConfig
	locks *merge.KeyedMutex
	log   *logrus.Logger
}

func NewEngine(store Store, cfg config.MetricsConfig, locks *merge.KeyedMutex, log *logrus.Logger) *Engine {
	if locks == nil {
		locks = merge.NewKeyedMutex()
	}
	return &Engine{store: store, cfg: cfg, locks: locks, log: log}
}

// RefreshQuoteStats recomputes the moving averages, trailing-year stats
// and price-to-book ratio for (code, date) in place, then folds the result
// into the security's all-time extremes. A missing quote row is not an
// error; there is simply nothing to refresh.
func (e *Engine) RefreshQuoteStats(code string, date time.Time) error {
	q, err := e.store.GetDailyQuote(code, date)
	if err != nil {
		return fmt.Errorf("failed to load quote for %s: %w", code, err)
	}
	if q == nil {
		return nil
	}

	history, err := e.store.GetQuoteHistory(code, date, e.cfg.TradingYear)
	if err != nil {
		return fmt.Errorf("failed to load quote history for %s: %w", code, err)
	}

	ComputeQuoteStats(q, history)

	sec, err := e.store.GetSecurity(code)
	if err != nil {
		return fmt.Errorf("failed to load security %s: %w", code, err)
	}
	if sec != nil && sec.NetAssetValuePerShare.IsPositive() {
		q.PriceToBookRatio = q.Close.Div(sec.NetAssetValuePerShare)
	}

	if err := e.store.UpdateQuoteDerived(q); err != nil {
		return fmt.Errorf("failed to store quote stats for %s: %w", code, err)
	}

	existing, err := e.store.GetQuoteHistoryRecord(code)
	if err != nil {
		return fmt.Errorf("failed to load extremes for %s: %w", code, err)
	}
	if merged, changed := merge.MergeExtremes(existing, q); changed {
		if err := e.store.UpsertQuoteHistoryRecord(merged); err != nil {
			return fmt.Errorf("failed to store extremes for %s: %w", code, err)
		}
	}
	return nil
}

// BuildEstimate computes the valuation band row for (code, date) from the
// security's own history over the configured lookback. Estimators missing
// their inputs contribute nothing; only a security with no quote at all is
// skipped.
func (e *Engine) BuildEstimate(code string, date time.Time) error {
	q, err := e.store.GetDailyQuote(code, date)
	if err != nil {
		return fmt.Errorf("failed to load quote for %s: %w", code, err)
	}
	if q == nil {
		return nil
	}

	since := date.AddDate(-e.cfg.LookbackYears, 0, 0)
	quotes, err := e.store.GetQuotesSince(code, since, date)
	if err != nil {
		return fmt.Errorf("failed to load quote window for %s: %w", code, err)
	}

	var closes, pbrs, pers []decimal.Decimal
	for _, h := range quotes {
		closes = append(closes, h.Close)
		if h.PriceToBookRatio.IsPositive() {
			pbrs = append(pbrs, h.PriceToBookRatio)
		}
		if h.PriceEarningRatio.IsPositive() {
			pers = append(pers, h.PriceEarningRatio)
		}
	}

	sec, err := e.store.GetSecurity(code)
	if err != nil {
		return fmt.Errorf("failed to load security %s: %w", code, err)
	}

	years := make([]int, 0, e.cfg.LookbackYears)
	for i := 0; i < e.cfg.LookbackYears; i++ {
		years = append(years, date.Year()-i)
	}
	dividends, err := e.store.GetDividendsByYears(code, years)
	if err != nil {
		return fmt.Errorf("failed to load dividends for %s: %w", code, err)
	}
	statements, err := e.store.GetFinancialStatements(code, years)
	if err != nil {
		return fmt.Errorf("failed to load statements for %s: %w", code, err)
	}

	est := &models.Estimate{
		SecurityCode: code,
		Date:         date,
		ClosingPrice: q.Close,
		YearCount:    e.cfg.LookbackYears,
		Price:        PriceEstimator(closes),
	}

	if d, err := e.store.GetLatestAnnualDividend(code, date.Year()-dividendLookbackYears); err != nil {
		return fmt.Errorf("failed to load latest dividend for %s: %w", code, err)
	} else if d != nil {
		est.Dividend = DividendEstimator(d.Sum)
	}

	if sec != nil {
		est.EPS = EPSEstimator(sec.LastFourEPS, HistoricalPayoutRatio(dividends))
		est.PBR = PBREstimator(pbrs, sec.NetAssetValuePerShare)
	}

	var epsHistory []decimal.Decimal
	for _, fs := range statements {
		if fs.EarningsPerShare.IsPositive() {
			epsHistory = append(epsHistory, fs.EarningsPerShare)
		}
	}
	est.PER = PEREstimator(pers, Mean(epsHistory))

	est.Composite = CompositeBand(est)
	est.Percentage = BandPercentage(q.Close, est.Composite)

	if err := e.store.UpsertEstimate(est); err != nil {
		return fmt.Errorf("failed to store estimate for %s: %w", code, err)
	}
	return nil
}

// BuildYieldRank derives the yield row for (code, date) from the most
// recent quote within a 30 day window and the latest announced annual
// dividend. Securities without either are skipped.
func (e *Engine) BuildYieldRank(code string, date time.Time) error {
	q, err := e.store.GetLatestQuote(code, date, 30)
	if err != nil {
		return fmt.Errorf("failed to load latest quote for %s: %w", code, err)
	}
	d, err := e.store.GetLatestAnnualDividend(code, date.Year()-dividendLookbackYears)
	if err != nil {
		return fmt.Errorf("failed to load latest dividend for %s: %w", code, err)
	}

	y := ComputeYield(q, d)
	if y == nil {
		return nil
	}
	y.Date = date
	if err := e.store.UpsertYieldRank(y); err != nil {
		return fmt.Errorf("failed to store yield for %s: %w", code, err)
	}
	return nil
}

// RefreshAllQuoteStats recomputes moving averages and trailing-year stats
// for every active security on date.
func (e *Engine) RefreshAllQuoteStats(ctx context.Context, date time.Time) error {
	return e.forEachSecurity(ctx, date, "quote stats", e.RefreshQuoteStats)
}

// BuildAllEstimates computes the valuation bands for every active security
// on date.
func (e *Engine) BuildAllEstimates(ctx context.Context, date time.Time) error {
	return e.forEachSecurity(ctx, date, "estimate", e.BuildEstimate)
}

// BuildAllYieldRanks computes the yield rows for every active security on
// date.
func (e *Engine) BuildAllYieldRanks(ctx context.Context, date time.Time) error {
	return e.forEachSecurity(ctx, date, "yield", e.BuildYieldRank)
}

// forEachSecurity fans one derived-metric step out across all active
// securities, each under its own lock. One security's failure is logged
// and never stops the rest.
func (e *Engine) forEachSecurity(ctx context.Context, date time.Time, step string, fn func(string, time.Time) error) error {
	securities, err := e.store.GetActiveSecurities()
	if err != nil {
		return fmt.Errorf("failed to list securities: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(engineWorkers)
	for _, sec := range securities {
		code := sec.Code
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			e.locks.Lock(code)
			defer e.locks.Unlock(code)

			if err := fn(code, date); err != nil {
				e.log.WithFields(logrus.Fields{
					"step":          step,
					"security_code": code,
					"date":          date.Format("2006-01-02"),
				}).WithError(err).Error("metrics computation failed")
			}
			return nil
		})
	}
	return g.Wait()
}
