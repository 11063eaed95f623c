// Package pipeline composes the fetch, merge, metrics and portfolio stages
// into the named jobs the scheduler fires.
package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/twmarket/stock-pipeline/internal/fetch"
	"github.com/twmarket/stock-pipeline/internal/merge"
	"github.com/twmarket/stock-pipeline/internal/metrics"
	"github.com/twmarket/stock-pipeline/internal/models"
	"github.com/twmarket/stock-pipeline/internal/portfolio"
	"github.com/twmarket/stock-pipeline/internal/scheduler"
	"github.com/twmarket/stock-pipeline/internal/source"
)

// Job names, matching the schedule configuration keys.
const (
	JobRefreshNAV            = "refresh-net-asset-value"
	JobRefreshSecurities     = "refresh-security-list"
	JobRefreshRevenue        = "refresh-revenue"
	JobRefreshWeight         = "refresh-stock-weight"
	JobNotifyExDividend      = "notify-ex-dividend"
	JobIngestClosingQuotes   = "ingest-closing-quotes"
	JobIngestMarketIndex     = "ingest-market-index"
	JobComputeDailyMetrics   = "compute-daily-metrics"
	JobComputeEstimates      = "compute-estimates"
	JobComputeYieldRank      = "compute-yield-rank"
	JobComputeMoneyHistory   = "compute-money-history"
	JobRefreshDividends      = "refresh-dividends"
	JobRefreshForeignHolding = "refresh-foreign-holding"
)

// Store is the slice of the persistence layer the jobs read directly.
// *database.DB satisfies it.
type Store interface {
	GetActiveSecurities() ([]*models.Security, error)
	GetSecurity(code string) (*models.Security, error)
	GetDividendsWithExDividendDate(day string) ([]*models.Dividend, error)
	GetDividendsWithPayableDate(day string) ([]*models.Dividend, error)
}

// Notifier publishes the day's market events. Nil disables publishing.
// *kafka.Producer satisfies it.
type Notifier interface {
	PublishExDividend(ctx context.Context, d *models.Dividend, day string) error
	PublishDividendPayable(ctx context.Context, d *models.Dividend, day string) error
	PublishPublicOffering(ctx context.Context, s *models.Security, day string) error
}

// QuoteProjection receives each merged closing quote. Nil disables the
// projection. *cache.QuoteCache satisfies it.
type QuoteProjection interface {
	SetCurrentQuote(ctx context.Context, q *models.CurrentQuote) error
}

// Pipeline owns the wiring between stages. Adapters are injected per job
// name; a job with no adapter is registered but does nothing when fired,
// so a deployment can bring sources up one at a time.
type Pipeline struct {
	db        Store
	orch      *fetch.Orchestrator
	applier   *merge.Applier
	metrics   *metrics.Engine
	portfolio *portfolio.Engine
	producer  Notifier
	quotes    QuoteProjection
	adapters  map[string]source.Adapter
	log       *logrus.Logger
}

func New(db Store, orch *fetch.Orchestrator, applier *merge.Applier,
	metricsEngine *metrics.Engine, portfolioEngine *portfolio.Engine,
	producer Notifier, quotes QuoteProjection,
	adapters map[string]source.Adapter, log *logrus.Logger) *Pipeline {

	return &Pipeline{
		db:        db,
		orch:      orch,
		applier:   applier,
		metrics:   metricsEngine,
		portfolio: portfolioEngine,
		producer:  producer,
		quotes:    quotes,
		adapters:  adapters,
		log:       log,
	}
}

// RegisterJobs attaches every job to the scheduler. Ingestion and metrics
// jobs run on trading days only; refresh and notification jobs run every
// calendar day.
func (p *Pipeline) RegisterJobs(s *scheduler.Scheduler) {
	s.Register(JobRefreshNAV, p.fetchPerSecurity(JobRefreshNAV))
	s.Register(JobRefreshSecurities, p.RefreshSecurities)
	s.Register(JobRefreshRevenue, p.fetchPerSecurity(JobRefreshRevenue))
	s.Register(JobRefreshWeight, p.fetchPerSecurity(JobRefreshWeight))
	s.Register(JobNotifyExDividend, p.NotifyDividendDates)
	s.RegisterTradingDay(JobIngestClosingQuotes, p.IngestClosingQuotes)
	s.RegisterTradingDay(JobIngestMarketIndex, p.fetchWholeMarket(JobIngestMarketIndex))
	s.RegisterTradingDay(JobComputeDailyMetrics, p.metrics.RefreshAllQuoteStats)
	s.RegisterTradingDay(JobComputeEstimates, p.metrics.BuildAllEstimates)
	s.RegisterTradingDay(JobComputeYieldRank, p.metrics.BuildAllYieldRanks)
	s.Register(JobComputeMoneyHistory, p.portfolio.BuildSnapshots)
	s.Register(JobRefreshDividends, p.fetchPerSecurity(JobRefreshDividends))
	s.Register(JobRefreshForeignHolding, p.fetchPerSecurity(JobRefreshForeignHolding))
}

// RefreshSecurities pulls the security master list and announces codes not
// seen before.
func (p *Pipeline) RefreshSecurities(ctx context.Context, date time.Time) error {
	adapter, ok := p.adapters[JobRefreshSecurities]
	if !ok {
		return nil
	}

	targets := []source.Target{
		{MarketID: models.MarketListed, Date: date},
		{MarketID: models.MarketOTC, Date: date},
	}
	report, err := p.orch.Run(ctx, fetch.Job{Name: JobRefreshSecurities, Adapter: adapter, Targets: targets})
	if err != nil {
		return err
	}

	var fresh []*models.Security
	for _, rec := range report.Succeeded {
		sr, ok := rec.(source.SecurityRecord)
		if !ok || sr.Security == nil {
			continue
		}
		existing, err := p.db.GetSecurity(sr.Security.Code)
		if err != nil {
			return err
		}
		if existing == nil {
			fresh = append(fresh, sr.Security)
		}
	}

	p.logResult(JobRefreshSecurities, p.applier.Apply(report.Succeeded))

	if p.producer != nil {
		day := date.Format("2006-01-02")
		for _, sec := range fresh {
			if err := p.producer.PublishPublicOffering(ctx, sec, day); err != nil {
				p.log.WithField("security_code", sec.Code).WithError(err).Warn("failed to publish offering event")
			}
		}
	}
	return nil
}

// IngestClosingQuotes pulls the day's closing quotes, merges them, and
// refreshes the last-quote projection.
func (p *Pipeline) IngestClosingQuotes(ctx context.Context, date time.Time) error {
	adapter, ok := p.adapters[JobIngestClosingQuotes]
	if !ok {
		return nil
	}

	targets, err := p.securityTargets(date)
	if err != nil {
		return err
	}
	report, err := p.orch.Run(ctx, fetch.Job{Name: JobIngestClosingQuotes, Adapter: adapter, Targets: targets})
	if err != nil {
		return err
	}

	p.logResult(JobIngestClosingQuotes, p.applier.Apply(report.Succeeded))

	if p.quotes == nil {
		return nil
	}
	for _, rec := range report.Succeeded {
		qr, ok := rec.(source.QuoteRecord)
		if !ok || qr.Quote == nil {
			continue
		}
		current := &models.CurrentQuote{
			Code:        qr.Quote.SecurityCode,
			Date:        qr.Quote.Date,
			Price:       qr.Quote.Close,
			Change:      qr.Quote.Change,
			ChangeRange: qr.Quote.ChangeRange,
		}
		if err := p.quotes.SetCurrentQuote(ctx, current); err != nil {
			p.log.WithField("security_code", current.Code).WithError(err).Warn("failed to cache quote")
		}
	}
	return nil
}

// NotifyDividendDates publishes ex-dividend and payable-date reminders for
// the given day.
func (p *Pipeline) NotifyDividendDates(ctx context.Context, date time.Time) error {
	if p.producer == nil {
		return nil
	}
	day := date.Format("2006-01-02")

	exDividends, err := p.db.GetDividendsWithExDividendDate(day)
	if err != nil {
		return err
	}
	for _, d := range exDividends {
		if err := p.producer.PublishExDividend(ctx, d, day); err != nil {
			p.log.WithField("security_code", d.SecurityCode).WithError(err).Warn("failed to publish ex-dividend event")
		}
	}

	payable, err := p.db.GetDividendsWithPayableDate(day)
	if err != nil {
		return err
	}
	for _, d := range payable {
		if err := p.producer.PublishDividendPayable(ctx, d, day); err != nil {
			p.log.WithField("security_code", d.SecurityCode).WithError(err).Warn("failed to publish payable event")
		}
	}
	return nil
}

// fetchPerSecurity builds a job that fans the named adapter out over every
// active security and merges whatever comes back.
func (p *Pipeline) fetchPerSecurity(name string) scheduler.JobFunc {
	return func(ctx context.Context, date time.Time) error {
		adapter, ok := p.adapters[name]
		if !ok {
			return nil
		}
		targets, err := p.securityTargets(date)
		if err != nil {
			return err
		}
		report, err := p.orch.Run(ctx, fetch.Job{Name: name, Adapter: adapter, Targets: targets})
		if err != nil {
			return err
		}
		p.logResult(name, p.applier.Apply(report.Succeeded))
		return nil
	}
}

// fetchWholeMarket builds a job with a single market-wide target.
func (p *Pipeline) fetchWholeMarket(name string) scheduler.JobFunc {
	return func(ctx context.Context, date time.Time) error {
		adapter, ok := p.adapters[name]
		if !ok {
			return nil
		}
		report, err := p.orch.Run(ctx, fetch.Job{
			Name:    name,
			Adapter: adapter,
			Targets: []source.Target{{Date: date}},
		})
		if err != nil {
			return err
		}
		p.logResult(name, p.applier.Apply(report.Succeeded))
		return nil
	}
}

func (p *Pipeline) securityTargets(date time.Time) ([]source.Target, error) {
	securities, err := p.db.GetActiveSecurities()
	if err != nil {
		return nil, err
	}
	targets := make([]source.Target, 0, len(securities))
	for _, sec := range securities {
		targets = append(targets, source.Target{
			SecurityCode: sec.Code,
			MarketID:     sec.MarketID,
			Date:         date,
		})
	}
	return targets, nil
}

func (p *Pipeline) logResult(job string, res *merge.Result) {
	p.log.WithFields(logrus.Fields{
		"job":      job,
		"applied":  res.Applied,
		"skipped":  res.Skipped,
		"rejected": res.Rejected,
		"failed":   res.Failed,
	}).Info("merge batch finished")
}
