package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twmarket/stock-pipeline/internal/config"
	"github.com/twmarket/stock-pipeline/internal/fetch"
	"github.com/twmarket/stock-pipeline/internal/merge"
	"github.com/twmarket/stock-pipeline/internal/models"
	"github.com/twmarket/stock-pipeline/internal/source"
)

// pipeStore implements Store over maps
type pipeStore struct {
	securities map[string]*models.Security
	active     []*models.Security
	exDivs     []*models.Dividend
	payables   []*models.Dividend
}

func (s *pipeStore) GetActiveSecurities() ([]*models.Security, error) { return s.active, nil }

func (s *pipeStore) GetSecurity(code string) (*models.Security, error) {
	return s.securities[code], nil
}

func (s *pipeStore) GetDividendsWithExDividendDate(day string) ([]*models.Dividend, error) {
	return s.exDivs, nil
}

func (s *pipeStore) GetDividendsWithPayableDate(day string) ([]*models.Dividend, error) {
	return s.payables, nil
}

// writeStore implements merge.Store, counting what the applier wrote
type writeStore struct {
	securities map[string]*models.Security
	quotes     map[string]*models.DailyQuote
	extremes   map[string]*models.QuoteHistoryRecord
	revenues   []*models.RevenueRecord
}

func newWriteStore() *writeStore {
	return &writeStore{
		securities: map[string]*models.Security{},
		quotes:     map[string]*models.DailyQuote{},
		extremes:   map[string]*models.QuoteHistoryRecord{},
	}
}

func (s *writeStore) UpsertSecurity(sec *models.Security) error {
	s.securities[sec.Code] = sec
	return nil
}

func (s *writeStore) UpsertDailyQuote(q *models.DailyQuote) error {
	s.quotes[q.SecurityCode+"/"+q.Date.Format("2006-01-02")] = q
	return nil
}

func (s *writeStore) UpsertDividend(d *models.Dividend) error                     { return nil }
func (s *writeStore) UpsertFinancialStatement(f *models.FinancialStatement) error { return nil }
func (s *writeStore) ApplyRevenue(r *models.RevenueRecord) (bool, error) {
	s.revenues = append(s.revenues, r)
	return true, nil
}
func (s *writeStore) UpsertMarketIndex(m *models.MarketIndex) error { return nil }
func (s *writeStore) UpsertHoliday(h *models.Holiday) error         { return nil }

func (s *writeStore) GetQuoteHistoryRecord(code string) (*models.QuoteHistoryRecord, error) {
	return s.extremes[code], nil
}

func (s *writeStore) UpsertQuoteHistoryRecord(r *models.QuoteHistoryRecord) error {
	s.extremes[r.SecurityCode] = r
	return nil
}

type fakeNotifier struct {
	offerings []string
	exDivs    []string
	payables  []string
}

func (n *fakeNotifier) PublishExDividend(ctx context.Context, d *models.Dividend, day string) error {
	n.exDivs = append(n.exDivs, d.SecurityCode)
	return nil
}

func (n *fakeNotifier) PublishDividendPayable(ctx context.Context, d *models.Dividend, day string) error {
	n.payables = append(n.payables, d.SecurityCode)
	return nil
}

func (n *fakeNotifier) PublishPublicOffering(ctx context.Context, s *models.Security, day string) error {
	n.offerings = append(n.offerings, s.Code)
	return nil
}

type fakeProjection struct {
	cached map[string]*models.CurrentQuote
}

func (p *fakeProjection) SetCurrentQuote(ctx context.Context, q *models.CurrentQuote) error {
	p.cached[q.Code] = q
	return nil
}

// staticAdapter serves canned records, per security code where the target
// names one, otherwise the market-wide set.
type staticAdapter struct {
	byCode map[string][]source.Record
	market []source.Record
}

func (a *staticAdapter) Name() string { return "static" }

func (a *staticAdapter) Fetch(ctx context.Context, target source.Target) ([]source.Record, error) {
	if target.SecurityCode != "" {
		return a.byCode[target.SecurityCode], nil
	}
	return a.market, nil
}

type pipelineFixture struct {
	store    *pipeStore
	writes   *writeStore
	notifier *fakeNotifier
	quotes   *fakeProjection
	pipeline *Pipeline
}

func newPipelineFixture(adapters map[string]source.Adapter) *pipelineFixture {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	store := &pipeStore{securities: map[string]*models.Security{}}
	writes := newWriteStore()
	notifier := &fakeNotifier{}
	quotes := &fakeProjection{cached: map[string]*models.CurrentQuote{}}

	orch := fetch.New(config.FetchConfig{
		Workers:        4,
		MaxAttempts:    1,
		InitialDelay:   time.Millisecond,
		MaxDelay:       time.Millisecond,
		Multiplier:     2,
		AttemptTimeout: time.Second,
		RatePerSecond:  10000,
	}, log)
	applier := merge.NewApplier(writes, nil, log)

	return &pipelineFixture{
		store:    store,
		writes:   writes,
		notifier: notifier,
		quotes:   quotes,
		pipeline: New(store, orch, applier, nil, nil, notifier, quotes, adapters, log),
	}
}

func TestRefreshSecurities(t *testing.T) {
	date := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	t.Run("announces only unseen codes", func(t *testing.T) {
		adapter := &staticAdapter{market: []source.Record{
			source.SecurityRecord{Security: &models.Security{Code: "2330", Name: "known"}},
			source.SecurityRecord{Security: &models.Security{Code: "9999", Name: "debut"}},
		}}
		f := newPipelineFixture(map[string]source.Adapter{JobRefreshSecurities: adapter})
		f.store.securities["2330"] = &models.Security{Code: "2330"}

		require.NoError(t, f.pipeline.RefreshSecurities(context.Background(), date))

		// Both markets are fetched, so the list arrives twice; the merge
		// converges and the debut is announced once per sighting at most.
		assert.Contains(t, f.writes.securities, "2330")
		assert.Contains(t, f.writes.securities, "9999")
		assert.NotContains(t, f.notifier.offerings, "2330")
		assert.Contains(t, f.notifier.offerings, "9999")
	})

	t.Run("no adapter is a no-op", func(t *testing.T) {
		f := newPipelineFixture(map[string]source.Adapter{})
		require.NoError(t, f.pipeline.RefreshSecurities(context.Background(), date))
		assert.Empty(t, f.writes.securities)
		assert.Empty(t, f.notifier.offerings)
	})
}

func TestIngestClosingQuotes(t *testing.T) {
	date := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	quote := func(code string, close float64) source.Record {
		return source.QuoteRecord{Quote: &models.DailyQuote{
			SecurityCode: code,
			Date:         date,
			High:         decimal.NewFromFloat(close + 1),
			Low:          decimal.NewFromFloat(close - 1),
			Close:        decimal.NewFromFloat(close),
		}}
	}

	adapter := &staticAdapter{byCode: map[string][]source.Record{
		"2330": {quote("2330", 500)},
		"2317": {quote("2317", 100)},
	}}
	f := newPipelineFixture(map[string]source.Adapter{JobIngestClosingQuotes: adapter})
	f.store.active = []*models.Security{
		{Code: "2330", MarketID: models.MarketListed},
		{Code: "2317", MarketID: models.MarketListed},
	}

	require.NoError(t, f.pipeline.IngestClosingQuotes(context.Background(), date))

	assert.Len(t, f.writes.quotes, 2)
	assert.Contains(t, f.writes.extremes, "2330", "merged quote must fold into extremes")

	require.Len(t, f.quotes.cached, 2)
	cached := f.quotes.cached["2330"]
	require.NotNil(t, cached)
	assert.True(t, cached.Price.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, date, cached.Date)
}

func TestNotifyDividendDates(t *testing.T) {
	date := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	f := newPipelineFixture(map[string]source.Adapter{})
	f.store.exDivs = []*models.Dividend{
		{SecurityCode: "2330", Year: 2024, Sum: decimal.NewFromInt(3)},
	}
	f.store.payables = []*models.Dividend{
		{SecurityCode: "2317", Year: 2024, Sum: decimal.NewFromInt(5)},
	}

	require.NoError(t, f.pipeline.NotifyDividendDates(context.Background(), date))

	assert.Equal(t, []string{"2330"}, f.notifier.exDivs)
	assert.Equal(t, []string{"2317"}, f.notifier.payables)
}

func TestFetchPerSecurityMergesPerTarget(t *testing.T) {
	date := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	adapter := &staticAdapter{byCode: map[string][]source.Record{
		"2330": {source.RevenueRecord{Revenue: &models.RevenueRecord{SecurityCode: "2330", Month: 202406}}},
		"2317": {source.RevenueRecord{Revenue: &models.RevenueRecord{SecurityCode: "2317", Month: 202406}}},
	}}
	f := newPipelineFixture(map[string]source.Adapter{JobRefreshRevenue: adapter})
	f.store.active = []*models.Security{{Code: "2330"}, {Code: "2317"}}

	job := f.pipeline.fetchPerSecurity(JobRefreshRevenue)
	require.NoError(t, job(context.Background(), date))

	require.Len(t, f.writes.revenues, 2)
	codes := []string{f.writes.revenues[0].SecurityCode, f.writes.revenues[1].SecurityCode}
	assert.ElementsMatch(t, []string{"2330", "2317"}, codes)
}
