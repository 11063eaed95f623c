package merge

import (
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/twmarket/stock-pipeline/internal/models"
	"github.com/twmarket/stock-pipeline/internal/source"
)

// Store is the slice of the persistence layer the applier writes through.
// *database.DB satisfies it.
type Store interface {
	UpsertSecurity(s *models.Security) error
	UpsertDailyQuote(q *models.DailyQuote) error
	UpsertDividend(d *models.Dividend) error
	UpsertFinancialStatement(fs *models.FinancialStatement) error
	ApplyRevenue(r *models.RevenueRecord) (bool, error)
	UpsertMarketIndex(m *models.MarketIndex) error
	UpsertHoliday(h *models.Holiday) error
	GetQuoteHistoryRecord(code string) (*models.QuoteHistoryRecord, error)
	UpsertQuoteHistoryRecord(r *models.QuoteHistoryRecord) error
}

// Result summarizes one batch. Skipped counts records the policies gated
// out (revenue behind cursor, unchanged extremes), Rejected counts records
// failing validation.
type Result struct {
	Applied  int
	Skipped  int
	Rejected int
	Failed   int
}

// Applier merges normalized records into the store, one record at a time,
// so a bad record never takes down its batch.
type Applier struct {
	store Store
	locks *KeyedMutex
	log   *logrus.Logger
}

// NewApplier wires an applier over store. locks is shared with the metrics
// engine so merges and derived-metric computation for one security never
// interleave; pass nil to use a private lock set.
func NewApplier(store Store, locks *KeyedMutex, log *logrus.Logger) *Applier {
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &Applier{store: store, locks: locks, log: log}
}

// Apply merges a batch of records. Each record is validated, locked by its
// security code, and written through the matching upsert. Failures are
// logged and counted, never propagated, so re-running the same batch is
// always safe.
func (a *Applier) Apply(batch []source.Record) *Result {
	res := &Result{}
	for _, rec := range batch {
		if err := Validate(rec); err != nil {
			a.log.WithFields(logrus.Fields{
				"kind": rec.Kind(),
				"key":  rec.Key(),
			}).WithError(err).Warn("rejecting invalid record")
			res.Rejected++
			continue
		}

		applied, err := a.applyOne(rec)
		switch {
		case err != nil:
			fields := logrus.Fields{"kind": rec.Kind(), "key": rec.Key()}
			if isUniqueViolation(err) {
				// Should be unreachable: every write path is an upsert.
				a.log.WithFields(fields).WithError(err).Error("unexpected conflict on upsert path")
			} else {
				a.log.WithFields(fields).WithError(err).Error("failed to apply record")
			}
			res.Failed++
		case applied:
			res.Applied++
		default:
			res.Skipped++
		}
	}
	return res
}

func (a *Applier) applyOne(rec source.Record) (bool, error) {
	switch r := rec.(type) {
	case source.SecurityRecord:
		return true, a.store.UpsertSecurity(r.Security)
	case source.QuoteRecord:
		return a.applyQuote(r.Quote)
	case source.DividendRecord:
		return true, a.store.UpsertDividend(r.Dividend)
	case source.StatementRecord:
		return true, a.store.UpsertFinancialStatement(r.Statement)
	case source.RevenueRecord:
		return a.store.ApplyRevenue(r.Revenue)
	case source.IndexRecord:
		return true, a.store.UpsertMarketIndex(r.Index)
	case source.HolidayRecord:
		return true, a.store.UpsertHoliday(r.Holiday)
	default:
		return false, &source.ValidationError{Kind: rec.Kind(), Reason: "unknown record kind"}
	}
}

// applyQuote upserts the quote and folds it into the security's all-time
// extremes under the per-security lock.
func (a *Applier) applyQuote(q *models.DailyQuote) (bool, error) {
	a.locks.Lock(q.SecurityCode)
	defer a.locks.Unlock(q.SecurityCode)

	if err := a.store.UpsertDailyQuote(q); err != nil {
		return false, err
	}

	existing, err := a.store.GetQuoteHistoryRecord(q.SecurityCode)
	if err != nil {
		return false, err
	}
	merged, changed := MergeExtremes(existing, q)
	if changed {
		if err := a.store.UpsertQuoteHistoryRecord(merged); err != nil {
			return false, err
		}
	}
	return true, nil
}

// isUniqueViolation reports a Postgres unique_violation (23505)
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
