// Package portfolio marks members' holdings to market and maintains the
// per-member daily snapshot history.
package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/twmarket/stock-pipeline/internal/models"
)

// Store is the persistence slice the snapshot engine needs. *database.DB
// satisfies it.
type Store interface {
	GetSnapshotHoldings(date time.Time) ([]*models.StockOwnership, error)
	GetLatestQuote(code string, date time.Time, windowDays int) (*models.DailyQuote, error)
	GetPreviousMoneyHistory(memberID int64, date time.Time) (*models.DailyMoneyHistory, error)
	UpsertDailyMoneyHistory(h *models.DailyMoneyHistory) error
}

// Publisher emits snapshot-delta notifications. Nil disables publishing.
type Publisher interface {
	PublishSnapshotDelta(ctx context.Context, memberID int64, date time.Time, marketValue, delta decimal.Decimal) error
}

// quoteWindowDays bounds how far back a holding's price may be; a security
// without a quote in the window contributes only its cost.
const quoteWindowDays = 30

var hundred = decimal.NewFromInt(100)

// ComputeSnapshot builds one member's snapshot for date from their open
// lots and the closing prices in effect. Cost is the signed sum of the
// lots' (negative) costs, so profit and loss is simply market value plus
// cost. Sold lots keep the member in snapshot scope but contribute
// nothing; a fully liquidated member gets a zero-valued closing row. The
// previous_day fields are copied from prev, never recomputed.
func ComputeSnapshot(memberID int64, date time.Time, lots []*models.StockOwnership,
	prices map[string]decimal.Decimal, prev *models.DailyMoneyHistory) *models.DailyMoneyHistory {

	h := &models.DailyMoneyHistory{MemberID: memberID, Date: date}
	for _, lot := range lots {
		if lot.IsSold {
			continue
		}
		h.Cost = h.Cost.Add(lot.Cost)
		price, ok := prices[lot.SecurityCode]
		if !ok {
			continue
		}
		h.MarketValue = h.MarketValue.Add(price.Mul(decimal.NewFromInt(lot.ShareQuantity)))
	}

	h.ProfitAndLoss = h.MarketValue.Add(h.Cost)
	if !h.Cost.IsZero() {
		h.ProfitAndLossPercentage = h.ProfitAndLoss.Div(h.Cost.Abs()).Mul(hundred)
	}

	if prev != nil {
		h.PreviousDayMarketValue = prev.MarketValue
		h.PreviousDayProfitAndLoss = prev.ProfitAndLoss
		h.PreviousDayProfitAndLossPercentage = prev.ProfitAndLossPercentage
	}
	return h
}

// Engine builds the daily snapshots for every member with open holdings.
type Engine struct {
	store     Store
	publisher Publisher
	log       *logrus.Logger
}

func NewEngine(store Store, publisher Publisher, log *logrus.Logger) *Engine {
	return &Engine{store: store, publisher: publisher, log: log}
}

// BuildSnapshots computes and upserts every member's snapshot for date.
// Re-running for the same date overwrites the same rows. One member's
// failure is logged and does not stop the rest; price lookups are shared
// across members.
func (e *Engine) BuildSnapshots(ctx context.Context, date time.Time) error {
	holdings, err := e.store.GetSnapshotHoldings(date)
	if err != nil {
		return fmt.Errorf("failed to load holdings: %w", err)
	}
	if len(holdings) == 0 {
		return nil
	}

	byMember := make(map[int64][]*models.StockOwnership)
	prices := make(map[string]decimal.Decimal)
	for _, lot := range holdings {
		byMember[lot.MemberID] = append(byMember[lot.MemberID], lot)
		if lot.IsSold {
			continue
		}
		if _, seen := prices[lot.SecurityCode]; seen {
			continue
		}
		q, err := e.store.GetLatestQuote(lot.SecurityCode, date, quoteWindowDays)
		if err != nil {
			return fmt.Errorf("failed to price %s: %w", lot.SecurityCode, err)
		}
		if q != nil {
			prices[lot.SecurityCode] = q.Close
		}
	}

	for memberID, lots := range byMember {
		if err := e.buildOne(ctx, memberID, date, lots, prices); err != nil {
			e.log.WithField("member_id", memberID).WithError(err).Error("snapshot failed")
		}
	}
	return nil
}

func (e *Engine) buildOne(ctx context.Context, memberID int64, date time.Time,
	lots []*models.StockOwnership, prices map[string]decimal.Decimal) error {

	prev, err := e.store.GetPreviousMoneyHistory(memberID, date)
	if err != nil {
		return fmt.Errorf("failed to load previous snapshot: %w", err)
	}

	h := ComputeSnapshot(memberID, date, lots, prices, prev)
	if err := e.store.UpsertDailyMoneyHistory(h); err != nil {
		return err
	}

	if e.publisher != nil {
		delta := h.MarketValue.Sub(h.PreviousDayMarketValue)
		if err := e.publisher.PublishSnapshotDelta(ctx, memberID, date, h.MarketValue, delta); err != nil {
			e.log.WithField("member_id", memberID).WithError(err).Warn("failed to publish snapshot delta")
		}
	}
	return nil
}
