package fetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twmarket/stock-pipeline/internal/config"
	"github.com/twmarket/stock-pipeline/internal/models"
	"github.com/twmarket/stock-pipeline/internal/source"
)

// flakyAdapter fails each target a configured number of times before
// succeeding, counting attempts per security code.
type flakyAdapter struct {
	mu         sync.Mutex
	failuresBy map[string]int // remaining failures per code
	attempts   map[string]int
}

func newFlakyAdapter(failures map[string]int) *flakyAdapter {
	if failures == nil {
		failures = map[string]int{}
	}
	return &flakyAdapter{failuresBy: failures, attempts: map[string]int{}}
}

func (a *flakyAdapter) Name() string { return "flaky" }

func (a *flakyAdapter) Fetch(ctx context.Context, target source.Target) ([]source.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attempts[target.SecurityCode]++
	if a.failuresBy[target.SecurityCode] > 0 {
		a.failuresBy[target.SecurityCode]--
		return nil, errors.New("upstream unavailable")
	}
	return []source.Record{source.QuoteRecord{Quote: &models.DailyQuote{
		SecurityCode: target.SecurityCode,
		Date:         target.Date,
		Close:        decimal.NewFromInt(100),
	}}}, nil
}

func (a *flakyAdapter) attemptCount(code string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attempts[code]
}

func testOrchestrator(maxAttempts int) *Orchestrator {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return New(config.FetchConfig{
		Workers:        4,
		MaxAttempts:    maxAttempts,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		Multiplier:     2,
		AttemptTimeout: time.Second,
		RatePerSecond:  10000,
	}, log)
}

func targets(codes ...string) []source.Target {
	date := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	out := make([]source.Target, 0, len(codes))
	for _, c := range codes {
		out = append(out, source.Target{SecurityCode: c, Date: date})
	}
	return out
}

func TestOrchestratorRun(t *testing.T) {
	t.Run("all targets succeed first try", func(t *testing.T) {
		adapter := newFlakyAdapter(nil)
		o := testOrchestrator(3)

		report, err := o.Run(context.Background(), Job{
			Name:    "ingest-closing-quotes",
			Adapter: adapter,
			Targets: targets("2330", "2317", "2454"),
		})

		require.NoError(t, err)
		assert.Len(t, report.Succeeded, 3)
		assert.Empty(t, report.Failed)
		assert.Equal(t, 1, adapter.attemptCount("2330"))
	})

	t.Run("transient failure retried to success", func(t *testing.T) {
		adapter := newFlakyAdapter(map[string]int{"2330": 2})
		o := testOrchestrator(3)

		report, err := o.Run(context.Background(), Job{
			Name:    "ingest-closing-quotes",
			Adapter: adapter,
			Targets: targets("2330"),
		})

		require.NoError(t, err)
		require.Len(t, report.Succeeded, 1)
		assert.Empty(t, report.Failed)
		assert.Equal(t, 3, adapter.attemptCount("2330"))
	})

	t.Run("exhausted retries land in the failure partition", func(t *testing.T) {
		adapter := newFlakyAdapter(map[string]int{"2330": 10})
		o := testOrchestrator(3)

		report, err := o.Run(context.Background(), Job{
			Name:    "ingest-closing-quotes",
			Adapter: adapter,
			Targets: targets("2330"),
		})

		require.NoError(t, err)
		assert.Empty(t, report.Succeeded)
		require.Len(t, report.Failed, 1)
		f := report.Failed[0]
		assert.Equal(t, "2330", f.Target.SecurityCode)
		assert.Equal(t, 3, f.Attempts)

		var fetchErr *source.FetchError
		require.ErrorAs(t, f.Err, &fetchErr)
		assert.Equal(t, "flaky", fetchErr.Source)
	})

	t.Run("one bad target does not abort its siblings", func(t *testing.T) {
		adapter := newFlakyAdapter(map[string]int{"2317": 10})
		o := testOrchestrator(2)

		report, err := o.Run(context.Background(), Job{
			Name:    "ingest-closing-quotes",
			Adapter: adapter,
			Targets: targets("2330", "2317", "2454", "2412"),
		})

		require.NoError(t, err)
		assert.Len(t, report.Succeeded, 3)
		require.Len(t, report.Failed, 1)
		assert.Equal(t, "2317", report.Failed[0].Target.SecurityCode)
	})

	t.Run("fan-out covers every target once", func(t *testing.T) {
		codes := []string{"1101", "1216", "1301", "1303", "2002", "2303", "2308", "2317", "2330", "2454"}
		adapter := newFlakyAdapter(nil)
		o := testOrchestrator(3)

		report, err := o.Run(context.Background(), Job{
			Name:    "ingest-closing-quotes",
			Adapter: adapter,
			Targets: targets(codes...),
		})

		require.NoError(t, err)
		assert.Len(t, report.Succeeded, len(codes))
		for _, c := range codes {
			assert.Equal(t, 1, adapter.attemptCount(c), "code %s", c)
		}
	})

	t.Run("cancelled context stops the run", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		adapter := newFlakyAdapter(nil)
		o := testOrchestrator(3)

		_, err := o.Run(ctx, Job{
			Name:    "ingest-closing-quotes",
			Adapter: adapter,
			Targets: targets("2330"),
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
