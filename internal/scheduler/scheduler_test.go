package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twmarket/stock-pipeline/internal/config"
	"github.com/twmarket/stock-pipeline/internal/database"
)

type runRecord struct {
	job    string
	date   time.Time
	status string
	detail string
}

type fakeJobStore struct {
	completed map[string]bool // job/date
	holidays  map[string]bool // date
	runs      []runRecord
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{
		completed: map[string]bool{},
		holidays:  map[string]bool{},
	}
}

func runKey(job string, date time.Time) string {
	return job + "/" + date.Format("2006-01-02")
}

func (s *fakeJobStore) JobCompleted(jobName string, businessDate time.Time) (bool, error) {
	return s.completed[runKey(jobName, businessDate)], nil
}

func (s *fakeJobStore) RecordJobRun(jobName string, businessDate time.Time, status, detail string) error {
	s.runs = append(s.runs, runRecord{jobName, businessDate, status, detail})
	if status == database.JobStatusCompleted {
		s.completed[runKey(jobName, businessDate)] = true
	}
	return nil
}

func (s *fakeJobStore) IsHoliday(date time.Time) (bool, error) {
	return s.holidays[date.Format("2006-01-02")], nil
}

func testScheduler(store *fakeJobStore, jobs map[string]string) *Scheduler {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return New(config.ScheduleConfig{Jobs: jobs}, time.UTC, store, log)
}

func TestSchedulerTick(t *testing.T) {
	// Tuesday
	fireTime := time.Date(2024, 7, 2, 15, 0, 0, 0, time.UTC)
	businessDate := time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)

	t.Run("fires job at its configured minute", func(t *testing.T) {
		store := newFakeJobStore()
		s := testScheduler(store, map[string]string{"ingest-closing-quotes": "15:00"})

		var calls int
		var gotDate time.Time
		s.Register("ingest-closing-quotes", func(ctx context.Context, date time.Time) error {
			calls++
			gotDate = date
			return nil
		})

		s.tick(context.Background(), fireTime)

		assert.Equal(t, 1, calls)
		assert.Equal(t, businessDate, gotDate)
		require.Len(t, store.runs, 1)
		assert.Equal(t, database.JobStatusCompleted, store.runs[0].status)
	})

	t.Run("non-matching minute does nothing", func(t *testing.T) {
		store := newFakeJobStore()
		s := testScheduler(store, map[string]string{"ingest-closing-quotes": "15:00"})

		var calls int
		s.Register("ingest-closing-quotes", func(ctx context.Context, date time.Time) error {
			calls++
			return nil
		})

		s.tick(context.Background(), fireTime.Add(time.Minute))

		assert.Zero(t, calls)
		assert.Empty(t, store.runs)
	})

	t.Run("completed job is not re-run", func(t *testing.T) {
		store := newFakeJobStore()
		store.completed[runKey("ingest-closing-quotes", businessDate)] = true
		s := testScheduler(store, map[string]string{"ingest-closing-quotes": "15:00"})

		var calls int
		s.Register("ingest-closing-quotes", func(ctx context.Context, date time.Time) error {
			calls++
			return nil
		})

		s.tick(context.Background(), fireTime)

		assert.Zero(t, calls)
	})

	t.Run("repeated evaluation of the same minute runs once", func(t *testing.T) {
		store := newFakeJobStore()
		s := testScheduler(store, map[string]string{"ingest-closing-quotes": "15:00"})

		var calls int
		s.Register("ingest-closing-quotes", func(ctx context.Context, date time.Time) error {
			calls++
			return nil
		})

		s.tick(context.Background(), fireTime)
		s.tick(context.Background(), fireTime)

		assert.Equal(t, 1, calls)
	})

	t.Run("trading-day job skips weekends", func(t *testing.T) {
		store := newFakeJobStore()
		s := testScheduler(store, map[string]string{"ingest-closing-quotes": "15:00"})

		var calls int
		s.RegisterTradingDay("ingest-closing-quotes", func(ctx context.Context, date time.Time) error {
			calls++
			return nil
		})

		// Saturday
		s.tick(context.Background(), time.Date(2024, 7, 6, 15, 0, 0, 0, time.UTC))

		assert.Zero(t, calls)
		assert.Empty(t, store.runs)
	})

	t.Run("trading-day job skips market holidays", func(t *testing.T) {
		store := newFakeJobStore()
		store.holidays["2024-07-02"] = true
		s := testScheduler(store, map[string]string{"ingest-closing-quotes": "15:00"})

		var calls int
		s.RegisterTradingDay("ingest-closing-quotes", func(ctx context.Context, date time.Time) error {
			calls++
			return nil
		})

		s.tick(context.Background(), fireTime)

		assert.Zero(t, calls)
	})

	t.Run("calendar job fires on weekends", func(t *testing.T) {
		store := newFakeJobStore()
		s := testScheduler(store, map[string]string{"refresh-security-list": "08:00"})

		var calls int
		s.Register("refresh-security-list", func(ctx context.Context, date time.Time) error {
			calls++
			return nil
		})

		// Saturday
		s.tick(context.Background(), time.Date(2024, 7, 6, 8, 0, 0, 0, time.UTC))

		assert.Equal(t, 1, calls)
	})

	t.Run("failed run is recorded and retried on the next tick", func(t *testing.T) {
		store := newFakeJobStore()
		s := testScheduler(store, map[string]string{"ingest-closing-quotes": "15:00"})

		var calls int
		s.Register("ingest-closing-quotes", func(ctx context.Context, date time.Time) error {
			calls++
			if calls == 1 {
				return errors.New("upstream unavailable")
			}
			return nil
		})

		s.tick(context.Background(), fireTime)
		s.tick(context.Background(), fireTime)

		assert.Equal(t, 2, calls)
		require.Len(t, store.runs, 2)
		assert.Equal(t, database.JobStatusFailed, store.runs[0].status)
		assert.Equal(t, "upstream unavailable", store.runs[0].detail)
		assert.Equal(t, database.JobStatusCompleted, store.runs[1].status)
	})

	t.Run("unconfigured job is never registered", func(t *testing.T) {
		store := newFakeJobStore()
		s := testScheduler(store, map[string]string{})

		s.Register("ingest-closing-quotes", func(ctx context.Context, date time.Time) error {
			t.Fatal("job without a fire time must not run")
			return nil
		})

		s.tick(context.Background(), fireTime)
		assert.Empty(t, s.jobs)
	})

	t.Run("sweep fires jobs whose minute passed while another job ran", func(t *testing.T) {
		store := newFakeJobStore()
		s := testScheduler(store, map[string]string{
			"ingest-closing-quotes": "15:00",
			"compute-daily-metrics": "15:30",
		})

		var order []string
		s.Register("ingest-closing-quotes", func(ctx context.Context, date time.Time) error {
			order = append(order, "quotes")
			return nil
		})
		s.Register("compute-daily-metrics", func(ctx context.Context, date time.Time) error {
			order = append(order, "metrics")
			return nil
		})

		// The 15:00 evaluation blocks until 15:41; the next wall-clock read
		// lands there and the sweep must still cover 15:30.
		last := s.sweep(context.Background(), fireTime.Add(-time.Minute), fireTime)
		s.sweep(context.Background(), last, time.Date(2024, 7, 2, 15, 41, 0, 0, time.UTC))

		assert.Equal(t, []string{"quotes", "metrics"}, order)
		require.Len(t, store.runs, 2)
		assert.Equal(t, businessDate, store.runs[1].date)
	})

	t.Run("sweep never re-evaluates a covered minute", func(t *testing.T) {
		store := newFakeJobStore()
		s := testScheduler(store, map[string]string{"ingest-closing-quotes": "15:00"})

		var calls int
		s.Register("ingest-closing-quotes", func(ctx context.Context, date time.Time) error {
			calls++
			return nil
		})

		last := s.sweep(context.Background(), fireTime.Add(-time.Minute), fireTime.Add(30*time.Second))
		store.completed = map[string]bool{} // forget completion to expose a double sweep
		s.sweep(context.Background(), last, fireTime.Add(time.Minute))

		assert.Equal(t, 1, calls)
	})

	t.Run("jobs sharing a fire time run in registration order", func(t *testing.T) {
		store := newFakeJobStore()
		s := testScheduler(store, map[string]string{
			"compute-daily-metrics": "16:00",
			"compute-estimates":     "16:00",
		})

		var order []string
		s.Register("compute-daily-metrics", func(ctx context.Context, date time.Time) error {
			order = append(order, "metrics")
			return nil
		})
		s.Register("compute-estimates", func(ctx context.Context, date time.Time) error {
			order = append(order, "estimates")
			return nil
		})

		s.tick(context.Background(), time.Date(2024, 7, 2, 16, 0, 0, 0, time.UTC))

		assert.Equal(t, []string{"metrics", "estimates"}, order)
	})
}
