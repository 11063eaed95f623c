// Package scheduler fires the pipeline's jobs at fixed local wall-clock
// times. Completion is recorded per (job, business date), so a restarted
// process never re-runs a job that already finished that day.
package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/twmarket/stock-pipeline/internal/config"
	"github.com/twmarket/stock-pipeline/internal/database"
)

// JobFunc is one scheduled unit of work, invoked with the business date
type JobFunc func(ctx context.Context, date time.Time) error

// JobStore records job completion and answers calendar queries.
// *database.DB satisfies it.
type JobStore interface {
	JobCompleted(jobName string, businessDate time.Time) (bool, error)
	RecordJobRun(jobName string, businessDate time.Time, status, detail string) error
	IsHoliday(date time.Time) (bool, error)
}

type job struct {
	name        string
	at          string // "15:04" in the market timezone
	fn          JobFunc
	tradingOnly bool
}

// Scheduler drives registered jobs off a minute ticker in the market
// timezone. Jobs sharing a fire time run sequentially in registration
// order.
type Scheduler struct {
	cfg   config.ScheduleConfig
	tz    *time.Location
	store JobStore
	log   *logrus.Logger
	jobs  []job
}

func New(cfg config.ScheduleConfig, tz *time.Location, store JobStore, log *logrus.Logger) *Scheduler {
	return &Scheduler{cfg: cfg, tz: tz, store: store, log: log}
}

// Register adds a job that fires every calendar day at its configured time.
// Jobs without a configured time are never fired.
func (s *Scheduler) Register(name string, fn JobFunc) {
	s.add(name, fn, false)
}

// RegisterTradingDay adds a job that is skipped on weekends and market
// holidays.
func (s *Scheduler) RegisterTradingDay(name string, fn JobFunc) {
	s.add(name, fn, true)
}

func (s *Scheduler) add(name string, fn JobFunc, tradingOnly bool) {
	at, ok := s.cfg.Jobs[name]
	if !ok {
		s.log.WithField("job", name).Warn("job has no configured fire time")
		return
	}
	s.jobs = append(s.jobs, job{name: name, at: at, fn: fn, tradingOnly: tradingOnly})
}

// Run blocks, firing jobs until ctx is cancelled. Every minute between two
// evaluations is swept exactly once, so a job overrunning its slot delays
// later fire times but never loses them.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.WithField("jobs", len(s.jobs)).Info("scheduler started")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	last := s.sweep(ctx, time.Now().In(s.tz).Add(-time.Minute), time.Now().In(s.tz))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler shutting down")
			return ctx.Err()
		case <-ticker.C:
			last = s.sweep(ctx, last, time.Now().In(s.tz))
		}
	}
}

// sweep evaluates every minute in (last, now]. The ticker drops ticks while
// a job runs; reading the wall clock fresh and walking the gap means a fire
// time inside the gap still fires, just late.
func (s *Scheduler) sweep(ctx context.Context, last, now time.Time) time.Time {
	for m := last.Truncate(time.Minute).Add(time.Minute); !m.After(now); m = m.Add(time.Minute) {
		s.tick(ctx, m)
	}
	return now
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	wallClock := now.Format("15:04")
	for _, j := range s.jobs {
		if j.at != wallClock {
			continue
		}
		s.runJob(ctx, j, now)
	}
}

func (s *Scheduler) runJob(ctx context.Context, j job, now time.Time) {
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	log := s.log.WithFields(logrus.Fields{
		"job":  j.name,
		"date": date.Format("2006-01-02"),
	})

	if j.tradingOnly {
		if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
			log.Debug("skipping job on weekend")
			return
		}
		holiday, err := s.store.IsHoliday(date)
		if err != nil {
			log.WithError(err).Error("failed to check holiday calendar")
			return
		}
		if holiday {
			log.Debug("skipping job on market holiday")
			return
		}
	}

	done, err := s.store.JobCompleted(j.name, date)
	if err != nil {
		log.WithError(err).Error("failed to check job completion")
		return
	}
	if done {
		log.Debug("job already completed")
		return
	}

	log.Info("running job")
	start := time.Now()
	if err := j.fn(ctx, date); err != nil {
		log.WithError(err).Error("job failed")
		if rerr := s.store.RecordJobRun(j.name, date, database.JobStatusFailed, err.Error()); rerr != nil {
			log.WithError(rerr).Error("failed to record job failure")
		}
		return
	}

	log.WithField("elapsed", time.Since(start).String()).Info("job completed")
	if err := s.store.RecordJobRun(j.name, date, database.JobStatusCompleted, ""); err != nil {
		log.WithError(err).Error("failed to record job completion")
	}
}
