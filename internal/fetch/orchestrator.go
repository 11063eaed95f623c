// Package fetch drives bounded-parallelism fan-out over securities and
// sources. It never writes to the store: fetching and merging are separate
// stages so a partial fetch cannot leave half-merged state behind.
package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/twmarket/stock-pipeline/internal/config"
	"github.com/twmarket/stock-pipeline/internal/source"
)

// Job is one fan-out: a single adapter applied to a set of targets
type Job struct {
	Name    string
	Adapter source.Adapter
	Targets []source.Target
}

// Failure records one target that exhausted its retries
type Failure struct {
	Target   source.Target
	Attempts int
	Err      error
}

// Report partitions a job's outcome. A failed item never aborts siblings;
// the caller decides what to do with the failures.
type Report struct {
	Succeeded []source.Record
	Failed    []Failure
}

// Orchestrator fans fetches out over a worker pool with per-item retry and
// a shared per-source rate limit.
type Orchestrator struct {
	cfg     config.FetchConfig
	limiter *rate.Limiter
	log     *logrus.Logger
}

// New creates an orchestrator from the fetch configuration
func New(cfg config.FetchConfig, log *logrus.Logger) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Orchestrator{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		log:     log,
	}
}

// Run fetches every target in the job and returns the partitioned result.
// The only returned error is context cancellation; per-item failures are in
// the report.
func (o *Orchestrator) Run(ctx context.Context, job Job) (*Report, error) {
	report := &Report{}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)

	for _, target := range job.Targets {
		target := target
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			records, attempts, err := o.fetchOne(ctx, job.Adapter, target)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				o.log.WithFields(logrus.Fields{
					"job":      job.Name,
					"source":   job.Adapter.Name(),
					"security": target.SecurityCode,
					"attempts": attempts,
				}).WithError(err).Warn("target abandoned after retries")
				report.Failed = append(report.Failed, Failure{
					Target:   target,
					Attempts: attempts,
					Err:      err,
				})
				return nil
			}
			report.Succeeded = append(report.Succeeded, records...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, nil
}

// fetchOne runs the retry loop for a single target
func (o *Orchestrator) fetchOne(ctx context.Context, adapter source.Adapter, target source.Target) ([]source.Record, int, error) {
	var lastErr error

	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, attempt, err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, o.cfg.AttemptTimeout)
		records, err := adapter.Fetch(attemptCtx, target)
		cancel()

		if err == nil {
			return records, attempt, nil
		}
		lastErr = &source.FetchError{Source: adapter.Name(), Target: target, Err: err}

		if attempt == o.cfg.MaxAttempts || ctx.Err() != nil {
			break
		}

		delay := backoffDelay(o.cfg.InitialDelay, o.cfg.MaxDelay, o.cfg.Multiplier, attempt)
		o.log.WithFields(logrus.Fields{
			"source":   adapter.Name(),
			"security": target.SecurityCode,
			"attempt":  attempt,
			"delay":    delay,
		}).Debug("fetch failed, backing off")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, attempt, ctx.Err()
		}
	}

	return nil, o.cfg.MaxAttempts, lastErr
}
