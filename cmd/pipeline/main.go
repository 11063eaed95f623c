// Package main provides the scheduled ingestion pipeline entry point.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/twmarket/stock-pipeline/internal/cache"
	"github.com/twmarket/stock-pipeline/internal/config"
	"github.com/twmarket/stock-pipeline/internal/database"
	"github.com/twmarket/stock-pipeline/internal/fetch"
	"github.com/twmarket/stock-pipeline/internal/kafka"
	"github.com/twmarket/stock-pipeline/internal/merge"
	"github.com/twmarket/stock-pipeline/internal/metrics"
	"github.com/twmarket/stock-pipeline/internal/pipeline"
	"github.com/twmarket/stock-pipeline/internal/portfolio"
	"github.com/twmarket/stock-pipeline/internal/scheduler"
	"github.com/twmarket/stock-pipeline/internal/source"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventTopic)
	defer producer.Close()

	quotes, err := cache.NewQuoteCache(cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("quote cache unavailable, projection disabled")
		quotes = nil
	}
	if quotes != nil {
		defer quotes.Close()
	}

	// One lock set across merge and metrics so per-security merge and
	// computation never interleave.
	locks := merge.NewKeyedMutex()
	applier := merge.NewApplier(db, locks, log)
	metricsEngine := metrics.NewEngine(db, cfg.Metrics, locks, log)
	portfolioEngine := portfolio.NewEngine(db, producer, log)
	orch := fetch.New(cfg.Fetch, log)

	// Source adapters are deployment-specific; jobs without one are no-ops.
	adapters := map[string]source.Adapter{}

	var projection pipeline.QuoteProjection
	if quotes != nil {
		projection = quotes
	}
	p := pipeline.New(db, orch, applier, metricsEngine, portfolioEngine,
		producer, projection, adapters, log)

	sched := scheduler.New(cfg.Schedule, cfg.Market.Timezone, db, log)
	p.RegisterJobs(sched)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sched.Run(ctx); err != nil && err != context.Canceled {
		log.WithError(err).Fatal("scheduler failed")
	}
	log.Info("pipeline stopped")
}
