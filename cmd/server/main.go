// Package main provides the HTTP API server entry point.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/twmarket/stock-pipeline/internal/api"
	"github.com/twmarket/stock-pipeline/internal/cache"
	"github.com/twmarket/stock-pipeline/internal/config"
	"github.com/twmarket/stock-pipeline/internal/database"
	"github.com/twmarket/stock-pipeline/internal/kafka"
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

	quotes, err := cache.NewQuoteCache(cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("quote cache unavailable, serving from store")
		quotes = nil
	}
	if quotes != nil {
		defer quotes.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Corrections arrive over the same merge rule as the PUT endpoint.
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.CorrectionTopic, cfg.Kafka.GroupID, db, log)
	go func() {
		if err := consumer.Start(ctx); err != nil {
			log.WithError(err).Error("correction consumer stopped")
		}
	}()

	handler := api.NewHandler(db, quotes, log)
	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      api.SetupRoutes(handler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("server shutdown failed")
		}
	}()

	log.WithField("addr", srv.Addr).Info("server starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server failed")
	}
	log.Info("server stopped")
}
