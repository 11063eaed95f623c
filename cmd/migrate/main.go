// Package main provides a CLI tool for running database migrations.
package main

import (
	"flag"
	"log"

	"github.com/twmarket/stock-pipeline/internal/config"
	"github.com/twmarket/stock-pipeline/internal/database"
)

func main() {
	var (
		action = flag.String("action", "up", "Migration action: up, down, version")
		path   = flag.String("path", "db/migrations", "Migrations directory")
	)
	flag.Parse()

	cfg := config.Load()
	databaseURL := cfg.Database.ConnectionString()

	switch *action {
	case "up":
		log.Println("Running migrations...")
		if err := database.RunMigrations(databaseURL, *path); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")

	case "down":
		log.Println("Rolling back migration...")
		if err := database.RollbackMigrations(databaseURL, *path); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
		log.Println("Migration rolled back successfully")

	case "version":
		version, dirty, err := database.MigrationVersion(databaseURL, *path)
		if err != nil {
			log.Fatalf("Failed to read version: %v", err)
		}
		log.Printf("Current migration version: %d (dirty: %v)", version, dirty)

	default:
		log.Fatalf("Unknown action: %s", *action)
	}
}
