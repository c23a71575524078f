package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"saldo/internal/config"
	applog "saldo/internal/log"
	"saldo/internal/services"
	"saldo/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	materializer := services.NewMaterializer(repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Recurring materializer configured",
		"interval", cfg.MaterializeInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	materialize := func(now time.Time) {
		startDay, err := repo.GetMonthStartDay(ctx)
		if err != nil {
			logger.Error("Failed to load month start day", "error", err)
			return
		}
		count, err := materializer.EnsureMaterialized(ctx, now, startDay)
		if err != nil {
			logger.Error("Materialization failed", "error", err)
			return
		}
		logger.Info("Materialization complete",
			"entries_created", count,
			"next_check", now.Add(cfg.MaterializeInterval).Format("15:04:05"))
	}

	// Run once on startup so a freshly started period is never left empty.
	materialize(time.Now())

	ticker := time.NewTicker(cfg.MaterializeInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				materialize(now)
			}
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	logger.Info("Recurring-worker shutdown complete")
}
