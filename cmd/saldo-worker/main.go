package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"saldo/internal/amqp"
	"saldo/internal/config"
	"saldo/internal/core"
	applog "saldo/internal/log"
	"saldo/internal/services"
	"saldo/internal/sheets"
	gsheet "saldo/internal/sheets/google"
	mem "saldo/internal/sheets/memory"
	"saldo/internal/storage"
	"saldo/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting saldo-worker")

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

	var report sheets.ReportWriter
	switch cfg.ReportBackend {
	case "sheets":
		cli, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		report = cli
		logger.Info("Google Sheets report backend initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	case "memory":
		report = mem.New()
		logger.Info("In-memory report backend initialized")
	default:
		logger.Info("Report export disabled")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	materializer := services.NewMaterializer(repo)
	ledger := services.NewLedgerService(repo, repo, repo, materializer, nil)
	snapshotWorker := worker.NewSnapshotWorker(ledger, repo, report)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		err := amqpClient.ConsumeLedgerEvents(ctx, func(msg *amqp.LedgerEventMessage) error {
			return snapshotWorker.HandleLedgerEvent(ctx, msg)
		})
		if err != nil && err != context.Canceled {
			logger.Error("Message consumption failed", "error", err)
		}
		cancel()
	}()

	// Periodic refresh of the current period picks up lost messages and
	// newly due recurring entries.
	refreshCurrent := func(now time.Time) {
		startDay, err := repo.GetMonthStartDay(ctx)
		if err != nil {
			logger.Error("Failed to load month start day", "error", err)
			return
		}
		periodKey := core.KeyForDate(now, startDay)
		if err := snapshotWorker.RefreshCurrentPeriod(ctx, periodKey); err != nil {
			logger.Error("Periodic refresh failed", "error", err, "period_key", periodKey)
		}
	}

	refreshCurrent(time.Now())

	ticker := time.NewTicker(cfg.RefreshInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				refreshCurrent(now)
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

	// Give the consumer a moment to finish in-flight deliveries.
	time.Sleep(2 * time.Second)
	logger.Info("Saldo-worker shutdown complete")
}
