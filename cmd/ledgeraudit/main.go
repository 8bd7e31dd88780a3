package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/vncsmyrnk/govledger/internal/adapters/repository"
	"github.com/vncsmyrnk/govledger/internal/config"
	"github.com/vncsmyrnk/govledger/internal/core/services"
	"github.com/vncsmyrnk/govledger/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	timeout := flag.Duration("timeout", 5*time.Minute, "Maximum duration of the audit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	// Use a timeout for the job execution to prevent it from hanging indefinitely
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := repository.Open(ctx, cfg.Store)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	auditService := services.NewAuditService(store)

	logger.Info("Starting ledger audit...", "store", cfg.Store.Driver)

	discrepancies, err := auditService.AuditAll(ctx)
	if err != nil {
		logger.Error("audit failed", "error", err)
		os.Exit(1)
	}

	for _, d := range discrepancies {
		logger.Warn("discrepancy",
			"kind", d.Kind, "dao", d.Dao, "account", d.Account, "stored", d.Stored, "expected", d.Expected)
	}
	if len(discrepancies) > 0 {
		logger.Error("ledger audit found discrepancies", "count", len(discrepancies))
		os.Exit(2)
	}

	logger.Info("Ledger audit completed successfully.")
}
