package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vncsmyrnk/govledger/internal/adapters/handler/http"
	"github.com/vncsmyrnk/govledger/internal/adapters/metrics"
	"github.com/vncsmyrnk/govledger/internal/adapters/repository"
	"github.com/vncsmyrnk/govledger/internal/config"
	"github.com/vncsmyrnk/govledger/internal/core/services"
	"github.com/vncsmyrnk/govledger/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
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
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, cfg.Store)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	m := metrics.NewMetrics()
	ledgerService := services.NewLedgerService(store, m, logger)
	authService := services.NewAuthService(cfg.Auth.JWTSecret)

	handler := http.NewHandler(
		http.NewDaoHandler(ledgerService),
		http.NewProposalHandler(ledgerService),
		http.RouterConfig{Auth: authService, Metrics: m},
	)
	server := &stdhttp.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr, "store", cfg.Store.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
}
