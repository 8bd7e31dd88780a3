// Package repository selects the ledger store backing a binary.
package repository

import (
	"context"
	"fmt"

	"github.com/vncsmyrnk/govledger/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/govledger/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/govledger/internal/adapters/repository/redis"
	"github.com/vncsmyrnk/govledger/internal/config"
	"github.com/vncsmyrnk/govledger/internal/core/ports"
)

func Open(ctx context.Context, cfg config.StoreConfig) (ports.LedgerStore, error) {
	switch cfg.Driver {
	case config.StoreMemory:
		return memory.NewStore(), nil
	case config.StorePostgres:
		store, err := postgres.Open(ctx, cfg.Postgres.ConnString())
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return store, nil
	case config.StoreRedis:
		store, err := redis.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redis.Options{
			Prefix:     cfg.Redis.Prefix,
			MaxRetries: cfg.Redis.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open redis store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
