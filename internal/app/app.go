package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"digistore/core/bootstrap"
	"digistore/core/telegram/state"
	"digistore/internal/bot"
	"digistore/internal/catalog"
	"digistore/internal/checkout"
	"digistore/internal/orders"
	"digistore/internal/storage"
)

// Build initializes infrastructure for the configured backends and wires the
// services into the Telegram app.
func Build(cfg *Config) (*bot.App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:       &cfg.Core,
		Database:     cfg.Database,
		SkipDatabase: cfg.Store.Backend != StoreBackendPostgres,
	})
	if err != nil {
		return nil, err
	}

	store, err := buildStore(cfg, res)
	if err != nil {
		return nil, err
	}

	sessions, err := buildSessions(cfg)
	if err != nil {
		return nil, err
	}
	ttl := time.Duration(cfg.Checkout.TTLSeconds) * time.Second

	return bot.New(bot.Options{
		Config:   &cfg.Core,
		UPIID:    cfg.Payment.UPIID,
		Catalog:  catalog.NewService(store),
		Orders:   orders.NewEngine(store),
		Checkout: checkout.NewManager(sessions, ttl),
		Store:    store,
	}), nil
}

// buildStore picks the order ledger backend. The Postgres catalog is seeded
// by migrations; the in-process backends seed themselves here.
func buildStore(cfg *Config, res *bootstrap.Result) (storage.Store, error) {
	switch cfg.Store.Backend {
	case StoreBackendPostgres:
		return storage.NewPostgres(res.DB), nil
	case StoreBackendMemory:
		mem := storage.NewMemory()
		mem.SeedProducts(catalog.Seed())
		return mem, nil
	case StoreBackendFile:
		f, err := storage.OpenFile(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open store snapshot: %w", err)
		}
		if err := f.SeedProducts(catalog.Seed()); err != nil {
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}

func buildSessions(cfg *Config) (checkout.SessionStore, error) {
	switch cfg.Checkout.Backend {
	case CheckoutBackendMemory:
		return checkout.NewStateStore(state.NewMemoryManager()), nil
	case CheckoutBackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Checkout.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping %s: %w", cfg.Checkout.RedisAddr, err)
		}
		ttl := time.Duration(cfg.Checkout.TTLSeconds) * time.Second
		return checkout.NewRedisStore(client, ttl), nil
	default:
		return nil, fmt.Errorf("unsupported checkout backend %q", cfg.Checkout.Backend)
	}
}
