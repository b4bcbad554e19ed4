package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"lavibaby-storefront/internal/config"
	"lavibaby-storefront/internal/db"
	"lavibaby-storefront/internal/kv"
	orderrepo "lavibaby-storefront/internal/repository/order"
	productrepo "lavibaby-storefront/internal/repository/product"
	userrepo "lavibaby-storefront/internal/repository/user"
	"lavibaby-storefront/internal/seed"
)

// storage is everything the services persist to, picked by STORAGE_BACKEND.
//
//	memory    process memory only, demo catalogue
//	sqlite    KV in a local SQLite file, catalogue/users/orders in memory
//	redis     KV in Redis, catalogue/users/orders in Postgres
//	postgres  everything in Postgres
type storage struct {
	kv       kv.Store
	products productrepo.Repository
	users    userrepo.Repository
	orders   orderrepo.Repository
	ready    func(ctx context.Context) error
	closers  []func()
}

func (s *storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (*storage, error) {
	s := &storage{}
	switch cfg.StorageBackend {
	case config.StorageMemory:
		s.kv = kv.NewMemory()
		s.useMemoryRepos()
	case config.StorageSQLite:
		lite, err := kv.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		s.closers = append(s.closers, func() { _ = lite.Close() })
		s.kv = lite
		s.useMemoryRepos()
	case config.StorageRedis:
		pool, err := s.openPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		client, err := db.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.closers = append(s.closers, func() { _ = client.Close() })
		s.kv = kv.NewRedis(client, "lavibaby:")
		s.ready = pingBoth(pool, client)
	case config.StoragePostgres:
		pool, err := s.openPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		s.kv = kv.NewPostgres(pool)
		s.ready = pool.Ping
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
	return s, nil
}

func (s *storage) useMemoryRepos() {
	s.products = productrepo.NewMemory(seed.Catalog())
	s.users = userrepo.NewMemory()
	s.orders = orderrepo.NewMemory()
}

func (s *storage) openPostgres(ctx context.Context, cfg config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	s.closers = append(s.closers, pool.Close)
	s.products = productrepo.NewPostgres(pool, logger)
	s.users = userrepo.NewPostgres(pool, logger)
	s.orders = orderrepo.NewPostgres(pool, logger)
	return pool, nil
}

func pingBoth(pool *pgxpool.Pool, client *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("db: %w", err)
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	}
}
