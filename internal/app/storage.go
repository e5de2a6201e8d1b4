package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/videostream/internal/config"
	"github.com/MrSnakeDoc/videostream/internal/connect"
	"github.com/MrSnakeDoc/videostream/internal/domain"
	"github.com/MrSnakeDoc/videostream/internal/logger"
	"github.com/MrSnakeDoc/videostream/internal/store/memory"
	"github.com/MrSnakeDoc/videostream/internal/store/mysql"
	"github.com/MrSnakeDoc/videostream/internal/store/postgres"
	redisstore "github.com/MrSnakeDoc/videostream/internal/store/redis"
	"github.com/MrSnakeDoc/videostream/internal/store/sqlite"
)

func connectOptions(cfg *config.Config) connect.Options {
	return connect.Options{
		Timeout:       cfg.ConnectTimeout,
		RetryInterval: cfg.RetryInterval,
		MaxWait:       cfg.MaxWait,
		PingTimeout:   cfg.PingTimeout,
		WarnThreshold: cfg.WarnThreshold,
	}
}

// newRedisClient creates a client and blocks until Redis answers PING.
func newRedisClient(ctx context.Context, cfg *config.Config, log logger.Logger) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUser,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
	})

	ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	if err := connect.WaitFor(ctx, "redis "+cfg.RedisAddr, ping, connectOptions(cfg), log); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// openRepository builds the persistence provider selected by cfg.StoreDriver.
// The returned repository owns its connections.
func openRepository(ctx context.Context, cfg *config.Config, log logger.Logger) (domain.Repository, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Warn("using in-memory store, videos are lost on restart")
		return memory.New(), nil

	case config.DriverRedis:
		client, err := newRedisClient(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return redisstore.NewStore(client), nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		if err := connect.WaitFor(ctx, "postgres", pool.Ping, connectOptions(cfg), log); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		store, err := postgres.New(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil

	case config.DriverMySQL:
		db, err := mysql.OpenDB(cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := connect.WaitFor(ctx, "mysql", db.PingContext, connectOptions(cfg), log); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to connect to mysql: %w", err)
		}
		store, err := mysql.New(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return store, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
