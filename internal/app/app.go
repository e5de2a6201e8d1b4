package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/videostream/internal/config"
	"github.com/MrSnakeDoc/videostream/internal/domain"
	"github.com/MrSnakeDoc/videostream/internal/httpserver"
	"github.com/MrSnakeDoc/videostream/internal/httpserver/deps"
	"github.com/MrSnakeDoc/videostream/internal/logger"
	"github.com/MrSnakeDoc/videostream/internal/sources/seed"
	redisstore "github.com/MrSnakeDoc/videostream/internal/store/redis"
	"github.com/MrSnakeDoc/videostream/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	repo        domain.Repository
	cacheClient *goredis.Client // nil unless a cache fronts a SQL store
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	ctx := context.Background()

	// Open storage early - fail fast if unavailable
	loggerClient.Info("opening video store", logger.String("driver", cfg.StoreDriver))
	repo, err := openRepository(ctx, cfg, loggerClient)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err)
	}
	loggerClient.Info("video store initialized successfully", logger.String("driver", cfg.StoreDriver))

	var cacheClient *goredis.Client
	if cfg.CacheEnabled() {
		cacheClient, err = newRedisClient(ctx, cfg, loggerClient)
		if err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("failed to set up video cache: %w", err)
		}
		repo = redisstore.NewCachedRepository(repo, cacheClient, cfg.CacheTTL, loggerClient)
		loggerClient.Info("video cache enabled",
			logger.String("addr", cfg.RedisAddr),
			logger.Duration("ttl", cfg.CacheTTL))
	}

	catalog := domain.NewCatalog(repo)

	if cfg.SeedFile != "" {
		if err := seedCatalog(ctx, catalog, cfg.SeedFile, loggerClient); err != nil {
			closeStorage(repo, cacheClient, loggerClient)
			return nil, err
		}
	}

	// Dependencies passed to routes.
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		Catalog:         catalog,
		Repository:      repo,
		StoreDriver:     cfg.StoreDriver,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitPerMin: cfg.RateLimitPerMin,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		repo:        repo,
		cacheClient: cacheClient,
	}, nil
}

func seedCatalog(ctx context.Context, catalog *domain.Catalog, path string, log logger.Logger) error {
	file, err := seed.NewLoader(path).Load()
	if err != nil {
		return fmt.Errorf("failed to load seed file: %w", err)
	}
	n, err := seed.Apply(ctx, catalog, file, log)
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	log.Info("seed file processed",
		logger.String("file", path),
		logger.Int("created", n))
	return nil
}

func closeStorage(repo domain.Repository, cacheClient *goredis.Client, log logger.Logger) {
	if err := repo.Close(); err != nil {
		log.Warnf("failed to close video store: %v", err)
	} else {
		log.Info("✅ Video store closed cleanly")
	}

	if cacheClient != nil {
		if err := cacheClient.Close(); err != nil {
			log.Warnf("failed to close redis cache: %v", err)
		} else {
			log.Info("✅ Redis cache closed cleanly")
		}
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting videostream v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("videostream %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer closeStorage(a.repo, a.cacheClient, a.logger)

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ videostream stopped cleanly")
	return nil
}
