package app

import (
	"context"
	"fmt"

	"github.com/openpool/betledger/internal/api"
	"github.com/openpool/betledger/internal/events"
	"github.com/openpool/betledger/internal/ledger"
	"github.com/openpool/betledger/internal/store"
	"github.com/openpool/betledger/pkg/cache"
	"github.com/openpool/betledger/pkg/config"
	"github.com/openpool/betledger/pkg/healthprobe"
	"go.uber.org/zap"
)

func setupStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ledger.Store, error) {
	if cfg.StorageMode == "postgres" {
		pg, err := store.NewPostgresStore(&store.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}

		err = pg.Migrate(ctx)
		if err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}

		return pg, nil
	}

	logger.Info("using-memory-store")

	return store.NewMemoryStore(logger), nil
}

func setupEventHub(cfg *config.Config, logger *zap.Logger) *events.Hub {
	return events.NewHub(&events.Config{
		BufferSize: cfg.EventBufferSize,
		Logger:     logger,
	})
}

func setupEngine(s ledger.Store, hub *events.Hub, logger *zap.Logger) (*ledger.Engine, error) {
	return ledger.New(&ledger.Config{
		Store:     s,
		Publisher: hub,
		Logger:    logger,
	})
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	engine *ledger.Engine,
	hub *events.Hub,
) (*api.Server, error) {
	betCache, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: int64(cfg.CacheMaxItems) * 10,
		MaxCost:     int64(cfg.CacheMaxItems),
		BufferItems: 64,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	return api.New(&api.Config{
		Port:          cfg.HTTPPort,
		Engine:        engine,
		Cache:         betCache,
		CacheTTL:      cfg.CacheTTL,
		EventHub:      hub,
		HealthChecker: healthChecker,
		Logger:        logger,
	}), nil
}
