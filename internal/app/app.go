package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/openpool/betledger/internal/api"
	"github.com/openpool/betledger/internal/events"
	"github.com/openpool/betledger/internal/ledger"
	"github.com/openpool/betledger/pkg/config"
	"github.com/openpool/betledger/pkg/healthprobe"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *api.Server
	eventHub      *events.Hub
	engine        *ledger.Engine
	store         ledger.Store
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	store, err := setupStore(ctx, cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup store: %w", err)
	}

	eventHub := setupEventHub(cfg, logger)

	engine, err := setupEngine(store, eventHub, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup engine: %w", err)
	}

	httpServer, err := setupHTTPServer(cfg, logger, healthChecker, engine, eventHub)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup http server: %w", err)
	}

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		eventHub:      eventHub,
		engine:        engine,
		store:         store,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Engine exposes the lifecycle engine, used by the admin CLI commands.
func (a *App) Engine() *ledger.Engine {
	return a.engine
}
