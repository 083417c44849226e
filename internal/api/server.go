package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/openpool/betledger/internal/events"
	"github.com/openpool/betledger/internal/ledger"
	"github.com/openpool/betledger/pkg/cache"
	"github.com/openpool/betledger/pkg/healthprobe"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server exposes the ledger's operation surface and read scans over HTTP.
// Every caller is an untrusted collaborator: requests carry a declared actor
// identity and arguments, and the engine re-validates everything.
type Server struct {
	server        *http.Server
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
}

// Config holds server configuration.
type Config struct {
	Port          string
	Engine        *ledger.Engine
	Cache         cache.Cache
	CacheTTL      time.Duration
	EventHub      *events.Hub
	HealthChecker *healthprobe.HealthChecker
	Logger        *zap.Logger
}

// New creates a new HTTP server.
func New(cfg *Config) *Server {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Operational routes
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", cfg.HealthChecker.Health())
	r.Get("/ready", cfg.HealthChecker.Ready())

	h := newHandler(cfg.Engine, cfg.Cache, cfg.CacheTTL, cfg.Logger)

	// Lifecycle operations
	r.Post("/v1/bets", h.handleCreateBet)
	r.Post("/v1/bets/{address}/stake", h.handleStake)
	r.Post("/v1/bets/{address}/resolve", h.handleResolve)
	r.Post("/v1/bets/{address}/claim", h.handleClaim)
	r.Post("/v1/mint", h.handleMint)

	// Read scans for external aggregators
	r.Get("/v1/bets", h.handleListBets)
	r.Get("/v1/bets/{address}", h.handleGetBet)
	r.Get("/v1/bets/{address}/positions", h.handleBetPositions)
	r.Get("/v1/users/{user}/positions", h.handleUserPositions)
	r.Get("/v1/accounts/{address}", h.handleGetAccount)

	// Lifecycle event stream
	if cfg.EventHub != nil {
		r.Get("/v1/events", cfg.EventHub.HandleWS)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		server:        server,
		logger:        cfg.Logger,
		healthChecker: cfg.HealthChecker,
	}
}

// Start starts the HTTP server.
// This is a blocking call that returns when the server stops or encounters an error.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")

	err := s.server.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("http-server-shutdown-complete")
	return nil
}
