// Package server assembles the analytics service and owns its lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/groupbuy/procurement-analytics/internal/api"
	"github.com/groupbuy/procurement-analytics/internal/config"
	"github.com/groupbuy/procurement-analytics/internal/database"
	"github.com/groupbuy/procurement-analytics/internal/events"
	"github.com/groupbuy/procurement-analytics/internal/metrics"
	"github.com/groupbuy/procurement-analytics/internal/training"
)

// Server wires the database, training engine, event publisher and HTTP
// layer together.
type Server struct {
	config     *config.Config
	logger     *zap.Logger
	db         *database.Database
	publisher  *events.Publisher
	httpServer *http.Server
}

// NewServer builds a fully wired server from the given configuration.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	repos := database.NewRepositories(db)

	runner := training.NewCLIRunner(cfg.AutoML, logger)
	engine := training.NewEngine(cfg.AutoML, runner, repos.Procurements, logger)

	publisher := events.NewPublisher(cfg.Kafka, logger)

	var collector *metrics.Collector
	if cfg.Monitoring.Enabled {
		collector = metrics.NewCollector()
	}

	handler := api.NewHandler(
		logger,
		repos.Procurements,
		repos.Models,
		repos.Predictions,
		engine,
		publisher,
		collector,
	)
	router := api.SetupRouter(cfg, logger, handler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		config:     cfg,
		logger:     logger,
		db:         db,
		publisher:  publisher,
		httpServer: httpServer,
	}, nil
}

// Start serves HTTP until Shutdown is called. Blocking.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and releases resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	if err := s.publisher.Close(); err != nil {
		s.logger.Error("Failed to close event publisher", zap.Error(err))
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.logger.Info("Server shutdown complete")
	return nil
}
