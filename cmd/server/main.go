package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/groupbuy/procurement-analytics/internal/config"
	"github.com/groupbuy/procurement-analytics/internal/server"
)

const (
	serviceName = "procurement-analytics"
	version     = "1.0.0"
)

func main() {
	var configPath string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("%s %s\n", serviceName, version)
		return
	}

	logger := initLogger()
	defer logger.Sync()

	logger.Info("Starting procurement analytics service",
		zap.String("version", version),
		zap.String("config_path", configPath))

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Environment),
		zap.Int("port", cfg.Server.Port))

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan

		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", zap.Error(err))
			os.Exit(1)
		}
	}()

	if err := srv.Start(); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// initLogger builds a production or development zap logger depending on
// the ENVIRONMENT variable.
func initLogger() *zap.Logger {
	env := os.Getenv("ENVIRONMENT")

	var logger *zap.Logger
	var err error
	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	return logger.With(zap.String("service", serviceName))
}
