package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/KevinKickass/donp/internal/config"
	"github.com/KevinKickass/donp/internal/storage"
	"github.com/KevinKickass/donp/internal/system"
	"go.uber.org/zap"
)

func main() {
	configPath := "configs/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Config loaded successfully", zap.String("path", configPath))

	var store *storage.PostgresClient
	if cfg.Database.Enabled {
		store, err = storage.NewPostgresClient(context.Background(), cfg.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		logger.Info("Database connected successfully")
	}

	lifecycle, err := system.NewLifecycleManager(cfg, store, logger)
	if err != nil {
		logger.Fatal("Failed to create lifecycle manager", zap.Error(err))
	}

	if err := lifecycle.Start(); err != nil {
		if system.IsConfigurationError(err) {
			logger.Fatal("Protocol definition is invalid", zap.Error(err))
		}
		logger.Fatal("Failed to start system", zap.Error(err))
	}

	// Without the HTTP surface there is nothing to wait for: run once and exit.
	if !cfg.Server.Enabled {
		report, err := lifecycle.RunProtocol(context.Background())
		if err != nil {
			logger.Error("Protocol run failed", zap.Error(err))
		} else {
			logger.Info("Protocol run finished",
				zap.String("run_id", report.RunID.String()),
				zap.Int("attempted", report.Attempted),
				zap.Int("failed", report.Failed))
		}
		shutdown(lifecycle, cfg, logger)
		return
	}

	logger.Info("DONP started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received")
		shutdown(lifecycle, cfg, logger)
	case <-lifecycle.Done():
		logger.Info("DONP stopped via API")
	}
}

func shutdown(lifecycle *system.LifecycleManager, cfg *config.Config, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := lifecycle.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("DONP stopped successfully")
}
