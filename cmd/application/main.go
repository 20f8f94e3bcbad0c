package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"gocatalog_api/config"
	"gocatalog_api/internal/catalog/app"
	"gocatalog_api/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config")
	envFile := flag.String("env", ".env", "optional .env file with POSTGRES_* settings")
	flag.Parse()

	config.LoadEnv(*envFile)
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLog, err := logger.NewLogger(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLog.Sync()

	zapLog.Info("started app",
		zap.String("env", cfg.Log.Env),
		zap.Int("connections", len(cfg.Connections)),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("progress", cfg.Progress.Backend))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := app.NewCatalogServer(cfg, zapLog)
	if err := server.Run(ctx); err != nil {
		zapLog.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
	zapLog.Info("server stopped")
}
