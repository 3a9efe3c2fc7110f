package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"GlobalPulse/internal/app"
	"GlobalPulse/internal/config"
	"GlobalPulse/internal/infrastructure/storage"
	"GlobalPulse/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	db, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	application := app.New(cfg, logger, db)

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
