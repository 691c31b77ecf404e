package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ziyoonee/gochagetcha-sub000/internal/app"
	"github.com/ziyoonee/gochagetcha-sub000/internal/config"
	"github.com/ziyoonee/gochagetcha-sub000/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New(cfg.ServiceName, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("starting gachagetcha api",
		slog.Int("port", cfg.HTTPPort),
		slog.String("catalog_mode", cfg.CatalogMode),
	)

	if err := a.Run(ctx); err != nil {
		log.Error("application exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
