// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vqtrack/vqtrack/internal/config"
	"github.com/vqtrack/vqtrack/internal/logging"
	"github.com/vqtrack/vqtrack/internal/persistence/postgres"
	"github.com/vqtrack/vqtrack/internal/repository"
	"github.com/vqtrack/vqtrack/internal/worker"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	logger := logging.NewLogger(cfg.Env)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if err := postgres.SchemaReady(ctx, pool); err != nil {
		log.Fatalf("schema not ready: %v", err)
	}

	w := worker.New(worker.Deps{
		Records:         repository.NewRecordRepository(pool, logger),
		Workspaces:      repository.NewWorkspaceRepository(pool, logger),
		Logger:          logger,
		RefreshInterval: cfg.StatsRefreshInterval,
		WebhookURL:      cfg.SummaryWebhookURL,
		WebhookSecret:   cfg.SummaryWebhookSecret,
	})

	logger.Info("worker started", "refresh_interval", cfg.StatsRefreshInterval)
	w.Run(ctx)
	logger.Info("worker stopped")
}
