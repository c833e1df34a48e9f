package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freightlane/loadboard-backend/api/controllers"
	"github.com/freightlane/loadboard-backend/api/routes"
	"github.com/freightlane/loadboard-backend/internal/bids"
	"github.com/freightlane/loadboard-backend/internal/feeds"
	"github.com/freightlane/loadboard-backend/internal/loads"
	"github.com/freightlane/loadboard-backend/internal/quotas"
	"github.com/freightlane/loadboard-backend/pkg/config"
	"github.com/freightlane/loadboard-backend/pkg/db"
	"github.com/freightlane/loadboard-backend/pkg/env"
	"github.com/freightlane/loadboard-backend/pkg/logger"
	"github.com/freightlane/loadboard-backend/pkg/metrics"
	"github.com/freightlane/loadboard-backend/pkg/migrate"
	"github.com/freightlane/loadboard-backend/pkg/outbox"
	"github.com/freightlane/loadboard-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(registry)

	loadRepo := loads.NewRepository(dbClient.DB())
	bidRepo := bids.NewRepository(dbClient.DB())
	feedRepo := feeds.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	quotaEvaluator, err := quotas.NewEvaluator(quotas.NewRepository(dbClient.DB()), redisClient, cfg.Quota, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create quota evaluator", err)
		os.Exit(1)
	}

	loadService, err := loads.NewService(loadRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create load service", err)
		os.Exit(1)
	}

	bidService, err := bids.NewService(bidRepo, loadRepo, quotaEvaluator, outboxService, dbClient, engineMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create bid service", err)
		os.Exit(1)
	}

	feedService, err := feeds.NewService(feedRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create feed service", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	readiness := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			readiness,
			redisClient,
			loadService,
			bidService,
			feedService,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
