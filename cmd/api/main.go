package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/stillpoint/portal/internal/api/router"
	"github.com/stillpoint/portal/internal/cache"
	appconfig "github.com/stillpoint/portal/internal/config"
	"github.com/stillpoint/portal/internal/http/handlers"
	obs "github.com/stillpoint/portal/internal/observability/metrics"
	"github.com/stillpoint/portal/internal/profiles"
	"github.com/stillpoint/portal/internal/store"
	"github.com/stillpoint/portal/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting portal API server", "env", cfg.Env, "port", cfg.Port)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	behaviorMetrics := obs.NewBehaviorMetrics(nil)

	service, err := profiles.NewService(profiles.Config{
		Source:                   store.New(pool),
		Cache:                    cache.New(redisClient, cfg.ProfileCacheTTL),
		Metrics:                  behaviorMetrics,
		Logger:                   logger,
		WindowDays:               cfg.ProfileWindowDays,
		LateCancelThresholdHours: cfg.LateCancelThresholdHours,
		Workers:                  cfg.ProfileWorkers,
		IndividualServiceIDs:     cfg.IndividualServiceIDs,
	})
	if err != nil {
		logger.Error("failed to build profile service", "error", err)
		os.Exit(1)
	}

	r := router.New(&router.Config{
		Logger:          logger,
		AdminJWTSecret:  cfg.AdminJWTSecret,
		BehaviorHandler: handlers.NewBehaviorHandler(service, logger),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
