package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/replyforge/email-responder/internal/api"
	"github.com/replyforge/email-responder/internal/client"
	"github.com/replyforge/email-responder/internal/config"
	"github.com/replyforge/email-responder/internal/db"
	"github.com/replyforge/email-responder/internal/generator"
	"github.com/replyforge/email-responder/internal/metrics"
	"github.com/replyforge/email-responder/internal/ratelimiter"
	"github.com/replyforge/email-responder/internal/registry"
	"github.com/replyforge/email-responder/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- run registry (Postgres when configured, in-memory otherwise) ----
	ctx := context.Background()
	var repo registry.RunRepository
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		logger.Info("database migrations applied")

		repo = registry.NewPgRunRepository(pool)
	} else {
		logger.Info("no DATABASE_URL set, using in-memory run registry")
		repo = registry.NewMemoryRunRepository()
	}

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	emailClient := client.NewEmailClient(cfg.EmailsURL, cfg.RespondURL, cfg.APIKey, cfg.RequestTimeout)
	gen := generator.NewSimulated(cfg.GenDelayScale, cfg.GenDelayMin, cfg.GenDelayMax, nil)
	limiter := ratelimiter.New(cfg.DeliveryRateLimit)

	// Context for all background run processing; cancelled on shutdown signal.
	runCtx, cancelRuns := context.WithCancel(ctx)
	defer cancelRuns()

	svc := service.NewRunService(
		runCtx, cfg, emailClient, emailClient, gen, repo, limiter,
		logger, m.ServiceHooks(),
	)

	// ---- HTTP server ----
	router := api.NewRouter(svc, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Signal in-flight runs to stop at their next cooperative point.
	cancelRuns()

	logger.Info("server stopped cleanly")
}
