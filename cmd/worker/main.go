package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/chefdigital/chef/internal/config"
	"github.com/chefdigital/chef/internal/db"
	"github.com/chefdigital/chef/internal/logger"
	"github.com/chefdigital/chef/internal/metrics"
	"github.com/chefdigital/chef/internal/sentry"
	"github.com/chefdigital/chef/internal/telemetry"
	"github.com/chefdigital/chef/internal/utils"
	"github.com/chefdigital/chef/internal/worker"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			sentry.CapturePanic(r)
			panic(r)
		}
	}()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.RedisURL == "" || cfg.DatabaseURL == "" {
		log.Fatal("REDIS_URL and DATABASE_URL must be set to run the worker")
	}

	// Initialize logger with OTel support
	logger := logger.New(cfg.Env)
	slog.SetDefault(logger)

	// Initialize telemetry
	if cfg.OtelExporterOTLPEndpoint != "" {
		shutdown, err := telemetry.InitTelemetry(ctx, cfg.ServiceName+"-worker", cfg.ServiceVersion, cfg.Env, cfg.OtelExporterOTLPEndpoint, nil)
		if err != nil {
			slog.Warn("Failed to init telemetry", "error", err)
		} else {
			defer shutdown(ctx)
		}
	}

	// Initialize Sentry
	if err := sentry.Init(cfg.SentryDSN, cfg.Env, cfg.ServiceName+"-worker", cfg.ServiceVersion); err != nil {
		slog.Warn("Failed to init Sentry", "error", err)
	} else if cfg.SentryDSN != "" {
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize business metrics
	if err := metrics.Init(); err != nil {
		slog.Warn("Failed to init business metrics", "error", err)
	}

	// Database connection
	pool, err := db.Connect(ctx, cfg.DatabaseURL, utils.StartupRetryConfig())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	store := db.NewRecipeStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to prepare database: %v", err)
	}

	workerMetrics, err := worker.NewWorkerMetrics()
	if err != nil {
		slog.Warn("Failed to init worker metrics", "error", err)
	}

	processor := worker.NewArchiveProcessor(store, workerMetrics)

	// Asynq server
	srv, err := worker.NewServer(cfg.RedisURL, 4)
	if err != nil {
		log.Fatalf("Failed to configure worker: %v", err)
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutting down worker...")
		srv.Shutdown()
	}()

	slog.Info("Starting worker")

	if err := srv.Run(worker.NewMux(processor.Handlers())); err != nil {
		log.Fatalf("Worker failed: %v", err)
	}
}
