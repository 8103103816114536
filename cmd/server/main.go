package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"
	"github.com/riandyrn/otelchi"
	otelchimetric "github.com/riandyrn/otelchi/metric"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/chefdigital/chef/internal/api"
	"github.com/chefdigital/chef/internal/archive"
	"github.com/chefdigital/chef/internal/cache"
	"github.com/chefdigital/chef/internal/config"
	"github.com/chefdigital/chef/internal/db"
	"github.com/chefdigital/chef/internal/logger"
	"github.com/chefdigital/chef/internal/metrics"
	"github.com/chefdigital/chef/internal/middleware"
	"github.com/chefdigital/chef/internal/sentry"
	"github.com/chefdigital/chef/internal/services/gemini"
	"github.com/chefdigital/chef/internal/services/photo"
	"github.com/chefdigital/chef/internal/services/recipe"
	"github.com/chefdigital/chef/internal/session"
	"github.com/chefdigital/chef/internal/telemetry"
	"github.com/chefdigital/chef/internal/utils"
	"github.com/chefdigital/chef/internal/worker"
	"github.com/chefdigital/chef/internal/workflow"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			sentry.CapturePanic(r)
			panic(r)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger with OTel support
	logger := logger.New(cfg.Env)
	slog.SetDefault(logger)

	// Initialize telemetry
	if cfg.OtelExporterOTLPEndpoint != "" {
		shutdown, err := telemetry.InitTelemetry(ctx, cfg.ServiceName, cfg.ServiceVersion, cfg.Env, cfg.OtelExporterOTLPEndpoint, nil)
		if err != nil {
			slog.Warn("Failed to init telemetry", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Initialize Sentry
	if err := sentry.Init(cfg.SentryDSN, cfg.Env, cfg.ServiceName, cfg.ServiceVersion); err != nil {
		slog.Warn("Failed to init Sentry", "error", err)
	} else if cfg.SentryDSN != "" {
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize business metrics
	if err := metrics.Init(); err != nil {
		slog.Warn("Failed to init business metrics", "error", err)
	}

	// Generation providers share one Gemini client
	models := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, nil, gemini.WithBaseURL(cfg.GeminiBaseURL))
	content := recipe.NewGeminiProvider(models, cfg.Generation.TextModel, cfg.Generation.Language)
	images := photo.NewGeminiProvider(models, cfg.Generation.ImageModel, cfg.Generation.AspectRatio)

	sessionOpts := []session.Option{
		session.WithTTL(cfg.Session.TTL),
		session.WithLogger(logger),
	}

	// Recipe archive store
	var store archive.Store
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL, utils.StartupRetryConfig())
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		recipes := db.NewRecipeStore(pool)
		if err := recipes.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to prepare database: %v", err)
		}
		store = recipes
	}

	// Redis backs the snapshot mirror and the archive queue
	var asynqClient *asynq.Client
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to configure Redis: %v", err)
		}
		defer redisClient.Close()
		sessionOpts = append(sessionOpts, session.WithSnapshots(cache.NewSnapshotCache(redisClient)))

		if store != nil {
			asynqClient, err = worker.NewClient(cfg.RedisURL)
			if err != nil {
				log.Fatalf("Failed to configure task queue: %v", err)
			}
			defer asynqClient.Close()
		}
	}

	switch {
	case asynqClient != nil:
		sessionOpts = append(sessionOpts, session.WithArchiver(archive.NewQueued(asynqClient, store)))
		slog.Info("Recipe archive enabled", "mode", "queued")
	case store != nil:
		sessionOpts = append(sessionOpts, session.WithArchiver(archive.NewDirect(store)))
		slog.Info("Recipe archive enabled", "mode", "direct")
	default:
		slog.Info("Recipe archive disabled")
	}

	sessions := session.NewManager(func(opts ...workflow.Option) *workflow.Workflow {
		return workflow.New(content, images, opts...)
	}, sessionOpts...)

	// API handlers
	apiServer := api.NewServer(cfg, sessions)
	tokens := middleware.NewSessions(cfg.SessionSecret, cfg.Session.TTL, cfg.Env == "production")

	// Router
	r := chi.NewRouter()

	// Middleware
	r.Use(otelchi.Middleware(cfg.ServiceName,
		otelchi.WithChiRoutes(r),
		otelchi.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}),
	))

	// HTTP metrics
	metricCfg := otelchimetric.NewBaseConfig(cfg.ServiceName, otelchimetric.WithMeterProvider(otel.GetMeterProvider()))
	r.Use(otelchimetric.NewRequestDurationMillis(metricCfg))
	r.Use(otelchimetric.NewRequestInFlight(metricCfg))
	r.Use(otelchimetric.NewResponseSizeBytes(metricCfg))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(sentry.HTTPMiddleware)

	apiServer.Register(r, tokens)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sessions.Run(gctx, time.Minute)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		apiServer.Wait()
		sessions.Wait()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
