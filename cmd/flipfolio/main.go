package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flipfolio/flipfolio-api-go/internal/config"
	"github.com/flipfolio/flipfolio-api-go/internal/domain"
	"github.com/flipfolio/flipfolio-api-go/internal/handler"
	"github.com/flipfolio/flipfolio-api-go/internal/infra/cache"
	"github.com/flipfolio/flipfolio-api-go/internal/infra/observability"
	"github.com/flipfolio/flipfolio-api-go/internal/infra/resilience"
	"github.com/flipfolio/flipfolio-api-go/internal/infra/supabase"
	"github.com/flipfolio/flipfolio-api-go/internal/port"
	"github.com/flipfolio/flipfolio-api-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("autosave_quiet", cfg.AutosaveQuiet),
		zap.Duration("autosave_idle_ttl", cfg.AutosaveIdleTTL),
		zap.Bool("dev_auth", cfg.DevAuth),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}
	if !cfg.DevAuth && cfg.SupabaseJWTSecret == "" {
		logger.Fatal("SUPABASE_JWT_SECRET is required unless DEV_AUTH=true")
	}

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, "flipfolio-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	var rollupCache port.Cache[*domain.BudgetRollup]
	if cfg.RedisAddr != "" {
		redisClient, err := cache.Dial(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatal("failed to connect to Redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		defer redisClient.Close()
		rollupCache = cache.NewRedis[*domain.BudgetRollup](redisClient, "rollup:", cfg.CacheTTL)
		logger.Info("using Redis rollup cache", zap.String("addr", cfg.RedisAddr))
	} else {
		rollupCache = cache.New[*domain.BudgetRollup](cfg.CacheTTL)
		logger.Info("using in-memory rollup cache")
	}

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")

	// --- Store ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		metrics,
		logger,
	)
	logger.Info("using Supabase as data backend", zap.String("supabase_url", cfg.SupabaseURL))

	// --- Services ---
	budgetSvc := service.NewBudgetService(store, rollupCache, metrics, logger)
	projectSvc := service.NewProjectService(store, budgetSvc, metrics, logger)
	vendorSvc := service.NewVendorService(store, metrics, logger)
	drawSvc := service.NewDrawService(store, metrics, logger)
	autosaver := service.NewAutosaver(store, metrics, logger, cfg.AutosaveQuiet, cfg.AutosaveIdleTTL)
	journalSvc := service.NewJournalService(store, autosaver, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(cfg, store, handler.Services{
		Projects: projectSvc,
		Budget:   budgetSvc,
		Vendors:  vendorSvc,
		Draws:    drawSvc,
		Journal:  journalSvc,
		Autosave: autosaver,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	// Flush any drafts still buffered in autosave sessions before exit.
	autosaver.Shutdown(ctx)

	logger.Info("server stopped")
}
