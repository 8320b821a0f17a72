package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/financeiro-leve/ledger-go/internal/backup"
	"github.com/financeiro-leve/ledger-go/internal/config"
	"github.com/financeiro-leve/ledger-go/internal/domain"
	"github.com/financeiro-leve/ledger-go/internal/entitlement"
	"github.com/financeiro-leve/ledger-go/internal/handler"
	"github.com/financeiro-leve/ledger-go/internal/infra/cache"
	"github.com/financeiro-leve/ledger-go/internal/infra/client"
	"github.com/financeiro-leve/ledger-go/internal/infra/filestore"
	"github.com/financeiro-leve/ledger-go/internal/infra/notify"
	"github.com/financeiro-leve/ledger-go/internal/infra/observability"
	"github.com/financeiro-leve/ledger-go/internal/infra/resilience"
	"github.com/financeiro-leve/ledger-go/internal/infra/supabase"
	"github.com/financeiro-leve/ledger-go/internal/ledger"
	"github.com/financeiro-leve/ledger-go/internal/port"
	"github.com/financeiro-leve/ledger-go/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = godotenv.Load()

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_supabase", cfg.UseSupabase),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "fl-ledger")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	configCache := cache.New[*domain.UserConfig](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("external-apis")
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var storage port.Storage
	if cfg.UseSupabase && cfg.SupabaseURL != "" {
		logger.Info("using Supabase as storage backend",
			zap.String("supabase_url", cfg.SupabaseURL),
		)
		storage = supabase.NewStore(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			cb,
			resilienceCfg,
			logger,
		)
	} else {
		logger.Info("using local file storage backend", zap.String("data_dir", cfg.DataDir))
		fs, err := filestore.NewStore(cfg.DataDir, logger)
		if err != nil {
			logger.Fatal("failed to init file store", zap.Error(err))
		}
		storage = fs
	}

	syncer := client.NewSyncClient(httpClient, cfg.SyncAPIURL, cb, resilienceCfg, bulkhead)

	var notifier port.OperatorNotifier
	if cfg.NotifyWebhookURL != "" {
		notifier = notify.NewWebhookNotifier(httpClient, cfg.NotifyWebhookURL, cb, resilienceCfg, logger)
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	// --- Services ---
	store := ledger.NewStore()
	gate := entitlement.NewGate()
	codec := backup.NewCodec(cfg.EncryptionKey)

	finSvc := service.NewFinanceService(
		store,
		gate,
		codec,
		storage,
		syncer,
		notifier,
		configCache,
		metrics,
		logger,
	)

	hydrateCtx, cancelHydrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := finSvc.Hydrate(hydrateCtx); err != nil {
		logger.Fatal("failed to hydrate ledger from storage", zap.Error(err))
	}
	cancelHydrate()

	authSvc := service.NewAuthService(storage, syncer, cfg.JWTSecret, cfg.JWTAccessTTL, logger)

	// --- Router ---
	router := handler.NewRouter(finSvc, authSvc, metrics, logger)

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

	logger.Info("server stopped")
}
