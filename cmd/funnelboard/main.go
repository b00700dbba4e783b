package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moreirajr/funnelboard-go/internal/config"
	"github.com/moreirajr/funnelboard-go/internal/domain"
	"github.com/moreirajr/funnelboard-go/internal/handler"
	"github.com/moreirajr/funnelboard-go/internal/infra/cache"
	"github.com/moreirajr/funnelboard-go/internal/infra/observability"
	"github.com/moreirajr/funnelboard-go/internal/infra/resilience"
	"github.com/moreirajr/funnelboard-go/internal/infra/supabase"
	"github.com/moreirajr/funnelboard-go/internal/service"

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
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Duration("jwt_refresh_ttl", cfg.JWTRefreshTTL),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "funnelboard")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches ---
	summaryCache := cache.New[*domain.DashboardSummary](cfg.CacheTTL)
	refreshTokens := cache.New[time.Time](cfg.JWTRefreshTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	supabaseClient := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		logger,
	)

	// --- Services ---
	dashboardSvc := service.NewDashboardService(
		supabaseClient,
		supabaseClient,
		supabaseClient,
		summaryCache,
		metrics,
		logger,
	)
	investmentsSvc := service.NewInvestmentsService(supabaseClient, logger)
	settingsSvc := service.NewSettingsService(supabaseClient, logger)

	var authSvc *service.AuthService
	if cfg.OperatorPasswordHash != "" {
		authSvc = service.NewAuthService(
			cfg.OperatorPasswordHash,
			cfg.JWTSecret,
			cfg.JWTAccessTTL,
			cfg.JWTRefreshTTL,
			refreshTokens,
			logger,
		)
		logger.Info("auth service enabled")
	} else {
		logger.Warn("auth service: OPERATOR_PASSWORD_HASH not set, auth routes unavailable and writes are open")
	}

	// --- Router ---
	router := handler.NewRouter(dashboardSvc, investmentsSvc, settingsSvc, authSvc, metrics, logger)

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
