package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource"
	_ "github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource/mysql"
	_ "github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource/postgres"
	_ "github.com/sqlscope-inc/sqlscope-engine/pkg/adapters/datasource/sqlserver"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/config"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/handlers"
	"github.com/sqlscope-inc/sqlscope-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("engine", cfg.Engine.Engine),
		zap.String("host", cfg.Engine.Host),
		zap.Int("port", cfg.Engine.Port),
		zap.String("database", cfg.Engine.Database))

	adapter, err := datasource.NewAdapterFactory().NewAdapter(&cfg.Engine, logger)
	if err != nil {
		logger.Fatal("Failed to create adapter", zap.Error(err))
	}

	manager := services.NewManager(adapter, services.ManagerOptions{
		CacheTTL:           cfg.Query.CacheTTL,
		CacheSize:          cfg.Query.CacheSize,
		SlowQueryThreshold: cfg.Query.SlowQueryThreshold,
		QueryTimeout:       cfg.Query.Timeout,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := manager.Initialize(ctx); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(manager, logger).RegisterRoutes(mux)
	handlers.NewSchemaHandler(manager, logger).RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: handlers.RequestLogger(logger, mux),
	}

	go func() {
		logger.Info("Starting sqlscope-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	if err := manager.Shutdown(); err != nil {
		logger.Error("Adapter shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
