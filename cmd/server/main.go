package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nulzo/ai-gateway/cmd"
	"github.com/nulzo/ai-gateway/internal/config"
	"github.com/nulzo/ai-gateway/internal/core/ports"
	"github.com/nulzo/ai-gateway/internal/core/services"
	"github.com/nulzo/ai-gateway/internal/platform/logger"
	"github.com/nulzo/ai-gateway/internal/platform/otel"
	"github.com/nulzo/ai-gateway/internal/server"
	"github.com/nulzo/ai-gateway/internal/store/cache"
	"github.com/nulzo/ai-gateway/internal/store/sqlite"

	// Import providers to trigger init() registration
	_ "github.com/nulzo/ai-gateway/internal/adapters/providers/anthropic"
	_ "github.com/nulzo/ai-gateway/internal/adapters/providers/google"
	_ "github.com/nulzo/ai-gateway/internal/adapters/providers/openai"
)

func main() {
	logger.Initialize(logger.DefaultConfig())
	log := logger.Get()
	defer logger.Sync()

	cmd.CheckForUpdates()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	configStore, err := sqlite.NewSQLiteStore(cfg.Store.DSN, log)
	if err != nil {
		log.Fatal("Failed to open configuration store", zap.Error(err))
	}
	defer configStore.Close()

	var cacheService ports.CacheService
	if cfg.Redis.Enabled {
		cacheService, err = cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("Redis unavailable, falling back to in-memory cache", zap.Error(err))
			cacheService = cache.NewMemoryCache()
		}
	} else {
		cacheService = cache.NewMemoryCache()
	}

	if cfg.Tracing.Enabled {
		shutdown, err := otel.Init("ai-gateway", cmd.AppVersion, log, os.Stdout)
		if err != nil {
			log.Warn("Tracing disabled", zap.Error(err))
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(ctx)
			}()
		}
	}

	registry := services.NewRegistry(configStore, cfg.Registry.TTL, log)
	selector := services.NewSelector(registry, nil, log)
	dispatcher := services.NewDispatcher(registry, selector, cacheService, cfg.Registry.EmbedCacheTTL, log)

	srv := server.New(cfg, log, dispatcher, cmd.AppVersion)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // streaming responses manage their own lifetime
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("Starting AI gateway", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
}
