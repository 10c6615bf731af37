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

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/coc-proxy-go/internal/http/server"
	"github.com/mo-amir99/coc-proxy-go/pkg/cache"
	"github.com/mo-amir99/coc-proxy-go/pkg/clashapi"
	"github.com/mo-amir99/coc-proxy-go/pkg/config"
	"github.com/mo-amir99/coc-proxy-go/pkg/logger"
	"github.com/mo-amir99/coc-proxy-go/pkg/tag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		if !errors.Is(err, config.ErrMissingAPIKey) {
			appLogger.Error("invalid configuration", slog.String("error", err.Error()))
			os.Exit(1)
		}
		// Keep serving: upstream calls will fail with 403 and /ready reports it.
		appLogger.Warn("configuration incomplete", slog.String("error", err.Error()))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	api := clashapi.NewClient(
		cfg.ClashAPI.BaseURL,
		cfg.ClashAPI.APIKey,
		clashapi.WithTimeout(cfg.ClashAPI.Timeout),
		clashapi.WithTagNormalizer(tag.Normalizer{Mode: cfg.ClashAPI.TagMode}),
	)

	// Redis is optional; without it rate-limit counters live in process.
	var store cache.Client
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				appLogger.Error("redis close failed", slog.String("error", err.Error()))
			}
		}()
		store = redisClient
		appLogger.Info("redis rate-limit store enabled", slog.String("addr", cfg.Redis.Addr))
	}

	limits, closeLimits := server.NewLimitStore(store)
	defer closeLimits()

	router, err := server.NewRouter(cfg, appLogger, api, store, limits)
	if err != nil {
		appLogger.Error("router setup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := server.NewHTTPServer(cfg.ServerAddress(), router, cfg.ClashAPI.Timeout)

	go func() {
		appLogger.Info("server starting",
			slog.String("addr", cfg.ServerAddress()),
			slog.String("env", cfg.Env),
			slog.String("log_level", cfg.LogLevel),
			slog.String("tag_mode", cfg.ClashAPI.TagMode.String()),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server listen failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown failed", slog.String("error", err.Error()))
	} else {
		appLogger.Info("server stopped gracefully")
	}
}
