package routes

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mo-amir99/coc-proxy-go/internal/features/clan"
	"github.com/mo-amir99/coc-proxy-go/internal/features/dashboard"
	"github.com/mo-amir99/coc-proxy-go/internal/features/player"
	"github.com/mo-amir99/coc-proxy-go/pkg/cache"
	"github.com/mo-amir99/coc-proxy-go/pkg/clashapi"
	"github.com/mo-amir99/coc-proxy-go/pkg/health"
	"github.com/mo-amir99/coc-proxy-go/pkg/response"
)

// Register wires all feature routes onto the engine. store may be nil when
// Redis is not configured.
func Register(engine *gin.Engine, logger *slog.Logger, api *clashapi.Client, store cache.Client) error {
	checks := map[string]health.Check{
		"clash_api": func(context.Context) error {
			if !api.Configured() {
				return errors.New("api key missing")
			}
			return nil
		},
	}
	if store != nil {
		checks["redis"] = store.Ping
	}

	// Health check endpoints (no /api prefix for container probes)
	healthHandler := health.NewHandler(logger, checks)
	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)
	engine.GET("/version", healthHandler.Version)

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := engine.Group("/api")
	clan.RegisterRoutes(apiGroup, clan.NewHandler(api, logger))
	player.RegisterRoutes(apiGroup, player.NewHandler(api, logger))

	if err := dashboard.RegisterRoutes(engine, dashboard.NewHandler(api, logger)); err != nil {
		return err
	}

	engine.NoRoute(response.NotFound)

	return nil
}
