package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/coc-proxy-go/internal/http/routes"
	"github.com/mo-amir99/coc-proxy-go/pkg/cache"
	"github.com/mo-amir99/coc-proxy-go/pkg/clashapi"
	"github.com/mo-amir99/coc-proxy-go/pkg/config"
	"github.com/mo-amir99/coc-proxy-go/pkg/metrics"
	"github.com/mo-amir99/coc-proxy-go/pkg/middleware"
	"github.com/mo-amir99/coc-proxy-go/pkg/request"
)

const maxBodyBytes = 1 << 20

// NewRouter builds the gin engine with the full middleware stack. store is
// optional and only feeds the readiness probe; limits holds rate-limit
// counters and stays owned by the caller.
func NewRouter(cfg *config.Config, logger *slog.Logger, api *clashapi.Client, store cache.Client, limits middleware.LimitStore) (*gin.Engine, error) {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Compression(middleware.BestSpeed, "/metrics"))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CacheControl())
	router.Use(middleware.RequestSizeLimit(maxBodyBytes))
	router.Use(metrics.Middleware())

	rateLimiter := middleware.NewRateLimiter(limits, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger)
	router.Use(rateLimiter.Middleware())

	router.Use(request.Handler(logger))

	if err := routes.Register(router, logger, api, store); err != nil {
		return nil, err
	}

	return router, nil
}

// NewLimitStore picks where rate-limit counters live: in store when it is set,
// so every instance shares one limit, otherwise in process. The returned
// func releases the store and must be called on shutdown.
func NewLimitStore(store cache.Client) (middleware.LimitStore, func()) {
	if store != nil {
		return middleware.NewCacheLimitStore(store, "coc:ratelimit"), func() {}
	}
	memory := middleware.NewMemoryLimitStore()
	return memory, memory.Close
}

// NewHTTPServer wraps handler with the server timeouts used in production.
func NewHTTPServer(addr string, handler http.Handler, upstreamTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      upstreamTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}
}
