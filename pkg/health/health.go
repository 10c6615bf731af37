package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Version information, typically set at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

// Handler handles health check endpoints.
type Handler struct {
	checks map[string]Check
	logger *slog.Logger
}

// NewHandler creates a new health check handler. Checks run on /ready.
func NewHandler(logger *slog.Logger, checks map[string]Check) *Handler {
	if checks == nil {
		checks = map[string]Check{}
	}
	return &Handler{
		checks: checks,
		logger: logger,
	}
}

// HealthResponse represents the readiness response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health is the liveness probe; it always answers {"status":"OK"}.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

// Ready runs every registered check and answers 503 if any fails.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	overallStatus := "ready"

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Error("health check failed", slog.String("check", name), slog.String("error", err.Error()))
			results[name] = "unhealthy"
			overallStatus = "not_ready"
			continue
		}
		results[name] = "ok"
	}

	statusCode := http.StatusOK
	if overallStatus != "ready" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Version:   Version,
		Checks:    results,
	})
}

// Version returns version information about the service.
func (h *Handler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":    Version,
		"git_commit": GitCommit,
		"build_time": BuildTime,
	})
}
