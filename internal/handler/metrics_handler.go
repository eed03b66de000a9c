package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-import-api/internal/service"
)

// Pinger reports whether a backing dependency answers.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	db      Pinger
	cache   Pinger
}

// NewMetricsHandler constructs a metrics handler. db and cache may be nil.
func NewMetricsHandler(metrics *service.MetricsService, db, cache Pinger) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, db: db, cache: cache}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness probes.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready answers 503 while the database is unreachable. A failing stats
// cache only marks the service degraded: GET /import falls back to counting
// rows.
func (h *MetricsHandler) Ready(c *gin.Context) {
	checks := gin.H{}
	if h.db != nil {
		if err := ping(c.Request.Context(), h.db); err != nil {
			checks["database"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": checks})
			return
		}
		checks["database"] = "ok"
	}

	status := "ready"
	if h.cache != nil {
		checks["cache"] = "ok"
		if err := ping(c.Request.Context(), h.cache); err != nil {
			checks["cache"] = err.Error()
			status = "degraded"
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "checks": checks})
}

func ping(ctx context.Context, p Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.PingContext(ctx)
}
