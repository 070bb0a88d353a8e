package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing store is reachable
type Pinger func(ctx context.Context) error

// HealthHandler reports the reachability of the configured stores
type HealthHandler struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. A nil pinger is skipped.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	h := &HealthHandler{checks: map[string]Pinger{}, timeout: 3 * time.Second}
	for name, p := range checks {
		if p != nil {
			h.checks[name] = p
		}
	}
	return h
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	stores := gin.H{}
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			stores[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		stores[name] = "ok"
	}

	c.JSON(code, gin.H{"status": status, "stores": stores})
}
