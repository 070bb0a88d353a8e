package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/ArowuTest/mtn-ras-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// CycleRunner starts assessment cycles in the background
type CycleRunner interface {
	StartCycle(ctx context.Context) error
	Running() bool
	LastReport() *services.CycleReport
}

// ViewTrigger starts a materialized view refresh in the background
type ViewTrigger interface {
	Trigger() bool
	InFlight() bool
}

// CycleHandler handles the batch trigger endpoints
type CycleHandler struct {
	base   context.Context
	cycles CycleRunner
	views  ViewTrigger
}

// NewCycleHandler creates a new CycleHandler. Cycles it starts run under base,
// not under the triggering request.
func NewCycleHandler(base context.Context, cycles CycleRunner, views ViewTrigger) *CycleHandler {
	return &CycleHandler{base: base, cycles: cycles, views: views}
}

// StartCycle handles POST /admin/cycles
func (h *CycleHandler) StartCycle(c *gin.Context) {
	err := h.cycles.StartCycle(h.base)
	if errors.Is(err, services.ErrCycleRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

// CycleStatus handles GET /admin/cycles
func (h *CycleHandler) CycleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running":    h.cycles.Running(),
		"refreshing": h.views.InFlight(),
		"last":       h.cycles.LastReport(),
	})
}

// RefreshView handles POST /admin/views/refresh
func (h *CycleHandler) RefreshView(c *gin.Context) {
	if !h.views.Trigger() {
		c.JSON(http.StatusConflict, gin.H{"error": services.ErrRefreshRunning.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}
