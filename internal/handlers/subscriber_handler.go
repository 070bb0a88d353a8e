package handlers

import (
	"errors"
	"net/http"

	"github.com/ArowuTest/mtn-ras-backend/internal/models"
	"github.com/ArowuTest/mtn-ras-backend/internal/repositories"
	"github.com/ArowuTest/mtn-ras-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// SubscriberHandler handles subscriber related HTTP requests
type SubscriberHandler struct {
	subscriberService services.SubscriberService
}

// NewSubscriberHandler creates a new SubscriberHandler
func NewSubscriberHandler(subscriberService services.SubscriberService) *SubscriberHandler {
	return &SubscriberHandler{subscriberService: subscriberService}
}

// CreateSubscriber handles POST /subscribers
func (h *SubscriberHandler) CreateSubscriber(c *gin.Context) {
	var req models.CreateSubscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.subscriberService.FirstContact(c.Request.Context(), &req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetAssessment handles GET /subscribers/:msisdn/assessment
func (h *SubscriberHandler) GetAssessment(c *gin.Context) {
	view, err := h.subscriberService.Assessment(c.Request.Context(), c.Param("msisdn"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidPayType):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrAccessTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
