package routes

import (
	"github.com/ArowuTest/mtn-ras-backend/internal/config"
	"github.com/ArowuTest/mtn-ras-backend/internal/handlers"
	"github.com/ArowuTest/mtn-ras-backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the handlers mounted by SetupRouter
type Handlers struct {
	Auth       *handlers.AuthHandler
	Cycle      *handlers.CycleHandler
	Subscriber *handlers.SubscriberHandler
	Health     *handlers.HealthHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, h Handlers) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", h.Health.Health)

		auth := public.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
		}
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(cfg))
	{
		admin := protected.Group("/admin")
		{
			admin.GET("/cycles", h.Cycle.CycleStatus)
			admin.POST("/cycles", h.Cycle.StartCycle)
			admin.POST("/views/refresh", h.Cycle.RefreshView)
		}

		subscribers := protected.Group("/subscribers")
		{
			subscribers.POST("", h.Subscriber.CreateSubscriber)
			subscribers.GET("/:msisdn/assessment", h.Subscriber.GetAssessment)
		}
	}

	return router
}
