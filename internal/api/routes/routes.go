// Package routes defines the HTTP routes for the dialogue service.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/billyagent/dialogue-service/internal/api/handlers"
	"github.com/billyagent/dialogue-service/internal/api/middleware"
)

// Config holds the dependencies for setting up routes.
type Config struct {
	HealthHandler   *handlers.HealthHandler
	TurnsHandler    *handlers.TurnsHandler
	SessionsHandler *handlers.SessionsHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

// Setup configures all routes on the Gin engine.
func Setup(r *gin.Engine, cfg *Config) {
	// API v1 routes - all routes under /api/v1/dialogue-service
	v1 := r.Group("/api/v1/dialogue-service")
	{
		// Health check routes (no auth required)
		v1.GET("/health", cfg.HealthHandler.Health)
		v1.GET("/ready", cfg.HealthHandler.Ready)
		v1.GET("/live", cfg.HealthHandler.Live)

		// Protected API routes
		protected := v1.Group("")
		protected.Use(cfg.AuthMiddleware.Authenticate())

		turns := protected.Group("/turns")
		{
			turns.POST("", cfg.TurnsHandler.ProcessTurn)
			turns.POST("/timeout", cfg.TurnsHandler.NotifyTimeout)
		}

		sessions := protected.Group("/sessions/:sessionId")
		{
			sessions.GET("/summary", cfg.SessionsHandler.GetSummary)
			sessions.GET("/history", cfg.SessionsHandler.GetHistory)
		}
	}

	r.NoRoute(middleware.NotFound())
	r.NoMethod(middleware.MethodNotAllowed())
}

// SetupWithMiddleware sets up routes with common middleware.
func SetupWithMiddleware(r *gin.Engine, cfg *Config, loggingMw *middleware.LoggingMiddleware, errorMw *middleware.ErrorMiddleware) {
	r.Use(loggingMw.RequestID())
	r.Use(loggingMw.Logger())
	r.Use(errorMw.Recovery())
	r.Use(gin.Recovery())

	Setup(r, cfg)
}
