package main

import (
	"github.com/gin-gonic/gin"
	"github.com/ustaz-ai/backend/internal/handlers"
	"github.com/ustaz-ai/backend/internal/middleware"
	"github.com/ustaz-ai/backend/internal/models"
	"github.com/ustaz-ai/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for the chat route, keyed per user
	chatLimiter := middleware.NewRateLimiter(svc.cfg.Routing.ChatRateLimit, svc.cfg.Routing.ChatRateBurst)

	// Health check
	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	// API routes
	api := r.Group("/api")
	{
		// Chat (rate limited)
		chatHandler := handlers.NewChatHandler(svc.engine, svc.taskQueue)
		api.POST("/chat", chatLimiter.Middleware(), chatHandler.Chat)

		// Users
		userHandler := handlers.NewUserHandler(models.GetDB(), svc.table)
		api.POST("/users", userHandler.Create)
		api.GET("/users/:id", userHandler.Get)

		// Usage analytics
		analyticsHandler := handlers.NewAnalyticsHandler(models.GetDB(), svc.table)
		api.GET("/analytics/usage", analyticsHandler.GetUsage)

		// Admin
		admin := api.Group("/admin")
		{
			adminHandler := handlers.NewAdminHandler(models.GetDB(), svc.resetService)
			admin.POST("/reset-monthly", adminHandler.ResetMonthly)
			admin.GET("/system-logs", adminHandler.ListSystemLogs)
		}
	}
}
