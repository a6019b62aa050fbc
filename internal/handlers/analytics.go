package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ustaz-ai/backend/internal/router"
	"github.com/ustaz-ai/backend/internal/services"
	"github.com/ustaz-ai/backend/pkg/response"
	"gorm.io/gorm"
)

// AnalyticsHandler serves usage analytics endpoints.
type AnalyticsHandler struct {
	usageService *services.UsageService
}

func NewAnalyticsHandler(db *gorm.DB, table *router.StrategyTable) *AnalyticsHandler {
	return &AnalyticsHandler{
		usageService: services.NewUsageService(db, table),
	}
}

// GetUsage returns a user's current counters plus aggregated ledger
// analytics for the requested period (day, week, month, year).
func (h *AnalyticsHandler) GetUsage(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		response.BadRequest(c, "user_id is required")
		return
	}
	period := c.DefaultQuery("period", "month")

	current, err := h.usageService.GetCurrentUsage(userID)
	if err != nil {
		if errors.Is(err, router.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.ServerError(c, "failed to load usage: "+err.Error())
		return
	}

	since := services.PeriodStart(period, time.Now())
	analytics, err := h.usageService.GetAnalytics(userID, since)
	if err != nil {
		response.ServerError(c, "failed to aggregate usage: "+err.Error())
		return
	}

	logs, err := h.usageService.RecentLogs(userID, since, 50)
	if err != nil {
		response.ServerError(c, "failed to load usage logs: "+err.Error())
		return
	}

	response.Success(c, gin.H{
		"period":        period,
		"current_usage": current,
		"analytics":     analytics,
		"usage_logs":    logs,
	})
}
