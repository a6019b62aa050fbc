package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ustaz-ai/backend/internal/services"
	"github.com/ustaz-ai/backend/pkg/response"
	"gorm.io/gorm"
)

// AdminHandler exposes operational endpoints: the manual monthly reset and
// the durable system log.
type AdminHandler struct {
	resetService *services.MonthlyResetService
	logService   *services.SystemLogService
}

func NewAdminHandler(db *gorm.DB, resetService *services.MonthlyResetService) *AdminHandler {
	return &AdminHandler{
		resetService: resetService,
		logService:   services.NewSystemLogService(db),
	}
}

// ResetMonthly triggers the monthly usage reset out of schedule.
func (h *AdminHandler) ResetMonthly(c *gin.Context) {
	force := c.Query("force") == "true"

	count, err := h.resetService.Run(c.Request.Context(), force)
	if err != nil {
		if errors.Is(err, services.ErrResetInProgress) {
			response.Conflict(c, "reset already in progress")
			return
		}
		response.ServerError(c, "monthly reset failed: "+err.Error())
		return
	}

	response.Success(c, gin.H{"users_reset": count})
}

// ListSystemLogs returns recent operational log entries.
func (h *AdminHandler) ListSystemLogs(c *gin.Context) {
	level := c.Query("level")
	module := c.Query("module")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	logs, err := h.logService.List(level, module, limit)
	if err != nil {
		response.ServerError(c, "failed to load system logs: "+err.Error())
		return
	}

	response.Success(c, logs)
}
