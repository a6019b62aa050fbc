package services

import (
	"encoding/json"
	"time"

	"github.com/ustaz-ai/backend/internal/models"
	"gorm.io/gorm"
)

var systemLogDB *gorm.DB

// InitSystemLogger sets the database used for durable operational logs.
func InitSystemLogger(db *gorm.DB) {
	systemLogDB = db
}

func LogInfo(module, action, message string, userID *string, extra interface{}) {
	writeLog("info", module, action, message, userID, extra)
}

func LogWarning(module, action, message string, userID *string, extra interface{}) {
	writeLog("warning", module, action, message, userID, extra)
}

func LogError(module, action, message string, userID *string, extra interface{}) {
	writeLog("error", module, action, message, userID, extra)
}

func writeLog(level, module, action, message string, userID *string, extra interface{}) {
	if systemLogDB == nil {
		return
	}

	var extraStr string
	if extra != nil {
		if b, err := json.Marshal(extra); err == nil {
			extraStr = string(b)
		}
	}

	entry := &models.SystemLog{
		Level:     level,
		Module:    module,
		Action:    action,
		Message:   message,
		UserID:    userID,
		Extra:     extraStr,
		CreatedAt: time.Now(),
	}
	systemLogDB.Create(entry)
}

// SystemLogService lists and prunes durable operational logs.
type SystemLogService struct {
	db *gorm.DB
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db}
}

// List returns logs filtered by level and module, newest first.
func (s *SystemLogService) List(level, module string, limit int) ([]models.SystemLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := s.db.Model(&models.SystemLog{})
	if level != "" {
		query = query.Where("level = ?", level)
	}
	if module != "" {
		query = query.Where("module = ?", module)
	}

	var logs []models.SystemLog
	err := query.Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

// CleanupBefore deletes logs older than the given time.
func (s *SystemLogService) CleanupBefore(before time.Time) (int64, error) {
	result := s.db.Where("created_at < ?", before).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}
