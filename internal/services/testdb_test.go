package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/ustaz-ai/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.UsageLog{},
		&models.Conversation{},
		&models.Message{},
		&models.SchedulerLock{},
		&models.SystemLog{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, category, tier string, used int64) *models.User {
	t.Helper()

	user := &models.User{
		ID:                uuid.NewString(),
		Email:             uuid.NewString() + "@example.com",
		Name:              "Test User",
		Category:          category,
		SubscriptionTier:  tier,
		MonthlyTokensUsed: used,
		TotalTokensUsed:   used,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}
