package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/ustaz-ai/backend/internal/models"
	"github.com/ustaz-ai/backend/internal/router"
	"github.com/ustaz-ai/backend/pkg/logger"
	"gorm.io/gorm"
)

const resetLockName = "monthly_usage_reset"

// ErrResetInProgress is returned when a reset run overlaps another in the
// same process.
var ErrResetInProgress = errors.New("monthly reset already in progress")

// MonthlyResetService zeroes every user's monthly token counter at the
// billing cycle boundary. A run is single-flight: the in-process mutex
// blocks overlap within one instance, and a per-cycle lock row (unique on
// name+key) blocks double runs across instances. In-flight usage commits
// may land on either side of the reset; both operations are single atomic
// UPDATEs so no increment is ever lost.
type MonthlyResetService struct {
	db         *gorm.DB
	tracker    *router.BudgetTracker
	scheduler  *cron.Cron
	instanceID string
	mu         sync.Mutex
}

func NewMonthlyResetService(db *gorm.DB, tracker *router.BudgetTracker) *MonthlyResetService {
	return &MonthlyResetService{
		db:         db,
		tracker:    tracker,
		instanceID: uuid.NewString(),
	}
}

// StartScheduler schedules the reset with the given cron spec
// (default "0 0 1 * *": midnight on the first of the month).
func (s *MonthlyResetService) StartScheduler(spec string) error {
	if spec == "" {
		spec = "0 0 1 * *"
	}

	s.scheduler = cron.New()
	_, err := s.scheduler.AddFunc(spec, func() {
		if _, err := s.Run(context.Background(), false); err != nil && !errors.Is(err, ErrResetInProgress) {
			logger.Errorf("[Reset] Scheduled monthly reset failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.Start()
	logger.Infof("[Reset] Monthly reset scheduler started (spec: %s)", spec)
	return nil
}

// StopScheduler stops the cron scheduler.
func (s *MonthlyResetService) StopScheduler() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// Run performs the reset for the current billing cycle. The second run in a
// cycle is a no-op. force bypasses the cycle lock for manual admin runs.
// Returns the number of users whose counter was zeroed.
func (s *MonthlyResetService) Run(ctx context.Context, force bool) (int64, error) {
	if !s.mu.TryLock() {
		return 0, ErrResetInProgress
	}
	defer s.mu.Unlock()

	cycle := time.Now().UTC().Format("2006-01")
	if !force {
		acquired, err := s.acquireCycleLock(cycle)
		if err != nil {
			LogError("reset", "monthly_reset", "cycle lock acquisition failed: "+err.Error(), nil, nil)
			return 0, err
		}
		if !acquired {
			logger.Infof("[Reset] Cycle %s already reset, skipping", cycle)
			return 0, nil
		}
	}

	count, err := s.tracker.ResetAllMonthly(ctx)
	if err != nil {
		LogError("reset", "monthly_reset", "monthly usage reset failed: "+err.Error(), nil, nil)
		return 0, err
	}

	LogInfo("reset", "monthly_reset", "monthly usage reset completed", nil, map[string]interface{}{
		"cycle": cycle,
		"users": count,
	})
	return count, nil
}

// acquireCycleLock claims this cycle's lock row. The unique index on
// (lock_name, lock_key) makes a duplicate insert fail, which means another
// instance already ran the reset for this cycle. Any other insert error is
// a store failure and must not be mistaken for a completed reset.
func (s *MonthlyResetService) acquireCycleLock(cycle string) (bool, error) {
	lock := models.SchedulerLock{
		LockName: resetLockName,
		LockKey:  cycle,
		LockedBy: s.instanceID,
		LockedAt: time.Now(),
	}
	err := s.db.Create(&lock).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	return false, fmt.Errorf("acquire cycle lock %s: %w", cycle, err)
}
