package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ustaz-ai/backend/internal/models"
	"github.com/ustaz-ai/backend/internal/router"
)

func TestMonthlyReset_Run(t *testing.T) {
	db := newTestDB(t)
	tracker := router.NewBudgetTracker(db, router.NewStrategyTable(nil))
	svc := NewMonthlyResetService(db, tracker)
	ctx := context.Background()

	u1 := seedUser(t, db, "beginners", models.TierFree, 5000)
	u2 := seedUser(t, db, "scholar", models.TierPremium, 90000)
	seedUser(t, db, "kids", models.TierFree, 0)

	count, err := svc.Run(ctx, false)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if count != 2 {
		t.Errorf("reset count = %d, want 2", count)
	}

	for _, id := range []string{u1.ID, u2.ID} {
		var user models.User
		db.First(&user, "id = ?", id)
		if user.MonthlyTokensUsed != 0 {
			t.Errorf("user %s MonthlyTokensUsed = %d, want 0", id, user.MonthlyTokensUsed)
		}
		if user.TotalTokensUsed == 0 {
			t.Errorf("user %s TotalTokensUsed should survive the reset", id)
		}
	}

	// One lock row was claimed for the current cycle.
	var locks []models.SchedulerLock
	db.Find(&locks)
	if len(locks) != 1 {
		t.Fatalf("scheduler lock rows = %d, want 1", len(locks))
	}
	if locks[0].LockName != resetLockName {
		t.Errorf("lock name = %q, want %q", locks[0].LockName, resetLockName)
	}
}

func TestMonthlyReset_SecondRunSameCycleIsNoop(t *testing.T) {
	db := newTestDB(t)
	tracker := router.NewBudgetTracker(db, router.NewStrategyTable(nil))
	svc := NewMonthlyResetService(db, tracker)
	ctx := context.Background()

	seedUser(t, db, "beginners", models.TierFree, 5000)

	if _, err := svc.Run(ctx, false); err != nil {
		t.Fatalf("first Run() error: %v", err)
	}

	// New usage lands after the reset; a second run in the same cycle must
	// not zero it.
	user := seedUser(t, db, "kids", models.TierFree, 777)

	count, err := svc.Run(ctx, false)
	if err != nil {
		t.Fatalf("second Run() error: %v", err)
	}
	if count != 0 {
		t.Errorf("second run count = %d, want 0 (cycle already reset)", count)
	}

	var after models.User
	db.First(&after, "id = ?", user.ID)
	if after.MonthlyTokensUsed != 777 {
		t.Errorf("MonthlyTokensUsed = %d, want 777 untouched", after.MonthlyTokensUsed)
	}
}

func TestMonthlyReset_CycleLockSharedAcrossInstances(t *testing.T) {
	db := newTestDB(t)
	tracker := router.NewBudgetTracker(db, router.NewStrategyTable(nil))
	first := NewMonthlyResetService(db, tracker)
	second := NewMonthlyResetService(db, tracker)
	ctx := context.Background()

	seedUser(t, db, "beginners", models.TierFree, 5000)

	if _, err := first.Run(ctx, false); err != nil {
		t.Fatalf("first instance Run() error: %v", err)
	}

	user := seedUser(t, db, "kids", models.TierFree, 500)

	// A different instance in the same cycle sees the lock row and skips.
	count, err := second.Run(ctx, false)
	if err != nil {
		t.Fatalf("second instance Run() error: %v", err)
	}
	if count != 0 {
		t.Errorf("second instance count = %d, want 0", count)
	}

	var after models.User
	db.First(&after, "id = ?", user.ID)
	if after.MonthlyTokensUsed != 500 {
		t.Errorf("MonthlyTokensUsed = %d, want 500 untouched", after.MonthlyTokensUsed)
	}
}

func TestMonthlyReset_ForceBypassesCycleLock(t *testing.T) {
	db := newTestDB(t)
	tracker := router.NewBudgetTracker(db, router.NewStrategyTable(nil))
	svc := NewMonthlyResetService(db, tracker)
	ctx := context.Background()

	seedUser(t, db, "beginners", models.TierFree, 5000)

	if _, err := svc.Run(ctx, false); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	seedUser(t, db, "kids", models.TierFree, 900)

	count, err := svc.Run(ctx, true)
	if err != nil {
		t.Fatalf("forced Run() error: %v", err)
	}
	if count != 1 {
		t.Errorf("forced run count = %d, want 1", count)
	}
}

func TestMonthlyReset_StoreFailureSurfacesError(t *testing.T) {
	db := newTestDB(t)
	tracker := router.NewBudgetTracker(db, router.NewStrategyTable(nil))
	svc := NewMonthlyResetService(db, tracker)

	seedUser(t, db, "beginners", models.TierFree, 5000)

	// An unreachable store must fail the run, not pass for a cycle that
	// already reset.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.Close()

	count, err := svc.Run(context.Background(), false)
	if err == nil {
		t.Fatal("Run() with closed store: expected error, got nil")
	}
	if count != 0 {
		t.Errorf("Run() count = %d, want 0", count)
	}
}

func TestMonthlyReset_OverlappingRunRejected(t *testing.T) {
	db := newTestDB(t)
	tracker := router.NewBudgetTracker(db, router.NewStrategyTable(nil))
	svc := NewMonthlyResetService(db, tracker)

	svc.mu.Lock()
	defer svc.mu.Unlock()

	_, err := svc.Run(context.Background(), false)
	if !errors.Is(err, ErrResetInProgress) {
		t.Errorf("Run() error = %v, want ErrResetInProgress", err)
	}
}
