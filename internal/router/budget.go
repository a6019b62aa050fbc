package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/ustaz-ai/backend/internal/models"
	"github.com/ustaz-ai/backend/pkg/logger"
	"gorm.io/gorm"
)

// BudgetTracker owns the per-user monthly/total token counters. It is the
// only writer of those counters; reads elsewhere (selector, analytics) never
// mutate them.
type BudgetTracker struct {
	db    *gorm.DB
	table *StrategyTable
}

func NewBudgetTracker(db *gorm.DB, table *StrategyTable) *BudgetTracker {
	return &BudgetTracker{db: db, table: table}
}

// Headroom reads the user's current monthly usage, the category-derived
// limit and the premium flag in one query.
func (t *BudgetTracker) Headroom(ctx context.Context, userID string) (Budget, error) {
	var user models.User
	err := t.db.WithContext(ctx).
		Select("category", "subscription_tier", "monthly_tokens_used").
		First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Budget{}, ErrUserNotFound
	}
	if err != nil {
		return Budget{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return Budget{
		Used:    user.MonthlyTokensUsed,
		Limit:   t.table.Limit(Category(user.Category)),
		Premium: user.IsPremium(),
	}, nil
}

// Commit bills one completed request: both counters advance by the record's
// token total in a single atomic UPDATE (no read-modify-write round trip, so
// concurrent commits for the same user cannot lose increments), then one
// append-only usage log row is written.
func (t *BudgetTracker) Commit(ctx context.Context, userID string, rec UsageRecord) error {
	tokens := rec.TokensUsed()

	res := t.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumns(map[string]interface{}{
			"monthly_tokens_used": gorm.Expr("monthly_tokens_used + ?", tokens),
			"total_tokens_used":   gorm.Expr("total_tokens_used + ?", tokens),
		})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}

	entry := models.UsageLog{
		UserID:           userID,
		Model:            rec.Model,
		PromptTokens:     rec.PromptTokens,
		CompletionTokens: rec.CompletionTokens,
		TokensUsed:       tokens,
		CostUSD:          rec.CostUSD,
		Endpoint:         rec.Endpoint,
	}
	if err := t.db.WithContext(ctx).Create(&entry).Error; err != nil {
		// Counters are already committed; only the ledger entry is lost.
		return fmt.Errorf("%w: append usage log: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// ResetAllMonthly zeroes every user's monthly counter at the billing cycle
// boundary. One bulk UPDATE over non-zero rows: a second run in the same
// cycle matches nothing, and a per-row failure doesn't roll back the rest.
// Returns the number of users reset.
func (t *BudgetTracker) ResetAllMonthly(ctx context.Context) (int64, error) {
	res := t.db.WithContext(ctx).Model(&models.User{}).
		Where("monthly_tokens_used > 0").
		UpdateColumn("monthly_tokens_used", 0)
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Error)
	}

	logger.Infof("[Budget] Monthly usage reset: %d users zeroed", res.RowsAffected)
	return res.RowsAffected, nil
}
