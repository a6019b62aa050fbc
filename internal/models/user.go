package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription tiers
const (
	TierFree    = "free"
	TierPremium = "premium"
)

// User represents a registered learner. The token counters are mutated only
// through BudgetTracker.Commit (single atomic UPDATE) and the monthly reset.
type User struct {
	ID                string         `gorm:"primaryKey;size:36" json:"id"`
	Email             string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name              string         `gorm:"size:200" json:"name"`
	Category          string         `gorm:"size:50;not null" json:"category"` // fixed at signup
	SubscriptionTier  string         `gorm:"size:20;default:free" json:"subscription_tier"`
	MonthlyTokensUsed int64          `gorm:"default:0" json:"monthly_tokens_used"`
	TotalTokensUsed   int64          `gorm:"default:0" json:"total_tokens_used"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// IsPremium reports whether the user is on a paid tier.
func (u *User) IsPremium() bool {
	return u.SubscriptionTier != TierFree && u.SubscriptionTier != ""
}
