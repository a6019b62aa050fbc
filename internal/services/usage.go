package services

import (
	"errors"
	"time"

	"github.com/ustaz-ai/backend/internal/models"
	"github.com/ustaz-ai/backend/internal/router"
	"gorm.io/gorm"
)

// UsageService aggregates the usage ledger for billing and analytics views.
// It only ever reads the ledger; writes happen through the budget tracker.
type UsageService struct {
	db    *gorm.DB
	table *router.StrategyTable
}

func NewUsageService(db *gorm.DB, table *router.StrategyTable) *UsageService {
	return &UsageService{db: db, table: table}
}

// CurrentUsage holds a user's live counters.
type CurrentUsage struct {
	MonthlyTokens    int64  `json:"monthly_tokens"`
	TotalTokens      int64  `json:"total_tokens"`
	MonthlyLimit     int64  `json:"monthly_limit"`
	SubscriptionTier string `json:"subscription_tier"`
}

// UsageSummary holds aggregated ledger statistics for a period.
type UsageSummary struct {
	TotalRequests       int64   `json:"total_requests"`
	TotalTokens         int64   `json:"total_tokens"`
	TotalCostUSD        float64 `json:"total_cost_usd"`
	AvgTokensPerRequest float64 `json:"avg_tokens_per_request"`
}

// ModelUsage holds ledger totals grouped by model.
type ModelUsage struct {
	Model       string  `json:"model"`
	Requests    int64   `json:"requests"`
	TotalTokens int64   `json:"total_tokens"`
	CostUSD     float64 `json:"cost_usd"`
}

// DailyUsage holds ledger totals for a single day.
type DailyUsage struct {
	Date        string  `json:"date"`
	Requests    int64   `json:"requests"`
	TotalTokens int64   `json:"total_tokens"`
	CostUSD     float64 `json:"cost_usd"`
}

// EndpointUsage holds ledger totals grouped by endpoint tag.
type EndpointUsage struct {
	Endpoint    string  `json:"endpoint"`
	Requests    int64   `json:"requests"`
	TotalTokens int64   `json:"total_tokens"`
	CostUSD     float64 `json:"cost_usd"`
}

// Analytics bundles the aggregated views returned to the analytics endpoint.
type Analytics struct {
	Summary      UsageSummary    `json:"summary"`
	ModelUsage   []ModelUsage    `json:"model_usage"`
	DailyUsage   []DailyUsage    `json:"daily_usage"`
	TopEndpoints []EndpointUsage `json:"top_endpoints"`
}

// PeriodStart resolves an analytics period name to its start time.
// Unknown periods default to a month.
func PeriodStart(period string, now time.Time) time.Time {
	switch period {
	case "day":
		return now.Add(-24 * time.Hour)
	case "week":
		return now.Add(-7 * 24 * time.Hour)
	case "year":
		return now.Add(-365 * 24 * time.Hour)
	default:
		return now.Add(-30 * 24 * time.Hour)
	}
}

// GetCurrentUsage returns the user's live counters plus the category limit.
func (s *UsageService) GetCurrentUsage(userID string) (*CurrentUsage, error) {
	var user models.User
	err := s.db.First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, router.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &CurrentUsage{
		MonthlyTokens:    user.MonthlyTokensUsed,
		TotalTokens:      user.TotalTokensUsed,
		MonthlyLimit:     s.table.Limit(router.Category(user.Category)),
		SubscriptionTier: user.SubscriptionTier,
	}, nil
}

// GetAnalytics aggregates the user's ledger since the given time. Costs are
// summed at full precision and rounded once here, at the presentation edge.
func (s *UsageService) GetAnalytics(userID string, since time.Time) (*Analytics, error) {
	base := func() *gorm.DB {
		return s.db.Model(&models.UsageLog{}).
			Where("user_id = ? AND created_at >= ?", userID, since)
	}

	var summary UsageSummary
	err := base().Select(
		"COUNT(*) as total_requests, " +
			"COALESCE(SUM(tokens_used), 0) as total_tokens, " +
			"COALESCE(SUM(cost_usd), 0) as total_cost_usd, " +
			"COALESCE(AVG(tokens_used), 0) as avg_tokens_per_request",
	).Scan(&summary).Error
	if err != nil {
		return nil, err
	}
	summary.TotalCostUSD = router.RoundUSD(summary.TotalCostUSD)

	var byModel []ModelUsage
	err = base().Select(
		"model, " +
			"COUNT(*) as requests, " +
			"COALESCE(SUM(tokens_used), 0) as total_tokens, " +
			"COALESCE(SUM(cost_usd), 0) as cost_usd",
	).Group("model").Order("requests DESC").Scan(&byModel).Error
	if err != nil {
		return nil, err
	}
	for i := range byModel {
		byModel[i].CostUSD = router.RoundUSD(byModel[i].CostUSD)
	}
	if byModel == nil {
		byModel = []ModelUsage{}
	}

	var daily []DailyUsage
	err = base().Select(
		"DATE(created_at) as date, " +
			"COUNT(*) as requests, " +
			"COALESCE(SUM(tokens_used), 0) as total_tokens, " +
			"COALESCE(SUM(cost_usd), 0) as cost_usd",
	).Group("DATE(created_at)").Order("date DESC").Scan(&daily).Error
	if err != nil {
		return nil, err
	}
	for i := range daily {
		daily[i].CostUSD = router.RoundUSD(daily[i].CostUSD)
	}
	if daily == nil {
		daily = []DailyUsage{}
	}

	var endpoints []EndpointUsage
	err = base().Select(
		"endpoint, " +
			"COUNT(*) as requests, " +
			"COALESCE(SUM(tokens_used), 0) as total_tokens, " +
			"COALESCE(SUM(cost_usd), 0) as cost_usd",
	).Group("endpoint").Order("requests DESC").Limit(5).Scan(&endpoints).Error
	if err != nil {
		return nil, err
	}
	for i := range endpoints {
		endpoints[i].CostUSD = router.RoundUSD(endpoints[i].CostUSD)
	}
	if endpoints == nil {
		endpoints = []EndpointUsage{}
	}

	return &Analytics{
		Summary:      summary,
		ModelUsage:   byModel,
		DailyUsage:   daily,
		TopEndpoints: endpoints,
	}, nil
}

// RecentLogs returns the user's newest ledger entries.
func (s *UsageService) RecentLogs(userID string, since time.Time, limit int) ([]models.UsageLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var logs []models.UsageLog
	err := s.db.Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []models.UsageLog{}
	}
	return logs, nil
}
