package router

import (
	"github.com/ustaz-ai/backend/internal/config"
)

// Category is the fixed cohort a user belongs to. It is chosen at signup and
// never changes; it drives both the system prompt and the routing strategy.
type Category string

const (
	CategoryBeginners    Category = "beginners"
	CategoryKids         Category = "kids"
	CategoryNewConvert   Category = "new-convert"
	CategoryScholar      Category = "scholar"
	CategoryProfessional Category = "professional"
)

// Known model identifiers.
const (
	ModelGPT35Turbo    = "gpt-3.5-turbo"
	ModelClaudeInstant = "claude-instant-1.2"
	ModelClaude2       = "claude-2"
	ModelGeminiFlash   = "gemini-1.5-flash"
	ModelLlama3        = "llama3"
)

// UpgradeModel is the highest-capability model, used when a premium
// scholar/professional asks a complex question below budget pressure.
const UpgradeModel = ModelClaude2

// Strategy holds the primary and fallback model for one category.
type Strategy struct {
	Primary  string
	Fallback string
}

var defaultStrategies = map[Category]Strategy{
	CategoryBeginners:    {Primary: ModelGPT35Turbo, Fallback: ModelClaudeInstant},
	CategoryKids:         {Primary: ModelGPT35Turbo, Fallback: ModelClaudeInstant},
	CategoryNewConvert:   {Primary: ModelClaudeInstant, Fallback: ModelGPT35Turbo},
	CategoryScholar:      {Primary: ModelClaude2, Fallback: ModelClaudeInstant},
	CategoryProfessional: {Primary: ModelClaude2, Fallback: ModelClaudeInstant},
}

// Monthly token limits per category.
var tokenLimits = map[Category]int64{
	CategoryBeginners:    150000,
	CategoryKids:         120000,
	CategoryNewConvert:   144000,
	CategoryScholar:      450000,
	CategoryProfessional: 720000,
}

// ValidCategory reports whether s names a known category.
func ValidCategory(s string) bool {
	_, ok := defaultStrategies[Category(s)]
	return ok
}

// Categories returns all known categories.
func Categories() []Category {
	return []Category{
		CategoryBeginners,
		CategoryKids,
		CategoryNewConvert,
		CategoryScholar,
		CategoryProfessional,
	}
}

// StrategyTable is the per-category model strategy and token limits, built
// once at startup from the built-in defaults plus config overrides. It is
// never mutated afterward, so concurrent reads need no locking.
type StrategyTable struct {
	strategies map[Category]Strategy
	limits     map[Category]int64
}

// NewStrategyTable builds the table, applying per-category model overrides
// from config (empty override fields keep the default).
func NewStrategyTable(overrides map[string]config.CategoryModels) *StrategyTable {
	t := &StrategyTable{
		strategies: make(map[Category]Strategy, len(defaultStrategies)),
		limits:     make(map[Category]int64, len(tokenLimits)),
	}
	for cat, strat := range defaultStrategies {
		if o, ok := overrides[string(cat)]; ok {
			if o.Primary != "" {
				strat.Primary = o.Primary
			}
			if o.Fallback != "" {
				strat.Fallback = o.Fallback
			}
		}
		t.strategies[cat] = strat
	}
	for cat, limit := range tokenLimits {
		t.limits[cat] = limit
	}
	return t
}

// Strategy returns the model strategy for a category. Unknown categories get
// the beginners strategy; callers validate categories before routing.
func (t *StrategyTable) Strategy(cat Category) Strategy {
	if s, ok := t.strategies[cat]; ok {
		return s
	}
	return t.strategies[CategoryBeginners]
}

// Limit returns the monthly token limit for a category.
func (t *StrategyTable) Limit(cat Category) int64 {
	return t.limits[cat]
}
