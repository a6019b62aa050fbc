package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/ustaz-ai/backend/internal/config"
	"github.com/ustaz-ai/backend/pkg/logger"
)

// BudgetStore is the engine's view of the budget tracker. *BudgetTracker
// implements it; tests substitute fakes.
type BudgetStore interface {
	Headroom(ctx context.Context, userID string) (Budget, error)
	Commit(ctx context.Context, userID string, rec UsageRecord) error
}

// Engine routes one chat request end to end: budget check, complexity
// scoring, model selection, provider dispatch with a single fallback retry,
// cost computation and the usage commit.
type Engine struct {
	table       *StrategyTable
	registry    *Registry
	budget      BudgetStore
	maxTokens   int
	temperature float64
}

func NewEngine(table *StrategyTable, registry *Registry, budget BudgetStore, cfg *config.RoutingConfig) *Engine {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}
	return &Engine{
		table:       table,
		registry:    registry,
		budget:      budget,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Route processes one chat request.
//
// Metered requests (UserID set) are rejected with ErrBudgetExceeded before
// any provider call once usage has reached the limit; the last accepted
// request may overshoot the limit by its own cost, but no request is ever
// partially billed. Anonymous requests skip budgeting entirely and always
// use the category primary.
func (e *Engine) Route(ctx context.Context, req *RouteRequest) (*RouteResult, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("messages are required")
	}
	if !ValidCategory(string(req.Category)) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, req.Category)
	}

	strat := e.table.Strategy(req.Category)
	metered := req.UserID != ""

	var budget Budget
	if metered {
		var err error
		budget, err = e.budget.Headroom(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		if budget.Used >= budget.Limit {
			logger.Infof("[Router] user %s rejected: %d/%d tokens used", req.UserID, budget.Used, budget.Limit)
			return nil, ErrBudgetExceeded
		}
	}

	model := strat.Primary
	if metered {
		last := req.Messages[len(req.Messages)-1]
		model = Select(e.table, SelectionCriteria{
			Category:   req.Category,
			Premium:    budget.Premium,
			Used:       budget.Used,
			Limit:      budget.Limit,
			Complexity: Classify(last.Content),
		})
	}

	completion, usedModel, err := e.dispatch(ctx, model, strat.Fallback, SystemPrompt(req.Category), req.Messages)
	if err != nil {
		return nil, err
	}

	result := &RouteResult{
		Text:       completion.Text,
		Model:      usedModel,
		TokensUsed: completion.PromptTokens + completion.CompletionTokens,
		CostUSD:    Cost(usedModel, completion.PromptTokens, completion.CompletionTokens),
	}

	if !metered {
		return result, nil
	}

	// The caller gave up during dispatch: do not bill a call nobody
	// will receive the answer to.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	rec := UsageRecord{
		Model:            usedModel,
		PromptTokens:     completion.PromptTokens,
		CompletionTokens: completion.CompletionTokens,
		CostUSD:          result.CostUSD,
		Endpoint:         "chat",
	}
	if err := e.budget.Commit(ctx, req.UserID, rec); err != nil {
		// Accounting is best effort: the completion already happened
		// and is returned regardless.
		logger.Errorf("[Router] usage commit failed for user %s (model %s, %d tokens): %v",
			req.UserID, usedModel, rec.TokensUsed(), err)
		result.Warning = "usage accounting temporarily unavailable"
	}

	return result, nil
}

// dispatch invokes the chosen model's provider, retrying exactly once with
// the category fallback when the failure is retryable and the failed model
// was not already the fallback. Returns the completion and the model that
// actually produced it.
func (e *Engine) dispatch(ctx context.Context, model, fallback, systemPrompt string, messages []ChatMessage) (*Completion, string, error) {
	completion, err := e.complete(ctx, model, systemPrompt, messages)
	if err == nil {
		return completion, model, nil
	}
	if ctx.Err() != nil {
		return nil, "", ctx.Err()
	}

	var perr *ProviderError
	if errors.As(err, &perr) && perr.Retryable && model != fallback {
		logger.Warnf("[Router] model %s failed, retrying with fallback %s: %v", model, fallback, err)
		completion, err = e.complete(ctx, fallback, systemPrompt, messages)
		if err == nil {
			return completion, fallback, nil
		}
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
	}

	return nil, "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}

func (e *Engine) complete(ctx context.Context, model, systemPrompt string, messages []ChatMessage) (*Completion, error) {
	provider, ok := e.registry.For(model)
	if !ok {
		return nil, &ProviderError{Model: model, Retryable: false, Err: fmt.Errorf("no provider registered for model %s", model)}
	}
	return provider.Complete(ctx, model, systemPrompt, messages, e.maxTokens, e.temperature)
}
