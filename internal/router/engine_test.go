package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ustaz-ai/backend/internal/config"
)

type fakeBudget struct {
	budget        Budget
	headroomErr   error
	commitErr     error
	headroomCalls int
	commits       []UsageRecord
}

func (f *fakeBudget) Headroom(ctx context.Context, userID string) (Budget, error) {
	f.headroomCalls++
	return f.budget, f.headroomErr
}

func (f *fakeBudget) Commit(ctx context.Context, userID string, rec UsageRecord) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.commits = append(f.commits, rec)
	return nil
}

type fakeProvider struct {
	calls []string
	fn    func(ctx context.Context, model string) (*Completion, error)
}

func (f *fakeProvider) Complete(ctx context.Context, model, systemPrompt string, messages []ChatMessage, maxTokens int, temperature float64) (*Completion, error) {
	f.calls = append(f.calls, model)
	return f.fn(ctx, model)
}

func okProvider(text string, prompt, completion int64) *fakeProvider {
	return &fakeProvider{fn: func(ctx context.Context, model string) (*Completion, error) {
		return &Completion{Text: text, PromptTokens: prompt, CompletionTokens: completion}, nil
	}}
}

func failProvider(retryable bool) *fakeProvider {
	return &fakeProvider{fn: func(ctx context.Context, model string) (*Completion, error) {
		return nil, &ProviderError{Model: model, Retryable: retryable, Err: errors.New("upstream down")}
	}}
}

func newTestEngine(budget BudgetStore, providers map[string]CompletionProvider) *Engine {
	registry := NewRegistry()
	for model, p := range providers {
		registry.Register(model, p)
	}
	return NewEngine(NewStrategyTable(nil), registry, budget, &config.RoutingConfig{})
}

func userMessages(content string) []ChatMessage {
	return []ChatMessage{{Role: RoleUser, Content: content}}
}

func TestEngine_RouteValidation(t *testing.T) {
	engine := newTestEngine(&fakeBudget{}, nil)

	if _, err := engine.Route(context.Background(), &RouteRequest{Category: CategoryBeginners}); err == nil {
		t.Errorf("Route() with no messages should fail")
	}

	_, err := engine.Route(context.Background(), &RouteRequest{
		Messages: userMessages("hello"),
		Category: Category("no-such"),
	})
	if !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("Route() error = %v, want ErrInvalidCategory", err)
	}
}

func TestEngine_RouteHappyPath(t *testing.T) {
	budget := &fakeBudget{budget: Budget{Used: 1000, Limit: 150000}}
	provider := okProvider("Peace be upon you.", 40, 60)
	engine := newTestEngine(budget, map[string]CompletionProvider{ModelGPT35Turbo: provider})

	result, err := engine.Route(context.Background(), &RouteRequest{
		Messages: userMessages("What is charity?"),
		Category: CategoryBeginners,
		UserID:   "user-1",
	})
	if err != nil {
		t.Fatalf("Route() error: %v", err)
	}

	if result.Model != ModelGPT35Turbo {
		t.Errorf("Model = %q, want %q", result.Model, ModelGPT35Turbo)
	}
	if result.Text != "Peace be upon you." {
		t.Errorf("Text = %q", result.Text)
	}
	if result.TokensUsed != 100 {
		t.Errorf("TokensUsed = %d, want 100", result.TokensUsed)
	}
	if want := Cost(ModelGPT35Turbo, 40, 60); result.CostUSD != want {
		t.Errorf("CostUSD = %v, want %v", result.CostUSD, want)
	}
	if result.Warning != "" {
		t.Errorf("Warning = %q, want empty", result.Warning)
	}

	if len(budget.commits) != 1 {
		t.Fatalf("commits = %d, want 1", len(budget.commits))
	}
	rec := budget.commits[0]
	if rec.Model != ModelGPT35Turbo || rec.TokensUsed() != 100 || rec.Endpoint != "chat" {
		t.Errorf("committed record = %+v", rec)
	}
}

func TestEngine_RouteBudgetExceeded(t *testing.T) {
	budget := &fakeBudget{budget: Budget{Used: 150000, Limit: 150000}}
	provider := okProvider("should not run", 1, 1)
	engine := newTestEngine(budget, map[string]CompletionProvider{ModelGPT35Turbo: provider})

	_, err := engine.Route(context.Background(), &RouteRequest{
		Messages: userMessages("hello"),
		Category: CategoryBeginners,
		UserID:   "user-1",
	})
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("Route() error = %v, want ErrBudgetExceeded", err)
	}
	if len(provider.calls) != 0 {
		t.Errorf("provider called %d times, want 0 (reject happens before dispatch)", len(provider.calls))
	}
	if len(budget.commits) != 0 {
		t.Errorf("commits = %d, want 0", len(budget.commits))
	}
}

func TestEngine_RouteHeadroomError(t *testing.T) {
	budget := &fakeBudget{headroomErr: ErrUserNotFound}
	engine := newTestEngine(budget, nil)

	_, err := engine.Route(context.Background(), &RouteRequest{
		Messages: userMessages("hello"),
		Category: CategoryBeginners,
		UserID:   "user-1",
	})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Route() error = %v, want ErrUserNotFound", err)
	}
}

func TestEngine_RouteBudgetPressureUsesFallback(t *testing.T) {
	budget := &fakeBudget{budget: Budget{Used: 130000, Limit: 150000}}
	fallback := okProvider("fallback answer", 10, 10)
	engine := newTestEngine(budget, map[string]CompletionProvider{
		ModelGPT35Turbo:    okProvider("primary answer", 10, 10),
		ModelClaudeInstant: fallback,
	})

	result, err := engine.Route(context.Background(), &RouteRequest{
		Messages: userMessages("hello"),
		Category: CategoryBeginners,
		UserID:   "user-1",
	})
	if err != nil {
		t.Fatalf("Route() error: %v", err)
	}
	if result.Model != ModelClaudeInstant {
		t.Errorf("Model = %q, want fallback %q", result.Model, ModelClaudeInstant)
	}
	if len(fallback.calls) != 1 {
		t.Errorf("fallback provider calls = %d, want 1", len(fallback.calls))
	}
}

func TestEngine_RoutePremiumComplexUpgrade(t *testing.T) {
	budget := &fakeBudget{budget: Budget{Used: 1000, Limit: 450000, Premium: true}}
	upgrade := okProvider("deep answer", 200, 300)
	engine := newTestEngine(budget, map[string]CompletionProvider{
		UpgradeModel: upgrade,
	})

	result, err := engine.Route(context.Background(), &RouteRequest{
		Messages: userMessages("Compare the schools of fiqh on this matter"),
		Category: CategoryScholar,
		UserID:   "user-1",
	})
	if err != nil {
		t.Fatalf("Route() error: %v", err)
	}
	if result.Model != UpgradeModel {
		t.Errorf("Model = %q, want %q", result.Model, UpgradeModel)
	}
	if len(budget.commits) != 1 || budget.commits[0].Model != UpgradeModel {
		t.Errorf("commit should record the upgraded model, got %+v", budget.commits)
	}
}

func TestEngine_RouteRetryableFailureFallsBack(t *testing.T) {
	budget := &fakeBudget{budget: Budget{Used: 0, Limit: 150000}}
	primary := failProvider(true)
	fallback := okProvider("fallback answer", 20, 30)
	engine := newTestEngine(budget, map[string]CompletionProvider{
		ModelGPT35Turbo:    primary,
		ModelClaudeInstant: fallback,
	})

	result, err := engine.Route(context.Background(), &RouteRequest{
		Messages: userMessages("hello"),
		Category: CategoryBeginners,
		UserID:   "user-1",
	})
	if err != nil {
		t.Fatalf("Route() error: %v", err)
	}
	if result.Model != ModelClaudeInstant {
		t.Errorf("Model = %q, want fallback %q", result.Model, ModelClaudeInstant)
	}
	if len(primary.calls) != 1 || len(fallback.calls) != 1 {
		t.Errorf("calls primary=%d fallback=%d, want 1 each", len(primary.calls), len(fallback.calls))
	}

	// Billing reflects the model that actually answered.
	if len(budget.commits) != 1 {
		t.Fatalf("commits = %d, want 1", len(budget.commits))
	}
	rec := budget.commits[0]
	if rec.Model != ModelClaudeInstant || rec.TokensUsed() != 50 {
		t.Errorf("committed record = %+v, want 50 tokens on %s", rec, ModelClaudeInstant)
	}
	if want := Cost(ModelClaudeInstant, 20, 30); rec.CostUSD != want {
		t.Errorf("committed cost = %v, want fallback pricing %v", rec.CostUSD, want)
	}
}

func TestEngine_RouteNonRetryableFailureDoesNotFallBack(t *testing.T) {
	budget := &fakeBudget{budget: Budget{Used: 0, Limit: 150000}}
	primary := failProvider(false)
	fallback := okProvider("fallback answer", 10, 10)
	engine := newTestEngine(budget, map[string]CompletionProvider{
		ModelGPT35Turbo:    primary,
		ModelClaudeInstant: fallback,
	})

	_, err := engine.Route(context.Background(), &RouteRequest{
		Messages: userMessages("hello"),
		Category: CategoryBeginners,
		UserID:   "user-1",
	})
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("Route() error = %v, want ErrProviderUnavailable", err)
	}
	if len(fallback.calls) != 0 {
		t.Errorf("fallback called %d times, want 0", len(fallback.calls))
	}
	if len(budget.commits) != 0 {
		t.Errorf("commits = %d, want 0 (failed request is never billed)", len(budget.commits))
	}
}

func TestEngine_RouteBothModelsFail(t *testing.T) {
	budget := &fakeBudget{budget: Budget{Used: 0, Limit: 150000}}
	engine := newTestEngine(budget, map[string]CompletionProvider{
		ModelGPT35Turbo:    failProvider(true),
		ModelClaudeInstant: failProvider(true),
	})

	_, err := engine.Route(context.Background(), &RouteRequest{
		Messages: userMessages("hello"),
		Category: CategoryBeginners,
		UserID:   "user-1",
	})
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("Route() error = %v, want ErrProviderUnavailable", err)
	}
	if len(budget.commits) != 0 {
		t.Errorf("commits = %d, want 0", len(budget.commits))
	}
}

func TestEngine_RouteFallbackFailureIsNotRetriedAgain(t *testing.T) {
	budget := &fakeBudget{budget: Budget{Used: 130000, Limit: 150000}}
	// Budget pressure selects the fallback directly; when it fails
	// retryable, no second model is tried (at most one retry, and never
	// the same model twice).
	fallback := failProvider(true)
	engine := newTestEngine(budget, map[string]CompletionProvider{
		ModelGPT35Turbo:    okProvider("primary answer", 10, 10),
		ModelClaudeInstant: fallback,
	})

	_, err := engine.Route(context.Background(), &RouteRequest{
		Messages: userMessages("hello"),
		Category: CategoryBeginners,
		UserID:   "user-1",
	})
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("Route() error = %v, want ErrProviderUnavailable", err)
	}
	if len(fallback.calls) != 1 {
		t.Errorf("fallback calls = %d, want 1", len(fallback.calls))
	}
}

func TestEngine_RouteCommitFailureReturnsWarning(t *testing.T) {
	budget := &fakeBudget{
		budget:    Budget{Used: 0, Limit: 150000},
		commitErr: ErrStoreUnavailable,
	}
	engine := newTestEngine(budget, map[string]CompletionProvider{
		ModelGPT35Turbo: okProvider("answer", 10, 10),
	})

	result, err := engine.Route(context.Background(), &RouteRequest{
		Messages: userMessages("hello"),
		Category: CategoryBeginners,
		UserID:   "user-1",
	})
	if err != nil {
		t.Fatalf("Route() error = %v, want nil (completed answer is never discarded)", err)
	}
	if result.Text != "answer" {
		t.Errorf("Text = %q, want the completion", result.Text)
	}
	if result.Warning == "" {
		t.Errorf("Warning should be set when the usage commit fails")
	}
}

func TestEngine_RouteAnonymous(t *testing.T) {
	budget := &fakeBudget{}
	provider := okProvider("free answer", 10, 10)
	engine := newTestEngine(budget, map[string]CompletionProvider{
		ModelClaude2: provider,
	})

	// Even a long technical question: anonymous requests skip complexity
	// scoring and always take the category primary.
	result, err := engine.Route(context.Background(), &RouteRequest{
		Messages: userMessages("A question of fiqh " + strings.Repeat("detail ", 120)),
		Category: CategoryScholar,
	})
	if err != nil {
		t.Fatalf("Route() error: %v", err)
	}
	if result.Model != ModelClaude2 {
		t.Errorf("Model = %q, want category primary %q", result.Model, ModelClaude2)
	}
	if budget.headroomCalls != 0 {
		t.Errorf("Headroom called %d times, want 0", budget.headroomCalls)
	}
	if len(budget.commits) != 0 {
		t.Errorf("commits = %d, want 0 (anonymous requests are unmetered)", len(budget.commits))
	}
}

func TestEngine_RouteCanceledContextSkipsCommit(t *testing.T) {
	budget := &fakeBudget{budget: Budget{Used: 0, Limit: 150000}}

	ctx, cancel := context.WithCancel(context.Background())
	// The provider finishes, but the caller has already gone away.
	provider := &fakeProvider{fn: func(ctx context.Context, model string) (*Completion, error) {
		cancel()
		return &Completion{Text: "too late", PromptTokens: 10, CompletionTokens: 10}, nil
	}}
	engine := newTestEngine(budget, map[string]CompletionProvider{ModelGPT35Turbo: provider})

	_, err := engine.Route(ctx, &RouteRequest{
		Messages: userMessages("hello"),
		Category: CategoryBeginners,
		UserID:   "user-1",
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Route() error = %v, want context.Canceled", err)
	}
	if len(budget.commits) != 0 {
		t.Errorf("commits = %d, want 0 (abandoned call is not billed)", len(budget.commits))
	}
}

func TestEngine_RouteNoProviderRegistered(t *testing.T) {
	budget := &fakeBudget{budget: Budget{Used: 0, Limit: 150000}}
	engine := newTestEngine(budget, nil)

	_, err := engine.Route(context.Background(), &RouteRequest{
		Messages: userMessages("hello"),
		Category: CategoryBeginners,
		UserID:   "user-1",
	})
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("Route() error = %v, want ErrProviderUnavailable", err)
	}
}
