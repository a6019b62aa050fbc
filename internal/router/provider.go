package router

import (
	"context"
	"sort"
	"strings"

	"github.com/ustaz-ai/backend/internal/config"
)

// Completion is the raw result of one provider call.
type Completion struct {
	Text             string
	PromptTokens     int64
	CompletionTokens int64
}

// CompletionProvider generates a chat completion for one model family.
// Failures are reported as *ProviderError so the engine can decide whether
// the fallback retry applies.
type CompletionProvider interface {
	Complete(ctx context.Context, model, systemPrompt string, messages []ChatMessage, maxTokens int, temperature float64) (*Completion, error)
}

// Registry maps model identifiers to the provider family that serves them.
// Exact ids win over prefixes; among prefixes the longest match wins.
type Registry struct {
	exact    map[string]CompletionProvider
	prefixes map[string]CompletionProvider
}

func NewRegistry() *Registry {
	return &Registry{
		exact:    make(map[string]CompletionProvider),
		prefixes: make(map[string]CompletionProvider),
	}
}

// Register binds an exact model id to a provider.
func (r *Registry) Register(model string, p CompletionProvider) {
	r.exact[model] = p
}

// RegisterPrefix binds every model id starting with prefix to a provider.
func (r *Registry) RegisterPrefix(prefix string, p CompletionProvider) {
	r.prefixes[prefix] = p
}

// For resolves the provider serving a model id.
func (r *Registry) For(model string) (CompletionProvider, bool) {
	if p, ok := r.exact[model]; ok {
		return p, true
	}

	keys := make([]string, 0, len(r.prefixes))
	for k := range r.prefixes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	for _, k := range keys {
		if strings.HasPrefix(model, k) {
			return r.prefixes[k], true
		}
	}
	return nil, false
}

// BuildRegistry wires the provider adapters for every configured backend
// family. Families without credentials are still registered; their calls
// fail retryable so the engine can fall back.
func BuildRegistry(cfg *config.Config) *Registry {
	r := NewRegistry()
	r.RegisterPrefix("gpt", NewOpenAIProvider(&cfg.OpenAI))
	r.RegisterPrefix("claude", NewAnthropicProvider(&cfg.Anthropic))
	r.RegisterPrefix("gemini", NewGeminiProvider(&cfg.Gemini))
	r.RegisterPrefix("llama", NewOllamaProvider(&cfg.Ollama))
	return r
}
