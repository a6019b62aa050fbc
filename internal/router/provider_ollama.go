package router

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/ustaz-ai/backend/internal/config"
	"github.com/ustaz-ai/backend/pkg/logger"

	"github.com/ollama/ollama/api"
)

// OllamaProvider serves self-hosted llama* models through a local Ollama
// server. Completions bill at zero cost.
type OllamaProvider struct {
	baseURL string
}

func NewOllamaProvider(cfg *config.OllamaConfig) *OllamaProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaProvider{baseURL: baseURL}
}

func (p *OllamaProvider) Complete(ctx context.Context, model, systemPrompt string, messages []ChatMessage, maxTokens int, temperature float64) (*Completion, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, &ProviderError{Model: model, Retryable: false, Err: err}
	}
	client := api.NewClient(u, http.DefaultClient)

	msgs := make([]api.Message, 0, len(messages)+1)
	msgs = append(msgs, api.Message{Role: RoleSystem, Content: systemPrompt})
	for _, m := range messages {
		if m.Role == RoleSystem {
			continue
		}
		msgs = append(msgs, api.Message{Role: m.Role, Content: m.Content})
	}

	var (
		text    strings.Builder
		metrics api.Metrics
	)
	err = client.Chat(ctx, &api.ChatRequest{
		Model:    model,
		Messages: msgs,
		Options: map[string]interface{}{
			"temperature": temperature,
			"num_predict": maxTokens,
		},
	}, func(resp api.ChatResponse) error {
		text.WriteString(resp.Message.Content)
		if resp.Done {
			metrics = resp.Metrics
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warnf("[Provider] Ollama API error for %s: %v", model, err)
		return nil, &ProviderError{Model: model, Retryable: true, Err: err}
	}

	return &Completion{
		Text:             text.String(),
		PromptTokens:     int64(metrics.PromptEvalCount),
		CompletionTokens: int64(metrics.EvalCount),
	}, nil
}
