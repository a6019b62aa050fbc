package router

import (
	"context"
	"errors"

	"github.com/ustaz-ai/backend/internal/config"
	"github.com/ustaz-ai/backend/pkg/logger"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider serves the gpt-* model family (and OpenAI-compatible
// endpoints via a custom base URL).
type OpenAIProvider struct {
	client *openai.Client
}

func NewOpenAIProvider(cfg *config.OpenAIConfig) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(clientConfig)}
}

func (p *OpenAIProvider) Complete(ctx context.Context, model, systemPrompt string, messages []ChatMessage, maxTokens int, temperature float64) (*Completion, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range messages {
		if m.Role == RoleSystem {
			continue
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: float32(temperature),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warnf("[Provider] OpenAI API error for %s: %v", model, err)
		return nil, &ProviderError{Model: model, Retryable: openaiRetryable(err), Err: err}
	}

	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Model: model, Retryable: true, Err: errors.New("empty response from OpenAI")}
	}

	return &Completion{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     int64(resp.Usage.PromptTokens),
		CompletionTokens: int64(resp.Usage.CompletionTokens),
	}, nil
}

// openaiRetryable classifies API failures: rate limits and upstream 5xx are
// worth one fallback attempt, client-side 4xx are not. Transport errors
// (no APIError) count as retryable.
func openaiRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	return true
}
