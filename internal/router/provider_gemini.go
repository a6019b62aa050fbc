package router

import (
	"context"

	"github.com/ustaz-ai/backend/internal/config"
	"github.com/ustaz-ai/backend/pkg/logger"

	"google.golang.org/genai"
)

// GeminiProvider serves the gemini-* model family using the native SDK.
type GeminiProvider struct {
	cfg *config.GeminiConfig
}

func NewGeminiProvider(cfg *config.GeminiConfig) *GeminiProvider {
	return &GeminiProvider{cfg: cfg}
}

func (p *GeminiProvider) Complete(ctx context.Context, model, systemPrompt string, messages []ChatMessage, maxTokens int, temperature float64) (*Completion, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: p.cfg.APIKey,
	})
	if err != nil {
		return nil, &ProviderError{Model: model, Retryable: true, Err: err}
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		MaxOutputTokens:   int32(maxTokens),
		Temperature:       genai.Ptr(float32(temperature)),
	}

	resp, err := client.Models.GenerateContent(ctx, model, contents, genCfg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warnf("[Provider] Gemini API error for %s: %v", model, err)
		return nil, &ProviderError{Model: model, Retryable: true, Err: err}
	}

	var promptTokens, completionTokens int64
	if resp.UsageMetadata != nil {
		promptTokens = int64(resp.UsageMetadata.PromptTokenCount)
		completionTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &Completion{
		Text:             resp.Text(),
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
	}, nil
}
