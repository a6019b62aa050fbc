package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/ustaz-ai/backend/internal/router"
	"github.com/ustaz-ai/backend/internal/services"
	"github.com/ustaz-ai/backend/pkg/response"
)

// ChatRouter is the routing engine as seen by the handler.
type ChatRouter interface {
	Route(ctx context.Context, req *router.RouteRequest) (*router.RouteResult, error)
}

// ChatHandler serves the chat endpoint.
type ChatHandler struct {
	engine ChatRouter
	queue  services.TaskQueue
}

func NewChatHandler(engine ChatRouter, queue services.TaskQueue) *ChatHandler {
	return &ChatHandler{engine: engine, queue: queue}
}

type chatRequest struct {
	Messages     []router.ChatMessage `json:"messages" binding:"dive"`
	UserCategory string               `json:"user_category"`
	UserID       string               `json:"user_id"`
}

type chatResponse struct {
	Response   string    `json:"response"`
	Model      string    `json:"model"`
	TokensUsed int64     `json:"tokens_used"`
	Cost       float64   `json:"cost"`
	Warning    string    `json:"warning,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Chat routes one chat request to an LLM backend and returns the answer.
func (h *ChatHandler) Chat(c *gin.Context) {
	// BindBodyWith reuses the body already consumed by the rate limiter.
	var req chatRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.Messages) == 0 {
		response.BadRequest(c, "messages array is required")
		return
	}
	if !router.ValidCategory(req.UserCategory) {
		response.BadRequest(c, "valid user category is required")
		return
	}

	result, err := h.engine.Route(c.Request.Context(), &router.RouteRequest{
		Messages: req.Messages,
		Category: router.Category(req.UserCategory),
		UserID:   req.UserID,
	})
	if err != nil {
		routeError(c, err)
		return
	}

	if result.Warning != "" {
		// The answer is fine but the usage commit was lost; keep a durable
		// trace for billing reconciliation.
		uid := req.UserID
		services.LogWarning("router", "usage_commit", "usage commit failed after successful completion", &uid,
			map[string]interface{}{"model": result.Model, "tokens": result.TokensUsed})
	}

	if req.UserID != "" && h.queue != nil {
		last := req.Messages[len(req.Messages)-1]
		if err := h.queue.Enqueue(&services.ConversationTask{
			UserID:           req.UserID,
			Category:         req.UserCategory,
			UserMessage:      last.Content,
			AssistantMessage: result.Text,
		}); err != nil {
			services.LogWarning("chat", "save_conversation", "failed to enqueue conversation: "+err.Error(), &req.UserID, nil)
		}
	}

	response.Success(c, chatResponse{
		Response:   result.Text,
		Model:      result.Model,
		TokensUsed: result.TokensUsed,
		Cost:       router.RoundUSD(result.CostUSD),
		Warning:    result.Warning,
		Timestamp:  time.Now().UTC(),
	})
}

// routeError maps engine errors onto the HTTP error taxonomy.
func routeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, router.ErrBudgetExceeded):
		response.TooManyRequests(c, "monthly token limit exceeded, please upgrade your plan or try again next month")
	case errors.Is(err, router.ErrProviderUnavailable):
		response.ServiceUnavailable(c, "AI service temporarily unavailable")
	case errors.Is(err, router.ErrUserNotFound):
		response.NotFound(c, "user not found")
	case errors.Is(err, router.ErrInvalidCategory):
		response.BadRequest(c, err.Error())
	default:
		response.ServerError(c, "internal server error")
	}
}
