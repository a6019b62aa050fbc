package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ustaz-ai/backend/internal/models"
	"github.com/ustaz-ai/backend/internal/router"
	"github.com/ustaz-ai/backend/internal/services"
	"github.com/ustaz-ai/backend/pkg/response"
	"gorm.io/gorm"
)

type UserHandler struct {
	db            *gorm.DB
	table         *router.StrategyTable
	conversations *services.ConversationService
}

func NewUserHandler(db *gorm.DB, table *router.StrategyTable) *UserHandler {
	return &UserHandler{
		db:            db,
		table:         table,
		conversations: services.NewConversationService(db),
	}
}

type createUserRequest struct {
	Email            string `json:"email" binding:"required,email"`
	Name             string `json:"name"`
	Category         string `json:"category" binding:"required"`
	SubscriptionTier string `json:"subscription_tier"`
}

// Create registers a new user with a zero-initialized token budget.
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if !router.ValidCategory(req.Category) {
		response.BadRequest(c, "valid category is required")
		return
	}

	tier := req.SubscriptionTier
	if tier == "" {
		tier = models.TierFree
	}
	if tier != models.TierFree && tier != models.TierPremium {
		response.BadRequest(c, "subscription_tier must be free or premium")
		return
	}

	user := models.User{
		ID:               uuid.NewString(),
		Email:            strings.ToLower(strings.TrimSpace(req.Email)),
		Name:             req.Name,
		Category:         req.Category,
		SubscriptionTier: tier,
	}
	if err := h.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			response.Conflict(c, "email already registered")
			return
		}
		response.ServerError(c, "failed to create user: "+err.Error())
		return
	}

	response.Created(c, user)
}

type userProfile struct {
	models.User
	MonthlyLimit        int64                 `json:"monthly_limit"`
	RemainingTokens     int64                 `json:"remaining_tokens"`
	RecentConversations []models.Conversation `json:"recent_conversations"`
}

// Get returns one user's profile including budget headroom and recent
// conversations.
func (h *UserHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	err := h.db.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c, "user not found")
		return
	}
	if err != nil {
		response.ServerError(c, "failed to load user: "+err.Error())
		return
	}

	limit := h.table.Limit(router.Category(user.Category))
	remaining := limit - user.MonthlyTokensUsed
	if remaining < 0 {
		remaining = 0
	}

	convs, err := h.conversations.RecentConversations(id, 5)
	if err != nil {
		convs = []models.Conversation{}
	}

	response.Success(c, userProfile{
		User:                user,
		MonthlyLimit:        limit,
		RemainingTokens:     remaining,
		RecentConversations: convs,
	})
}
