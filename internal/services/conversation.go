package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ustaz-ai/backend/internal/models"
	"gorm.io/gorm"
)

// ConversationService persists chat transcripts. Saving runs off the request
// path (through the task queue) and is best effort: a failure here never
// affects the chat response.
type ConversationService struct {
	db *gorm.DB
}

func NewConversationService(db *gorm.DB) *ConversationService {
	return &ConversationService{db: db}
}

// SaveExchange appends one user/assistant message pair to the user's active
// conversation, creating a new conversation when none is active.
func (s *ConversationService) SaveExchange(ctx context.Context, task *ConversationTask) error {
	convID, err := s.getOrCreateConversation(ctx, task.UserID, task.Category)
	if err != nil {
		return err
	}

	msgs := []models.Message{
		{ConversationID: convID, UserID: task.UserID, Role: "user", Content: task.UserMessage},
		{ConversationID: convID, UserID: task.UserID, Role: "assistant", Content: task.AssistantMessage},
	}
	if err := s.db.WithContext(ctx).Create(&msgs).Error; err != nil {
		return fmt.Errorf("save messages: %w", err)
	}

	return s.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("id = ?", convID).
		UpdateColumn("updated_at", time.Now()).Error
}

// getOrCreateConversation returns the user's conversation for this category
// from the last 24 hours, or creates a fresh one.
func (s *ConversationService) getOrCreateConversation(ctx context.Context, userID, category string) (string, error) {
	cutoff := time.Now().Add(-24 * time.Hour)

	var conv models.Conversation
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND category = ? AND created_at >= ?", userID, category, cutoff).
		Order("created_at DESC").
		First(&conv).Error
	if err == nil {
		return conv.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("look up conversation: %w", err)
	}

	conv = models.Conversation{
		ID:       uuid.NewString(),
		UserID:   userID,
		Category: category,
		Title:    "Learning Session - " + time.Now().Format("2006-01-02"),
	}
	if err := s.db.WithContext(ctx).Create(&conv).Error; err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	return conv.ID, nil
}

// RecentConversations returns the user's newest conversations.
func (s *ConversationService) RecentConversations(userID string, limit int) ([]models.Conversation, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}

	var convs []models.Conversation
	err := s.db.Where("user_id = ?", userID).
		Order("updated_at DESC").Limit(limit).Find(&convs).Error
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []models.Conversation{}
	}
	return convs, nil
}
