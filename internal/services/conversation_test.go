package services

import (
	"context"
	"testing"

	"github.com/ustaz-ai/backend/internal/models"
)

func TestConversationService_SaveExchange(t *testing.T) {
	db := newTestDB(t)
	svc := NewConversationService(db)
	ctx := context.Background()

	user := seedUser(t, db, "beginners", models.TierFree, 0)

	task := &ConversationTask{
		UserID:           user.ID,
		Category:         "beginners",
		UserMessage:      "What is charity?",
		AssistantMessage: "Charity means giving to those in need.",
	}
	if err := svc.SaveExchange(ctx, task); err != nil {
		t.Fatalf("SaveExchange() error: %v", err)
	}

	var convs []models.Conversation
	db.Where("user_id = ?", user.ID).Find(&convs)
	if len(convs) != 1 {
		t.Fatalf("conversations = %d, want 1", len(convs))
	}
	if convs[0].Category != "beginners" {
		t.Errorf("Category = %q, want beginners", convs[0].Category)
	}
	if convs[0].Title == "" {
		t.Errorf("new conversation should get a title")
	}

	var msgs []models.Message
	db.Where("conversation_id = ?", convs[0].ID).Order("id").Find(&msgs)
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want user/assistant pair", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Content != task.UserMessage {
		t.Errorf("first message = %+v", msgs[0])
	}
	if msgs[1].Role != "assistant" || msgs[1].Content != task.AssistantMessage {
		t.Errorf("second message = %+v", msgs[1])
	}
}

func TestConversationService_ReusesActiveConversation(t *testing.T) {
	db := newTestDB(t)
	svc := NewConversationService(db)
	ctx := context.Background()

	user := seedUser(t, db, "kids", models.TierFree, 0)

	for i := 0; i < 3; i++ {
		err := svc.SaveExchange(ctx, &ConversationTask{
			UserID: user.ID, Category: "kids",
			UserMessage: "question", AssistantMessage: "answer",
		})
		if err != nil {
			t.Fatalf("SaveExchange() #%d error: %v", i, err)
		}
	}

	var convCount int64
	db.Model(&models.Conversation{}).Where("user_id = ?", user.ID).Count(&convCount)
	if convCount != 1 {
		t.Errorf("conversations = %d, want 1 (exchanges within 24h share a session)", convCount)
	}

	var msgCount int64
	db.Model(&models.Message{}).Where("user_id = ?", user.ID).Count(&msgCount)
	if msgCount != 6 {
		t.Errorf("messages = %d, want 6", msgCount)
	}
}

func TestConversationService_SeparateConversationPerCategory(t *testing.T) {
	db := newTestDB(t)
	svc := NewConversationService(db)
	ctx := context.Background()

	user := seedUser(t, db, "scholar", models.TierPremium, 0)

	for _, cat := range []string{"scholar", "professional"} {
		err := svc.SaveExchange(ctx, &ConversationTask{
			UserID: user.ID, Category: cat,
			UserMessage: "question", AssistantMessage: "answer",
		})
		if err != nil {
			t.Fatalf("SaveExchange(%s) error: %v", cat, err)
		}
	}

	var convCount int64
	db.Model(&models.Conversation{}).Where("user_id = ?", user.ID).Count(&convCount)
	if convCount != 2 {
		t.Errorf("conversations = %d, want one per category", convCount)
	}
}

func TestConversationService_RecentConversations(t *testing.T) {
	db := newTestDB(t)
	svc := NewConversationService(db)

	user := seedUser(t, db, "beginners", models.TierFree, 0)

	convs, err := svc.RecentConversations(user.ID, 5)
	if err != nil {
		t.Fatalf("RecentConversations() error: %v", err)
	}
	if len(convs) != 0 {
		t.Errorf("RecentConversations() = %d rows, want 0 for a fresh user", len(convs))
	}

	err = svc.SaveExchange(context.Background(), &ConversationTask{
		UserID: user.ID, Category: "beginners",
		UserMessage: "q", AssistantMessage: "a",
	})
	if err != nil {
		t.Fatalf("SaveExchange() error: %v", err)
	}

	convs, err = svc.RecentConversations(user.ID, 5)
	if err != nil {
		t.Fatalf("RecentConversations() error: %v", err)
	}
	if len(convs) != 1 {
		t.Errorf("RecentConversations() = %d rows, want 1", len(convs))
	}
}
