package models

import "time"

// Conversation groups the messages of one learning session. A conversation
// is considered active for 24 hours; after that a new one is created.
type Conversation struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"index;size:36;not null" json:"user_id"`
	Category  string    `gorm:"size:50" json:"category"`
	Title     string    `gorm:"size:255" json:"title"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a single chat turn inside a conversation.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID string    `gorm:"index;size:36;not null" json:"conversation_id"`
	UserID         string    `gorm:"index;size:36" json:"user_id"`
	Role           string    `gorm:"size:20;not null" json:"role"` // user, assistant
	Content        string    `gorm:"type:text" json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Conversation) TableName() string { return "conversations" }
func (Message) TableName() string      { return "messages" }
