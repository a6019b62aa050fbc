package models

import "time"

// UsageLog records one billed LLM completion. Rows are append-only: they are
// written once by the routing engine after a successful completion and never
// updated or deleted afterward (cleanup removes whole rows past retention).
type UsageLog struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           string    `gorm:"index;size:36;not null" json:"user_id"`
	Model            string    `gorm:"size:100" json:"model"`
	PromptTokens     int64     `json:"prompt_tokens"`
	CompletionTokens int64     `json:"completion_tokens"`
	TokensUsed       int64     `json:"tokens_used"`
	CostUSD          float64   `json:"cost_usd"`
	Endpoint         string    `gorm:"size:50;index" json:"endpoint"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}

func (UsageLog) TableName() string { return "usage_logs" }
