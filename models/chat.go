package models

import (
	"time"
)

// ChatMessage is one turn of the career-advisor chat, persisted locally so the
// advisor can carry context across sessions.
type ChatMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index"`
	Role      string    `json:"role"` // "user", "assistant", "system"
	Content   string    `json:"content" gorm:"type:text"`
	Timestamp time.Time `json:"timestamp"`
}

// TableName specifies the table name for the ChatMessage model.
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// AdvisorRequest is the payload for the streaming career-advisor endpoint.
type AdvisorRequest struct {
	Message string `json:"message" binding:"required"`
}
