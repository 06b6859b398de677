package repository

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"careercompass/models"
)

// ChatRepository persists advisor chat turns.
type ChatRepository interface {
	SaveMessage(message models.ChatMessage) error
	GetMessagesByUserID(userID string) ([]models.ChatMessage, error)
	DeleteMessagesByUserID(userID string) error
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a ChatRepository backed by the local database.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) SaveMessage(message models.ChatMessage) error {
	if message.UserID == "" {
		log.Printf("ERROR: [ChatRepository] SaveMessage: UserID cannot be empty.")
		return errors.New("user ID cannot be empty")
	}
	if err := r.db.Create(&message).Error; err != nil {
		log.Printf("ERROR: [ChatRepository] Failed to save message for userID %s: %v", message.UserID, err)
		return fmt.Errorf("save chat message for user %s: %w", message.UserID, err)
	}
	return nil
}

func (r *chatRepository) GetMessagesByUserID(userID string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.Where("user_id = ?", userID).Order("timestamp asc, id asc").Find(&messages).Error
	if err != nil {
		log.Printf("ERROR: [ChatRepository] Failed to retrieve messages for userID %s: %v", userID, err)
		return nil, fmt.Errorf("retrieve chat messages for user %s: %w", userID, err)
	}
	return messages, nil
}

// DeleteMessagesByUserID clears a user's advisor history, e.g. on account deletion.
func (r *chatRepository) DeleteMessagesByUserID(userID string) error {
	if err := r.db.Where("user_id = ?", userID).Delete(&models.ChatMessage{}).Error; err != nil {
		log.Printf("ERROR: [ChatRepository] Failed to delete messages for userID %s: %v", userID, err)
		return fmt.Errorf("delete chat messages for user %s: %w", userID, err)
	}
	log.Printf("INFO: [ChatRepository] Deleted chat history for userID %s.", userID)
	return nil
}
