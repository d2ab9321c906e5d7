package repository

import (
	"markethub/internal/http-api/models"

	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(message *models.Message) error
	Conversation(userA, userB string, page, pageSize int) ([]models.Message, int64, error)
	Inbox(userID string, page, pageSize int) ([]models.Message, int64, error)
	MarkRead(messageID int64, recipientID string) error
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create a new message
func (r *messageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

// Conversation retrieves messages exchanged between two users, newest first
func (r *messageRepository) Conversation(userA, userB string, page, pageSize int) ([]models.Message, int64, error) {
	var messages []models.Message
	var total int64

	between := r.db.Model(&models.Message{}).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA)

	if err := between.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := r.db.
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA).
		Preload("Sender").
		Order("created_at DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// Inbox retrieves messages addressed to a user, newest first
func (r *messageRepository) Inbox(userID string, page, pageSize int) ([]models.Message, int64, error) {
	var messages []models.Message
	var total int64

	if err := r.db.Model(&models.Message{}).Where("recipient_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := r.db.Where("recipient_id = ?", userID).
		Preload("Sender").
		Order("created_at DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// MarkRead stamps read_at on a message, only if it is addressed to recipientID
func (r *messageRepository) MarkRead(messageID int64, recipientID string) error {
	result := r.db.Model(&models.Message{}).
		Where("id = ? AND recipient_id = ? AND read_at IS NULL", messageID, recipientID).
		Update("read_at", gorm.Expr("CURRENT_TIMESTAMP"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
