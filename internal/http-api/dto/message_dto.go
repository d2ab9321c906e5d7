package dto

import (
	"time"

	"markethub/internal/http-api/models"
)

// SendMessageDTO for sending a message to another user
type SendMessageDTO struct {
	RecipientID string `json:"recipient_id" binding:"required,uuid"`
	Body        string `json:"body" binding:"required,max=10000"`
}

// MessageResponse for returning a single message
type MessageResponse struct {
	ID             int64      `json:"id"`
	SenderID       string     `json:"sender_id"`
	SenderUsername string     `json:"sender_username,omitempty"`
	RecipientID    string     `json:"recipient_id"`
	Body           string     `json:"body"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// FromModelToMessageResponse converts a Message model to MessageResponse DTO
func FromModelToMessageResponse(m *models.Message) *MessageResponse {
	return &MessageResponse{
		ID:             m.ID,
		SenderID:       m.SenderID,
		SenderUsername: m.Sender.Username,
		RecipientID:    m.RecipientID,
		Body:           m.Body,
		ReadAt:         m.ReadAt,
		CreatedAt:      m.CreatedAt,
	}
}

// PaginatedMessageResponse for returning paginated messages
type PaginatedMessageResponse struct {
	Data       []MessageResponse `json:"data"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	Total      int               `json:"total"`
	TotalPages int               `json:"total_pages"`
}

// NewPaginatedMessageResponse creates a paginated message response
func NewPaginatedMessageResponse(data []MessageResponse, total, page, pageSize int) *PaginatedMessageResponse {
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}

	return &PaginatedMessageResponse{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
