package dto

import (
	"time"

	"markethub/internal/http-api/models"
)

// CreateListingDTO for publishing a new listing
type CreateListingDTO struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty" binding:"omitempty,gte=0"`
	Category    *string  `json:"category,omitempty" binding:"omitempty,max=100"`
}

// UpdateListingDTO for editing an existing listing
type UpdateListingDTO struct {
	Title       *string  `json:"title,omitempty" binding:"omitempty,max=200"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty" binding:"omitempty,gte=0"`
	Category    *string  `json:"category,omitempty" binding:"omitempty,max=100"`
	Status      *string  `json:"status,omitempty" binding:"omitempty,oneof=open closed"`
}

// ListingResponse for returning listing details. The rating fields are
// recomputed from the ledger on every read, never stored on the listing row.
type ListingResponse struct {
	ID            int64     `json:"id"`
	OwnerID       string    `json:"owner_id"`
	OwnerUsername string    `json:"owner_username,omitempty"`
	Title         string    `json:"title"`
	Description   *string   `json:"description,omitempty"`
	Price         *float64  `json:"price,omitempty"`
	Category      *string   `json:"category,omitempty"`
	Status        string    `json:"status"`
	RatingCount   int64     `json:"rating_count"`
	AverageRating float64   `json:"average_rating"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FromModelToListingResponse converts a Listing model to ListingResponse DTO
func FromModelToListingResponse(l *models.Listing, summary *RatingSummary) *ListingResponse {
	resp := &ListingResponse{
		ID:            l.ID,
		OwnerID:       l.OwnerID,
		OwnerUsername: l.Owner.Username,
		Title:         l.Title,
		Description:   l.Description,
		Price:         l.Price,
		Category:      l.Category,
		Status:        l.Status,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
	if summary != nil {
		resp.RatingCount = summary.Count
		resp.AverageRating = summary.Average
	}
	return resp
}

// PaginatedListingResponse for returning paginated listings
type PaginatedListingResponse struct {
	Data       []ListingResponse `json:"data"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	Total      int               `json:"total"`
	TotalPages int               `json:"total_pages"`
}

// NewPaginatedListingResponse creates a paginated listing response
func NewPaginatedListingResponse(data []ListingResponse, total, page, pageSize int) *PaginatedListingResponse {
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}

	return &PaginatedListingResponse{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
