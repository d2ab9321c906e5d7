package dto

import (
	"encoding/json"
	"time"

	"markethub/internal/http-api/models"
)

// SubmitRatingDTO for creating or updating a rating. Score is a json.Number
// so the service layer owns parsing; historically the API accepted both
// numeric and string-encoded scores.
type SubmitRatingDTO struct {
	Score   json.Number `json:"score" binding:"required"`
	Comment string      `json:"comment"`
}

// RatingResponse for returning rating information (for list view - without IDs)
type RatingResponse struct {
	Username  string    `json:"username"`
	Score     int       `json:"score"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromModelToRatingResponse converts a Rating model to RatingResponse DTO
func FromModelToRatingResponse(rating *models.Rating) *RatingResponse {
	return &RatingResponse{
		Username:  rating.Rater.Username,
		Score:     rating.EffectiveScore(),
		Comment:   rating.Comment,
		CreatedAt: rating.CreatedAt,
		UpdatedAt: rating.UpdatedAt,
	}
}

// SubmitRatingResult wraps the stored rating and whether it was newly created
type SubmitRatingResult struct {
	Rating  RatingResponse `json:"rating"`
	Created bool           `json:"created"`
}

// RatingSummary is the on-demand aggregate for a target. Average is rounded
// to 2 decimal places; an unrated target reports count 0 and average 0.
type RatingSummary struct {
	TargetID string  `json:"target_id"`
	Count    int64   `json:"count"`
	Average  float64 `json:"average"`
}

// PaginatedRatingResponse for returning paginated ratings
type PaginatedRatingResponse struct {
	Data       []RatingResponse `json:"data"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	Total      int              `json:"total"`
	TotalPages int              `json:"total_pages"`
}

// NewPaginatedRatingResponse creates a paginated rating response
func NewPaginatedRatingResponse(data []RatingResponse, total, page, pageSize int) *PaginatedRatingResponse {
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}

	return &PaginatedRatingResponse{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
