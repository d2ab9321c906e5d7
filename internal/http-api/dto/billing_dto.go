package dto

import (
	"time"

	"markethub/internal/http-api/models"
)

// BillingWebhookDTO is the normalized payload the payment provider's webhook
// relay posts after signature verification (verification itself lives at the
// edge, not in this service).
type BillingWebhookDTO struct {
	UserID      string     `json:"user_id" binding:"required,uuid"`
	Status      string     `json:"status" binding:"required,oneof=active trialing past_due canceled"`
	Provider    string     `json:"provider" binding:"required,max=50"`
	ProviderRef string     `json:"provider_ref" binding:"max=100"`
	PeriodEnd   *time.Time `json:"period_end,omitempty"`
}

// BillingStatusResponse reports a user's current subscription state
type BillingStatusResponse struct {
	UserID    string     `json:"user_id"`
	Tier      string     `json:"tier"`
	Status    string     `json:"status,omitempty"`
	PeriodEnd *time.Time `json:"period_end,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// UserProfileResponse is the public view of a user, with their rating summary
type UserProfileResponse struct {
	ID        string        `json:"id"`
	Username  string        `json:"username"`
	Tier      string        `json:"tier"`
	CreatedAt time.Time     `json:"created_at"`
	Ratings   RatingSummary `json:"ratings"`
}

// FromModelToUserProfile converts a User model and summary to the public profile DTO
func FromModelToUserProfile(u *models.User, summary RatingSummary) *UserProfileResponse {
	return &UserProfileResponse{
		ID:        u.ID,
		Username:  u.Username,
		Tier:      u.Tier,
		CreatedAt: u.CreatedAt,
		Ratings:   summary,
	}
}
