package models

import "time"

// Billing statuses as delivered by the payment provider's webhooks.
const (
	BillingStatusActive   = "active"
	BillingStatusTrialing = "trialing"
	BillingStatusPastDue  = "past_due"
	BillingStatusCanceled = "canceled"
)

// BillingRecord is an append-only snapshot of a user's subscription state.
// One row is written per webhook delivery; the newest row (highest id) is the
// authoritative status for the access gate.
type BillingRecord struct {
	ID          int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      string     `json:"user_id" gorm:"type:uuid;not null;index"`
	Status      string     `json:"status" gorm:"not null;size:20"`
	Provider    string     `json:"provider" gorm:"size:50"`
	ProviderRef string     `json:"provider_ref" gorm:"size:100"`
	PeriodEnd   *time.Time `json:"period_end,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`

	// Associations
	User User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
}

func (BillingRecord) TableName() string {
	return "billing_records"
}

// GrantsRating reports whether this subscription status allows submitting
// ratings.
func (b *BillingRecord) GrantsRating() bool {
	return b.Status == BillingStatusActive || b.Status == BillingStatusTrialing
}
