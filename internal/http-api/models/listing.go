package models

import "time"

// Listing statuses
const (
	ListingOpen   = "open"
	ListingClosed = "closed"
)

type Listing struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	OwnerID     string    `json:"owner_id" gorm:"type:uuid;not null;index"`
	Title       string    `json:"title" gorm:"not null;size:200"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	Price       *float64  `json:"price,omitempty" gorm:"type:decimal(12,2)"`
	Category    *string   `json:"category,omitempty" gorm:"size:100;index"`
	Status      string    `json:"status" gorm:"default:'open';not null"` // "open" or "closed"
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Associations
	Owner User `json:"owner,omitempty" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE;"`
}

func (Listing) TableName() string {
	return "listings"
}
