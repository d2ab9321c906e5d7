package models

import "time"

type Message struct {
	ID          int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	SenderID    string     `json:"sender_id" gorm:"type:uuid;not null;index"`
	RecipientID string     `json:"recipient_id" gorm:"type:uuid;not null;index"`
	Body        string     `json:"body" gorm:"not null;type:text"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`

	// Associations
	Sender    User `json:"sender,omitempty" gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE;"`
	Recipient User `json:"recipient,omitempty" gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE;"`
}

func (Message) TableName() string {
	return "messages"
}
