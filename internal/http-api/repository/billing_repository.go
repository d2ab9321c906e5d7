package repository

import (
	"markethub/internal/http-api/models"

	"gorm.io/gorm"
)

// BillingRepository handles the append-only billing record log.
type BillingRepository interface {
	Create(record *models.BillingRecord) error
	LatestByUser(userID string) (*models.BillingRecord, error)
}

type billingRepository struct {
	db *gorm.DB
}

func NewBillingRepository(db *gorm.DB) BillingRepository {
	return &billingRepository{db: db}
}

func (r *billingRepository) Create(record *models.BillingRecord) error {
	return r.db.Create(record).Error
}

// LatestByUser returns the most recent billing record for a user. Ordering by
// id descending is the deterministic proxy for recency when created_at ties.
func (r *billingRepository) LatestByUser(userID string) (*models.BillingRecord, error) {
	var record models.BillingRecord
	err := r.db.Where("user_id = ?", userID).
		Order("id DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
