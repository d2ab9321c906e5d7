package repository

import (
	"context"
	"fmt"

	"markethub/internal/http-api/models"

	"gorm.io/gorm"
)

type ListingRepo struct {
	db *gorm.DB
}

func NewListingRepo(db *gorm.DB) *ListingRepo {
	return &ListingRepo{db: db}
}

func (r *ListingRepo) GetAll(ctx context.Context, page, pageSize int) ([]models.Listing, int64, error) {
	var list []models.Listing
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Listing{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize

	if err := r.db.WithContext(ctx).
		Preload("Owner").
		Order("created_at desc").
		Limit(pageSize).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

func (r *ListingRepo) GetByID(ctx context.Context, id int64) (*models.Listing, error) {
	var l models.Listing
	if err := r.db.WithContext(ctx).Preload("Owner").First(&l, id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ListingRepo) GetByOwner(ctx context.Context, ownerID string, page, pageSize int) ([]models.Listing, int64, error) {
	var list []models.Listing
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Listing{}).Where("owner_id = ?", ownerID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Limit(pageSize).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

func (r *ListingRepo) Create(ctx context.Context, l *models.Listing) error {
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return fmt.Errorf("create listing: %w", err)
	}
	return nil
}

func (r *ListingRepo) Update(ctx context.Context, id int64, l *models.Listing) error {
	l.ID = id
	if err := r.db.WithContext(ctx).Save(l).Error; err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	return nil
}

// Delete removes a listing if it is owned by ownerID.
func (r *ListingRepo) Delete(ctx context.Context, id int64, ownerID string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Listing{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
