package repository

import (
	"markethub/internal/http-api/models"

	"gorm.io/gorm"
)

type RatingRepository interface {
	Create(rating *models.Rating) error
	Update(rating *models.Rating) error
	GetByRaterAndTarget(raterID string, target models.RatingTarget) (*models.Rating, error)
	GetByTarget(target models.RatingTarget, page, pageSize int) ([]models.Rating, int64, error)
	Aggregate(target models.RatingTarget) (float64, int64, error)
}

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

// byTarget narrows a query to the column the target kind lives in. Keeping
// this in one place is what stops the ratee/listing split from leaking into
// two parallel query paths.
func byTarget(db *gorm.DB, target models.RatingTarget) *gorm.DB {
	if target.Kind == models.TargetListing {
		return db.Where("listing_id = ?", target.ListingID)
	}
	return db.Where("ratee_id = ?", target.UserID)
}

// Create inserts a new rating. A unique constraint violation comes back as
// gorm.ErrDuplicatedKey (TranslateError) and is the caller's signal to fall
// back to an update.
func (r *ratingRepository) Create(rating *models.Rating) error {
	return r.db.Create(rating).Error
}

// Update an existing rating
func (r *ratingRepository) Update(rating *models.Rating) error {
	return r.db.Save(rating).Error
}

// GetByRaterAndTarget retrieves a rater's rating for a specific target
func (r *ratingRepository) GetByRaterAndTarget(raterID string, target models.RatingTarget) (*models.Rating, error) {
	var rating models.Rating
	err := byTarget(r.db.Where("rater_id = ?", raterID), target).
		Preload("Rater").
		First(&rating).Error
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// GetByTarget retrieves all ratings for a target with pagination, newest first
func (r *ratingRepository) GetByTarget(target models.RatingTarget, page, pageSize int) ([]models.Rating, int64, error) {
	var ratings []models.Rating
	var total int64

	if err := byTarget(r.db.Model(&models.Rating{}), target).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := byTarget(r.db, target).
		Preload("Rater").
		Order("created_at DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&ratings).Error

	if err != nil {
		return nil, 0, err
	}

	return ratings, total, nil
}

// Aggregate computes the average and count of ratings for a target in a
// single pass pushed down to the store. Rows from before the score column
// rename still carry their value in stars, so the average has to read
// COALESCE(score, stars); aggregating score alone silently drops them.
// COALESCE around AVG keeps the zero-rating case at 0 instead of NULL.
func (r *ratingRepository) Aggregate(target models.RatingTarget) (float64, int64, error) {
	var agg struct {
		Average float64
		Total   int64
	}

	err := byTarget(r.db.Model(&models.Rating{}), target).
		Select("COALESCE(AVG(COALESCE(score, stars)), 0) as average, COUNT(*) as total").
		Scan(&agg).Error
	if err != nil {
		return 0, 0, err
	}

	return agg.Average, agg.Total, nil
}
