package models

import (
	"strconv"
	"time"
)

// Rating records one rater's evaluation of either another user or a listing.
// Exactly one of RateeID / ListingID is set per row; the composite unique
// indexes only bind rows where the target column is non-null, which is what
// enforces one-rating-per-(rater,target).
//
// Score is the current column. Stars is kept from the pre-migration schema
// and still carries the value for rows written before the rename, so every
// aggregation has to read COALESCE(score, stars).
type Rating struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	RaterID   string    `json:"rater_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_ratings_rater_ratee;uniqueIndex:idx_ratings_rater_listing"`
	RateeID   *string   `json:"ratee_id,omitempty" gorm:"type:uuid;index;uniqueIndex:idx_ratings_rater_ratee"`
	ListingID *int64    `json:"listing_id,omitempty" gorm:"index;uniqueIndex:idx_ratings_rater_listing"`
	Score     *int      `json:"score,omitempty" gorm:"check:score >= 1 AND score <= 5"`
	Stars     *int      `json:"stars,omitempty"` // legacy column, pre-migration rows only
	Comment   string    `json:"comment" gorm:"size:4000"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Associations
	Rater User `json:"rater,omitempty" gorm:"foreignKey:RaterID;constraint:OnDelete:CASCADE;"`
}

func (Rating) TableName() string {
	return "ratings"
}

// EffectiveScore returns the score to aggregate: the current column when set,
// otherwise the legacy stars column.
func (r *Rating) EffectiveScore() int {
	if r.Score != nil {
		return *r.Score
	}
	if r.Stars != nil {
		return *r.Stars
	}
	return 0
}

// TargetKind tells which foreign column of a rating is meaningful.
type TargetKind string

const (
	TargetUser    TargetKind = "user"
	TargetListing TargetKind = "listing"
)

// RatingTarget is the canonical "thing being rated": another user or a
// listing. Repositories use it to pick the right column instead of growing
// two parallel code paths.
type RatingTarget struct {
	Kind      TargetKind
	UserID    string
	ListingID int64
}

func UserTarget(userID string) RatingTarget {
	return RatingTarget{Kind: TargetUser, UserID: userID}
}

func ListingTarget(listingID int64) RatingTarget {
	return RatingTarget{Kind: TargetListing, ListingID: listingID}
}

// TargetID returns the target identifier as a string for responses.
func (t RatingTarget) TargetID() string {
	if t.Kind == TargetListing {
		return strconv.FormatInt(t.ListingID, 10)
	}
	return t.UserID
}
