package service

import (
	"context"
	"errors"
	"log"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"markethub/internal/http-api/dto"
	"markethub/internal/http-api/models"
	"markethub/internal/http-api/repository"
	"markethub/internal/notify"

	"gorm.io/gorm"
)

var (
	ErrInvalidScore      = errors.New("score must be an integer")
	ErrCommentTooLong    = errors.New("comment exceeds maximum length")
	ErrTargetNotFound    = errors.New("rating target not found")
	ErrCannotRateSelf    = errors.New("cannot rate yourself")
	ErrCannotRateOwnItem = errors.New("cannot rate your own listing")
)

const (
	minScore         = 1
	maxScore         = 5
	maxCommentLength = 4000
)

type RatingService interface {
	SubmitRating(ctx context.Context, raterID string, target models.RatingTarget, rawScore, comment string) (*dto.SubmitRatingResult, error)
	GetSummary(ctx context.Context, target models.RatingTarget) (*dto.RatingSummary, error)
	ListRatings(ctx context.Context, target models.RatingTarget, page, pageSize int) (*dto.PaginatedRatingResponse, error)
}

type ratingService struct {
	ratingRepo  repository.RatingRepository
	userRepo    repository.UserRepository
	listingRepo *repository.ListingRepo
	events      *notify.RatingEvents
}

func NewRatingService(
	ratingRepo repository.RatingRepository,
	userRepo repository.UserRepository,
	listingRepo *repository.ListingRepo,
	events *notify.RatingEvents,
) RatingService {
	return &ratingService{
		ratingRepo:  ratingRepo,
		userRepo:    userRepo,
		listingRepo: listingRepo,
		events:      events,
	}
}

// SubmitRating creates or updates the rater's rating for a target.
//
// The write path is optimistic: it always tries the insert first and treats a
// unique constraint violation as "the row already exists, update it". That
// covers both plain resubmission and the double-submit race, without a
// find-then-create window. The store's unique index stays the source of
// truth for one-rating-per-(rater,target).
func (s *ratingService) SubmitRating(ctx context.Context, raterID string, target models.RatingTarget, rawScore, comment string) (*dto.SubmitRatingResult, error) {
	score, err := parseScore(rawScore)
	if err != nil {
		return nil, err
	}

	if utf8.RuneCountInString(comment) > maxCommentLength {
		return nil, ErrCommentTooLong
	}

	if err := s.checkTarget(ctx, raterID, target); err != nil {
		return nil, err
	}

	rating := &models.Rating{
		RaterID: raterID,
		Score:   &score,
		Comment: comment,
	}
	if target.Kind == models.TargetListing {
		rating.ListingID = &target.ListingID
	} else {
		rating.RateeID = &target.UserID
	}

	created := true
	if err := s.ratingRepo.Create(rating); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}

		// Conflict: a row for this (rater, target) pair already exists,
		// either from a previous submission or a concurrent one. Recover by
		// updating it in place; the conflict never reaches the caller.
		existing, ferr := s.ratingRepo.GetByRaterAndTarget(raterID, target)
		if ferr != nil {
			return nil, ferr
		}
		existing.Score = &score
		existing.Stars = nil // rewritten rows leave the legacy column behind
		existing.Comment = comment
		if uerr := s.ratingRepo.Update(existing); uerr != nil {
			return nil, uerr
		}
		rating = existing
		created = false
	} else {
		// Reload with rater data for the response
		rating, err = s.ratingRepo.GetByRaterAndTarget(raterID, target)
		if err != nil {
			return nil, err
		}
	}

	s.publishEvent(ctx, raterID, target, score, created)

	return &dto.SubmitRatingResult{
		Rating:  *dto.FromModelToRatingResponse(rating),
		Created: created,
	}, nil
}

// GetSummary recomputes the target's aggregate from the ledger. No cache sits
// in front of this read: a submit followed by a summary from the same caller
// always reflects the new row.
func (s *ratingService) GetSummary(ctx context.Context, target models.RatingTarget) (*dto.RatingSummary, error) {
	avg, count, err := s.ratingRepo.Aggregate(target)
	if err != nil {
		return nil, err
	}

	return &dto.RatingSummary{
		TargetID: target.TargetID(),
		Count:    count,
		Average:  roundAverage(avg),
	}, nil
}

// ListRatings retrieves all ratings for a target with pagination
func (s *ratingService) ListRatings(ctx context.Context, target models.RatingTarget, page, pageSize int) (*dto.PaginatedRatingResponse, error) {
	if err := s.targetExists(ctx, target); err != nil {
		return nil, err
	}

	ratings, total, err := s.ratingRepo.GetByTarget(target, page, pageSize)
	if err != nil {
		return nil, err
	}

	ratingResponses := make([]dto.RatingResponse, 0, len(ratings))
	for _, rating := range ratings {
		ratingResponses = append(ratingResponses, *dto.FromModelToRatingResponse(&rating))
	}

	return dto.NewPaginatedRatingResponse(ratingResponses, int(total), page, pageSize), nil
}

// checkTarget verifies the target exists and rejects self-rating before
// anything touches the ratings table.
func (s *ratingService) checkTarget(ctx context.Context, raterID string, target models.RatingTarget) error {
	switch target.Kind {
	case models.TargetListing:
		listing, err := s.listingRepo.GetByID(ctx, target.ListingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTargetNotFound
			}
			return err
		}
		if listing.OwnerID == raterID {
			return ErrCannotRateOwnItem
		}
	default:
		if raterID == target.UserID {
			return ErrCannotRateSelf
		}
		if _, err := s.userRepo.FindByID(target.UserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTargetNotFound
			}
			return err
		}
	}
	return nil
}

func (s *ratingService) targetExists(ctx context.Context, target models.RatingTarget) error {
	if target.Kind == models.TargetListing {
		if _, err := s.listingRepo.GetByID(ctx, target.ListingID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTargetNotFound
			}
			return err
		}
		return nil
	}
	if _, err := s.userRepo.FindByID(target.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTargetNotFound
		}
		return err
	}
	return nil
}

func (s *ratingService) publishEvent(ctx context.Context, raterID string, target models.RatingTarget, score int, created bool) {
	err := s.events.Publish(ctx, notify.RatingEvent{
		RaterID:    raterID,
		TargetKind: string(target.Kind),
		TargetID:   target.TargetID(),
		Score:      score,
		Created:    created,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("rating event publish failed: %v", err)
	}
}

// parseScore parses the submitted score and clamps it into [1,5].
//
// Silent clamping of out-of-range values is long-standing observable
// behavior: the original schema's CHECK constraint was paired with an
// application-side clamp, and callers were never told their 9 became a 5.
// Unparsable input is still a validation error.
func parseScore(raw string) (int, error) {
	score, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrInvalidScore
	}
	if score < minScore {
		score = minScore
	}
	if score > maxScore {
		score = maxScore
	}
	return score, nil
}

// roundAverage rounds half-up to 2 decimal places. Scores are non-negative so
// math.Round's half-away-from-zero is half-up here.
func roundAverage(avg float64) float64 {
	return math.Round(avg*100) / 100
}
