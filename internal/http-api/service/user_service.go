package service

import (
	"context"
	"errors"

	"markethub/internal/http-api/dto"
	"markethub/internal/http-api/models"
	"markethub/internal/http-api/repository"

	"gorm.io/gorm"
)

var ErrInvalidTier = errors.New("tier must be base or elevated")

type UserService interface {
	GetByID(id string) (*models.User, error)
	GetProfile(ctx context.Context, id string) (*dto.UserProfileResponse, error)
	SetTier(id string, tier string) error
}

type userService struct {
	userRepo   repository.UserRepository
	ratingRepo repository.RatingRepository
}

func NewUserService(userRepo repository.UserRepository, ratingRepo repository.RatingRepository) UserService {
	return &userService{
		userRepo:   userRepo,
		ratingRepo: ratingRepo,
	}
}

func (s *userService) GetByID(id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetProfile returns the public view of a user with their rating summary,
// recomputed from the ledger on each call.
func (s *userService) GetProfile(ctx context.Context, id string) (*dto.UserProfileResponse, error) {
	user, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	target := models.UserTarget(id)
	avg, count, err := s.ratingRepo.Aggregate(target)
	if err != nil {
		return nil, err
	}

	return dto.FromModelToUserProfile(user, dto.RatingSummary{
		TargetID: target.TargetID(),
		Count:    count,
		Average:  roundAverage(avg),
	}), nil
}

// SetTier is the admin override for a user's tier, used by support staff;
// billing webhooks normally own this field.
func (s *userService) SetTier(id string, tier string) error {
	if tier != models.TierBase && tier != models.TierElevated {
		return ErrInvalidTier
	}
	if err := s.userRepo.UpdateTier(id, tier); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
