package service

import (
	"errors"

	"markethub/internal/http-api/dto"
	"markethub/internal/http-api/models"
	"markethub/internal/http-api/repository"

	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

type BillingService interface {
	ApplyWebhook(req dto.BillingWebhookDTO) (*dto.BillingStatusResponse, error)
	Status(userID string) (*dto.BillingStatusResponse, error)
}

type billingService struct {
	billingRepo repository.BillingRepository
	userRepo    repository.UserRepository
}

func NewBillingService(billingRepo repository.BillingRepository, userRepo repository.UserRepository) BillingService {
	return &billingService{
		billingRepo: billingRepo,
		userRepo:    userRepo,
	}
}

// ApplyWebhook appends a billing record and syncs the user's stored tier to
// match. The tier column is a convenience mirror; the access gate still reads
// the billing log for non-elevated users, so a missed sync degrades to a
// slower check, not a wrong answer.
func (s *billingService) ApplyWebhook(req dto.BillingWebhookDTO) (*dto.BillingStatusResponse, error) {
	user, err := s.userRepo.FindByID(req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	record := &models.BillingRecord{
		UserID:      req.UserID,
		Status:      req.Status,
		Provider:    req.Provider,
		ProviderRef: req.ProviderRef,
		PeriodEnd:   req.PeriodEnd,
	}

	if err := s.billingRepo.Create(record); err != nil {
		return nil, err
	}

	tier := models.TierBase
	if record.GrantsRating() {
		tier = models.TierElevated
	}
	if tier != user.Tier {
		if err := s.userRepo.UpdateTier(user.ID, tier); err != nil {
			return nil, err
		}
	}

	return &dto.BillingStatusResponse{
		UserID:    user.ID,
		Tier:      tier,
		Status:    record.Status,
		PeriodEnd: record.PeriodEnd,
		UpdatedAt: &record.CreatedAt,
	}, nil
}

// Status reports a user's current tier and latest billing record, if any.
func (s *billingService) Status(userID string) (*dto.BillingStatusResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	resp := &dto.BillingStatusResponse{
		UserID: user.ID,
		Tier:   user.Tier,
	}

	record, err := s.billingRepo.LatestByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resp, nil
		}
		return nil, err
	}

	resp.Status = record.Status
	resp.PeriodEnd = record.PeriodEnd
	resp.UpdatedAt = &record.CreatedAt
	return resp, nil
}
