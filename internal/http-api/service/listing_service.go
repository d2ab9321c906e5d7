package service

import (
	"context"
	"errors"

	"markethub/internal/http-api/dto"
	"markethub/internal/http-api/models"
	"markethub/internal/http-api/repository"

	"gorm.io/gorm"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrNotListingOwner = errors.New("you do not own this listing")
)

type ListingService interface {
	Create(ctx context.Context, ownerID string, req dto.CreateListingDTO) (*dto.ListingResponse, error)
	Update(ctx context.Context, id int64, ownerID string, req dto.UpdateListingDTO) (*dto.ListingResponse, error)
	Delete(ctx context.Context, id int64, ownerID string) error
	GetByID(ctx context.Context, id int64) (*dto.ListingResponse, error)
	List(ctx context.Context, page, pageSize int) (*dto.PaginatedListingResponse, error)
}

type listingService struct {
	listingRepo *repository.ListingRepo
	ratingRepo  repository.RatingRepository
}

func NewListingService(listingRepo *repository.ListingRepo, ratingRepo repository.RatingRepository) ListingService {
	return &listingService{
		listingRepo: listingRepo,
		ratingRepo:  ratingRepo,
	}
}

func (s *listingService) Create(ctx context.Context, ownerID string, req dto.CreateListingDTO) (*dto.ListingResponse, error) {
	listing := &models.Listing{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Status:      models.ListingOpen,
	}

	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}

	// fresh listing has no ratings yet
	return dto.FromModelToListingResponse(listing, nil), nil
}

func (s *listingService) Update(ctx context.Context, id int64, ownerID string, req dto.UpdateListingDTO) (*dto.ListingResponse, error) {
	listing, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	if listing.OwnerID != ownerID {
		return nil, ErrNotListingOwner
	}

	if req.Title != nil {
		listing.Title = *req.Title
	}
	if req.Description != nil {
		listing.Description = req.Description
	}
	if req.Price != nil {
		listing.Price = req.Price
	}
	if req.Category != nil {
		listing.Category = req.Category
	}
	if req.Status != nil {
		listing.Status = *req.Status
	}

	if err := s.listingRepo.Update(ctx, id, listing); err != nil {
		return nil, err
	}

	return s.withSummary(ctx, listing)
}

func (s *listingService) Delete(ctx context.Context, id int64, ownerID string) error {
	if err := s.listingRepo.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	return nil
}

func (s *listingService) GetByID(ctx context.Context, id int64) (*dto.ListingResponse, error) {
	listing, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	return s.withSummary(ctx, listing)
}

func (s *listingService) List(ctx context.Context, page, pageSize int) (*dto.PaginatedListingResponse, error) {
	listings, total, err := s.listingRepo.GetAll(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ListingResponse, 0, len(listings))
	for i := range listings {
		resp, err := s.withSummary(ctx, &listings[i])
		if err != nil {
			return nil, err
		}
		responses = append(responses, *resp)
	}

	return dto.NewPaginatedListingResponse(responses, int(total), page, pageSize), nil
}

// withSummary attaches the recomputed rating aggregate to a listing response.
// Nothing is denormalized onto the listing row; the ledger is re-read on
// every view so the numbers are never stale.
func (s *listingService) withSummary(ctx context.Context, listing *models.Listing) (*dto.ListingResponse, error) {
	avg, count, err := s.ratingRepo.Aggregate(models.ListingTarget(listing.ID))
	if err != nil {
		return nil, err
	}

	return dto.FromModelToListingResponse(listing, &dto.RatingSummary{
		TargetID: models.ListingTarget(listing.ID).TargetID(),
		Count:    count,
		Average:  roundAverage(avg),
	}), nil
}
