package service

import (
	"context"
	"fmt"
	"testing"

	"markethub/database"
	"markethub/internal/http-api/models"
	"markethub/internal/http-api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// TranslateError must match production config: the upsert conflict
	// recovery depends on gorm.ErrDuplicatedKey
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		Tier:     models.TierBase,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newTestRatingService(db *gorm.DB) RatingService {
	return NewRatingService(
		repository.NewRatingRepository(db),
		repository.NewUserRepository(db),
		repository.NewListingRepo(db),
		nil, // no event publisher in tests
	)
}

func TestSubmitRatingCreateThenUpdate(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestRatingService(db)
	ctx := context.Background()

	rater := createTestUser(t, db, "rater")
	ratee := createTestUser(t, db, "ratee")
	target := models.UserTarget(ratee.ID)

	first, err := svc.SubmitRating(ctx, rater.ID, target, "5", "a")
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, 5, first.Rating.Score)

	second, err := svc.SubmitRating(ctx, rater.ID, target, "3", "b")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, 3, second.Rating.Score)
	assert.Equal(t, "b", second.Rating.Comment)

	// exactly one row, and the summary reflects the update
	var count int64
	require.NoError(t, db.Model(&models.Rating{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	summary, err := svc.GetSummary(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Count)
	assert.Equal(t, 3.00, summary.Average)
}

func TestSubmitRatingClampsScore(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestRatingService(db)
	ctx := context.Background()

	rater := createTestUser(t, db, "rater")
	ratee := createTestUser(t, db, "ratee")
	target := models.UserTarget(ratee.ID)

	// out-of-range scores are clamped, never rejected
	result, err := svc.SubmitRating(ctx, rater.ID, target, "9", "x")
	require.NoError(t, err)
	assert.Equal(t, 5, result.Rating.Score)

	result, err = svc.SubmitRating(ctx, rater.ID, target, "-3", "x")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rating.Score)
}

func TestSubmitRatingRejectsBadScore(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestRatingService(db)
	ctx := context.Background()

	rater := createTestUser(t, db, "rater")
	ratee := createTestUser(t, db, "ratee")

	_, err := svc.SubmitRating(ctx, rater.ID, models.UserTarget(ratee.ID), "five", "x")
	assert.ErrorIs(t, err, ErrInvalidScore)

	var count int64
	require.NoError(t, db.Model(&models.Rating{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSubmitRatingRejectsSelf(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestRatingService(db)
	ctx := context.Background()

	rater := createTestUser(t, db, "rater")

	_, err := svc.SubmitRating(ctx, rater.ID, models.UserTarget(rater.ID), "5", "x")
	assert.ErrorIs(t, err, ErrCannotRateSelf)

	var count int64
	require.NoError(t, db.Model(&models.Rating{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSubmitRatingRejectsOwnListing(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestRatingService(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner")
	listing := &models.Listing{OwnerID: owner.ID, Title: "Logo design", Status: models.ListingOpen}
	require.NoError(t, db.Create(listing).Error)

	_, err := svc.SubmitRating(ctx, owner.ID, models.ListingTarget(listing.ID), "5", "x")
	assert.ErrorIs(t, err, ErrCannotRateOwnItem)
}

func TestSubmitRatingUnknownTarget(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestRatingService(db)
	ctx := context.Background()

	rater := createTestUser(t, db, "rater")

	_, err := svc.SubmitRating(ctx, rater.ID, models.UserTarget("00000000-0000-0000-0000-000000000000"), "5", "x")
	assert.ErrorIs(t, err, ErrTargetNotFound)

	_, err = svc.SubmitRating(ctx, rater.ID, models.ListingTarget(9999), "5", "x")
	assert.ErrorIs(t, err, ErrTargetNotFound)
}

func TestSubmitRatingCommentTooLong(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestRatingService(db)
	ctx := context.Background()

	rater := createTestUser(t, db, "rater")
	ratee := createTestUser(t, db, "ratee")

	long := make([]byte, 4001)
	for i := range long {
		long[i] = 'a'
	}

	_, err := svc.SubmitRating(ctx, rater.ID, models.UserTarget(ratee.ID), "5", string(long))
	assert.ErrorIs(t, err, ErrCommentTooLong)
}

func TestSubmitRatingRecoversFromConflict(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestRatingService(db)
	ctx := context.Background()

	rater := createTestUser(t, db, "rater")
	ratee := createTestUser(t, db, "ratee")
	target := models.UserTarget(ratee.ID)

	// Simulate a concurrent submit winning the race: the row already exists
	// when the service's create runs. The constraint violation must be
	// absorbed and turned into an update.
	two := 2
	require.NoError(t, db.Create(&models.Rating{
		RaterID: rater.ID,
		RateeID: &ratee.ID,
		Score:   &two,
		Comment: "racing",
	}).Error)

	result, err := svc.SubmitRating(ctx, rater.ID, target, "4", "mine")
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, 4, result.Rating.Score)

	var count int64
	require.NoError(t, db.Model(&models.Rating{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetSummaryEmptyTarget(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestRatingService(db)
	ctx := context.Background()

	ratee := createTestUser(t, db, "unrated")

	summary, err := svc.GetSummary(ctx, models.UserTarget(ratee.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.Count)
	assert.Equal(t, 0.00, summary.Average)
}

func TestGetSummaryIncludesLegacyStars(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestRatingService(db)
	ctx := context.Background()

	ratee := createTestUser(t, db, "ratee")
	oldRater := createTestUser(t, db, "old-rater")
	newRater := createTestUser(t, db, "new-rater")

	// pre-migration row: only the legacy stars column carries the value
	legacy := 2
	require.NoError(t, db.Create(&models.Rating{
		RaterID: oldRater.ID,
		RateeID: &ratee.ID,
		Stars:   &legacy,
	}).Error)

	_, err := svc.SubmitRating(ctx, newRater.ID, models.UserTarget(ratee.ID), "4", "")
	require.NoError(t, err)

	summary, err := svc.GetSummary(ctx, models.UserTarget(ratee.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Count)
	assert.Equal(t, 3.00, summary.Average) // (2 + 4) / 2
}

func TestGetSummaryRoundsHalfUp(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestRatingService(db)
	ctx := context.Background()

	ratee := createTestUser(t, db, "ratee")
	target := models.UserTarget(ratee.ID)

	// 5+5+5+5+4+4+4+3 = 35 over 8 raters -> 4.375 -> 4.38
	scores := []string{"5", "5", "5", "5", "4", "4", "4", "3"}
	for i, score := range scores {
		rater := createTestUser(t, db, fmt.Sprintf("rater-%d", i))
		_, err := svc.SubmitRating(ctx, rater.ID, target, score, "")
		require.NoError(t, err)
	}

	summary, err := svc.GetSummary(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, int64(8), summary.Count)
	assert.Equal(t, 4.38, summary.Average)
}

func TestListRatingsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestRatingService(db)
	ctx := context.Background()

	ratee := createTestUser(t, db, "ratee")
	target := models.UserTarget(ratee.ID)

	for i := 0; i < 3; i++ {
		rater := createTestUser(t, db, fmt.Sprintf("rater-%d", i))
		_, err := svc.SubmitRating(ctx, rater.ID, target, "5", fmt.Sprintf("comment-%d", i))
		require.NoError(t, err)
	}

	page, err := svc.ListRatings(ctx, target, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 2, page.TotalPages)
}

func TestListRatingsUnknownTarget(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestRatingService(db)

	_, err := svc.ListRatings(context.Background(), models.ListingTarget(404), 1, 20)
	assert.ErrorIs(t, err, ErrTargetNotFound)
}

func TestUserAndListingLedgersSeparate(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestRatingService(db)
	ctx := context.Background()

	rater := createTestUser(t, db, "rater")
	seller := createTestUser(t, db, "seller")
	listing := &models.Listing{OwnerID: seller.ID, Title: "Site audit", Status: models.ListingOpen}
	require.NoError(t, db.Create(listing).Error)

	// the same rater can rate both the seller and the seller's listing
	_, err := svc.SubmitRating(ctx, rater.ID, models.UserTarget(seller.ID), "5", "")
	require.NoError(t, err)
	_, err = svc.SubmitRating(ctx, rater.ID, models.ListingTarget(listing.ID), "2", "")
	require.NoError(t, err)

	userSummary, err := svc.GetSummary(ctx, models.UserTarget(seller.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(1), userSummary.Count)
	assert.Equal(t, 5.00, userSummary.Average)

	listingSummary, err := svc.GetSummary(ctx, models.ListingTarget(listing.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(1), listingSummary.Count)
	assert.Equal(t, 2.00, listingSummary.Average)
}
