package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"markethub/database"
	"markethub/internal/http-api/models"
	"markethub/internal/http-api/repository"
	"markethub/internal/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type ratingTestEnv struct {
	db     *gorm.DB
	router *gin.Engine
}

// setupRatingEnv wires the full stack against an in-memory store. The auth
// middleware is replaced by a header-driven stub so tests can act as any user
// without minting tokens.
func setupRatingEnv(t *testing.T) *ratingTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	ratingRepo := repository.NewRatingRepository(db)
	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepo(db)
	billingRepo := repository.NewBillingRepository(db)

	ratingService := service.NewRatingService(ratingRepo, userRepo, listingRepo, nil)
	userService := service.NewUserService(userRepo, ratingRepo)
	gate := service.NewAccessGate(billingRepo)

	ratingHandler := NewRatingHandler(ratingService, userService, gate)

	router := gin.New()
	publicUsers := router.Group("/api/users")
	publicListings := router.Group("/api/listings")

	authed := router.Group("/api")
	authed.Use(func(c *gin.Context) {
		userID := c.GetHeader("X-Test-User")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}
		c.Set("userID", userID)
		c.Next()
	})

	ratingHandler.RegisterUserRoutes(publicUsers, authed.Group("/users"))
	ratingHandler.RegisterListingRoutes(publicListings, authed.Group("/listings"))

	return &ratingTestEnv{db: db, router: router}
}

func (e *ratingTestEnv) seedUser(t *testing.T, username, tier string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		Tier:     tier,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *ratingTestEnv) do(method, path, asUser, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if asUser != "" {
		req.Header.Set("X-Test-User", asUser)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestSubmitRatingRequiresAuth(t *testing.T) {
	env := setupRatingEnv(t)
	ratee := env.seedUser(t, "ratee", models.TierBase)

	w := env.do("POST", "/api/users/"+ratee.ID+"/ratings", "", `{"score": 5}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitRatingGateDeniesBaseTier(t *testing.T) {
	env := setupRatingEnv(t)
	rater := env.seedUser(t, "rater", models.TierBase)
	ratee := env.seedUser(t, "ratee", models.TierBase)

	// base tier, no billing record: denied before any validation runs
	w := env.do("POST", "/api/users/"+ratee.ID+"/ratings", rater.ID, `{"score": 5}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "upgrade")

	var count int64
	require.NoError(t, env.db.Model(&models.Rating{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSubmitRatingActiveBillingAllows(t *testing.T) {
	env := setupRatingEnv(t)
	rater := env.seedUser(t, "rater", models.TierBase)
	ratee := env.seedUser(t, "ratee", models.TierBase)
	require.NoError(t, env.db.Create(&models.BillingRecord{
		UserID: rater.ID,
		Status: models.BillingStatusActive,
	}).Error)

	w := env.do("POST", "/api/users/"+ratee.ID+"/ratings", rater.ID, `{"score": 5, "comment": "great"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["created"])
}

func TestSubmitRatingUpdateReturns200(t *testing.T) {
	env := setupRatingEnv(t)
	rater := env.seedUser(t, "rater", models.TierElevated)
	ratee := env.seedUser(t, "ratee", models.TierBase)
	path := "/api/users/" + ratee.ID + "/ratings"

	w := env.do("POST", path, rater.ID, `{"score": 5}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do("POST", path, rater.ID, `{"score": 3, "comment": "changed my mind"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["created"])
}

func TestSubmitRatingBadScore(t *testing.T) {
	env := setupRatingEnv(t)
	rater := env.seedUser(t, "rater", models.TierElevated)
	ratee := env.seedUser(t, "ratee", models.TierBase)

	w := env.do("POST", "/api/users/"+ratee.ID+"/ratings", rater.ID, `{"score": "abc"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitRatingUnknownTarget(t *testing.T) {
	env := setupRatingEnv(t)
	rater := env.seedUser(t, "rater", models.TierElevated)

	w := env.do("POST", "/api/users/00000000-0000-0000-0000-000000000000/ratings", rater.ID, `{"score": 5}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("POST", "/api/listings/9999/ratings", rater.ID, `{"score": 5}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSummaryIsPublicAndNeverMissing(t *testing.T) {
	env := setupRatingEnv(t)
	ratee := env.seedUser(t, "ratee", models.TierBase)

	// no auth header, no ratings: zero summary, not an error
	w := env.do("GET", "/api/users/"+ratee.ID+"/ratings/summary", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var summary map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, float64(0), summary["count"])
	assert.Equal(t, float64(0), summary["average"])
}

func TestListingRatingFlow(t *testing.T) {
	env := setupRatingEnv(t)
	seller := env.seedUser(t, "seller", models.TierBase)
	buyer := env.seedUser(t, "buyer", models.TierElevated)

	listing := &models.Listing{OwnerID: seller.ID, Title: "Consulting hour", Status: models.ListingOpen}
	require.NoError(t, env.db.Create(listing).Error)
	path := fmt.Sprintf("/api/listings/%d/ratings", listing.ID)

	w := env.do("POST", path, buyer.ID, `{"score": 4, "comment": "helpful"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = env.do("GET", path+"/summary", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var summary map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, float64(1), summary["count"])
	assert.Equal(t, float64(4), summary["average"])
}

func TestOwnerCannotRateOwnListing(t *testing.T) {
	env := setupRatingEnv(t)
	seller := env.seedUser(t, "seller", models.TierElevated)
	listing := &models.Listing{OwnerID: seller.ID, Title: "Consulting hour", Status: models.ListingOpen}
	require.NoError(t, env.db.Create(listing).Error)

	w := env.do("POST", fmt.Sprintf("/api/listings/%d/ratings", listing.ID), seller.ID, `{"score": 5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAverageProgression(t *testing.T) {
	env := setupRatingEnv(t)
	ratee := env.seedUser(t, "ratee", models.TierBase)
	a := env.seedUser(t, "alice", models.TierElevated)
	b := env.seedUser(t, "bob", models.TierElevated)
	path := "/api/users/" + ratee.ID + "/ratings"

	readAverage := func() float64 {
		w := env.do("GET", path+"/summary", "", "")
		require.Equal(t, http.StatusOK, w.Code)
		var summary map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
		return summary["average"].(float64)
	}

	w := env.do("POST", path, a.ID, `{"score": 5}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 5.00, readAverage())

	w = env.do("POST", path, b.ID, `{"score": 3}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 4.00, readAverage())

	// alice revises: her old 5 is replaced, not added
	w = env.do("POST", path, a.ID, `{"score": 1}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.00, readAverage())
}

func TestListRatingsPagination(t *testing.T) {
	env := setupRatingEnv(t)
	ratee := env.seedUser(t, "ratee", models.TierBase)
	path := "/api/users/" + ratee.ID + "/ratings"

	for i := 0; i < 3; i++ {
		rater := env.seedUser(t, fmt.Sprintf("rater-%d", i), models.TierElevated)
		w := env.do("POST", path, rater.ID, fmt.Sprintf(`{"score": 5, "comment": "c%d"}`, i))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := env.do("GET", path+"?page=1&page_size=2", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var page map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, float64(3), page["total"])
	assert.Len(t, page["data"], 2)
}
