package handler

import (
	"errors"
	"net/http"
	"strconv"

	"markethub/internal/http-api/dto"
	"markethub/internal/http-api/models"
	"markethub/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

type RatingHandler struct {
	ratingService service.RatingService
	userService   service.UserService
	gate          service.AccessGate
}

func NewRatingHandler(ratingService service.RatingService, userService service.UserService, gate service.AccessGate) *RatingHandler {
	return &RatingHandler{
		ratingService: ratingService,
		userService:   userService,
		gate:          gate,
	}
}

// RegisterUserRoutes registers rating routes nested under user profiles.
// Reads are public; submission requires authentication.
func (h *RatingHandler) RegisterUserRoutes(public, authed *gin.RouterGroup) {
	reads := public.Group("/:user_id/ratings")
	{
		reads.GET("", h.ListForUser)
		reads.GET("/summary", h.SummaryForUser)
	}
	authed.POST("/:user_id/ratings", h.SubmitForUser)
}

// RegisterListingRoutes registers rating routes nested under listings
func (h *RatingHandler) RegisterListingRoutes(public, authed *gin.RouterGroup) {
	reads := public.Group("/:listing_id/ratings")
	{
		reads.GET("", h.ListForListing)
		reads.GET("/summary", h.SummaryForListing)
	}
	authed.POST("/:listing_id/ratings", h.SubmitForListing)
}

// SubmitForUser creates or updates the caller's rating of another user
// POST /api/users/:user_id/ratings
func (h *RatingHandler) SubmitForUser(c *gin.Context) {
	h.submit(c, models.UserTarget(c.Param("user_id")))
}

// SubmitForListing creates or updates the caller's rating of a listing
// POST /api/listings/:listing_id/ratings
func (h *RatingHandler) SubmitForListing(c *gin.Context) {
	listingID, err := strconv.ParseInt(c.Param("listing_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}
	h.submit(c, models.ListingTarget(listingID))
}

func (h *RatingHandler) submit(c *gin.Context, target models.RatingTarget) {
	// Get user ID from context (set by AuthMiddleware)
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	raterID := userID.(string)

	// The gate reads the stored user, not the token: a tier change since
	// login takes effect on the next request, not the next login.
	rater, err := h.userService.GetByID(raterID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	if !h.gate.CanRate(rater) {
		c.JSON(http.StatusForbidden, gin.H{"error": service.ErrUpgradeRequired.Error()})
		return
	}

	var req dto.SubmitRatingDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.ratingService.SubmitRating(c.Request.Context(), raterID, target, req.Score.String(), req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTargetNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidScore), errors.Is(err, service.ErrCommentTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrCannotRateSelf), errors.Is(err, service.ErrCannotRateOwnItem):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// SummaryForUser retrieves the rating aggregate for a user
// GET /api/users/:user_id/ratings/summary
func (h *RatingHandler) SummaryForUser(c *gin.Context) {
	h.summary(c, models.UserTarget(c.Param("user_id")))
}

// SummaryForListing retrieves the rating aggregate for a listing
// GET /api/listings/:listing_id/ratings/summary
func (h *RatingHandler) SummaryForListing(c *gin.Context) {
	listingID, err := strconv.ParseInt(c.Param("listing_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}
	h.summary(c, models.ListingTarget(listingID))
}

func (h *RatingHandler) summary(c *gin.Context, target models.RatingTarget) {
	// Never 404s: an unrated or unknown target reports the zero summary.
	summary, err := h.ratingService.GetSummary(c.Request.Context(), target)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ListForUser retrieves ratings of a user with pagination
// GET /api/users/:user_id/ratings?page=1&page_size=20
func (h *RatingHandler) ListForUser(c *gin.Context) {
	h.list(c, models.UserTarget(c.Param("user_id")))
}

// ListForListing retrieves ratings of a listing with pagination
// GET /api/listings/:listing_id/ratings?page=1&page_size=20
func (h *RatingHandler) ListForListing(c *gin.Context) {
	listingID, err := strconv.ParseInt(c.Param("listing_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return
	}
	h.list(c, models.ListingTarget(listingID))
}

func (h *RatingHandler) list(c *gin.Context, target models.RatingTarget) {
	page, pageSize := paginationParams(c)

	ratings, err := h.ratingService.ListRatings(c.Request.Context(), target, page, pageSize)
	if err != nil {
		if errors.Is(err, service.ErrTargetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ratings)
}

func paginationParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
