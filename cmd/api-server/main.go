package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"markethub/database"
	"markethub/internal/config"
	"markethub/internal/http-api/handler"
	"markethub/internal/http-api/middleware"
	"markethub/internal/http-api/repository"
	"markethub/internal/http-api/service"
	"markethub/internal/notify"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Connect to the database
	db, err := database.Connect(cfg, logger)
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}

	// Rating event publisher; optional, the API runs fine without redis
	var events *notify.RatingEvents
	if cfg.RedisURL != "" {
		events, err = notify.NewRatingEvents(cfg.RedisURL, cfg.RatingEventsChannel)
		if err != nil {
			log.Printf("rating events disabled: %v", err)
			events = nil
		} else {
			defer events.Close()
		}
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	listingRepo := repository.NewListingRepo(db)
	ratingRepo := repository.NewRatingRepository(db)
	billingRepo := repository.NewBillingRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Services
	authService := service.NewAuthService(userRepo, refreshTokenRepo, cfg)
	userService := service.NewUserService(userRepo, ratingRepo)
	listingService := service.NewListingService(listingRepo, ratingRepo)
	ratingService := service.NewRatingService(ratingRepo, userRepo, listingRepo, events)
	billingService := service.NewBillingService(billingRepo, userRepo)
	messageService := service.NewMessageService(messageRepo, userRepo)
	gate := service.NewAccessGate(billingRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, int64(cfg.AccessTokenTTL.Seconds()))
	userHandler := handler.NewUserHandler(userService)
	listingHandler := handler.NewListingHandler(listingService)
	ratingHandler := handler.NewRatingHandler(ratingService, userService, gate)
	billingHandler := handler.NewBillingHandler(billingService)
	messageHandler := handler.NewMessageHandler(messageService)

	// Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	r.Use(limiter.Middleware())

	r.GET("/check-conn", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "API is alive and database connected"})
	})

	api := r.Group("/api")

	// public surface
	authHandler.RegisterRoutes(api)
	publicUsers := api.Group("/users")
	publicListings := api.Group("/listings")

	// authenticated surface
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(authService))
	authedListings := authed.Group("/listings")
	authedUsers := authed.Group("/users")
	adminUsers := authed.Group("/admin/users")
	adminUsers.Use(middleware.RequireAdmin())

	userHandler.RegisterRoutes(publicUsers, adminUsers)
	listingHandler.RegisterRoutes(publicListings, authedListings)
	messageHandler.RegisterRoutes(authed)
	billingHandler.RegisterRoutes(api.Group(""), authed)

	// rating submission requires auth; reads are public
	ratingHandler.RegisterUserRoutes(publicUsers, authedUsers)
	ratingHandler.RegisterListingRoutes(publicListings, authedListings)

	httpServer := fmt.Sprintf(":%d", cfg.HTTPPort)
	log.Println("Server running at", httpServer)
	if err := r.Run(httpServer); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
