package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"markethub/database"
	"markethub/internal/config"
	"markethub/internal/http-api/repository"
	"markethub/internal/notify"

	"github.com/joho/godotenv"
)

func main() {
	log.Println("Notifier starting...")

	if err := godotenv.Load(); err != nil {
		log.Println("[Warning] .env file not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("[Fatal] Failed to load configuration: %v", err)
	}
	if cfg.RedisURL == "" {
		log.Fatal("[Fatal] REDIS_URL is required for the notifier")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := database.Connect(cfg, logger)
	if err != nil {
		log.Fatalf("[Fatal] Failed to connect to database: %v", err)
	}

	consumer, err := notify.NewConsumer(
		cfg.RedisURL,
		cfg.RatingEventsChannel,
		getEnvInt("NOTIFIER_WORKERS", 4),
		repository.NewMessageRepository(db),
		repository.NewUserRepository(db),
		repository.NewListingRepo(db),
	)
	if err != nil {
		log.Fatalf("[Fatal] Failed to create consumer: %v", err)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("[Shutdown] Received signal: %v", sig)
		cancel()
	}()

	if err := consumer.Run(ctx); err != nil {
		log.Fatalf("[Fatal] Consumer stopped: %v", err)
	}

	log.Println("[Shutdown] Notifier stopped cleanly")
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
