package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"markethub/internal/http-api/models"
	"markethub/internal/http-api/repository"

	"github.com/redis/go-redis/v9"
)

// Consumer subscribes to the rating events channel and turns each event into
// an in-app message for the rated user (or, for listing ratings, the owner).
// It runs as its own process so a notification backlog never slows the API.
type Consumer struct {
	client      *redis.Client
	channel     string
	pool        *WorkerPool
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	listingRepo *repository.ListingRepo
}

func NewConsumer(
	redisURL, channel string,
	workerCount int,
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	listingRepo *repository.ListingRepo,
) (*Consumer, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Consumer{
		client:      rdb,
		channel:     channel,
		pool:        NewWorkerPool(workerCount),
		messageRepo: messageRepo,
		userRepo:    userRepo,
		listingRepo: listingRepo,
	}, nil
}

// Run subscribes and dispatches events to the pool until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	sub := c.client.Subscribe(ctx, c.channel)
	defer sub.Close()

	// Wait for the subscription before reading the channel
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", c.channel, err)
	}

	c.pool.Start()
	defer c.pool.Shutdown()

	log.Printf("[Consumer] Subscribed to %s", c.channel)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Channel():
			if !ok {
				return nil
			}

			var event RatingEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("[Consumer] Malformed event dropped: %v", err)
				continue
			}

			c.pool.Submit(func(ctx context.Context) error {
				return c.handle(ctx, event)
			})
		}
	}
}

// handle resolves the event's recipient and writes the in-app message. Only
// newly created ratings notify; revisions stay quiet.
func (c *Consumer) handle(ctx context.Context, event RatingEvent) error {
	if !event.Created {
		return nil
	}

	rater, err := c.userRepo.FindByID(event.RaterID)
	if err != nil {
		return fmt.Errorf("resolve rater %s: %w", event.RaterID, err)
	}

	var recipientID, body string
	switch models.TargetKind(event.TargetKind) {
	case models.TargetListing:
		listingID, err := strconv.ParseInt(event.TargetID, 10, 64)
		if err != nil {
			return fmt.Errorf("bad listing id %q: %w", event.TargetID, err)
		}
		listing, err := c.listingRepo.GetByID(ctx, listingID)
		if err != nil {
			return fmt.Errorf("resolve listing %d: %w", listingID, err)
		}
		recipientID = listing.OwnerID
		body = fmt.Sprintf("%s rated your listing %q %d/5", rater.Username, listing.Title, event.Score)
	default:
		recipientID = event.TargetID
		body = fmt.Sprintf("%s rated you %d/5", rater.Username, event.Score)
	}

	return c.messageRepo.Create(&models.Message{
		SenderID:    event.RaterID,
		RecipientID: recipientID,
		Body:        body,
	})
}

// Close releases the redis connection.
func (c *Consumer) Close() error {
	return c.client.Close()
}
