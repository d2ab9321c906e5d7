package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RatingEvent is published after every successful rating submission so the
// notification consumer can fan out "you were rated" alerts.
type RatingEvent struct {
	RaterID    string    `json:"rater_id"`
	TargetKind string    `json:"target_kind"` // "user" or "listing"
	TargetID   string    `json:"target_id"`
	Score      int       `json:"score"`
	Created    bool      `json:"created"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RatingEvents publishes rating events to a redis channel. A nil publisher is
// valid and drops events, so the API server runs without redis in development.
type RatingEvents struct {
	client  *redis.Client
	channel string
}

// NewRatingEvents connects to redis and verifies the connection.
func NewRatingEvents(redisURL, channel string) (*RatingEvents, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RatingEvents{client: rdb, channel: channel}, nil
}

// Publish sends the event to the channel. Delivery is best effort; callers
// log failures and never fail the originating request over them.
func (p *RatingEvents) Publish(ctx context.Context, event RatingEvent) error {
	if p == nil || p.client == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal rating event: %w", err)
	}

	return p.client.Publish(ctx, p.channel, payload).Err()
}

// Close releases the redis connection.
func (p *RatingEvents) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
