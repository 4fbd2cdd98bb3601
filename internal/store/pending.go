package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/themancarve/tickets/internal/models"
)

// PendingCheckoutStore holds the buyer's in-progress order across the full
// browser navigation to the payment gateway and back. One slot per user;
// writing again replaces the previous attempt.
type PendingCheckoutStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewPendingCheckoutStore(client *redis.Client, ttl time.Duration) *PendingCheckoutStore {
	return &PendingCheckoutStore{redis: client, ttl: ttl}
}

func pendingKey(userID string) string {
	return "pending_checkout:" + userID
}

func (s *PendingCheckoutStore) Save(ctx context.Context, pc models.PendingCheckout) error {
	payload, err := json.Marshal(pc)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, pendingKey(pc.UserID), payload, s.ttl).Err()
}

func (s *PendingCheckoutStore) Load(ctx context.Context, userID string) (models.PendingCheckout, error) {
	payload, err := s.redis.Get(ctx, pendingKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return models.PendingCheckout{}, ErrNoPendingCheckout
	}
	if err != nil {
		return models.PendingCheckout{}, err
	}

	var pc models.PendingCheckout
	if err := json.Unmarshal([]byte(payload), &pc); err != nil {
		return models.PendingCheckout{}, err
	}
	return pc, nil
}

func (s *PendingCheckoutStore) Clear(ctx context.Context, userID string) error {
	return s.redis.Del(ctx, pendingKey(userID)).Err()
}
