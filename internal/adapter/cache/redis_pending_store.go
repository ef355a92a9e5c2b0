package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/repricelab/ebay-connect/internal/domain/ebay"
	"github.com/repricelab/ebay-connect/internal/repository"
)

const pendingKeyPrefix = "ebay:pending:"

// RedisPendingStore implements PendingAuthStore backed by Redis.
type RedisPendingStore struct {
	client redis.UniversalClient
}

var _ repository.PendingAuthStore = (*RedisPendingStore)(nil)

// NewRedisPendingStore constructs a Redis-backed pending credential store.
func NewRedisPendingStore(client redis.UniversalClient) *RedisPendingStore {
	return &RedisPendingStore{client: client}
}

// Begin stores the pending credential context with TTL, replacing any prior
// context for the same user.
func (s *RedisPendingStore) Begin(ctx context.Context, userID int64, pending ebay.PendingAuth, ttl time.Duration) error {
	payload, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("marshal pending auth: %w", err)
	}
	if err := s.client.Set(ctx, pendingKey(userID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("persist pending auth: %w", err)
	}
	return nil
}

// Consume loads and deletes the context in one GETDEL round trip. Of two
// concurrent callbacks for the same user, exactly one gets the context; the
// other observes nil.
func (s *RedisPendingStore) Consume(ctx context.Context, userID int64) (*ebay.PendingAuth, error) {
	bytes, err := s.client.GetDel(ctx, pendingKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("consume pending auth: %w", err)
	}
	var pending ebay.PendingAuth
	if err := json.Unmarshal(bytes, &pending); err != nil {
		return nil, fmt.Errorf("decode pending auth: %w", err)
	}
	return &pending, nil
}

func pendingKey(userID int64) string {
	return pendingKeyPrefix + strconv.FormatInt(userID, 10)
}
