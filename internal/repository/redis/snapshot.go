package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Fanatic033/shoro-market/internal/domain"
	"github.com/Fanatic033/shoro-market/internal/repository"
	apperrors "github.com/Fanatic033/shoro-market/pkg/errors"
)

// KeyPrefix is the fixed storage name carts are kept under.
const KeyPrefix = "cart-store:"

// SnapshotStore implements repository.SnapshotStore using Redis.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotStore creates a Redis-backed snapshot store. A zero ttl keeps
// snapshots forever.
func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, ttl: ttl}
}

// Key returns the Redis key for a customer's cart.
func Key(userID string) string {
	return KeyPrefix + userID
}

// Load reads a customer's snapshot.
func (s *SnapshotStore) Load(ctx context.Context, userID string) (domain.Snapshot, error) {
	data, err := s.client.Get(ctx, Key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Snapshot{}, apperrors.NotFound("cart", userID)
		}
		return domain.Snapshot{}, fmt.Errorf("redis get cart: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("unmarshal cart: %w: %w", repository.ErrCorruptSnapshot, err)
	}
	if snap.Items == nil {
		snap.Items = []domain.LineItem{}
	}

	return snap, nil
}

// Save writes a customer's snapshot and refreshes its TTL.
func (s *SnapshotStore) Save(ctx context.Context, userID string, snapshot domain.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := s.client.Set(ctx, Key(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}

	return nil
}

// Delete removes a customer's snapshot.
func (s *SnapshotStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, Key(userID)).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}

	return nil
}
