package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const draftKeyPrefix = "booking:wizard:draft:"

// RedisSnapshotStore keeps wizard draft snapshots in Redis so an interrupted session can resume.
type RedisSnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSnapshotStore creates a snapshot store. Snapshots expire after ttl.
func NewRedisSnapshotStore(client *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{client: client, ttl: ttl}
}

// Save writes the snapshot and refreshes its expiry.
func (s *RedisSnapshotStore) Save(ctx context.Context, draftID uuid.UUID, data []byte) error {
	if err := s.client.Set(ctx, draftKey(draftID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot or a NotFoundError.
func (s *RedisSnapshotStore) Load(ctx context.Context, draftID uuid.UUID) ([]byte, error) {
	data, err := s.client.Get(ctx, draftKey(draftID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.NewNotFoundError("Draft", draftID.String())
		}
		return nil, fmt.Errorf("failed to load draft snapshot: %w", err)
	}
	return data, nil
}

// Delete removes the snapshot. Deleting a missing snapshot is not an error.
func (s *RedisSnapshotStore) Delete(ctx context.Context, draftID uuid.UUID) error {
	if err := s.client.Del(ctx, draftKey(draftID)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft snapshot: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *RedisSnapshotStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func draftKey(id uuid.UUID) string {
	return draftKeyPrefix + id.String()
}
