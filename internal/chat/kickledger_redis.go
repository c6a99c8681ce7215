package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisKickLedger stores kick records as Redis keys with a TTL, so the
// block is shared across horizontally scaled processes and survives a
// restart. Expiry is handled by Redis itself; there is nothing to purge
// lazily.
type RedisKickLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisKickLedger(client *redis.Client, ttl time.Duration) *RedisKickLedger {
	return &RedisKickLedger{client: client, ttl: ttl}
}

func kickRedisKey(roomID, userID uuid.UUID) string {
	return fmt.Sprintf("kick:%s:%s", roomID, userID)
}

func (l *RedisKickLedger) Record(ctx context.Context, roomID, userID uuid.UUID) error {
	// SET with expiry overwrites an existing record, restarting the
	// block window, same as the in-memory ledger.
	if err := l.client.Set(ctx, kickRedisKey(roomID, userID), time.Now().Unix(), l.ttl).Err(); err != nil {
		return fmt.Errorf("record kick: %w", err)
	}
	return nil
}

func (l *RedisKickLedger) IsBlocked(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	n, err := l.client.Exists(ctx, kickRedisKey(roomID, userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check kick: %w", err)
	}
	return n > 0, nil
}

func (l *RedisKickLedger) Clear(ctx context.Context, roomID, userID uuid.UUID) error {
	if err := l.client.Del(ctx, kickRedisKey(roomID, userID)).Err(); err != nil {
		return fmt.Errorf("clear kick: %w", err)
	}
	return nil
}
