package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// KickLedger is the time-bounded record of recently kicked (room, user)
// pairs. A record blocks rejoin and sending until its TTL expires or an
// admin clears it explicitly.
//
// Implementations must be safe for concurrent use: kicks arrive over
// HTTP admin calls while sends for the same user race in over sockets.
type KickLedger interface {
	Record(ctx context.Context, roomID, userID uuid.UUID) error
	IsBlocked(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
	Clear(ctx context.Context, roomID, userID uuid.UUID) error
}

type kickKey struct {
	roomID uuid.UUID
	userID uuid.UUID
}

// MemoryKickLedger keeps kick records in a process-local map. State is
// lost on restart: an in-flight kick block is silently forgotten. The
// durable membership store remains the source of truth for everything
// that must survive; deployments that need shared or durable blocks use
// RedisKickLedger instead.
type MemoryKickLedger struct {
	mu      sync.Mutex
	ttl     time.Duration
	records map[kickKey]time.Time

	now func() time.Time
}

func NewMemoryKickLedger(ttl time.Duration) *MemoryKickLedger {
	return &MemoryKickLedger{
		ttl:     ttl,
		records: make(map[kickKey]time.Time),
		now:     time.Now,
	}
}

// Record overwrites any existing record: kicking an already-kicked user
// restarts the block window.
func (l *MemoryKickLedger) Record(ctx context.Context, roomID, userID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[kickKey{roomID, userID}] = l.now()
	return nil
}

// IsBlocked reports whether an unexpired record exists, lazily purging
// an expired one. Reads are idempotent: repeated lookups for the same
// expired key delete it at most once.
func (l *MemoryKickLedger) IsBlocked(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := kickKey{roomID, userID}
	recordedAt, exists := l.records[key]
	if !exists {
		return false, nil
	}
	if l.now().Sub(recordedAt) >= l.ttl {
		delete(l.records, key)
		return false, nil
	}
	return true, nil
}

func (l *MemoryKickLedger) Clear(ctx context.Context, roomID, userID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, kickKey{roomID, userID})
	return nil
}
