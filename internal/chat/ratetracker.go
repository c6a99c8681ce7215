package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RateTracker counts recent message timestamps per (room, user) over a
// sliding window. It only tracks; the gatekeeper decides what exceeding
// the limit means (auto-mute).
type RateTracker interface {
	// RecordAndCheck prunes timestamps older than the window, records
	// this send, and reports whether the post-append count is still
	// within the limit, along with that count.
	RecordAndCheck(roomID, userID uuid.UUID) (withinLimit bool, count int)

	// Forget drops the window for a key. Called after an auto-mute:
	// the mute flag takes over enforcement from there.
	Forget(roomID, userID uuid.UUID)
}

// MemoryRateTracker keeps per-key timestamp slices under one mutex.
// Keys for users who simply stop sending are not pruned on the hot
// path; Sweep exists for that and is run from a ticker.
type MemoryRateTracker struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	history map[kickKey][]time.Time

	now func() time.Time
}

func NewMemoryRateTracker(limit int, window time.Duration) *MemoryRateTracker {
	return &MemoryRateTracker{
		window:  window,
		limit:   limit,
		history: make(map[kickKey][]time.Time),
		now:     time.Now,
	}
}

func (t *MemoryRateTracker) RecordAndCheck(roomID, userID uuid.UUID) (bool, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	windowStart := now.Add(-t.window)
	key := kickKey{roomID, userID}

	attempts := t.history[key]
	fresh := make([]time.Time, 0, len(attempts)+1)
	for _, ts := range attempts {
		if ts.After(windowStart) {
			fresh = append(fresh, ts)
		}
	}

	fresh = append(fresh, now)
	t.history[key] = fresh

	return len(fresh) <= t.limit, len(fresh)
}

func (t *MemoryRateTracker) Forget(roomID, userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.history, kickKey{roomID, userID})
}

// Sweep removes keys whose newest timestamp is older than maxIdle. It
// never touches a key with activity inside the window, so throttling
// semantics are unchanged; this only bounds memory for users who went
// quiet.
func (t *MemoryRateTracker) Sweep(maxIdle time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-maxIdle)
	for key, attempts := range t.history {
		if len(attempts) == 0 || attempts[len(attempts)-1].Before(cutoff) {
			delete(t.history, key)
		}
	}
}
