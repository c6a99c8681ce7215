package chat

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryRateTracker_WithinLimit(t *testing.T) {
	tracker := NewMemoryRateTracker(10, 10*time.Second)
	roomID := uuid.New()
	userID := uuid.New()

	for i := 1; i <= 10; i++ {
		within, count := tracker.RecordAndCheck(roomID, userID)
		if !within {
			t.Fatalf("message %d should be within limit", i)
		}
		if count != i {
			t.Fatalf("expected count %d, got %d", i, count)
		}
	}

	within, count := tracker.RecordAndCheck(roomID, userID)
	if within {
		t.Error("11th message inside the window should exceed the limit")
	}
	if count != 11 {
		t.Errorf("expected count 11, got %d", count)
	}
}

func TestMemoryRateTracker_WindowSlides(t *testing.T) {
	tracker := NewMemoryRateTracker(10, 10*time.Second)
	roomID := uuid.New()
	userID := uuid.New()

	start := time.Now()
	now := start
	tracker.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		tracker.RecordAndCheck(roomID, userID)
	}

	// Once the window has slid past the burst, sending is allowed again.
	now = start.Add(11 * time.Second)
	within, count := tracker.RecordAndCheck(roomID, userID)
	if !within {
		t.Error("message after the window slid should be within limit")
	}
	if count != 1 {
		t.Errorf("expected fresh window count 1, got %d", count)
	}
}

func TestMemoryRateTracker_KeysIndependent(t *testing.T) {
	tracker := NewMemoryRateTracker(10, 10*time.Second)
	roomID := uuid.New()
	flooder := uuid.New()
	bystander := uuid.New()

	for i := 0; i < 11; i++ {
		tracker.RecordAndCheck(roomID, flooder)
	}

	if within, _ := tracker.RecordAndCheck(roomID, bystander); !within {
		t.Error("one user's flood must not throttle another")
	}
	// Same user, different room: separate window.
	if within, _ := tracker.RecordAndCheck(uuid.New(), flooder); !within {
		t.Error("flood in one room must not throttle another room")
	}
}

func TestMemoryRateTracker_Forget(t *testing.T) {
	tracker := NewMemoryRateTracker(10, 10*time.Second)
	roomID := uuid.New()
	userID := uuid.New()

	for i := 0; i < 11; i++ {
		tracker.RecordAndCheck(roomID, userID)
	}
	tracker.Forget(roomID, userID)

	if within, count := tracker.RecordAndCheck(roomID, userID); !within || count != 1 {
		t.Errorf("expected clean window after Forget, got within=%v count=%d", within, count)
	}
}

func TestMemoryRateTracker_SweepOnlyIdleKeys(t *testing.T) {
	tracker := NewMemoryRateTracker(10, 10*time.Second)
	roomID := uuid.New()
	idle := uuid.New()
	active := uuid.New()

	start := time.Now()
	now := start
	tracker.now = func() time.Time { return now }

	tracker.RecordAndCheck(roomID, idle)

	now = start.Add(6 * time.Minute)
	for i := 0; i < 9; i++ {
		tracker.RecordAndCheck(roomID, active)
	}

	tracker.Sweep(5 * time.Minute)

	if len(tracker.history) != 1 {
		t.Fatalf("expected only the active key to survive, got %d keys", len(tracker.history))
	}
	// The active user's window is intact: the 10th message still counts
	// against the earlier nine.
	if _, count := tracker.RecordAndCheck(roomID, active); count != 10 {
		t.Errorf("sweep must not reset an active window, got count %d", count)
	}
}
