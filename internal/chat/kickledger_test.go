package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryKickLedger_RecordAndBlock(t *testing.T) {
	ledger := NewMemoryKickLedger(30 * time.Minute)
	ctx := context.Background()
	roomID := uuid.New()
	userID := uuid.New()

	blocked, err := ledger.IsBlocked(ctx, roomID, userID)
	if err != nil {
		t.Fatalf("IsBlocked: %v", err)
	}
	if blocked {
		t.Error("expected no block before any kick")
	}

	if err := ledger.Record(ctx, roomID, userID); err != nil {
		t.Fatalf("Record: %v", err)
	}

	blocked, err = ledger.IsBlocked(ctx, roomID, userID)
	if err != nil {
		t.Fatalf("IsBlocked: %v", err)
	}
	if !blocked {
		t.Error("expected block right after kick")
	}

	// Other users and other rooms are unaffected.
	if b, _ := ledger.IsBlocked(ctx, roomID, uuid.New()); b {
		t.Error("different user should not be blocked")
	}
	if b, _ := ledger.IsBlocked(ctx, uuid.New(), userID); b {
		t.Error("same user in different room should not be blocked")
	}
}

func TestMemoryKickLedger_Expiry(t *testing.T) {
	ledger := NewMemoryKickLedger(30 * time.Minute)
	ctx := context.Background()
	roomID := uuid.New()
	userID := uuid.New()

	kickedAt := time.Now()
	now := kickedAt
	ledger.now = func() time.Time { return now }

	if err := ledger.Record(ctx, roomID, userID); err != nil {
		t.Fatalf("Record: %v", err)
	}

	now = kickedAt.Add(29 * time.Minute)
	if blocked, _ := ledger.IsBlocked(ctx, roomID, userID); !blocked {
		t.Error("expected block at 29 minutes")
	}

	now = kickedAt.Add(31 * time.Minute)
	if blocked, _ := ledger.IsBlocked(ctx, roomID, userID); blocked {
		t.Error("expected block expired at 31 minutes")
	}

	// The expired record was lazily purged; repeated reads stay false.
	if blocked, _ := ledger.IsBlocked(ctx, roomID, userID); blocked {
		t.Error("expected repeated read after expiry to stay unblocked")
	}
}

func TestMemoryKickLedger_ClearRoundTrip(t *testing.T) {
	ledger := NewMemoryKickLedger(30 * time.Minute)
	ctx := context.Background()
	roomID := uuid.New()
	userID := uuid.New()

	if err := ledger.Record(ctx, roomID, userID); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := ledger.Clear(ctx, roomID, userID); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if blocked, _ := ledger.IsBlocked(ctx, roomID, userID); blocked {
		t.Error("expected no block immediately after clear")
	}

	// Clearing a missing record is fine.
	if err := ledger.Clear(ctx, roomID, userID); err != nil {
		t.Errorf("Clear on absent record: %v", err)
	}
}

func TestMemoryKickLedger_RecordResetsWindow(t *testing.T) {
	ledger := NewMemoryKickLedger(30 * time.Minute)
	ctx := context.Background()
	roomID := uuid.New()
	userID := uuid.New()

	start := time.Now()
	now := start
	ledger.now = func() time.Time { return now }

	ledger.Record(ctx, roomID, userID)
	now = start.Add(20 * time.Minute)
	ledger.Record(ctx, roomID, userID)

	// 25 minutes after the first kick, 5 after the second: still blocked.
	now = start.Add(25 * time.Minute)
	if blocked, _ := ledger.IsBlocked(ctx, roomID, userID); !blocked {
		t.Error("expected re-kick to restart the block window")
	}
}

func TestMemoryKickLedger_ConcurrentAccess(t *testing.T) {
	ledger := NewMemoryKickLedger(30 * time.Minute)
	ctx := context.Background()
	roomID := uuid.New()

	users := make([]uuid.UUID, 16)
	for i := range users {
		users[i] = uuid.New()
	}

	var wg sync.WaitGroup
	for _, userID := range users {
		wg.Add(1)
		go func(userID uuid.UUID) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				ledger.Record(ctx, roomID, userID)
				ledger.IsBlocked(ctx, roomID, userID)
				ledger.Clear(ctx, roomID, userID)
			}
		}(userID)
	}
	wg.Wait()

	for _, userID := range users {
		if blocked, _ := ledger.IsBlocked(ctx, roomID, userID); blocked {
			t.Errorf("user %s still blocked after final clear", userID)
		}
	}
}
