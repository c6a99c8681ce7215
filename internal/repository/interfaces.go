package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/davidmey/commune/internal/models"
)

// Every method takes context.Context: repository calls are blocking I/O,
// and a cancelled request should cancel its queries.
//
// Lookups return nil, nil for "not found" — the caller decides whether
// absence is a 404, a rejection, or a silent drop.

// RoomRepository is the room registry: existence, active flag, access mode.
type RoomRepository interface {
	Create(ctx context.Context, name, accessMode string) (*models.Room, error)

	// GetByID returns the room row whether or not it is active.
	// Callers check IsActive themselves.
	GetByID(ctx context.Context, roomID uuid.UUID) (*models.Room, error)

	// List returns active rooms, newest first. Empty slice, never nil.
	List(ctx context.Context) ([]models.Room, error)

	// Deactivate soft-deletes a room and cascades deletion of its
	// messages and memberships in one transaction.
	Deactivate(ctx context.Context, roomID uuid.UUID) error
}

// MembershipRepository is the membership store: who belongs to which
// room, and their mute flag.
type MembershipRepository interface {
	// Add is idempotent: adding an existing member is success, not error.
	Add(ctx context.Context, roomID, userID uuid.UUID) error

	// Remove is a no-op if the membership does not exist.
	Remove(ctx context.Context, roomID, userID uuid.UUID) error

	// Get is the hot-path check — called on every send.
	Get(ctx context.Context, roomID, userID uuid.UUID) (*models.Membership, error)

	List(ctx context.Context, roomID uuid.UUID) ([]models.Membership, error)

	SetMuted(ctx context.Context, roomID, userID uuid.UUID, muted bool) error
}

// MessageRepository handles chat message persistence.
type MessageRepository interface {
	Create(ctx context.Context, roomID, senderID uuid.UUID, body string, preview *models.LinkPreview) (*models.ChatMessage, error)

	GetByID(ctx context.Context, messageID int64) (*models.ChatMessage, error)

	// ListByRoom returns messages newest first, cursor-paginated:
	// before=0 means "from the latest".
	ListByRoom(ctx context.Context, roomID uuid.UUID, before int64, limit int) ([]models.ChatMessage, error)

	Delete(ctx context.Context, messageID int64) error
}

// UserRepository handles user data.
type UserRepository interface {
	Create(ctx context.Context, username, email, passwordHash, role string) (*models.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// NotificationRepository handles mention notifications.
type NotificationRepository interface {
	Create(ctx context.Context, userID uuid.UUID, kind string, roomID uuid.UUID, messageID int64, actorID uuid.UUID) (*models.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID int64, userID uuid.UUID) error
}
