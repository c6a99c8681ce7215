package models

import (
	"time"

	"github.com/google/uuid"
)

// Room access modes. Open rooms auto-join a user on their first message;
// invite-only rooms require an existing membership (or an admin add).
const (
	AccessOpen       = "open"
	AccessInviteOnly = "invite_only"
)

// User roles.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Room is a chat channel. Deactivation is a soft delete that cascades
// removal of the room's messages and memberships.
type Room struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	AccessMode string    `json:"access_mode"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// Membership is the (room, user) join row. IsMuted covers both admin
// mutes and rate-limit auto-mutes; the two are indistinguishable once set.
type Membership struct {
	RoomID   uuid.UUID `json:"room_id"`
	UserID   uuid.UUID `json:"user_id"`
	IsMuted  bool      `json:"is_muted"`
	JoinedAt time.Time `json:"joined_at"`
}

// LinkPreview is best-effort OpenGraph metadata for the first URL in a
// message body. Stored alongside the message as JSON.
type LinkPreview struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// ChatMessage rows use bigserial IDs: messages are the highest-volume
// table and a monotonically increasing int64 doubles as the pagination
// cursor for history fetches.
type ChatMessage struct {
	ID          int64        `json:"id"`
	RoomID      uuid.UUID    `json:"room_id"`
	SenderID    uuid.UUID    `json:"sender_id"`
	Body        string       `json:"body"`
	LinkPreview *LinkPreview `json:"link_preview,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Notification kinds.
const (
	NotificationMention = "mention"
)

type Notification struct {
	ID        int64      `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Kind      string     `json:"kind"`
	RoomID    uuid.UUID  `json:"room_id"`
	MessageID int64      `json:"message_id"`
	ActorID   uuid.UUID  `json:"actor_id"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
