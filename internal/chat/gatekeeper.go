package chat

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davidmey/commune/internal/models"
	"github.com/davidmey/commune/internal/repository"
)

// Fanout is the delivery side the gatekeeper drives: broadcast to a
// room's live connections, signal a single user, or force a user's
// connections out of a room. Implemented by the websocket hub.
type Fanout interface {
	Broadcast(roomID uuid.UUID, event string, data any)
	NotifyUser(userID uuid.UUID, event string, data any)
	EvictUser(roomID, userID uuid.UUID)
}

// RoomSignal is the payload for memberKicked / memberListUpdated events.
type RoomSignal struct {
	RoomID uuid.UUID `json:"room_id"`
}

// MentionNotice is the payload for realtime mention notifications.
type MentionNotice struct {
	Notification *models.Notification `json:"notification"`
	RoomName     string               `json:"room_name"`
	ActorName    string               `json:"actor_name"`
}

// Gatekeeper decides whether a chat action is admitted and performs the
// admission's side effects (auto-join, auto-mute, eviction, fan-out,
// mention notifications). Both the HTTP and socket boundaries call the
// same methods here; neither carries its own copy of the check sequence.
//
// Every call re-reads durable state. Nothing is cached between sends,
// so a kick or mute issued over HTTP takes effect on the very next
// socket message from the same user.
type Gatekeeper struct {
	rooms         repository.RoomRepository
	members       repository.MembershipRepository
	messages      repository.MessageRepository
	users         repository.UserRepository
	notifications repository.NotificationRepository

	kicks     KickLedger
	rate      RateTracker
	sanitizer *Sanitizer
	previews  PreviewResolver
	fanout    Fanout
	logger    *zap.Logger
}

func NewGatekeeper(
	rooms repository.RoomRepository,
	members repository.MembershipRepository,
	messages repository.MessageRepository,
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	kicks KickLedger,
	rate RateTracker,
	sanitizer *Sanitizer,
	previews PreviewResolver,
	fanout Fanout,
	logger *zap.Logger,
) *Gatekeeper {
	return &Gatekeeper{
		rooms:         rooms,
		members:       members,
		messages:      messages,
		users:         users,
		notifications: notifications,
		kicks:         kicks,
		rate:          rate,
		sanitizer:     sanitizer,
		previews:      previews,
		fanout:        fanout,
		logger:        logger,
	}
}

// AuthorizeJoin decides whether a user may subscribe to a room's
// broadcast channel. Joining an open room creates no membership —
// only sending does.
func (g *Gatekeeper) AuthorizeJoin(ctx context.Context, roomID, userID uuid.UUID, isAdmin bool) (Rejection, error) {
	blocked, err := g.kicks.IsBlocked(ctx, roomID, userID)
	if err != nil {
		return RejectNone, fmt.Errorf("kick ledger: %w", err)
	}
	if blocked {
		return RejectKicked, nil
	}

	room, err := g.rooms.GetByID(ctx, roomID)
	if err != nil {
		return RejectNone, fmt.Errorf("room lookup: %w", err)
	}
	if room == nil || !room.IsActive {
		return RejectRoomNotFound, nil
	}

	if room.AccessMode == models.AccessInviteOnly && !isAdmin {
		membership, err := g.members.Get(ctx, roomID, userID)
		if err != nil {
			return RejectNone, fmt.Errorf("membership lookup: %w", err)
		}
		if membership == nil {
			return RejectNotInvited, nil
		}
	}

	return RejectNone, nil
}

// AuthorizeAndRecordSend runs the full send pipeline: kick check, room
// check, sender check, membership (with auto-join on open rooms), mute
// and rate checks, then sanitize, persist, broadcast, and mention
// fan-out. The step order is load-bearing — auto-join precedes the rate
// check so a freshly joined user is rate-limited immediately, and the
// message is persisted before it is broadcast.
//
// A nil message with RejectNone and nil error means the send was
// silently dropped (inactive sender, or content that sanitized to
// nothing): no message exists and no error is surfaced to the caller.
func (g *Gatekeeper) AuthorizeAndRecordSend(ctx context.Context, roomID, userID uuid.UUID, rawContent string, isAdmin bool) (*models.ChatMessage, Rejection, error) {
	content := strings.TrimSpace(rawContent)
	if content == "" {
		return nil, RejectInvalidInput, nil
	}

	blocked, err := g.kicks.IsBlocked(ctx, roomID, userID)
	if err != nil {
		return nil, RejectNone, fmt.Errorf("kick ledger: %w", err)
	}
	if blocked {
		g.fanout.EvictUser(roomID, userID)
		return nil, RejectKicked, nil
	}

	room, err := g.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, RejectNone, fmt.Errorf("room lookup: %w", err)
	}
	if room == nil || !room.IsActive {
		g.fanout.EvictUser(roomID, userID)
		return nil, RejectRoomNotFound, nil
	}

	// A deleted or deactivated account is treated as transport noise:
	// drop the send without surfacing anything.
	sender, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return nil, RejectNone, fmt.Errorf("sender lookup: %w", err)
	}
	if sender == nil || !sender.IsActive {
		return nil, RejectNone, nil
	}

	membership, err := g.members.Get(ctx, roomID, userID)
	if err != nil {
		return nil, RejectNone, fmt.Errorf("membership lookup: %w", err)
	}

	if membership == nil {
		if room.AccessMode == models.AccessInviteOnly {
			g.fanout.EvictUser(roomID, userID)
			// Same signal the kick path uses, so the client UI drops
			// the room, even though the cause here is no invite.
			g.fanout.NotifyUser(userID, EventMemberKicked, RoomSignal{RoomID: roomID})
			return nil, RejectNotInvited, nil
		}

		// Open room: auto-join on first send. Re-check the kick ledger
		// first — a kick may have landed since the check at entry, and
		// auto-join must not resurrect a just-kicked membership.
		blocked, err = g.kicks.IsBlocked(ctx, roomID, userID)
		if err != nil {
			return nil, RejectNone, fmt.Errorf("kick ledger: %w", err)
		}
		if blocked {
			g.fanout.EvictUser(roomID, userID)
			return nil, RejectKicked, nil
		}

		if err := g.members.Add(ctx, roomID, userID); err != nil {
			return nil, RejectNone, fmt.Errorf("auto-join: %w", err)
		}

		// Re-fetch for the authoritative post-creation state. Absence
		// here should be unreachable, but the send must not proceed on
		// a membership we never observed.
		membership, err = g.members.Get(ctx, roomID, userID)
		if err != nil {
			return nil, RejectNone, fmt.Errorf("membership re-fetch: %w", err)
		}
		if membership == nil {
			return nil, RejectNotMember, nil
		}

		g.fanout.Broadcast(roomID, EventMemberListUpdated, RoomSignal{RoomID: roomID})
	}

	// Muted users stay connected, just silenced. No eviction.
	if membership.IsMuted {
		return nil, RejectMuted, nil
	}

	// Administrators are never auto-muted.
	if !isAdmin {
		withinLimit, count := g.rate.RecordAndCheck(roomID, userID)
		if !withinLimit {
			if err := g.members.SetMuted(ctx, roomID, userID, true); err != nil {
				return nil, RejectNone, fmt.Errorf("auto-mute: %w", err)
			}
			g.rate.Forget(roomID, userID)
			g.fanout.Broadcast(roomID, EventMemberListUpdated, RoomSignal{RoomID: roomID})
			g.logger.Info("auto-muted member for flooding",
				zap.String("room_id", roomID.String()),
				zap.String("user_id", userID.String()),
				zap.Int("count", count),
			)
			return nil, RejectAutoMuted, nil
		}
	}

	clean := g.sanitizer.Sanitize(content)
	if clean == "" {
		// Nothing but markup. Drop silently; no message row exists.
		return nil, RejectNone, nil
	}

	var preview *models.LinkPreview
	if url := FirstURL(clean); url != "" {
		preview, err = g.previews.Resolve(ctx, url)
		if err != nil {
			g.logger.Warn("link preview failed",
				zap.String("url", url),
				zap.Error(err),
			)
			preview = nil
		}
	}

	msg, err := g.messages.Create(ctx, roomID, userID, clean, preview)
	if err != nil {
		return nil, RejectNone, fmt.Errorf("persist message: %w", err)
	}

	g.fanout.Broadcast(roomID, EventNewChatMessage, msg)

	g.notifyMentions(ctx, room, sender, msg)

	return msg, RejectNone, nil
}

// RecordKick removes a user from a room and blocks rejoin for the
// ledger's TTL. The membership row is deleted, the user's live
// connections are forced out of the room, and both sides get a signal:
// the kicked user personally, the remaining members as a list refresh.
func (g *Gatekeeper) RecordKick(ctx context.Context, roomID, userID uuid.UUID) error {
	if err := g.kicks.Record(ctx, roomID, userID); err != nil {
		return fmt.Errorf("record kick: %w", err)
	}
	if err := g.members.Remove(ctx, roomID, userID); err != nil {
		return fmt.Errorf("remove membership: %w", err)
	}

	g.fanout.EvictUser(roomID, userID)
	g.fanout.NotifyUser(userID, EventMemberKicked, RoomSignal{RoomID: roomID})
	g.fanout.Broadcast(roomID, EventMemberListUpdated, RoomSignal{RoomID: roomID})
	return nil
}

// ClearKick removes the kick block. It does not restore the membership;
// re-adding the user is a separate explicit action.
func (g *Gatekeeper) ClearKick(ctx context.Context, roomID, userID uuid.UUID) error {
	if err := g.kicks.Clear(ctx, roomID, userID); err != nil {
		return fmt.Errorf("clear kick: %w", err)
	}
	return nil
}

// SetMute flips the membership mute flag and refreshes member lists.
// Covers both admin mute and unmute; unmute also clears any residual
// rate window so the user doesn't get instantly re-muted by stale
// timestamps.
func (g *Gatekeeper) SetMute(ctx context.Context, roomID, userID uuid.UUID, muted bool) error {
	if err := g.members.SetMuted(ctx, roomID, userID, muted); err != nil {
		return fmt.Errorf("set mute: %w", err)
	}
	if !muted {
		g.rate.Forget(roomID, userID)
	}
	g.fanout.Broadcast(roomID, EventMemberListUpdated, RoomSignal{RoomID: roomID})
	return nil
}

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_]+)`)

// notifyMentions scans an accepted message for @username mentions and
// creates a notification per resolved room member (never the sender).
// Entirely best-effort: failures are logged, the send already happened.
func (g *Gatekeeper) notifyMentions(ctx context.Context, room *models.Room, sender *models.User, msg *models.ChatMessage) {
	matches := mentionPattern.FindAllStringSubmatch(msg.Body, -1)
	if len(matches) == 0 {
		return
	}

	seen := make(map[string]bool)
	for _, match := range matches {
		username := match[1]
		if seen[username] || username == sender.Username {
			continue
		}
		seen[username] = true

		mentioned, err := g.users.GetByUsername(ctx, username)
		if err != nil {
			g.logger.Warn("mention lookup failed", zap.String("username", username), zap.Error(err))
			continue
		}
		if mentioned == nil || !mentioned.IsActive {
			continue
		}

		membership, err := g.members.Get(ctx, room.ID, mentioned.ID)
		if err != nil {
			g.logger.Warn("mention membership check failed", zap.String("username", username), zap.Error(err))
			continue
		}
		if membership == nil {
			continue
		}

		notification, err := g.notifications.Create(ctx, mentioned.ID, models.NotificationMention, room.ID, msg.ID, sender.ID)
		if err != nil {
			g.logger.Warn("mention notification failed", zap.String("username", username), zap.Error(err))
			continue
		}

		g.fanout.NotifyUser(mentioned.ID, EventNotification, MentionNotice{
			Notification: notification,
			RoomName:     room.Name,
			ActorName:    sender.Username,
		})
	}
}
