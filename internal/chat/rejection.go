package chat

import "net/http"

// Rejection is the closed set of reasons the gatekeeper can refuse a
// chat action. Every rejection is terminal for that single action; none
// of them is an internal error.
type Rejection int

const (
	// RejectNone means the action was admitted.
	RejectNone Rejection = iota

	// RejectKicked: the (room, user) pair has an unexpired kick record.
	RejectKicked

	// RejectRoomNotFound: the room does not exist or is deactivated.
	RejectRoomNotFound

	// RejectNotInvited: the room is invite-only and the user has no
	// membership.
	RejectNotInvited

	// RejectNotMember: membership absent even after the auto-join path.
	// Should be unreachable; enforced defensively.
	RejectNotMember

	// RejectMuted: the membership carries the mute flag.
	RejectMuted

	// RejectAutoMuted: this send crossed the rate limit and the mute
	// flag was just set as a side effect.
	RejectAutoMuted

	// RejectInvalidInput: empty content after trimming.
	RejectInvalidInput
)

func (r Rejection) String() string {
	switch r {
	case RejectNone:
		return "allowed"
	case RejectKicked:
		return "kicked"
	case RejectRoomNotFound:
		return "room not found"
	case RejectNotInvited:
		return "not invited"
	case RejectNotMember:
		return "not a member"
	case RejectMuted:
		return "muted"
	case RejectAutoMuted:
		return "auto-muted for sending too fast"
	case RejectInvalidInput:
		return "empty message"
	default:
		return "unknown rejection"
	}
}

// HTTPStatus maps a rejection to the status the HTTP boundary returns.
func (r Rejection) HTTPStatus() int {
	switch r {
	case RejectRoomNotFound:
		return http.StatusNotFound
	case RejectInvalidInput:
		return http.StatusBadRequest
	case RejectKicked, RejectNotInvited, RejectNotMember, RejectMuted, RejectAutoMuted:
		return http.StatusForbidden
	default:
		return http.StatusForbidden
	}
}

// Outbound event names shared by the HTTP and socket adapters.
const (
	EventNewChatMessage    = "newChatMessage"
	EventChatError         = "chatError"
	EventMemberKicked      = "memberKicked"
	EventMemberListUpdated = "memberListUpdated"
	EventNotification      = "notification"
)
