package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davidmey/commune/internal/chat"
	"github.com/davidmey/commune/internal/middleware"
	"github.com/davidmey/commune/internal/repository"
)

// MembershipHandler is the HTTP adapter for join/leave and the admin
// moderation actions. Admission decisions go through the gatekeeper —
// the same one the socket boundary uses.
type MembershipHandler struct {
	gatekeeper *chat.Gatekeeper
	members    repository.MembershipRepository
	logger     *zap.Logger
}

func NewMembershipHandler(gatekeeper *chat.Gatekeeper, members repository.MembershipRepository, logger *zap.Logger) *MembershipHandler {
	return &MembershipHandler{
		gatekeeper: gatekeeper,
		members:    members,
		logger:     logger,
	}
}

type memberRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// Join handles POST /v1/rooms/:id/join — explicit self-join. Unlike a
// transport-level joinChat, this creates the membership row.
func (h *MembershipHandler) Join(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}
	userID := middleware.GetUserID(c)

	rejection, err := h.gatekeeper.AuthorizeJoin(c.Request.Context(), roomID, userID, middleware.IsAdmin(c))
	if err != nil {
		h.logger.Error("join authorization failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join room"})
		return
	}
	if rejection != chat.RejectNone {
		c.JSON(rejection.HTTPStatus(), gin.H{"error": rejection.String()})
		return
	}

	if err := h.members.Add(c.Request.Context(), roomID, userID); err != nil {
		h.logger.Error("failed to join room", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join room"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Leave handles POST /v1/rooms/:id/leave
func (h *MembershipHandler) Leave(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	if err := h.members.Remove(c.Request.Context(), roomID, middleware.GetUserID(c)); err != nil {
		h.logger.Error("failed to leave room", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to leave room"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ListMembers handles GET /v1/rooms/:id/members
func (h *MembershipHandler) ListMembers(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	members, err := h.members.List(c.Request.Context(), roomID)
	if err != nil {
		h.logger.Error("failed to list members", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list members"})
		return
	}

	c.JSON(http.StatusOK, members)
}

// Add handles POST /v1/rooms/:id/members (admin). Re-adding a kicked
// user first clears their kick block — an explicit admin add outranks
// the cooldown.
func (h *MembershipHandler) Add(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.gatekeeper.ClearKick(c.Request.Context(), roomID, req.UserID); err != nil {
		h.logger.Error("failed to clear kick", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add member"})
		return
	}
	if err := h.members.Add(c.Request.Context(), roomID, req.UserID); err != nil {
		h.logger.Error("failed to add member", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add member"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Kick handles POST /v1/rooms/:id/kick (admin).
func (h *MembershipHandler) Kick(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.gatekeeper.RecordKick(c.Request.Context(), roomID, req.UserID); err != nil {
		h.logger.Error("failed to kick member", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to kick member"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Mute handles POST /v1/rooms/:id/mute (admin).
func (h *MembershipHandler) Mute(c *gin.Context) {
	h.setMute(c, true)
}

// Unmute handles POST /v1/rooms/:id/unmute (admin).
func (h *MembershipHandler) Unmute(c *gin.Context) {
	h.setMute(c, false)
}

func (h *MembershipHandler) setMute(c *gin.Context, muted bool) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	membership, err := h.members.Get(c.Request.Context(), roomID, req.UserID)
	if err != nil {
		h.logger.Error("failed to check membership", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update mute"})
		return
	}
	if membership == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}

	if err := h.gatekeeper.SetMute(c.Request.Context(), roomID, req.UserID, muted); err != nil {
		h.logger.Error("failed to update mute", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update mute"})
		return
	}

	c.Status(http.StatusNoContent)
}
