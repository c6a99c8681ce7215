package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davidmey/commune/internal/models"
	"github.com/davidmey/commune/internal/repository"
)

type RoomHandler struct {
	repo   repository.RoomRepository
	logger *zap.Logger
}

func NewRoomHandler(repo repository.RoomRepository, logger *zap.Logger) *RoomHandler {
	return &RoomHandler{repo: repo, logger: logger}
}

type createRoomRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=64"`
	AccessMode string `json:"access_mode"`
}

// Create handles POST /v1/rooms (admin only).
func (h *RoomHandler) Create(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.AccessMode == "" {
		req.AccessMode = models.AccessOpen
	}
	if req.AccessMode != models.AccessOpen && req.AccessMode != models.AccessInviteOnly {
		c.JSON(http.StatusBadRequest, gin.H{"error": "access_mode must be open or invite_only"})
		return
	}

	room, err := h.repo.Create(c.Request.Context(), req.Name, req.AccessMode)
	if err != nil {
		h.logger.Error("failed to create room", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}

	c.JSON(http.StatusCreated, room)
}

// List handles GET /v1/rooms
func (h *RoomHandler) List(c *gin.Context) {
	roomList, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list rooms", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rooms"})
		return
	}

	c.JSON(http.StatusOK, roomList)
}

// GetByID handles GET /v1/rooms/:id
func (h *RoomHandler) GetByID(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	room, err := h.repo.GetByID(c.Request.Context(), roomID)
	if err != nil {
		h.logger.Error("failed to get room", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get room"})
		return
	}
	if room == nil || !room.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	c.JSON(http.StatusOK, room)
}

// Deactivate handles DELETE /v1/rooms/:id (admin only). Soft-deletes
// the room and cascades deletion of its messages and memberships.
func (h *RoomHandler) Deactivate(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	room, err := h.repo.GetByID(c.Request.Context(), roomID)
	if err != nil {
		h.logger.Error("failed to get room", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate room"})
		return
	}
	if room == nil || !room.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	if err := h.repo.Deactivate(c.Request.Context(), roomID); err != nil {
		h.logger.Error("failed to deactivate room", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate room"})
		return
	}

	c.Status(http.StatusNoContent)
}
