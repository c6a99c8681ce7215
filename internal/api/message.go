package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davidmey/commune/internal/chat"
	"github.com/davidmey/commune/internal/middleware"
	"github.com/davidmey/commune/internal/repository"
)

// MessageHandler is the HTTP adapter for sending and reading messages.
// Sends go through the gatekeeper; the history endpoint is also the
// re-sync path for clients that missed broadcasts while disconnected.
type MessageHandler struct {
	gatekeeper *chat.Gatekeeper
	repo       repository.MessageRepository
	logger     *zap.Logger
}

func NewMessageHandler(gatekeeper *chat.Gatekeeper, repo repository.MessageRepository, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{gatekeeper: gatekeeper, repo: repo, logger: logger}
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// Send handles POST /v1/rooms/:id/messages
func (h *MessageHandler) Send(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, rejection, err := h.gatekeeper.AuthorizeAndRecordSend(
		c.Request.Context(),
		roomID,
		middleware.GetUserID(c),
		req.Content,
		middleware.IsAdmin(c),
	)
	if err != nil {
		h.logger.Error("failed to send message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}
	if rejection != chat.RejectNone {
		c.JSON(rejection.HTTPStatus(), gin.H{"error": rejection.String()})
		return
	}
	if msg == nil {
		// Silently dropped: nothing was created, nothing to report.
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// List handles GET /v1/rooms/:id/messages?before=123&limit=50
func (h *MessageHandler) List(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	var before int64
	if b := c.Query("before"); b != "" {
		before, err = strconv.ParseInt(b, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'before' parameter"})
			return
		}
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit' parameter"})
			return
		}
		if limit > 100 {
			limit = 100
		}
	}

	messages, err := h.repo.ListByRoom(c.Request.Context(), roomID, before, limit)
	if err != nil {
		h.logger.Error("failed to list messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}

	c.JSON(http.StatusOK, messages)
}

// Delete handles DELETE /v1/messages/:id — allowed for the author or
// an admin. Deletion is the only mutation a message ever gets.
func (h *MessageHandler) Delete(c *gin.Context) {
	messageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	msg, err := h.repo.GetByID(c.Request.Context(), messageID)
	if err != nil {
		h.logger.Error("failed to get message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete message"})
		return
	}
	if msg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}

	if msg.SenderID != middleware.GetUserID(c) && !middleware.IsAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the author"})
		return
	}

	if err := h.repo.Delete(c.Request.Context(), messageID); err != nil {
		h.logger.Error("failed to delete message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete message"})
		return
	}

	c.Status(http.StatusNoContent)
}
