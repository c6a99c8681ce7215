package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/davidmey/commune/internal/chat"
	"github.com/davidmey/commune/internal/hub"
	"github.com/davidmey/commune/internal/middleware"
)

// Handler is the socket-side adapter: it translates inbound chat events
// into gatekeeper calls and gatekeeper results back into outbound
// events. All admission decisions live in the gatekeeper; this layer
// only reshapes them for the wire.
type Handler struct {
	hub        *hub.Hub
	gatekeeper *chat.Gatekeeper
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

func NewHandler(h *hub.Hub, gatekeeper *chat.Gatekeeper, logger *zap.Logger) *Handler {
	return &Handler{
		hub:        h,
		gatekeeper: gatekeeper,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced at the edge proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// inboundEvent covers all client-to-server events. RoomID and Content
// are interpreted per event type.
type inboundEvent struct {
	Event   string    `json:"event"`
	RoomID  uuid.UUID `json:"room_id"`
	Content string    `json:"content"`
}

// chatErrorData is the payload of a chatError event.
type chatErrorData struct {
	RoomID uuid.UUID `json:"room_id"`
	Error  string    `json:"error"`
}

// Serve handles GET /v1/ws. Runs after AuthMiddleware (token arrives in
// the query string for browser clients).
func (h *Handler) Serve(c *gin.Context) {
	userID := middleware.GetUserID(c)
	username := middleware.GetUsername(c)
	isAdmin := middleware.IsAdmin(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := hub.NewClient(userID, username, isAdmin, conn)
	h.hub.Register(client)
	go client.WritePump()

	h.readLoop(c, client)
}

func (h *Handler) readLoop(c *gin.Context, client *hub.Client) {
	defer h.hub.Unregister(client)

	client.PrepareRead()
	for {
		var event inboundEvent
		if err := client.ReadJSON(&event); err != nil {
			// Disconnect or malformed frame; either way this
			// connection is done generating events.
			return
		}

		switch event.Event {
		case "joinChat":
			h.handleJoin(c, client, event.RoomID)
		case "leaveChat":
			h.hub.Unsubscribe(event.RoomID, client)
		case "sendChatMessage":
			h.handleSend(c, client, event.RoomID, event.Content)
		default:
			h.logger.Debug("unknown socket event", zap.String("event", event.Event))
		}
	}
}

func (h *Handler) handleJoin(c *gin.Context, client *hub.Client, roomID uuid.UUID) {
	rejection, err := h.gatekeeper.AuthorizeJoin(c.Request.Context(), roomID, client.UserID, client.IsAdmin)
	if err != nil {
		h.logger.Error("join authorization failed", zap.Error(err))
		h.sendError(client, roomID, "internal error")
		return
	}
	if rejection != chat.RejectNone {
		h.sendError(client, roomID, rejection.String())
		return
	}
	h.hub.Subscribe(roomID, client)
}

func (h *Handler) handleSend(c *gin.Context, client *hub.Client, roomID uuid.UUID, content string) {
	// Delivery of an accepted message happens via the hub broadcast
	// inside the gatekeeper; a silent drop needs no response at all.
	_, rejection, err := h.gatekeeper.AuthorizeAndRecordSend(c.Request.Context(), roomID, client.UserID, content, client.IsAdmin)
	if err != nil {
		h.logger.Error("send authorization failed", zap.Error(err))
		h.sendError(client, roomID, "internal error")
		return
	}
	if rejection != chat.RejectNone {
		h.sendError(client, roomID, rejection.String())
	}
}

func (h *Handler) sendError(client *hub.Client, roomID uuid.UUID, message string) {
	h.hub.Send(client, chat.EventChatError, chatErrorData{
		RoomID: roomID,
		Error:  message,
	})
}
