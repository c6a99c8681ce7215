package hub

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// envelope is the wire shape of every outbound socket event.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Hub tracks live websocket connections and their room subscriptions,
// and fans events out to them. Delivery is best-effort: a client whose
// send buffer is full misses the event and re-syncs via the history
// API on reconnect. Nothing here touches durable state.
type Hub struct {
	mu sync.RWMutex

	// roomID -> subscribed clients.
	rooms map[uuid.UUID]map[*Client]bool
	// userID -> all of that user's live connections. A user can hold
	// several (two tabs, phone + laptop); eviction and personal
	// signals must reach every one.
	users map[uuid.UUID]map[*Client]bool

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[uuid.UUID]map[*Client]bool),
		users:  make(map[uuid.UUID]map[*Client]bool),
		logger: logger,
	}
}

// Register adds a connection to the user index. Room subscriptions
// happen separately via Subscribe once a join is authorized.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.users[client.UserID] == nil {
		h.users[client.UserID] = make(map[*Client]bool)
	}
	h.users[client.UserID][client] = true
}

// Unregister removes a connection from the user index and from every
// room it subscribed to. Idempotent: unregistering a client twice, or
// one that never registered, is a no-op.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, exists := h.users[client.UserID]
	if !exists || !conns[client] {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.users, client.UserID)
	}

	for roomID := range client.subscriptions {
		h.dropFromRoom(roomID, client)
	}

	client.closeSend()
}

// Subscribe adds an authorized connection to a room's broadcast set.
func (h *Hub) Subscribe(roomID uuid.UUID, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.subscriptions[roomID] = true
}

// Unsubscribe removes a connection from a room's broadcast set.
func (h *Hub) Unsubscribe(roomID uuid.UUID, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropFromRoom(roomID, client)
}

// Broadcast delivers one event to every connection currently subscribed
// to the room, once each.
func (h *Hub) Broadcast(roomID uuid.UUID, event string, data any) {
	payload, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error("marshal broadcast", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	subscribers := make([]*Client, 0, len(h.rooms[roomID]))
	for client := range h.rooms[roomID] {
		subscribers = append(subscribers, client)
	}
	h.mu.RUnlock()

	for _, client := range subscribers {
		client.trySend(payload, h.logger)
	}
}

// Send delivers one event to a single connection. Used for per-action
// feedback like chatError, which belongs to the connection that sent
// the action, not to every tab the user has open.
func (h *Hub) Send(client *Client, event string, data any) {
	payload, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error("marshal send", zap.String("event", event), zap.Error(err))
		return
	}
	client.trySend(payload, h.logger)
}

// NotifyUser delivers one event to every live connection owned by a
// user, regardless of room subscriptions.
func (h *Hub) NotifyUser(userID uuid.UUID, event string, data any) {
	payload, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error("marshal notify", zap.String("event", event), zap.Error(err))
		return
	}

	h.mu.RLock()
	conns := make([]*Client, 0, len(h.users[userID]))
	for client := range h.users[userID] {
		conns = append(conns, client)
	}
	h.mu.RUnlock()

	for _, client := range conns {
		client.trySend(payload, h.logger)
	}
}

// EvictUser forcibly unsubscribes every connection owned by a user from
// a room's broadcast set. The connections stay open — the user can
// still receive personal signals and talk in other rooms. Idempotent
// when the user has no live connections.
func (h *Hub) EvictUser(roomID, userID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.users[userID] {
		h.dropFromRoom(roomID, client)
	}
}

// dropFromRoom removes a client from one room set. Caller holds h.mu.
func (h *Hub) dropFromRoom(roomID uuid.UUID, client *Client) {
	subscribers, exists := h.rooms[roomID]
	if !exists {
		return
	}
	delete(subscribers, client)
	if len(subscribers) == 0 {
		delete(h.rooms, roomID)
	}
	delete(client.subscriptions, roomID)
}

// Subscribed reports whether a client is currently in a room's
// broadcast set.
func (h *Hub) Subscribed(roomID uuid.UUID, client *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[roomID][client]
}
