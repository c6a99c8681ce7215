package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 64
)

// Client is one live websocket connection for one authenticated user.
// The write pump is the only goroutine that touches the wire for
// writes; everything else goes through the send channel.
type Client struct {
	UserID   uuid.UUID
	Username string
	IsAdmin  bool

	conn *websocket.Conn

	// sendMu guards send and closed. Fan-out queues payloads after
	// releasing the hub lock, so a disconnecting client can close the
	// channel mid-broadcast; the flag turns a post-close send into a
	// drop instead of a panic.
	sendMu sync.Mutex
	send   chan []byte
	closed bool

	// rooms this connection is subscribed to; guarded by the hub's
	// mutex, not touched outside the hub.
	subscriptions map[uuid.UUID]bool
}

func NewClient(userID uuid.UUID, username string, isAdmin bool, conn *websocket.Conn) *Client {
	return &Client{
		UserID:        userID,
		Username:      username,
		IsAdmin:       isAdmin,
		conn:          conn,
		send:          make(chan []byte, sendBuffer),
		subscriptions: make(map[uuid.UUID]bool),
	}
}

// trySend queues a payload without blocking. A full buffer means the
// client is too slow to keep up; the event is dropped and the client
// re-syncs from the history API. Sends racing a disconnect are dropped
// the same way.
func (c *Client) trySend(payload []byte, logger *zap.Logger) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.send <- payload:
	default:
		logger.Warn("dropping event for slow client",
			zap.String("user_id", c.UserID.String()),
		)
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// WritePump drains the send channel onto the wire and keeps the
// connection alive with pings. Runs as one goroutine per connection;
// returns when the send channel closes or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// PrepareRead configures read limits and the pong-based liveness
// deadline. Called once before the read loop starts.
func (c *Client) PrepareRead() {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
}

// ReadJSON reads the next inbound event off the wire.
func (c *Client) ReadJSON(v any) error {
	return c.conn.ReadJSON(v)
}
