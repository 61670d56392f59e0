// Package ws is the transport adapter: it upgrades connections, pumps
// frames in and out, and routes inbound events to the room engine. A
// connection maps to at most one active player; once it closes, its
// future commands are discarded.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Outbox depth; a session that falls this far behind is closed.
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS policy is enforced on the HTTP edge; the upgrade
		// itself accepts any origin.
		return true
	},
}

// Client is one connected socket. It implements internal.Session: the
// engine enqueues ready-made frames and never blocks on the peer.
type Client struct {
	id      string
	userId  string
	conn    *websocket.Conn
	send    chan []byte
	adapter *Adapter
	limiter *rate.Limiter
	log     *slog.Logger

	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn, userId string, adapter *Adapter, limiter *rate.Limiter, log *slog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:      id,
		userId:  userId,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		adapter: adapter,
		limiter: limiter,
		log:     log.With("sessionId", id),
	}
}

// Id identifies the connection, not the player behind it.
func (c *Client) Id() string {
	return c.id
}

// Enqueue hands a frame to the ordered outbox. A full outbox means the
// peer cannot keep up; the session is closed rather than stalling the
// room. The mutex stays held across the send: Close cannot close the
// channel between the closed check and the send.
func (c *Client) Enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		c.log.Warn("outbox full, closing session")
		c.closeLocked()
		return false
	}
}

// Close tears the session down once. Frames already queued still drain
// through the write pump before the connection goes away.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump owns all reads on the connection. It exits when the peer
// goes away, unbinding the session from its player on the way out.
func (c *Client) readPump() {
	defer func() {
		c.adapter.disconnected(c)
		c.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.adapter.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("read failed", "err", err)
			}
			return
		}
		if !c.limiter.Allow() {
			c.adapter.replyError(c, "rate", errRateLimited)
			continue
		}
		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
			c.adapter.replyError(c, "message", errBadFrame)
			continue
		}
		c.adapter.dispatch(c, msg)
	}
}

// writePump owns all writes: one websocket frame per queued message,
// plus keepalive pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
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
