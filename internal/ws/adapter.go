package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/scrawlgg/scrawl-backend/internal"
	"github.com/scrawlgg/scrawl-backend/internal/config"
	"github.com/scrawlgg/scrawl-backend/internal/game"
)

var (
	errRateLimited = errors.New("too many messages, slow down")
	errBadFrame    = errors.New("invalid message format")
)

type inboundMessage = internal.Message[json.RawMessage]

// binding ties a session to the player it is acting as.
type binding struct {
	room     *internal.Room
	playerId string
}

// Adapter routes inbound events to the engine and keeps the
// session-to-player bindings.
type Adapter struct {
	engine   *game.Engine
	limiters *LimiterRegistry
	log      *slog.Logger

	maxMessageSize int64

	mu       sync.Mutex
	bindings map[string]binding
}

func NewAdapter(engine *game.Engine, limiters *LimiterRegistry, limits config.LimitsConfig, log *slog.Logger) *Adapter {
	return &Adapter{
		engine:         engine,
		limiters:       limiters,
		log:            log.With("component", "ws"),
		maxMessageSize: limits.MaxMessageSize,
		bindings:       make(map[string]binding),
	}
}

// ServeHTTP upgrades the connection and starts the pumps.
func (a *Adapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	addr := r.RemoteAddr
	if host, _, splitErr := net.SplitHostPort(addr); splitErr == nil {
		addr = host
	}
	// userId ties game results to a persistent profile; anonymous
	// connections simply never touch one.
	client := newClient(conn, r.URL.Query().Get("userId"), a, a.limiters.Get(addr), a.log)
	go client.writePump()
	go client.readPump()
}

func (a *Adapter) bind(c *Client, room *internal.Room, playerId string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bindings[c.id] = binding{room: room, playerId: playerId}
}

func (a *Adapter) unbind(c *Client) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.bindings, c.id)
}

func (a *Adapter) bound(c *Client) (binding, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.bindings[c.id]
	return b, ok
}

// disconnected is called by the read pump on its way out. The player
// record survives for reconnection; the binding does not.
func (a *Adapter) disconnected(c *Client) {
	b, ok := a.bound(c)
	if !ok {
		return
	}
	a.unbind(c)
	a.engine.Disconnect(b.room, b.playerId)
}

// dispatch routes one inbound event. Commands whose contract defines a
// reply always get one; fire-and-forget events reply only on error.
func (a *Adapter) dispatch(c *Client, msg inboundMessage) {
	switch msg.Type {
	case internal.EventRoomCreate:
		a.handleCreate(c, msg.Data)
	case internal.EventRoomJoin:
		a.handleJoin(c, msg.Data)
	case internal.EventRoomLeave:
		a.handleLeave(c)
	case internal.EventRoomSettings:
		a.handleSettings(c, msg.Data)
	case internal.EventGameStart:
		a.withBinding(c, msg.Type, true, func(b binding) error {
			return a.engine.StartGame(b.room, b.playerId)
		})
	case internal.EventGameSelectWord:
		var req internal.SelectWordRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			a.replyError(c, msg.Type, errBadFrame)
			return
		}
		a.withBinding(c, msg.Type, false, func(b binding) error {
			return a.engine.SelectWord(b.room, b.playerId, req.Word)
		})
	case internal.EventGamePlayAgain:
		a.withBinding(c, msg.Type, true, func(b binding) error {
			return a.engine.PlayAgain(b.room, b.playerId)
		})
	case internal.EventChatMessage:
		var req internal.ChatRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			a.replyError(c, msg.Type, errBadFrame)
			return
		}
		a.withBinding(c, msg.Type, false, func(b binding) error {
			return a.engine.HandleChat(b.room, b.playerId, req.Message)
		})
	case internal.EventDrawStroke:
		a.withBinding(c, msg.Type, false, func(b binding) error {
			return a.engine.HandleStroke(b.room, b.playerId, msg.Data)
		})
	case internal.EventDrawClear:
		a.withBinding(c, msg.Type, false, func(b binding) error {
			return a.engine.HandleClear(b.room, b.playerId)
		})
	case internal.EventDrawUndo:
		a.withBinding(c, msg.Type, false, func(b binding) error {
			return a.engine.HandleUndo(b.room, b.playerId)
		})
	case internal.EventPlayerKick:
		var req internal.KickRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			a.replyError(c, msg.Type, errBadFrame)
			return
		}
		a.withBinding(c, msg.Type, true, func(b binding) error {
			return a.engine.Kick(b.room, b.playerId, req.PlayerId)
		})
	default:
		a.replyError(c, msg.Type, errBadFrame)
	}
}

// withBinding runs a command for a session that must already be in a
// room. ackSuccess controls whether success produces a reply.
func (a *Adapter) withBinding(c *Client, msgType string, ackSuccess bool, fn func(binding) error) {
	b, ok := a.bound(c)
	if !ok {
		a.replyError(c, msgType, internal.ErrNotMember)
		return
	}
	if err := fn(b); err != nil {
		a.replyError(c, msgType, err)
		return
	}
	if ackSuccess {
		a.reply(c, msgType, internal.Ack{Success: true})
	}
}

func (a *Adapter) handleCreate(c *Client, data json.RawMessage) {
	var req internal.CreateRoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		a.replyError(c, internal.EventRoomCreate, errBadFrame)
		return
	}
	if _, already := a.bound(c); already {
		a.replyError(c, internal.EventRoomCreate, internal.ErrInvalidInput)
		return
	}
	room, player, err := a.engine.CreateRoom(req, c.userId, c)
	if err != nil {
		a.replyError(c, internal.EventRoomCreate, err)
		return
	}
	a.bind(c, room, player.Id)
	a.reply(c, internal.EventRoomCreate, internal.CreateRoomReply{
		Ack:      internal.Ack{Success: true},
		RoomCode: room.Code,
		RoomId:   room.Id,
		PlayerId: player.Id,
	})
}

func (a *Adapter) handleJoin(c *Client, data json.RawMessage) {
	var req internal.JoinRoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		a.replyError(c, internal.EventRoomJoin, errBadFrame)
		return
	}
	if _, already := a.bound(c); already {
		a.replyError(c, internal.EventRoomJoin, internal.ErrInvalidInput)
		return
	}
	room, player, err := a.engine.Join(req, c.userId, c)
	if err != nil {
		a.replyError(c, internal.EventRoomJoin, err)
		return
	}
	a.bind(c, room, player.Id)

	room.Mu.RLock()
	messages := room.RecentChat()
	room.Mu.RUnlock()
	a.reply(c, internal.EventRoomJoin, internal.JoinRoomReply{
		Ack:      internal.Ack{Success: true},
		RoomCode: room.Code,
		RoomId:   room.Id,
		PlayerId: player.Id,
		Messages: messages,
	})
}

func (a *Adapter) handleLeave(c *Client) {
	b, ok := a.bound(c)
	if !ok {
		return
	}
	a.unbind(c)
	if err := a.engine.Leave(b.room, b.playerId); err != nil {
		a.log.Debug("leave failed", "playerId", b.playerId, "err", err)
	}
}

func (a *Adapter) handleSettings(c *Client, data json.RawMessage) {
	var req internal.SettingsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		a.replyError(c, internal.EventRoomSettings, errBadFrame)
		return
	}
	a.withBinding(c, internal.EventRoomSettings, true, func(b binding) error {
		return a.engine.UpdateSettings(b.room, b.playerId, req)
	})
}

// reply echoes a command's event type back to the sender.
func (a *Adapter) reply(c *Client, msgType string, payload any) {
	frame, err := json.Marshal(internal.Message[any]{Type: msgType, Data: payload})
	if err != nil {
		a.log.Error("marshal reply failed", "type", msgType, "err", err)
		return
	}
	c.Enqueue(frame)
}

func (a *Adapter) replyError(c *Client, msgType string, err error) {
	a.reply(c, msgType, internal.Ack{
		Success: false,
		Error:   err.Error(),
		Kind:    internal.ErrorKind(err),
	})
}
