package game

import (
	"encoding/json"
	"sort"

	"github.com/scrawlgg/scrawl-backend/internal"
)

// The send path. Frames are marshalled once and enqueued to each
// member's session outbox while the room lock is held, which is what
// gives every member the same event order. Enqueueing never blocks; a
// session whose outbox is full is closed.

func (e *Engine) frame(msgType string, data any) ([]byte, bool) {
	frame, err := json.Marshal(internal.Message[any]{Type: msgType, Data: data})
	if err != nil {
		e.log.Error("marshal outbound frame failed", "type", msgType, "err", err)
		return nil, false
	}
	return frame, true
}

// broadcast enqueues one event to every connected member.
func (e *Engine) broadcast(r *internal.Room, msgType string, data any) {
	frame, ok := e.frame(msgType, data)
	if !ok {
		return
	}
	for _, p := range r.Players {
		if p.Session != nil {
			p.Session.Enqueue(frame)
		}
	}
}

// broadcastExcept enqueues one event to every connected member but one.
func (e *Engine) broadcastExcept(r *internal.Room, exceptId, msgType string, data any) {
	frame, ok := e.frame(msgType, data)
	if !ok {
		return
	}
	for _, p := range r.Players {
		if p.Id == exceptId || p.Session == nil {
			continue
		}
		p.Session.Enqueue(frame)
	}
}

// sendTo enqueues one event to a single player. This is the only path
// that may carry recipient-specific secrets: the drawer's word and
// word choices, and the sender's close-guess notice.
func (e *Engine) sendTo(p *internal.Player, msgType string, data any) {
	if p == nil || p.Session == nil {
		return
	}
	frame, ok := e.frame(msgType, data)
	if !ok {
		return
	}
	p.Session.Enqueue(frame)
}

// syncLocked builds the authoritative public projection of the room.
// The current word itself never appears here, only its length and the
// masked form; the drawer gets the word through its private event.
func syncLocked(r *internal.Room) internal.RoomSyncData {
	players := make([]internal.PlayerInfo, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, p.Info())
	}
	sort.Slice(players, func(i, j int) bool {
		return r.Players[players[i].Id].Seat < r.Players[players[j].Id].Seat
	})

	return internal.RoomSyncData{
		Room: internal.RoomInfo{
			Id:            r.Id,
			Code:          r.Code,
			Phase:         r.Phase,
			Round:         r.Round,
			Turn:          r.Turn,
			MaxRounds:     r.MaxRounds,
			TimeLeft:      r.TimeLeft,
			DrawTime:      r.DrawTime,
			CurrentDrawer: r.CurrentDrawerId,
			WordLength:    len([]rune(r.CurrentWord)),
			MaskedWord:    r.MaskedWord,
			Theme:         r.Theme,
			IsPrivate:     r.IsPrivate,
			MaxPlayers:    r.MaxPlayers,
		},
		Players: players,
	}
}

// broadcastSyncLocked pushes the snapshot to every member.
func (e *Engine) broadcastSyncLocked(r *internal.Room) {
	e.broadcast(r, internal.EventRoomSync, syncLocked(r))
}

// sendSyncLocked pushes the snapshot to a single member, used on
// reconnect so only the returning player pays for the replay.
func (e *Engine) sendSyncLocked(r *internal.Room, p *internal.Player) {
	e.sendTo(p, internal.EventRoomSync, syncLocked(r))
}
