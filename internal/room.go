package internal

import (
	"fmt"
	"time"
)

// ChatHistoryCap bounds the room's chat ring.
const ChatHistoryCap = 100

// NewRoom builds a lobby-phase room skeleton. The caller publishes it
// into the registry and persists it.
func NewRoom(id, code string, settings Settings) *Room {
	now := time.Now()
	return &Room{
		Id:             id,
		Code:           code,
		IsPrivate:      settings.IsPrivate,
		MaxPlayers:     settings.MaxPlayers,
		DrawTime:       settings.DrawTime,
		MaxRounds:      settings.MaxRounds,
		Theme:          settings.Theme,
		Phase:          PhaseLobby,
		Round:          1,
		GuessedPlayers: make(map[string]struct{}),
		DrawerOrder:    make([]string, 0, settings.MaxPlayers),
		Players:        make(map[string]*Player),
		ChatHistory:    make([]ChatMessage, 0, ChatHistoryCap),
		Strokes:        NewStrokeJournal(),
		Denied:         make(map[string]time.Time),
		CreatedAt:      now,
		LastActivity:   now,
		Timers:         make(map[TimerKind]*RoomTimer),
	}
}

// Touch records activity so the housekeeper and store retention see
// the room as live.
func (r *Room) Touch() {
	r.LastActivity = time.Now()
}

// NextSeat hands out the arrival counter for a newly joined player.
func (r *Room) NextSeat() int {
	r.seatCounter++
	return r.seatCounter
}

// SetSeatFloor raises the seat counter, used when rehydrated players
// bring persisted seat numbers with them.
func (r *Room) SetSeatFloor(seat int) {
	if seat > r.seatCounter {
		r.seatCounter = seat
	}
}

// CurrentDrawer resolves CurrentDrawerId against the member map.
func (r *Room) CurrentDrawer() *Player {
	if r.CurrentDrawerId == "" {
		return nil
	}
	return r.Players[r.CurrentDrawerId]
}

// ConnectedCount counts members with a live session.
func (r *Room) ConnectedCount() int {
	n := 0
	for _, p := range r.Players {
		if p.IsConnected {
			n++
		}
	}
	return n
}

// AllGuessed reports whether every connected non-drawer has guessed
// the word. False while nobody but the drawer is connected.
func (r *Room) AllGuessed() bool {
	guessers := 0
	for _, p := range r.Players {
		if p.Id == r.CurrentDrawerId || !p.IsConnected {
			continue
		}
		guessers++
		if !p.HasGuessed {
			return false
		}
	}
	return guessers > 0
}

// EarliestSeated returns the member with the lowest seat number, the
// host-promotion candidate. Nil for an empty room.
func (r *Room) EarliestSeated() *Player {
	var earliest *Player
	for _, p := range r.Players {
		if earliest == nil || p.Seat < earliest.Seat {
			earliest = p
		}
	}
	return earliest
}

// AppendChat pushes a message onto the chat ring, evicting the oldest
// past the cap.
func (r *Room) AppendChat(msg ChatMessage) {
	r.ChatHistory = append(r.ChatHistory, msg)
	if len(r.ChatHistory) > ChatHistoryCap {
		r.ChatHistory = r.ChatHistory[len(r.ChatHistory)-ChatHistoryCap:]
	}
}

// RecentChat copies the chat ring for a join reply.
func (r *Room) RecentChat() []ChatMessage {
	out := make([]ChatMessage, len(r.ChatHistory))
	copy(out, r.ChatHistory)
	return out
}

// PruneDrawerOrder removes playerId from the drawer rotation. Removing
// someone before the turn index shifts the index down so it keeps
// naming the same seat; removing the player at the index leaves it
// pointing at whoever would have drawn next.
func (r *Room) PruneDrawerOrder(playerId string) {
	for i, id := range r.DrawerOrder {
		if id != playerId {
			continue
		}
		r.DrawerOrder = append(r.DrawerOrder[:i], r.DrawerOrder[i+1:]...)
		if i < r.Turn {
			r.Turn--
		}
		return
	}
}

// CheckInvariants verifies the structural invariants that must hold
// after every state transition. A non-nil return means the room's
// state is corrupt and the game must be aborted.
func (r *Room) CheckInvariants() error {
	drawing := 0
	for _, p := range r.Players {
		if p.IsDrawing {
			drawing++
			if p.Id != r.CurrentDrawerId {
				return fmt.Errorf("drawing player %s is not the current drawer", p.Id)
			}
		}
	}
	if drawing > 1 {
		return fmt.Errorf("%d players are drawing at once", drawing)
	}
	switch r.Phase {
	case PhaseLobby, PhaseRoundEnd, PhaseGameEnd:
		if drawing != 0 {
			return fmt.Errorf("player drawing in phase %s", r.Phase)
		}
	}
	if (r.Phase == PhaseDrawing) != (r.CurrentWord != "") {
		return fmt.Errorf("word/phase mismatch: phase=%s word set=%t", r.Phase, r.CurrentWord != "")
	}
	if len([]rune(r.MaskedWord)) != len([]rune(r.CurrentWord)) {
		return fmt.Errorf("masked word length %d != word length %d", len([]rune(r.MaskedWord)), len([]rune(r.CurrentWord)))
	}
	for id := range r.GuessedPlayers {
		if id == r.CurrentDrawerId {
			return fmt.Errorf("drawer %s is in the guessed set", id)
		}
		if p, ok := r.Players[id]; ok && !p.HasGuessed {
			return fmt.Errorf("guessed player %s has hasGuessed=false", id)
		}
	}
	if len(r.Players) > 0 {
		hosts := 0
		for _, p := range r.Players {
			if p.IsHost {
				hosts++
			}
		}
		if hosts != 1 {
			return fmt.Errorf("room has %d hosts", hosts)
		}
	}
	seen := make(map[string]struct{}, len(r.DrawerOrder))
	for _, id := range r.DrawerOrder {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("player %s appears twice in the drawer order", id)
		}
		seen[id] = struct{}{}
		if _, ok := r.Players[id]; !ok {
			return fmt.Errorf("drawer order references removed player %s", id)
		}
	}
	if r.Round > r.MaxRounds {
		return fmt.Errorf("round %d exceeds max %d", r.Round, r.MaxRounds)
	}
	if r.Phase == PhaseGameEnd && len(r.Timers) != 0 {
		return fmt.Errorf("%d timers still armed after game end", len(r.Timers))
	}
	return nil
}
