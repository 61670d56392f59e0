package game

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scrawlgg/scrawl-backend/internal"
)

// Membership: create, join, reconnect, leave, disconnect, kick, and
// the host-transfer rule. Leaving removes the player from the room;
// a dropped transport only marks them disconnected, so their seat,
// score and host flag survive until they rejoin with their player id.

func normaliseName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > internal.MaxNameLength {
		return "", internal.ErrInvalidInput
	}
	return name, nil
}

// CreateRoom builds a room from the host's settings, with defaults for
// anything the request leaves out, and seats the host in it.
func (e *Engine) CreateRoom(req internal.CreateRoomRequest, userId string, session internal.Session) (*internal.Room, *internal.Player, error) {
	name, err := normaliseName(req.PlayerName)
	if err != nil {
		return nil, nil, err
	}

	settings := internal.Settings{
		DrawTime:   e.cfg.DefaultDrawTime,
		MaxRounds:  e.cfg.DefaultRounds,
		MaxPlayers: e.cfg.DefaultMaxPlayer,
		Theme:      e.cfg.DefaultTheme,
	}
	if req.Settings.DrawTime != nil {
		settings.DrawTime = *req.Settings.DrawTime
	}
	if req.Settings.Rounds != nil {
		settings.MaxRounds = *req.Settings.Rounds
	}
	if req.Settings.MaxPlayers != nil {
		settings.MaxPlayers = *req.Settings.MaxPlayers
	}
	if req.Settings.Theme != nil {
		settings.Theme = *req.Settings.Theme
	}
	if req.Settings.IsPrivate != nil {
		settings.IsPrivate = *req.Settings.IsPrivate
	}
	if err := settings.Validate(); err != nil {
		return nil, nil, err
	}
	if !e.words.HasTheme(settings.Theme) {
		return nil, nil, internal.ErrInvalidInput
	}

	room, err := e.registry.Create(settings)
	if err != nil {
		return nil, nil, err
	}

	avatar := ""
	if req.Settings.Avatar != nil {
		avatar = *req.Settings.Avatar
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()
	host := e.seatPlayerLocked(room, name, avatar, userId, session)
	e.sendSyncLocked(room, host)
	e.persistLocked(room)
	return room, host, nil
}

// Join handles room:join. A request carrying a player id that is still
// a member turns into a reconnect for that player; anything else is a
// fresh join, allowed only in the lobby and below capacity.
func (e *Engine) Join(req internal.JoinRoomRequest, userId string, session internal.Session) (*internal.Room, *internal.Player, error) {
	room, err := e.registry.LookupByCode(req.RoomCode)
	if err != nil {
		return nil, nil, err
	}

	room.Mu.Lock()
	defer room.Mu.Unlock()

	if req.PlayerId != "" {
		if p, member := room.Players[req.PlayerId]; member {
			e.reconnectLocked(room, p, session)
			return room, p, nil
		}
	}

	name, err := normaliseName(req.PlayerName)
	if err != nil {
		return nil, nil, err
	}
	if until, denied := room.Denied[req.PlayerId]; denied && time.Now().Before(until) {
		return nil, nil, internal.ErrJoinDenied
	}
	if err := e.registry.canJoin(room, Identity{PlayerId: req.PlayerId, UserId: userId, Name: name, Addr: session.Id()}); err != nil {
		return nil, nil, internal.ErrJoinDenied
	}
	if room.Phase != internal.PhaseLobby {
		return nil, nil, internal.ErrWrongPhase
	}
	if len(room.Players) >= room.MaxPlayers {
		return nil, nil, internal.ErrRoomFull
	}

	p := e.seatPlayerLocked(room, name, req.Avatar, userId, session)
	e.broadcastExcept(room, p.Id, internal.EventPlayerJoined, internal.PlayerJoinedData{Player: p.Info()})
	e.broadcastSyncLocked(room)
	e.persistLocked(room)
	e.verifyLocked(room)
	return room, p, nil
}

// seatPlayerLocked adds a fresh member: a seat in arrival order, a
// slot in the drawer rotation, and the host flag if the room has none.
func (e *Engine) seatPlayerLocked(r *internal.Room, name, avatar, userId string, session internal.Session) *internal.Player {
	p := &internal.Player{
		Id:          uuid.NewString(),
		UserId:      userId,
		Name:        name,
		Avatar:      avatar,
		Seat:        r.NextSeat(),
		IsConnected: true,
		JoinedAt:    time.Now(),
		Session:     session,
	}
	if len(r.Players) == 0 {
		p.IsHost = true
		r.HostId = p.Id
	}
	r.Players[p.Id] = p
	r.DrawerOrder = append(r.DrawerOrder, p.Id)
	e.clearEmptyLocked(r)
	e.log.Info("player joined", "roomId", r.Id, "playerId", p.Id, "name", name)
	return p
}

// reconnectLocked re-associates a surviving member with a new session
// and replays the snapshot, recent chat and the current turn's strokes
// to that player only.
func (e *Engine) reconnectLocked(r *internal.Room, p *internal.Player, session internal.Session) {
	if p.Session != nil {
		p.Session.Close()
	}
	p.Session = session
	p.IsConnected = true
	e.clearEmptyLocked(r)

	e.sendSyncLocked(r, p)
	for _, stroke := range r.Strokes.Replay() {
		e.sendTo(p, internal.EventDrawStroke, stroke)
	}
	if p.Id == r.CurrentDrawerId {
		switch r.Phase {
		case internal.PhaseChoosing:
			e.sendTo(p, internal.EventGameChooseWord, internal.ChooseWordData{Words: r.WordChoices})
		case internal.PhaseDrawing:
			e.sendTo(p, internal.EventGameWord, internal.WordData{Word: r.CurrentWord})
		}
	}
	e.broadcastExcept(r, p.Id, internal.EventPlayerJoined, internal.PlayerJoinedData{Player: p.Info()})
	e.broadcastSyncLocked(r)
	e.persistLocked(r)
	e.log.Info("player reconnected", "roomId", r.Id, "playerId", p.Id)
}

// clearEmptyLocked cancels pending empty-room cleanup when someone is
// in the room again.
func (e *Engine) clearEmptyLocked(r *internal.Room) {
	r.EmptySince = nil
	e.cancelTimerLocked(r, internal.TimerCleanup)
}

// markEmptyLocked starts the empty-room grace: if nobody comes back
// before it elapses, the room is destroyed.
func (e *Engine) markEmptyLocked(r *internal.Room) {
	now := time.Now()
	r.EmptySince = &now
	if r.Phase == internal.PhaseGameEnd {
		// Invariant: a finished game holds no timers. The housekeeper
		// sweep reaps the room through EmptySince instead.
		return
	}
	roomId, code := r.Id, r.Code
	e.armTimerLocked(r, internal.TimerCleanup, e.cfg.EmptyRoomGrace, func(r *internal.Room) {
		if r.ConnectedCount() > 0 {
			return
		}
		e.cancelAllTimersLocked(r)
		go e.registry.Unpublish(roomId, code)
	})
}

// Leave handles room:leave: the player gives up their seat for good.
func (e *Engine) Leave(r *internal.Room, playerId string) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p, ok := r.Players[playerId]
	if !ok {
		return internal.ErrNotMember
	}
	e.removePlayerLocked(r, p)
	return nil
}

// Disconnect records a dropped transport. Membership survives; the
// room reacts only where the game cannot continue without the player.
func (e *Engine) Disconnect(r *internal.Room, playerId string) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p, ok := r.Players[playerId]
	if !ok {
		return
	}
	p.IsConnected = false
	p.Session = nil
	e.broadcast(r, internal.EventPlayerDisconnected, internal.PlayerDisconnectedData{
		PlayerId:   p.Id,
		PlayerName: p.Name,
	})

	if r.Phase == internal.PhaseDrawing {
		switch {
		case p.Id == r.CurrentDrawerId:
			e.endTurnLocked(r, internal.ReasonDrawerLeft)
		case e.connectedGuessersLocked(r) == 0:
			e.endTurnLocked(r, internal.ReasonTooFewPlayers)
		case r.AllGuessed():
			e.scheduleSettleLocked(r)
		}
	} else if r.Phase == internal.PhaseChoosing && p.Id == r.CurrentDrawerId {
		// Nobody to pick a word; skip the turn without a reveal.
		e.cancelTimerLocked(r, internal.TimerChoose)
		p.ResetTurnState()
		e.advanceLocked(r)
	}
	if r.ConnectedCount() == 0 {
		e.markEmptyLocked(r)
	}
	e.broadcastSyncLocked(r)
	e.persistLocked(r)
	e.verifyLocked(r)
}

func (e *Engine) connectedGuessersLocked(r *internal.Room) int {
	n := 0
	for _, p := range r.Players {
		if p.IsConnected && p.Id != r.CurrentDrawerId {
			n++
		}
	}
	return n
}

// scheduleSettleLocked arms the short settle delay before an
// all-guessed turn end, letting the last correct guess land on every
// screen first.
func (e *Engine) scheduleSettleLocked(r *internal.Room) {
	e.armTimerLocked(r, internal.TimerSettle, e.cfg.SettleDelay, func(r *internal.Room) {
		if r.Phase != internal.PhaseDrawing {
			return
		}
		e.endTurnLocked(r, internal.ReasonAllGuessed)
	})
}

// Kick handles player:kick: host-only; treated as a leave plus a
// disconnect, with the target put on the room's short-lived deny-list.
func (e *Engine) Kick(r *internal.Room, hostId, targetId string) error {
	r.Mu.Lock()

	host, ok := r.Players[hostId]
	if !ok {
		r.Mu.Unlock()
		return internal.ErrNotMember
	}
	if !host.IsHost {
		r.Mu.Unlock()
		return internal.ErrNotAuthorised
	}
	target, ok := r.Players[targetId]
	if !ok || targetId == hostId {
		r.Mu.Unlock()
		return internal.ErrInvalidInput
	}

	session := target.Session
	e.sendTo(target, internal.EventPlayerKicked, internal.KickedData{Reason: "kicked by the host"})
	r.Denied[targetId] = time.Now().Add(e.cfg.DenyListTTL)
	e.removePlayerLocked(r, target)
	r.Mu.Unlock()

	if session != nil {
		session.Close()
	}
	return nil
}

// removePlayerLocked takes a member out of the room and deals with the
// fallout: host transfer, a drawerless turn, an empty room.
func (e *Engine) removePlayerLocked(r *internal.Room, p *internal.Player) {
	wasHost := p.IsHost
	wasDrawer := p.Id == r.CurrentDrawerId

	delete(r.Players, p.Id)
	r.PruneDrawerOrder(p.Id)
	delete(r.GuessedPlayers, p.Id)
	p.Session = nil
	e.deletePlayerRow(p.Id)
	e.log.Info("player left", "roomId", r.Id, "playerId", p.Id, "name", p.Name)

	if len(r.Players) == 0 {
		r.HostId = ""
		e.markEmptyLocked(r)
		e.persistLocked(r)
		return
	}

	if wasHost {
		next := r.EarliestSeated()
		next.IsHost = true
		r.HostId = next.Id
		e.broadcast(r, internal.EventHostChanged, internal.HostChangedData{
			NewHostId:   next.Id,
			NewHostName: next.Name,
		})
	}
	e.broadcast(r, internal.EventPlayerDisconnected, internal.PlayerDisconnectedData{
		PlayerId:   p.Id,
		PlayerName: p.Name,
	})

	if wasDrawer {
		switch r.Phase {
		case internal.PhaseDrawing:
			e.endTurnLocked(r, internal.ReasonDrawerLeft)
		case internal.PhaseChoosing:
			// No turn to reveal; move straight on. The pruned rotation
			// already has the next player at the turn index.
			e.cancelTimerLocked(r, internal.TimerChoose)
			r.CurrentDrawerId = ""
			e.advanceLocked(r)
		}
	} else if r.Phase == internal.PhaseDrawing && r.AllGuessed() {
		e.scheduleSettleLocked(r)
	}

	if r.ConnectedCount() == 0 {
		e.markEmptyLocked(r)
	}
	e.broadcastSyncLocked(r)
	e.persistLocked(r)
	e.verifyLocked(r)
}
