package internal

import "time"

// Session is the transport-side capability a player sends through. The
// websocket adapter implements it; the engine only ever enqueues
// ready-made frames, so it never blocks on a slow client.
type Session interface {
	// Id identifies the underlying connection, not the player.
	Id() string
	// Enqueue hands an outbound frame to the session's ordered
	// outbox. It reports false (and closes the session) when the
	// outbox is full or the session is already closed.
	Enqueue(frame []byte) bool
	// Close tears the connection down.
	Close()
}

// Player is one member of a room. Guarded by the owning room's mutex.
type Player struct {
	Id     string
	UserId string
	Name   string
	Avatar string
	Score  int

	// Seat is the arrival counter inside the room: it orders host
	// promotion and breaks ranking ties. Preserved across
	// reconnects.
	Seat int

	IsHost      bool
	IsDrawing   bool
	HasGuessed  bool
	IsConnected bool
	JoinedAt    time.Time

	Session Session

	// Per-game statistics.
	TotalGuesses   int
	CorrectGuesses int
	TimesDrawn     int
	// BestGuessSeconds is the fastest correct guess this game, in
	// seconds from turn start; 0 means none yet.
	BestGuessSeconds int
}

// ResetTurnState clears the flags that only live for one turn.
func (p *Player) ResetTurnState() {
	p.HasGuessed = false
	p.IsDrawing = false
}

// ResetGameState returns the player to a fresh-game footing while
// keeping identity, seat and connection.
func (p *Player) ResetGameState() {
	p.Score = 0
	p.ResetTurnState()
	p.TotalGuesses = 0
	p.CorrectGuesses = 0
	p.TimesDrawn = 0
	p.BestGuessSeconds = 0
}

// Info projects the player into its public snapshot shape.
func (p *Player) Info() PlayerInfo {
	return PlayerInfo{
		Id:          p.Id,
		Name:        p.Name,
		Score:       p.Score,
		IsHost:      p.IsHost,
		IsDrawing:   p.IsDrawing,
		HasGuessed:  p.HasGuessed,
		Avatar:      p.Avatar,
		IsConnected: p.IsConnected,
	}
}
