package internal

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Phase is the state of a room's game state machine.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseChoosing Phase = "choosing"
	PhaseDrawing  Phase = "drawing"
	PhaseRoundEnd Phase = "roundEnd"
	PhaseGameEnd  Phase = "gameEnd"
)

// TimerKind identifies a room timer. A room owns at most one timer of
// each kind; arming a kind replaces (and cancels) its predecessor.
type TimerKind string

const (
	TimerTick    TimerKind = "tick"
	TimerChoose  TimerKind = "choose"
	TimerTurnEnd TimerKind = "turnEnd"
	TimerStart   TimerKind = "start"
	TimerSettle  TimerKind = "settle"
	TimerCleanup TimerKind = "cleanup"
)

// RoomTimer is one armed timer. One-shots carry T; the periodic tick
// loop carries Cancel. Identity of the struct pointer is what timer
// callbacks check before acting, so a replaced timer can never fire
// into a room that has moved on.
type RoomTimer struct {
	Kind   TimerKind
	T      *time.Timer
	Cancel context.CancelFunc
}

// Halt stops the timer without running its callback.
func (t *RoomTimer) Halt() {
	if t.T != nil {
		t.T.Stop()
	}
	if t.Cancel != nil {
		t.Cancel()
	}
}

// Protocol-fixed limits and ranges.
const (
	MinPlayersFloor = 2
	MaxPlayersCap   = 10
	DrawTimeMin     = 30
	DrawTimeMax     = 180
	RoundsMin       = 1
	RoundsMax       = 10
	MaxNameLength   = 20
	MaxChatLength   = 200

	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	RoomCodeLength   = 6
)

// Turn-end and game-end reasons carried in game:turn_end / game:ended.
const (
	ReasonTimeUp        = "time up"
	ReasonAllGuessed    = "all guessed"
	ReasonDrawerLeft    = "drawer left"
	ReasonTooFewPlayers = "too few players"
	ReasonInternalError = "internal error"
)

// Settings are the host-controlled room parameters.
type Settings struct {
	DrawTime   int
	MaxRounds  int
	MaxPlayers int
	Theme      string
	IsPrivate  bool
}

// Validate checks the ranges the protocol allows hosts to pick.
func (s Settings) Validate() error {
	if s.DrawTime < DrawTimeMin || s.DrawTime > DrawTimeMax {
		return fmt.Errorf("drawTime must be between %d and %d: %w", DrawTimeMin, DrawTimeMax, ErrInvalidInput)
	}
	if s.MaxRounds < RoundsMin || s.MaxRounds > RoundsMax {
		return fmt.Errorf("rounds must be between %d and %d: %w", RoundsMin, RoundsMax, ErrInvalidInput)
	}
	if s.MaxPlayers < MinPlayersFloor || s.MaxPlayers > MaxPlayersCap {
		return fmt.Errorf("maxPlayers must be between %d and %d: %w", MinPlayersFloor, MaxPlayersCap, ErrInvalidInput)
	}
	return nil
}

// ChatMessage is one line of room chat, guess or not.
type ChatMessage struct {
	Id         string `json:"id"`
	PlayerId   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Text       string `json:"text"`
	Timestamp  int64  `json:"timestamp"`
	IsGuess    bool   `json:"isGuess"`
	IsClose    bool   `json:"isClose"`
}

// Room is one game instance. All mutable state below Mu is guarded by
// Mu; command handlers and timer callbacks hold it for their full
// duration so every mutation of one room is strictly serialised.
type Room struct {
	Id         string
	Code       string
	HostId     string
	IsPrivate  bool
	MaxPlayers int
	DrawTime   int
	MaxRounds  int
	Theme      string

	Phase           Phase
	Round           int
	Turn            int
	CurrentDrawerId string
	CurrentWord     string
	MaskedWord      string
	TimeLeft        int
	WordChoices     []string
	GuessedPlayers  map[string]struct{}
	DrawerOrder     []string

	Players     map[string]*Player
	ChatHistory []ChatMessage
	Strokes     *StrokeJournal

	// Denied maps kicked player ids to the time their deny-list
	// entry expires.
	Denied map[string]time.Time

	CreatedAt    time.Time
	LastActivity time.Time
	EmptySince   *time.Time

	Timers map[TimerKind]*RoomTimer

	seatCounter int

	Mu sync.RWMutex
}

// PublicRoomInfo is one row of the public room listing.
type PublicRoomInfo struct {
	Code        string `json:"code"`
	Theme       string `json:"theme"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
}

// Response is the JSON envelope for plain HTTP endpoints.
type Response struct {
	StatusCode int   `json:"statusCode"`
	StartedAt  int64 `json:"startedAt"`
	FinishedAt int64 `json:"finishedAt"`
	ElapsedMs  int64 `json:"elapsedMs"`
	Data       any   `json:"data"`
}
