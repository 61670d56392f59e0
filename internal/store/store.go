// Package store persists room skeletons, player rows and profile stat
// counters. The in-memory room state stays authoritative; the store
// exists for restart recovery, the public room listing and end-of-game
// stat attribution, so every operation is short and idempotent.
package store

import (
	"context"
	"time"
)

// RoomRecord is the persisted projection of a room. Timers, words and
// chat are never persisted; rehydrated rooms resume in the lobby.
type RoomRecord struct {
	Id           string
	Code         string
	HostId       string
	IsPrivate    bool
	MaxPlayers   int
	DrawTime     int
	MaxRounds    int
	Theme        string
	Phase        string
	PlayerCount  int
	LastActivity time.Time
	CreatedAt    time.Time
}

// PlayerRecord is the persisted projection of a room member.
type PlayerRecord struct {
	Id        string
	RoomId    string
	UserId    string
	Name      string
	Avatar    string
	Score     int
	IsHost    bool
	Seat      int
	SessionId string
}

// Store is the persistence contract the room engine depends on. All
// methods are safe for concurrent use; the engine calls them with
// short-timeout contexts and treats failures as transient.
type Store interface {
	SaveRoom(ctx context.Context, room RoomRecord) error
	DeleteRoom(ctx context.Context, roomId string) error
	RoomByCode(ctx context.Context, code string) (*RoomRecord, error)
	ListActiveRooms(ctx context.Context, since time.Time) ([]RoomRecord, error)
	// PruneRooms deletes rooms with no players whose last activity is
	// older than the cutoff, returning how many were removed.
	PruneRooms(ctx context.Context, before time.Time) (int, error)

	SavePlayer(ctx context.Context, player PlayerRecord) error
	DeletePlayer(ctx context.Context, playerId string) error
	DeleteRoomPlayers(ctx context.Context, roomId string) error
	RoomPlayers(ctx context.Context, roomId string) ([]PlayerRecord, error)

	// BumpProfile increments the end-of-game stat counters for a
	// registered user. Unregistered players have no profile row.
	BumpProfile(ctx context.Context, userId string, won bool, score int) error

	Health(ctx context.Context) error
	Close()
}
