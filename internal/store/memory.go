package store

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Memory is the map-backed Store used in tests and when no database
// is configured. Restart recovery obviously does not survive the
// process, but the engine's contract is otherwise identical.
type Memory struct {
	mu       sync.RWMutex
	rooms    map[string]RoomRecord
	players  map[string]PlayerRecord
	profiles map[string]profileRow
}

type profileRow struct {
	GamesPlayed int
	GamesWon    int
	TotalScore  int
}

func NewMemory() *Memory {
	return &Memory{
		rooms:    make(map[string]RoomRecord),
		players:  make(map[string]PlayerRecord),
		profiles: make(map[string]profileRow),
	}
}

func (m *Memory) SaveRoom(_ context.Context, room RoomRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.Id] = room
	return nil
}

func (m *Memory) DeleteRoom(_ context.Context, roomId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomId)
	return nil
}

func (m *Memory) RoomByCode(_ context.Context, code string) (*RoomRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	code = strings.ToUpper(code)
	for _, room := range m.rooms {
		if room.Code == code {
			r := room
			return &r, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListActiveRooms(_ context.Context, since time.Time) ([]RoomRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []RoomRecord
	for _, room := range m.rooms {
		if room.LastActivity.After(since) {
			out = append(out, room)
		}
	}
	return out, nil
}

func (m *Memory) PruneRooms(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pruned := 0
	for id, room := range m.rooms {
		if room.PlayerCount == 0 && room.LastActivity.Before(before) {
			delete(m.rooms, id)
			pruned++
		}
	}
	return pruned, nil
}

func (m *Memory) SavePlayer(_ context.Context, player PlayerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[player.Id] = player
	return nil
}

func (m *Memory) DeletePlayer(_ context.Context, playerId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.players, playerId)
	return nil
}

func (m *Memory) DeleteRoomPlayers(_ context.Context, roomId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, player := range m.players {
		if player.RoomId == roomId {
			delete(m.players, id)
		}
	}
	return nil
}

func (m *Memory) RoomPlayers(_ context.Context, roomId string) ([]PlayerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []PlayerRecord
	for _, player := range m.players {
		if player.RoomId == roomId {
			out = append(out, player)
		}
	}
	return out, nil
}

func (m *Memory) BumpProfile(_ context.Context, userId string, won bool, score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.profiles[userId]
	row.GamesPlayed++
	if won {
		row.GamesWon++
	}
	row.TotalScore += score
	m.profiles[userId] = row
	return nil
}

// Profile exposes the stat counters for assertions in tests.
func (m *Memory) Profile(userId string) (gamesPlayed, gamesWon, totalScore int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row := m.profiles[userId]
	return row.GamesPlayed, row.GamesWon, row.TotalScore
}

func (m *Memory) Health(_ context.Context) error { return nil }

func (m *Memory) Close() {}
