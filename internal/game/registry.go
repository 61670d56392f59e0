package game

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scrawlgg/scrawl-backend/internal"
	"github.com/scrawlgg/scrawl-backend/internal/store"
)

const codeAttempts = 100

// Identity describes who is trying to join a room. It is what the
// JoinGate hook sees; ban policy lives outside the engine.
type Identity struct {
	PlayerId string
	UserId   string
	Name     string
	Addr     string
}

// JoinGate is the pre-join hook consulted before a player enters a
// room. Returning an error rejects the join. A nil gate allows all.
type JoinGate func(room *internal.Room, identity Identity) error

// Registry is the in-memory map of live rooms, indexed by id and by
// code. The registry lock guards only the map shape; the contents of
// each room are guarded by that room's own mutex.
type Registry struct {
	mu     sync.RWMutex
	byId   map[string]*internal.Room
	byCode map[string]*internal.Room

	store store.Store
	log   *slog.Logger
	gate  JoinGate

	storeTimeout time.Duration
}

func NewRegistry(st store.Store, storeTimeout time.Duration, log *slog.Logger) *Registry {
	return &Registry{
		byId:         make(map[string]*internal.Room),
		byCode:       make(map[string]*internal.Room),
		store:        st,
		log:          log.With("component", "registry"),
		storeTimeout: storeTimeout,
	}
}

// SetJoinGate installs the pre-join hook.
func (reg *Registry) SetJoinGate(gate JoinGate) {
	reg.gate = gate
}

func (reg *Registry) canJoin(room *internal.Room, identity Identity) error {
	if reg.gate == nil {
		return nil
	}
	return reg.gate(room, identity)
}

// Create allocates a room with a fresh id and a code no live room is
// using, publishes it under both keys and persists the skeleton.
func (reg *Registry) Create(settings internal.Settings) (*internal.Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code, err := reg.uniqueCodeLocked()
	if err != nil {
		return nil, err
	}
	room := internal.NewRoom(uuid.NewString(), code, settings)
	reg.byId[room.Id] = room
	reg.byCode[code] = room

	reg.log.Info("room created", "roomId", room.Id, "code", code, "theme", settings.Theme)
	go reg.persistSkeleton(room.Id, code, settings, room.CreatedAt)
	return room, nil
}

func (reg *Registry) uniqueCodeLocked() (string, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		if _, taken := reg.byCode[code]; !taken {
			return code, nil
		}
	}
	return "", internal.ErrCodeExhaustion
}

// randomCode draws 6 characters from the unambiguous alphabet. The
// alphabet has 32 entries, so a byte modulo its length is unbiased.
func randomCode() (string, error) {
	buf := make([]byte, internal.RoomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("draw room code: %w", err)
	}
	for i, b := range buf {
		buf[i] = internal.RoomCodeAlphabet[int(b)%len(internal.RoomCodeAlphabet)]
	}
	return string(buf), nil
}

func (reg *Registry) persistSkeleton(id, code string, settings internal.Settings, createdAt time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), reg.storeTimeout)
	defer cancel()
	err := reg.store.SaveRoom(ctx, store.RoomRecord{
		Id:           id,
		Code:         code,
		IsPrivate:    settings.IsPrivate,
		MaxPlayers:   settings.MaxPlayers,
		DrawTime:     settings.DrawTime,
		MaxRounds:    settings.MaxRounds,
		Theme:        settings.Theme,
		Phase:        string(internal.PhaseLobby),
		LastActivity: createdAt,
		CreatedAt:    createdAt,
	})
	if err != nil {
		reg.log.Warn("transient: persist room skeleton failed", "roomId", id, "err", err)
	}
}

// ById returns the live room with the given id, or nil.
func (reg *Registry) ById(roomId string) *internal.Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.byId[roomId]
}

// LookupByCode resolves a room code, case-insensitively. A miss in
// memory falls through to the store: a persisted room is rehydrated
// into the lobby with its members disconnected.
func (reg *Registry) LookupByCode(code string) (*internal.Room, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	reg.mu.RLock()
	room := reg.byCode[code]
	reg.mu.RUnlock()
	if room != nil {
		return room, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), reg.storeTimeout)
	defer cancel()
	record, err := reg.store.RoomByCode(ctx, code)
	if err != nil {
		reg.log.Warn("transient: room lookup in store failed", "code", code, "err", err)
		return nil, internal.ErrRoomNotFound
	}
	if record == nil {
		return nil, internal.ErrRoomNotFound
	}
	return reg.rehydrate(ctx, *record)
}

// rehydrate rebuilds a persisted room in memory. Active games are not
// resumable: the room comes back in the lobby, timers unarmed, every
// member disconnected until its owner rejoins with their player id.
func (reg *Registry) rehydrate(ctx context.Context, record store.RoomRecord) (*internal.Room, error) {
	room := internal.NewRoom(record.Id, record.Code, internal.Settings{
		DrawTime:   record.DrawTime,
		MaxRounds:  record.MaxRounds,
		MaxPlayers: record.MaxPlayers,
		Theme:      record.Theme,
		IsPrivate:  record.IsPrivate,
	})
	room.HostId = record.HostId
	room.CreatedAt = record.CreatedAt
	room.LastActivity = record.LastActivity

	players, err := reg.store.RoomPlayers(ctx, record.Id)
	if err != nil {
		reg.log.Warn("transient: load room players failed", "roomId", record.Id, "err", err)
	}
	for _, pr := range players {
		player := &internal.Player{
			Id:       pr.Id,
			UserId:   pr.UserId,
			Name:     pr.Name,
			Avatar:   pr.Avatar,
			Score:    pr.Score,
			Seat:     pr.Seat,
			IsHost:   pr.IsHost,
			JoinedAt: record.CreatedAt,
		}
		room.Players[player.Id] = player
		room.DrawerOrder = append(room.DrawerOrder, player.Id)
		room.SetSeatFloor(pr.Seat)
	}
	now := time.Now()
	room.EmptySince = &now

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if live, ok := reg.byCode[room.Code]; ok {
		// Lost the race against a concurrent rehydration.
		return live, nil
	}
	reg.byId[room.Id] = room
	reg.byCode[room.Code] = room
	reg.log.Info("room rehydrated", "roomId", room.Id, "code", room.Code, "members", len(room.Players))
	return room, nil
}

// RehydrateAll loads every persisted room whose last activity is newer
// than the cutoff into memory. Called once at boot.
func (reg *Registry) RehydrateAll(ctx context.Context, since time.Time) error {
	records, err := reg.store.ListActiveRooms(ctx, since)
	if err != nil {
		return fmt.Errorf("list rooms for rehydration: %w", err)
	}
	for _, record := range records {
		reg.mu.RLock()
		_, live := reg.byId[record.Id]
		reg.mu.RUnlock()
		if live {
			continue
		}
		if _, err := reg.rehydrate(ctx, record); err != nil {
			reg.log.Warn("rehydration failed", "roomId", record.Id, "err", err)
		}
	}
	return nil
}

// Destroy cancels a room's timers, drops it from the live maps and
// deletes its persisted rows.
func (reg *Registry) Destroy(roomId string) {
	room := reg.ById(roomId)
	if room == nil {
		return
	}
	room.Mu.Lock()
	for kind, timer := range room.Timers {
		timer.Halt()
		delete(room.Timers, kind)
	}
	room.Mu.Unlock()
	reg.Unpublish(roomId, room.Code)
}

// Unpublish removes the room from the live maps and deletes its store
// rows. Callers that already hold the room's mutex use this instead of
// Destroy after cancelling timers themselves.
func (reg *Registry) Unpublish(roomId, code string) {
	reg.mu.Lock()
	delete(reg.byId, roomId)
	delete(reg.byCode, code)
	reg.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), reg.storeTimeout)
	defer cancel()
	if err := reg.store.DeleteRoomPlayers(ctx, roomId); err != nil {
		reg.log.Warn("transient: delete room players failed", "roomId", roomId, "err", err)
	}
	if err := reg.store.DeleteRoom(ctx, roomId); err != nil {
		reg.log.Warn("transient: delete room failed", "roomId", roomId, "err", err)
	}
	reg.log.Info("room destroyed", "roomId", roomId, "code", code)
}

// PublicRooms lists joinable non-private rooms for the HTTP listing.
func (reg *Registry) PublicRooms() []internal.PublicRoomInfo {
	reg.mu.RLock()
	rooms := make([]*internal.Room, 0, len(reg.byId))
	for _, room := range reg.byId {
		rooms = append(rooms, room)
	}
	reg.mu.RUnlock()

	out := make([]internal.PublicRoomInfo, 0, len(rooms))
	for _, room := range rooms {
		room.Mu.RLock()
		if !room.IsPrivate && room.Phase == internal.PhaseLobby && len(room.Players) < room.MaxPlayers {
			out = append(out, internal.PublicRoomInfo{
				Code:        room.Code,
				Theme:       room.Theme,
				PlayerCount: len(room.Players),
				MaxPlayers:  room.MaxPlayers,
			})
		}
		room.Mu.RUnlock()
	}
	return out
}

// Rooms snapshots the live room set for sweeps and shutdown.
func (reg *Registry) Rooms() []*internal.Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*internal.Room, 0, len(reg.byId))
	for _, room := range reg.byId {
		out = append(out, room)
	}
	return out
}

// Count returns how many rooms are live.
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.byId)
}
