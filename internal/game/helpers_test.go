package game

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scrawlgg/scrawl-backend/internal"
	"github.com/scrawlgg/scrawl-backend/internal/config"
	"github.com/scrawlgg/scrawl-backend/internal/store"
	"github.com/scrawlgg/scrawl-backend/internal/words"
)

// fakeSession records every frame the engine enqueues, standing in for
// a websocket client.
type fakeSession struct {
	id string

	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func newFakeSession(id string) *fakeSession {
	return &fakeSession{id: id}
}

func (s *fakeSession) Id() string { return s.id }

func (s *fakeSession) Enqueue(frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.frames = append(s.frames, frame)
	return true
}

func (s *fakeSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// events decodes the recorded frames into their envelope types.
func (s *fakeSession) events() []internal.Message[json.RawMessage] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]internal.Message[json.RawMessage], 0, len(s.frames))
	for _, frame := range s.frames {
		var msg internal.Message[json.RawMessage]
		if err := json.Unmarshal(frame, &msg); err == nil {
			out = append(out, msg)
		}
	}
	return out
}

// lastEvent returns the payload of the most recent event of the given
// type, or nil.
func (s *fakeSession) lastEvent(eventType string) json.RawMessage {
	events := s.events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == eventType {
			return events[i].Data
		}
	}
	return nil
}

func (s *fakeSession) countEvents(eventType string) int {
	n := 0
	for _, ev := range s.events() {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

// rawFrames copies the captured frames for content inspection.
func (s *fakeSession) rawFrames() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.frames))
	copy(out, s.frames)
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testGameConfig() config.GameConfig {
	return config.GameConfig{
		MinPlayers:       2,
		DefaultDrawTime:  80,
		DefaultRounds:    3,
		DefaultMaxPlayer: 8,
		DefaultTheme:     "general",
		HintIntervalSecs: 20,
		StartCountdown:   20 * time.Millisecond,
		// Generous so tests that pick a word explicitly never race the
		// auto-pick; the auto-pick test shortens it.
		AutoPickTimeout: 5 * time.Second,
		TurnEndDelay:    20 * time.Millisecond,
		SettleDelay:     10 * time.Millisecond,
		EmptyRoomGrace:  40 * time.Millisecond,
		DenyListTTL:     time.Minute,
	}
}

func testStoreConfig() config.StoreConfig {
	return config.StoreConfig{
		WriteTimeout: time.Second,
		Retention:    30 * time.Minute,
	}
}

type testRig struct {
	engine   *Engine
	registry *Registry
	store    *store.Memory
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	return newTestRigWith(t, testGameConfig())
}

func newTestRigWith(t *testing.T, cfg config.GameConfig) *testRig {
	t.Helper()
	log := discardLogger()
	st := store.NewMemory()
	catalogue, err := words.Load(1)
	require.NoError(t, err)
	registry := NewRegistry(st, testStoreConfig().WriteTimeout, log)
	engine := NewEngine(cfg, testStoreConfig(), registry, st, catalogue, log)
	return &testRig{engine: engine, registry: registry, store: st}
}

// makeRoom creates a room with n players through the public command
// path. The first player is the host.
func (rig *testRig) makeRoom(t *testing.T, n int) (*internal.Room, []*internal.Player, []*fakeSession) {
	t.Helper()
	sessions := make([]*fakeSession, n)
	players := make([]*internal.Player, n)

	sessions[0] = newFakeSession("s0")
	room, host, err := rig.engine.CreateRoom(internal.CreateRoomRequest{
		PlayerName: "player0",
	}, "user0", sessions[0])
	require.NoError(t, err)
	players[0] = host

	for i := 1; i < n; i++ {
		sessions[i] = newFakeSession(fmt.Sprintf("s%d", i))
		_, p, err := rig.engine.Join(internal.JoinRoomRequest{
			RoomCode:   room.Code,
			PlayerName: fmt.Sprintf("player%d", i),
		}, fmt.Sprintf("user%d", i), sessions[i])
		require.NoError(t, err)
		players[i] = p
	}
	return room, players, sessions
}

func phaseOf(r *internal.Room) internal.Phase {
	r.Mu.RLock()
	defer r.Mu.RUnlock()
	return r.Phase
}

func waitForPhase(t *testing.T, r *internal.Room, want internal.Phase) {
	t.Helper()
	require.Eventually(t, func() bool {
		return phaseOf(r) == want
	}, 2*time.Second, 5*time.Millisecond, "room never reached phase %s", want)
}

// startDrawing walks a room from the lobby into the drawing phase: the
// host starts the game and the drawer picks the first offered word.
// Returns the drawer's index and the chosen word.
func (rig *testRig) startDrawing(t *testing.T, r *internal.Room, players []*internal.Player) (int, string) {
	t.Helper()
	require.NoError(t, rig.engine.StartGame(r, players[0].Id))
	waitForPhase(t, r, internal.PhaseChoosing)

	r.Mu.RLock()
	drawerId := r.CurrentDrawerId
	choices := append([]string(nil), r.WordChoices...)
	r.Mu.RUnlock()
	require.NotEmpty(t, choices)

	drawerIdx := -1
	for i, p := range players {
		if p.Id == drawerId {
			drawerIdx = i
		}
	}
	require.GreaterOrEqual(t, drawerIdx, 0, "current drawer is not a seated player")

	require.NoError(t, rig.engine.SelectWord(r, drawerId, choices[0]))
	require.Equal(t, internal.PhaseDrawing, phaseOf(r))
	return drawerIdx, choices[0]
}
