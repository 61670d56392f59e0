package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrawlgg/scrawl-backend/internal"
	"github.com/scrawlgg/scrawl-backend/internal/config"
	"github.com/scrawlgg/scrawl-backend/internal/game"
	"github.com/scrawlgg/scrawl-backend/internal/store"
	"github.com/scrawlgg/scrawl-backend/internal/words"
)

func testLimits() config.LimitsConfig {
	return config.LimitsConfig{
		MaxMessageSize:   8192,
		SessionRate:      100,
		SessionBurst:     200,
		SweepInterval:    time.Minute,
		LimiterIdleEvict: time.Minute,
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.NewMemory()
	catalogue, err := words.Load(1)
	require.NoError(t, err)

	gameCfg := config.GameConfig{
		MinPlayers:       2,
		DefaultDrawTime:  80,
		DefaultRounds:    3,
		DefaultMaxPlayer: 8,
		DefaultTheme:     "general",
		HintIntervalSecs: 20,
		StartCountdown:   20 * time.Millisecond,
		AutoPickTimeout:  5 * time.Second,
		TurnEndDelay:     20 * time.Millisecond,
		SettleDelay:      10 * time.Millisecond,
		EmptyRoomGrace:   time.Minute,
		DenyListTTL:      time.Minute,
	}
	storeCfg := config.StoreConfig{WriteTimeout: time.Second, Retention: 30 * time.Minute}

	registry := game.NewRegistry(st, storeCfg.WriteTimeout, log)
	engine := game.NewEngine(gameCfg, storeCfg, registry, st, catalogue, log)
	limiters := NewLimiterRegistry(testLimits().SessionRate, testLimits().SessionBurst)
	adapter := NewAdapter(engine, limiters, testLimits(), log)

	srv := httptest.NewServer(adapter)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, eventType string, data any) {
	t.Helper()
	frame, err := json.Marshal(internal.Message[any]{Type: eventType, Data: data})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

// awaitEvent reads frames until one of the wanted type arrives,
// skipping interleaved broadcasts.
func awaitEvent(t *testing.T, conn *websocket.Conn, eventType string) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", eventType)
		var msg internal.Message[json.RawMessage]
		require.NoError(t, json.Unmarshal(raw, &msg))
		if msg.Type == eventType {
			return msg.Data
		}
	}
}

func TestCreateJoinChatOverWire(t *testing.T) {
	srv := newTestServer(t)

	host := dial(t, srv)
	send(t, host, internal.EventRoomCreate, internal.CreateRoomRequest{PlayerName: "alice"})

	var created internal.CreateRoomReply
	require.NoError(t, json.Unmarshal(awaitEvent(t, host, internal.EventRoomCreate), &created))
	require.True(t, created.Success)
	require.Len(t, created.RoomCode, internal.RoomCodeLength)
	require.NotEmpty(t, created.PlayerId)

	guest := dial(t, srv)
	send(t, guest, internal.EventRoomJoin, internal.JoinRoomRequest{RoomCode: created.RoomCode, PlayerName: "bob"})

	var joined internal.JoinRoomReply
	require.NoError(t, json.Unmarshal(awaitEvent(t, guest, internal.EventRoomJoin), &joined))
	require.True(t, joined.Success)
	assert.Equal(t, created.RoomCode, joined.RoomCode)

	// The host hears about the join.
	var joinedEvt internal.PlayerJoinedData
	require.NoError(t, json.Unmarshal(awaitEvent(t, host, internal.EventPlayerJoined), &joinedEvt))
	assert.Equal(t, "bob", joinedEvt.Player.Name)

	// Chat crosses the room.
	send(t, guest, internal.EventChatMessage, internal.ChatRequest{Message: "hello there"})
	var chat internal.ChatMessage
	require.NoError(t, json.Unmarshal(awaitEvent(t, host, internal.EventChatMessage), &chat))
	assert.Equal(t, "hello there", chat.Text)
	assert.Equal(t, joined.PlayerId, chat.PlayerId)
}

func TestJoinUnknownRoomOverWire(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, internal.EventRoomJoin, internal.JoinRoomRequest{RoomCode: "ZZZZZZ", PlayerName: "eve"})

	var ack internal.Ack
	require.NoError(t, json.Unmarshal(awaitEvent(t, conn, internal.EventRoomJoin), &ack))
	require.False(t, ack.Success)
	assert.Equal(t, "RoomNotFound", ack.Kind)
}

func TestCommandBeforeJoiningIsRejected(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, internal.EventGameStart, nil)

	var ack internal.Ack
	require.NoError(t, json.Unmarshal(awaitEvent(t, conn, internal.EventGameStart), &ack))
	require.False(t, ack.Success)
	assert.Equal(t, "NotMember", ack.Kind)
}

func TestMalformedFrame(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	var ack internal.Ack
	require.NoError(t, json.Unmarshal(awaitEvent(t, conn, "message"), &ack))
	require.False(t, ack.Success)

	// The connection survives a bad frame.
	send(t, conn, internal.EventRoomCreate, internal.CreateRoomRequest{PlayerName: "alice"})
	var created internal.CreateRoomReply
	require.NoError(t, json.Unmarshal(awaitEvent(t, conn, internal.EventRoomCreate), &created))
	require.True(t, created.Success)
}

func TestGameStartOverWire(t *testing.T) {
	srv := newTestServer(t)

	host := dial(t, srv)
	send(t, host, internal.EventRoomCreate, internal.CreateRoomRequest{PlayerName: "alice"})
	var created internal.CreateRoomReply
	require.NoError(t, json.Unmarshal(awaitEvent(t, host, internal.EventRoomCreate), &created))
	require.True(t, created.Success)

	guest := dial(t, srv)
	send(t, guest, internal.EventRoomJoin, internal.JoinRoomRequest{RoomCode: created.RoomCode, PlayerName: "bob"})
	require.NotNil(t, awaitEvent(t, guest, internal.EventRoomJoin))

	send(t, host, internal.EventGameStart, nil)

	var starting internal.GameStartingData
	require.NoError(t, json.Unmarshal(awaitEvent(t, guest, internal.EventGameStarting), &starting))

	// After the countdown somebody is offered the word triple; the
	// other only sees the choosing-phase snapshot.
	var sync internal.RoomSyncData
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, json.Unmarshal(awaitEvent(t, guest, internal.EventRoomSync), &sync))
		if sync.Room.Phase == internal.PhaseChoosing {
			break
		}
		require.True(t, time.Now().Before(deadline), "never saw the choosing phase")
	}
	assert.NotEmpty(t, sync.Room.CurrentDrawer)
}

func TestDisconnectFreesTheSeatForReconnect(t *testing.T) {
	srv := newTestServer(t)

	host := dial(t, srv)
	send(t, host, internal.EventRoomCreate, internal.CreateRoomRequest{PlayerName: "alice"})
	var created internal.CreateRoomReply
	require.NoError(t, json.Unmarshal(awaitEvent(t, host, internal.EventRoomCreate), &created))

	guest := dial(t, srv)
	send(t, guest, internal.EventRoomJoin, internal.JoinRoomRequest{RoomCode: created.RoomCode, PlayerName: "bob"})
	var joined internal.JoinRoomReply
	require.NoError(t, json.Unmarshal(awaitEvent(t, guest, internal.EventRoomJoin), &joined))

	guest.Close()

	var gone internal.PlayerDisconnectedData
	require.NoError(t, json.Unmarshal(awaitEvent(t, host, internal.EventPlayerDisconnected), &gone))
	assert.Equal(t, joined.PlayerId, gone.PlayerId)

	// Same player id, new socket: the seat comes back.
	back := dial(t, srv)
	send(t, back, internal.EventRoomJoin, internal.JoinRoomRequest{RoomCode: created.RoomCode, PlayerId: joined.PlayerId})
	var rejoined internal.JoinRoomReply
	require.NoError(t, json.Unmarshal(awaitEvent(t, back, internal.EventRoomJoin), &rejoined))
	require.True(t, rejoined.Success)
	assert.Equal(t, joined.PlayerId, rejoined.PlayerId)
}
