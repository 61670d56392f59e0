package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres spins up a throwaway database. Skipped where Docker is
// not available.
func startPostgres(t *testing.T) *Postgres {
	t.Helper()
	ctx := context.Background()

	// testcontainers panics (rather than returning an error) when no Docker
	// host can be discovered; fold that into the skip below.
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("docker not available: %v", r)
		}
	}()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("scrawl_test"),
		tcpostgres.WithUsername("scrawl"),
		tcpostgres.WithPassword("scrawl"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	p, err := NewPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestPostgresRoomRoundTrip(t *testing.T) {
	p := startPostgres(t)
	ctx := context.Background()

	room := sampleRoom("r1", "AAAAAA")
	room.HostId = "p1"
	room.IsPrivate = true
	require.NoError(t, p.SaveRoom(ctx, room))

	rec, err := p.RoomByCode(ctx, "aaaaaa")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, room.Id, rec.Id)
	assert.Equal(t, room.HostId, rec.HostId)
	assert.True(t, rec.IsPrivate)
	assert.Equal(t, room.Theme, rec.Theme)
	assert.WithinDuration(t, room.LastActivity, rec.LastActivity, time.Second)

	// Upsert path.
	room.Phase = "drawing"
	room.PlayerCount = 4
	require.NoError(t, p.SaveRoom(ctx, room))
	rec, err = p.RoomByCode(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "drawing", rec.Phase)
	assert.Equal(t, 4, rec.PlayerCount)

	missing, err := p.RoomByCode(ctx, "ZZZZZZ")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, p.DeleteRoom(ctx, room.Id))
	rec, err = p.RoomByCode(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestPostgresPlayersCascade(t *testing.T) {
	p := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, p.SaveRoom(ctx, sampleRoom("r1", "AAAAAA")))
	require.NoError(t, p.SavePlayer(ctx, PlayerRecord{Id: "p1", RoomId: "r1", Name: "alice", Seat: 1, IsHost: true}))
	require.NoError(t, p.SavePlayer(ctx, PlayerRecord{Id: "p2", RoomId: "r1", Name: "bob", Seat: 2, Score: 40}))

	players, err := p.RoomPlayers(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "alice", players[0].Name, "players come back in seat order")
	assert.Equal(t, 40, players[1].Score)

	// Deleting the room cascades to its players.
	require.NoError(t, p.DeleteRoom(ctx, "r1"))
	players, err = p.RoomPlayers(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, players)
}

func TestPostgresListAndPrune(t *testing.T) {
	p := startPostgres(t)
	ctx := context.Background()

	fresh := sampleRoom("fresh", "AAAAAA")
	require.NoError(t, p.SaveRoom(ctx, fresh))

	stale := sampleRoom("stale", "BBBBBB")
	stale.LastActivity = time.Now().Add(-time.Hour)
	require.NoError(t, p.SaveRoom(ctx, stale))

	active, err := p.ListActiveRooms(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "fresh", active[0].Id)

	pruned, err := p.PruneRooms(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)
}

func TestPostgresProfiles(t *testing.T) {
	p := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, p.BumpProfile(ctx, "u1", true, 300))
	require.NoError(t, p.BumpProfile(ctx, "u1", false, 100))

	var played, won, score int
	err := p.pool.QueryRow(ctx,
		`SELECT games_played, games_won, total_score FROM profiles WHERE user_id = $1`, "u1").
		Scan(&played, &won, &score)
	require.NoError(t, err)
	assert.Equal(t, 2, played)
	assert.Equal(t, 1, won)
	assert.Equal(t, 400, score)
}

func TestPostgresHealth(t *testing.T) {
	p := startPostgres(t)
	require.NoError(t, p.Health(context.Background()))
}
