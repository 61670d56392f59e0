package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrawlgg/scrawl-backend/internal"
	"github.com/scrawlgg/scrawl-backend/internal/config"
	"github.com/scrawlgg/scrawl-backend/internal/store"
)

type fakeSweeper struct{ calls int }

func (f *fakeSweeper) Sweep(time.Duration) int {
	f.calls++
	return 0
}

func testHousekeeperConfig() *config.Config {
	return &config.Config{
		Game:   testGameConfig(),
		Store:  testStoreConfig(),
		Limits: config.LimitsConfig{SweepInterval: 10 * time.Millisecond, LimiterIdleEvict: time.Minute},
	}
}

func TestSweepReapsAbandonedRooms(t *testing.T) {
	rig := newTestRig(t)
	sweeper := &fakeSweeper{}
	hk := NewHousekeeper(testHousekeeperConfig(), rig.registry, rig.store, sweeper, discardLogger())

	abandoned, err := rig.registry.Create(internal.Settings{DrawTime: 80, MaxRounds: 3, MaxPlayers: 8, Theme: "general"})
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	abandoned.Mu.Lock()
	abandoned.EmptySince = &past
	abandoned.Mu.Unlock()

	occupied, _, _ := rig.makeRoom(t, 2)

	hk.SweepOnce(context.Background())

	assert.Nil(t, rig.registry.ById(abandoned.Id), "abandoned room survived the sweep")
	assert.NotNil(t, rig.registry.ById(occupied.Id))
	assert.Equal(t, 1, sweeper.calls)
}

func TestSweepHonoursGracePeriod(t *testing.T) {
	rig := newTestRig(t)
	hk := NewHousekeeper(testHousekeeperConfig(), rig.registry, rig.store, nil, discardLogger())

	room, err := rig.registry.Create(internal.Settings{DrawTime: 80, MaxRounds: 3, MaxPlayers: 8, Theme: "general"})
	require.NoError(t, err)
	now := time.Now()
	room.Mu.Lock()
	room.EmptySince = &now
	room.Mu.Unlock()

	hk.SweepOnce(context.Background())
	assert.NotNil(t, rig.registry.ById(room.Id), "freshly emptied room reaped before its grace elapsed")
}

func TestSweepPrunesDeadStoreRows(t *testing.T) {
	rig := newTestRig(t)
	hk := NewHousekeeper(testHousekeeperConfig(), rig.registry, rig.store, nil, discardLogger())

	require.NoError(t, rig.store.SaveRoom(context.Background(), store.RoomRecord{
		Id:           "dead",
		Code:         "DEADXX",
		Phase:        string(internal.PhaseGameEnd),
		LastActivity: time.Now().Add(-24 * time.Hour),
	}))

	hk.SweepOnce(context.Background())

	rec, err := rig.store.RoomByCode(context.Background(), "DEADXX")
	require.NoError(t, err)
	assert.Nil(t, rec, "dead row survived retention pruning")
}

func TestRunStopsWithContext(t *testing.T) {
	rig := newTestRig(t)
	hk := NewHousekeeper(testHousekeeperConfig(), rig.registry, rig.store, nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hk.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("housekeeper did not stop on context cancellation")
	}
}
