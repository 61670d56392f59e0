package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/scrawlgg/scrawl-backend/internal/config"
	"github.com/scrawlgg/scrawl-backend/internal/store"
)

// LimiterSweeper is what the housekeeper needs from the transport's
// rate-limit registry: evict counters idle longer than the cutoff.
type LimiterSweeper interface {
	Sweep(idle time.Duration) int
}

// Housekeeper is the periodic sweep behind the per-room timers: it
// destroys rooms that out-sat the empty grace, evicts stale rate-limit
// counters, prunes dead store rows and pulls recently-active persisted
// rooms back into memory.
type Housekeeper struct {
	registry *Registry
	store    store.Store
	limiters LimiterSweeper
	log      *slog.Logger

	interval   time.Duration
	emptyGrace time.Duration
	idleEvict  time.Duration
	retention  time.Duration
}

func NewHousekeeper(cfg *config.Config, registry *Registry, st store.Store, limiters LimiterSweeper, log *slog.Logger) *Housekeeper {
	return &Housekeeper{
		registry:   registry,
		store:      st,
		limiters:   limiters,
		log:        log.With("component", "housekeeper"),
		interval:   cfg.Limits.SweepInterval,
		emptyGrace: cfg.Game.EmptyRoomGrace,
		idleEvict:  cfg.Limits.LimiterIdleEvict,
		retention:  cfg.Store.Retention,
	}
}

// Run sweeps until the context is cancelled.
func (h *Housekeeper) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sweep(ctx)
		}
	}
}

func (h *Housekeeper) sweep(ctx context.Context) {
	now := time.Now()

	for _, room := range h.registry.Rooms() {
		room.Mu.RLock()
		expired := room.EmptySince != nil &&
			room.ConnectedCount() == 0 &&
			now.Sub(*room.EmptySince) >= h.emptyGrace
		roomId := room.Id
		room.Mu.RUnlock()
		if expired {
			h.log.Info("evicting abandoned room", "roomId", roomId)
			h.registry.Destroy(roomId)
		}
	}

	if h.limiters != nil {
		if evicted := h.limiters.Sweep(h.idleEvict); evicted > 0 {
			h.log.Debug("evicted stale rate limiters", "count", evicted)
		}
	}

	storeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if pruned, err := h.store.PruneRooms(storeCtx, now.Add(-h.retention)); err != nil {
		h.log.Warn("transient: store prune failed", "err", err)
	} else if pruned > 0 {
		h.log.Info("pruned dead rooms from store", "count", pruned)
	}
	if err := h.registry.RehydrateAll(storeCtx, now.Add(-h.retention)); err != nil {
		h.log.Warn("transient: rehydration sweep failed", "err", err)
	}
}

// SweepOnce runs a single sweep, used by tests and at boot.
func (h *Housekeeper) SweepOnce(ctx context.Context) {
	h.sweep(ctx)
}
