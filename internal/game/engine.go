// Package game contains the room engine: the registry of live rooms,
// the per-room state machine and its timers, guess arbitration and
// scoring, membership rules, drawing fan-out and the housekeeping
// sweep. All mutations of a single room happen under that room's
// mutex; command handlers and timer callbacks hold it for their whole
// duration, so each room sees a strict total order of events.
package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/scrawlgg/scrawl-backend/internal"
	"github.com/scrawlgg/scrawl-backend/internal/config"
	"github.com/scrawlgg/scrawl-backend/internal/store"
	"github.com/scrawlgg/scrawl-backend/internal/words"
)

// Engine drives every room. It owns no per-room state itself, so one
// engine serves all rooms concurrently.
type Engine struct {
	cfg      config.GameConfig
	registry *Registry
	store    store.Store
	words    *words.Catalogue
	log      *slog.Logger

	storeTimeout time.Duration
}

func NewEngine(cfg config.GameConfig, storeCfg config.StoreConfig, registry *Registry, st store.Store, catalogue *words.Catalogue, log *slog.Logger) *Engine {
	return &Engine{
		cfg:          cfg,
		registry:     registry,
		store:        st,
		words:        catalogue,
		log:          log.With("component", "engine"),
		storeTimeout: storeCfg.WriteTimeout,
	}
}

// Registry exposes the room registry the engine was built with.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// verifyLocked checks the room's structural invariants after a state
// transition. A violation is fatal for that room only: the game is
// aborted and members are told, the rest of the process is unaffected.
func (e *Engine) verifyLocked(r *internal.Room) {
	if err := r.CheckInvariants(); err != nil {
		e.log.Error("room state corrupt, aborting game", "roomId", r.Id, "err", err)
		e.abortLocked(r)
	}
}

// abortLocked force-ends the game without re-running verification.
func (e *Engine) abortLocked(r *internal.Room) {
	e.cancelAllTimersLocked(r)
	r.Phase = internal.PhaseGameEnd
	for _, p := range r.Players {
		p.IsDrawing = false
	}
	r.CurrentDrawerId = ""
	r.CurrentWord = ""
	r.MaskedWord = ""
	r.TimeLeft = 0
	r.WordChoices = nil
	r.Strokes.Clear()
	e.broadcast(r, internal.EventGameEnded, internal.GameEndedData{
		Rankings: e.rankingsLocked(r),
		Reason:   internal.ReasonInternalError,
	})
	e.broadcastSyncLocked(r)
	e.persistLocked(r)
}

// persistLocked snapshots the room and its members under the lock and
// writes them out in the background. The in-memory state stays
// authoritative: failures are logged and the next state change writes
// the full rows again.
func (e *Engine) persistLocked(r *internal.Room) {
	r.Touch()
	roomRecord := store.RoomRecord{
		Id:           r.Id,
		Code:         r.Code,
		HostId:       r.HostId,
		IsPrivate:    r.IsPrivate,
		MaxPlayers:   r.MaxPlayers,
		DrawTime:     r.DrawTime,
		MaxRounds:    r.MaxRounds,
		Theme:        r.Theme,
		Phase:        string(r.Phase),
		PlayerCount:  len(r.Players),
		LastActivity: r.LastActivity,
		CreatedAt:    r.CreatedAt,
	}
	playerRecords := make([]store.PlayerRecord, 0, len(r.Players))
	for _, p := range r.Players {
		sessionId := ""
		if p.Session != nil {
			sessionId = p.Session.Id()
		}
		playerRecords = append(playerRecords, store.PlayerRecord{
			Id:        p.Id,
			RoomId:    r.Id,
			UserId:    p.UserId,
			Name:      p.Name,
			Avatar:    p.Avatar,
			Score:     p.Score,
			IsHost:    p.IsHost,
			Seat:      p.Seat,
			SessionId: sessionId,
		})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.storeTimeout)
		defer cancel()
		if err := e.store.SaveRoom(ctx, roomRecord); err != nil {
			e.log.Warn("transient: persist room failed", "roomId", roomRecord.Id, "err", err)
			return
		}
		for _, pr := range playerRecords {
			if err := e.store.SavePlayer(ctx, pr); err != nil {
				e.log.Warn("transient: persist player failed", "playerId", pr.Id, "err", err)
			}
		}
	}()
}

func (e *Engine) deletePlayerRow(playerId string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.storeTimeout)
		defer cancel()
		if err := e.store.DeletePlayer(ctx, playerId); err != nil {
			e.log.Warn("transient: delete player failed", "playerId", playerId, "err", err)
		}
	}()
}

// Shutdown tells every room the server is going away, cancels all
// timers and closes every session. Called once during graceful stop.
func (e *Engine) Shutdown(message string) {
	for _, room := range e.registry.Rooms() {
		room.Mu.Lock()
		e.broadcast(room, internal.EventServerShutdown, internal.ShutdownData{Message: message})
		e.cancelAllTimersLocked(room)
		sessions := make([]internal.Session, 0, len(room.Players))
		for _, p := range room.Players {
			if p.Session != nil {
				sessions = append(sessions, p.Session)
			}
		}
		room.Mu.Unlock()
		for _, s := range sessions {
			s.Close()
		}
	}
}
