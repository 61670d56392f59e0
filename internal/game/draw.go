package game

import (
	"encoding/json"

	"github.com/scrawlgg/scrawl-backend/internal"
)

// Drawing fan-out. Stroke payloads are opaque to the server: only the
// current drawer may emit them during the drawing phase, and they are
// forwarded verbatim to everyone else. The room keeps a bounded
// per-turn journal so reconnecting members can be caught up.

func (e *Engine) drawerCheckLocked(r *internal.Room, playerId string) error {
	if _, ok := r.Players[playerId]; !ok {
		return internal.ErrNotMember
	}
	if r.Phase != internal.PhaseDrawing {
		return internal.ErrWrongPhase
	}
	if playerId != r.CurrentDrawerId {
		return internal.ErrNotAuthorised
	}
	return nil
}

// HandleStroke forwards one draw:stroke frame.
func (e *Engine) HandleStroke(r *internal.Room, playerId string, stroke json.RawMessage) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if err := e.drawerCheckLocked(r, playerId); err != nil {
		return err
	}
	r.Strokes.Append(stroke)
	r.Touch()
	e.broadcastExcept(r, playerId, internal.EventDrawStroke, stroke)
	return nil
}

// HandleClear wipes the canvas for everyone.
func (e *Engine) HandleClear(r *internal.Room, playerId string) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if err := e.drawerCheckLocked(r, playerId); err != nil {
		return err
	}
	r.Strokes.Clear()
	e.broadcastExcept(r, playerId, internal.EventDrawClear, nil)
	return nil
}

// HandleUndo removes the most recent stroke for everyone.
func (e *Engine) HandleUndo(r *internal.Room, playerId string) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if err := e.drawerCheckLocked(r, playerId); err != nil {
		return err
	}
	r.Strokes.Undo()
	e.broadcastExcept(r, playerId, internal.EventDrawUndo, nil)
	return nil
}
