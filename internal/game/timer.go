package game

import (
	"context"
	"time"

	"github.com/scrawlgg/scrawl-backend/internal"
	"github.com/scrawlgg/scrawl-backend/internal/words"
)

// Room timers. A room owns at most one timer of each kind; arming a
// kind halts its predecessor. Every callback re-enters the engine
// through the room mutex and verifies it is still the registered timer
// of its kind before acting, so a halted or replaced timer can never
// fire into a room that has moved on. That identity check is also what
// linearises timer fires against commands: both run under the same
// lock, in arrival order.

// armTimerLocked schedules a one-shot. fn runs with the room lock held.
func (e *Engine) armTimerLocked(r *internal.Room, kind internal.TimerKind, d time.Duration, fn func(*internal.Room)) {
	if old := r.Timers[kind]; old != nil {
		old.Halt()
	}
	rt := &internal.RoomTimer{Kind: kind}
	rt.T = time.AfterFunc(d, func() {
		r.Mu.Lock()
		defer r.Mu.Unlock()
		if r.Timers[kind] != rt {
			return
		}
		delete(r.Timers, kind)
		fn(r)
	})
	r.Timers[kind] = rt
}

// cancelTimerLocked halts and forgets one timer kind, if armed.
func (e *Engine) cancelTimerLocked(r *internal.Room, kind internal.TimerKind) {
	if t := r.Timers[kind]; t != nil {
		t.Halt()
		delete(r.Timers, kind)
	}
}

// cancelAllTimersLocked halts every armed timer. Used on game end and
// room destruction; ordinary transitions cancel the specific kinds
// that are illegal in the destination phase.
func (e *Engine) cancelAllTimersLocked(r *internal.Room) {
	for kind, t := range r.Timers {
		t.Halt()
		delete(r.Timers, kind)
	}
}

// startTickLocked launches the 1-second tick loop for the drawing
// phase. The goroutine holds no lock between ticks; each tick takes
// the room lock, re-checks its identity and runs the handler.
func (e *Engine) startTickLocked(r *internal.Room) {
	if old := r.Timers[internal.TimerTick]; old != nil {
		old.Halt()
	}
	ctx, cancel := context.WithCancel(context.Background())
	rt := &internal.RoomTimer{Kind: internal.TimerTick, Cancel: cancel}
	r.Timers[internal.TimerTick] = rt

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Mu.Lock()
				if r.Timers[internal.TimerTick] != rt {
					r.Mu.Unlock()
					return
				}
				e.tickLocked(r)
				r.Mu.Unlock()
			}
		}
	}()
}

// tickLocked decrements the clock, emits the time update, folds in the
// hint schedule and ends the turn at zero.
func (e *Engine) tickLocked(r *internal.Room) {
	if r.Phase != internal.PhaseDrawing {
		e.cancelTimerLocked(r, internal.TimerTick)
		return
	}
	r.TimeLeft--
	if r.TimeLeft <= 0 {
		r.TimeLeft = 0
		e.broadcast(r, internal.EventGameTimeUpdate, internal.TimeUpdateData{TimeLeft: 0})
		e.endTurnLocked(r, internal.ReasonTimeUp)
		return
	}
	e.broadcast(r, internal.EventGameTimeUpdate, internal.TimeUpdateData{TimeLeft: r.TimeLeft})

	// Hint schedule: reveal one letter whenever the clock sits on a
	// positive multiple of the hint interval, but never within the
	// opening 10 seconds of the draw time.
	if r.TimeLeft%e.cfg.HintIntervalSecs == 0 && r.TimeLeft < r.DrawTime-10 {
		if idx := e.words.RandomMaskedIndex(r.MaskedWord); idx >= 0 {
			r.MaskedWord = words.Reveal(r.MaskedWord, r.CurrentWord, idx)
			e.broadcast(r, internal.EventGameHint, internal.HintData{MaskedWord: r.MaskedWord})
		}
	}
}
