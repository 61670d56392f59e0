package game

import (
	"slices"
	"sort"

	"github.com/scrawlgg/scrawl-backend/internal"
	"github.com/scrawlgg/scrawl-backend/internal/words"
)

// The state machine: lobby -> choosing -> drawing -> roundEnd, cycling
// through choosing until the last turn of the last round lands in
// gameEnd. Exported methods are the command entry points; the *Locked
// functions are the transitions and run with the room mutex held, from
// commands and timer callbacks alike.

// StartGame handles the host's game:start. The room stays in the lobby
// for a short broadcast countdown, then enters choosing.
func (e *Engine) StartGame(r *internal.Room, playerId string) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p, ok := r.Players[playerId]
	if !ok {
		return internal.ErrNotMember
	}
	if !p.IsHost {
		return internal.ErrNotAuthorised
	}
	if r.Phase != internal.PhaseLobby {
		return internal.ErrWrongPhase
	}
	if r.ConnectedCount() < e.cfg.MinPlayers {
		return internal.ErrInvalidInput
	}

	// The drawer rotation is a permutation fixed once per game:
	// members in seat order, shuffled. Leavers are pruned from it;
	// it is never recomputed mid-game.
	order := make([]string, 0, len(r.Players))
	for id := range r.Players {
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool {
		return r.Players[order[i]].Seat < r.Players[order[j]].Seat
	})
	e.words.Shuffle(order)
	r.DrawerOrder = order
	r.Round = 1
	r.Turn = 0

	countdown := int(e.cfg.StartCountdown.Seconds())
	e.broadcast(r, internal.EventGameStarting, internal.GameStartingData{Countdown: countdown})
	e.armTimerLocked(r, internal.TimerStart, e.cfg.StartCountdown, func(r *internal.Room) {
		if r.Phase != internal.PhaseLobby {
			return
		}
		e.beginChoosingLocked(r)
	})
	e.persistLocked(r)
	return nil
}

// beginChoosingLocked starts the turn at the current turn index: the
// drawer gets a private word triple and 15 seconds to pick. A turn
// never starts below the player floor; someone must be there to guess.
func (e *Engine) beginChoosingLocked(r *internal.Room) {
	if r.ConnectedCount() < e.cfg.MinPlayers {
		e.endGameLocked(r, internal.ReasonTooFewPlayers)
		return
	}
	r.Phase = internal.PhaseChoosing
	r.CurrentWord = ""
	r.MaskedWord = ""
	r.TimeLeft = 0
	r.GuessedPlayers = make(map[string]struct{})
	for _, p := range r.Players {
		p.ResetTurnState()
	}
	r.CurrentDrawerId = ""

	if r.Turn >= len(r.DrawerOrder) {
		e.endGameLocked(r, internal.ReasonTooFewPlayers)
		return
	}
	drawer := r.Players[r.DrawerOrder[r.Turn]]
	if drawer == nil {
		r.DrawerOrder = slices.Delete(r.DrawerOrder, r.Turn, r.Turn+1)
		e.beginChoosingLocked(r)
		return
	}
	if !drawer.IsConnected {
		// Skip members who are not there to draw. Marking the seat as
		// the current drawer makes advanceLocked step past it; the
		// connected-count check there ends the game instead once too
		// few players remain.
		r.CurrentDrawerId = drawer.Id
		e.advanceLocked(r)
		return
	}

	r.CurrentDrawerId = drawer.Id
	drawer.IsDrawing = true
	r.WordChoices = e.words.Choices(r.Theme, 3)

	e.sendTo(drawer, internal.EventGameChooseWord, internal.ChooseWordData{Words: r.WordChoices})
	e.armTimerLocked(r, internal.TimerChoose, e.cfg.AutoPickTimeout, func(r *internal.Room) {
		if r.Phase != internal.PhaseChoosing || len(r.WordChoices) == 0 {
			return
		}
		e.enterDrawingLocked(r, r.WordChoices[0])
	})
	e.broadcastSyncLocked(r)
	e.persistLocked(r)
	e.verifyLocked(r)
}

// SelectWord handles the drawer's game:select_word.
func (e *Engine) SelectWord(r *internal.Room, playerId, word string) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if _, ok := r.Players[playerId]; !ok {
		return internal.ErrNotMember
	}
	if r.Phase != internal.PhaseChoosing {
		return internal.ErrWrongPhase
	}
	if playerId != r.CurrentDrawerId {
		return internal.ErrNotAuthorised
	}
	if !slices.Contains(r.WordChoices, word) {
		return internal.ErrInvalidInput
	}
	e.enterDrawingLocked(r, word)
	return nil
}

func (e *Engine) enterDrawingLocked(r *internal.Room, word string) {
	e.cancelTimerLocked(r, internal.TimerChoose)

	// The last guesser may have dropped while the drawer was choosing.
	if r.ConnectedCount() < e.cfg.MinPlayers {
		e.endGameLocked(r, internal.ReasonTooFewPlayers)
		return
	}

	r.Phase = internal.PhaseDrawing
	r.CurrentWord = word
	r.MaskedWord = words.Mask(word)
	r.TimeLeft = r.DrawTime
	r.GuessedPlayers = make(map[string]struct{})
	r.WordChoices = nil
	r.Strokes.Clear()

	drawer := r.CurrentDrawer()
	if drawer != nil {
		drawer.TimesDrawn++
		e.sendTo(drawer, internal.EventGameWord, internal.WordData{Word: word})
	}
	e.broadcast(r, internal.EventGameTurnStart, internal.TurnStartData{
		DrawerId:   r.CurrentDrawerId,
		WordLength: len([]rune(word)),
		MaskedWord: r.MaskedWord,
		TimeLeft:   r.TimeLeft,
	})
	e.broadcastSyncLocked(r)
	e.startTickLocked(r)
	e.persistLocked(r)
	e.verifyLocked(r)
}

// endTurnLocked reveals the answer and moves the room to roundEnd; the
// post-turn delay then advances the rotation.
func (e *Engine) endTurnLocked(r *internal.Room, reason string) {
	e.cancelTimerLocked(r, internal.TimerTick)
	e.cancelTimerLocked(r, internal.TimerChoose)
	e.cancelTimerLocked(r, internal.TimerSettle)

	word := r.CurrentWord
	r.Phase = internal.PhaseRoundEnd
	if drawer := r.CurrentDrawer(); drawer != nil {
		drawer.IsDrawing = false
	}
	r.CurrentWord = ""
	r.MaskedWord = ""
	r.TimeLeft = 0
	r.WordChoices = nil
	r.Strokes.Clear()

	e.broadcast(r, internal.EventGameTurnEnd, internal.TurnEndData{
		Word:       word,
		Reason:     reason,
		AllGuessed: reason == internal.ReasonAllGuessed,
	})
	e.armTimerLocked(r, internal.TimerTurnEnd, e.cfg.TurnEndDelay, func(r *internal.Room) {
		if r.Phase != internal.PhaseRoundEnd {
			return
		}
		e.advanceLocked(r)
	})
	e.broadcastSyncLocked(r)
	e.persistLocked(r)
	e.verifyLocked(r)
}

// advanceLocked moves the rotation to the next turn, wrapping into the
// next round or ending the game.
func (e *Engine) advanceLocked(r *internal.Room) {
	if r.ConnectedCount() < e.cfg.MinPlayers {
		e.endGameLocked(r, internal.ReasonTooFewPlayers)
		return
	}

	// When the current drawer has been pruned from the rotation the
	// turn index already names the next player, so it must not move.
	next := r.Turn
	if r.CurrentDrawerId != "" && slices.Contains(r.DrawerOrder, r.CurrentDrawerId) {
		next = r.Turn + 1
	}

	switch {
	case next < len(r.DrawerOrder):
		r.Turn = next
		e.beginChoosingLocked(r)
	case r.Round < r.MaxRounds:
		completed := r.Round
		r.Turn = 0
		r.Round++
		e.broadcast(r, internal.EventGameRoundEnd, internal.RoundEndData{Round: completed})
		e.beginChoosingLocked(r)
	default:
		e.endGameLocked(r, "")
	}
}

// endGameLocked computes rankings and awards, notifies the room and
// fires the profile stat updates. No timers survive game end.
func (e *Engine) endGameLocked(r *internal.Room, reason string) {
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

	rankings := e.rankingsLocked(r)
	e.broadcast(r, internal.EventGameEnded, internal.GameEndedData{
		Rankings: rankings,
		Reason:   reason,
		Awards:   e.awardsLocked(r, rankings),
	})
	e.broadcastSyncLocked(r)
	e.persistLocked(r)
	e.bumpProfiles(rankings)
	e.verifyLocked(r)

	e.log.Info("game ended", "roomId", r.Id, "reason", reason, "players", len(r.Players))
}

// PlayAgain handles the host's game:play_again: back to the lobby with
// scores reset, membership and rotation preserved.
func (e *Engine) PlayAgain(r *internal.Room, playerId string) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p, ok := r.Players[playerId]
	if !ok {
		return internal.ErrNotMember
	}
	if !p.IsHost {
		return internal.ErrNotAuthorised
	}
	if r.Phase != internal.PhaseGameEnd {
		return internal.ErrWrongPhase
	}

	r.Phase = internal.PhaseLobby
	r.Round = 1
	r.Turn = 0
	r.GuessedPlayers = make(map[string]struct{})
	for _, member := range r.Players {
		member.ResetGameState()
	}
	e.broadcastSyncLocked(r)
	e.persistLocked(r)
	e.verifyLocked(r)
	return nil
}

// UpdateSettings handles room:settings, host-only and lobby-only.
// Only the draw time and round count can change after creation.
func (e *Engine) UpdateSettings(r *internal.Room, playerId string, req internal.SettingsRequest) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p, ok := r.Players[playerId]
	if !ok {
		return internal.ErrNotMember
	}
	if !p.IsHost {
		return internal.ErrNotAuthorised
	}
	if r.Phase != internal.PhaseLobby {
		return internal.ErrWrongPhase
	}

	if req.DrawTime != nil {
		if *req.DrawTime < internal.DrawTimeMin || *req.DrawTime > internal.DrawTimeMax {
			return internal.ErrInvalidInput
		}
		r.DrawTime = *req.DrawTime
	}
	if req.MaxRounds != nil {
		if *req.MaxRounds < internal.RoundsMin || *req.MaxRounds > internal.RoundsMax {
			return internal.ErrInvalidInput
		}
		r.MaxRounds = *req.MaxRounds
	}
	e.broadcastSyncLocked(r)
	e.persistLocked(r)
	return nil
}
