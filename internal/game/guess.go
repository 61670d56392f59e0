package game

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scrawlgg/scrawl-backend/internal"
)

// Guess arbitration. Every chat:message line from a guessing-eligible
// player is compared against the current word; the raw text of a
// correct guess is never broadcast.

// HandleChat processes one chat line from a member.
func (e *Engine) HandleChat(r *internal.Room, playerId, text string) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p, ok := r.Players[playerId]
	if !ok {
		return internal.ErrNotMember
	}
	text = strings.TrimSpace(text)
	if text == "" || len([]rune(text)) > internal.MaxChatLength {
		return internal.ErrInvalidInput
	}

	guessing := r.Phase == internal.PhaseDrawing && playerId != r.CurrentDrawerId
	if guessing && !p.HasGuessed {
		guess := strings.ToLower(text)
		word := strings.ToLower(r.CurrentWord)
		p.TotalGuesses++

		if guess == word {
			e.correctGuessLocked(r, p)
			return nil
		}
		if isCloseGuess(guess, word) {
			e.chatLocked(r, p, text, true, true)
			e.sendTo(p, internal.EventGameCloseGuess, internal.CloseGuessData{Message: text})
			return nil
		}
	}
	e.chatLocked(r, p, text, guessing, false)
	return nil
}

// correctGuessLocked applies the scoring policy: a flat base, a bonus
// for time on the clock, and a decaying bonus for guessing early. The
// drawer earns a fixed cut per guesser.
func (e *Engine) correctGuessLocked(r *internal.Room, p *internal.Player) {
	p.HasGuessed = true
	r.GuessedPlayers[p.Id] = struct{}{}

	arrival := len(r.GuessedPlayers)
	points := guessPoints(r.TimeLeft, r.DrawTime, arrival)
	p.Score += points
	p.CorrectGuesses++
	elapsed := r.DrawTime - r.TimeLeft
	if p.BestGuessSeconds == 0 || elapsed < p.BestGuessSeconds {
		p.BestGuessSeconds = elapsed
	}
	if drawer := r.CurrentDrawer(); drawer != nil {
		drawer.Score += drawerCut
	}

	e.broadcast(r, internal.EventGameCorrectGuess, internal.CorrectGuessData{
		PlayerId:   p.Id,
		PlayerName: p.Name,
		Points:     points,
	})
	if r.AllGuessed() {
		e.scheduleSettleLocked(r)
	}
	e.broadcastSyncLocked(r)
	e.persistLocked(r)
	e.verifyLocked(r)
}

// chatLocked appends a line to the bounded history and fans it out.
func (e *Engine) chatLocked(r *internal.Room, p *internal.Player, text string, isGuess, isClose bool) {
	msg := internal.ChatMessage{
		Id:         uuid.NewString(),
		PlayerId:   p.Id,
		PlayerName: p.Name,
		Text:       text,
		Timestamp:  time.Now().UnixMilli(),
		IsGuess:    isGuess,
		IsClose:    isClose,
	}
	r.AppendChat(msg)
	r.Touch()
	e.broadcast(r, internal.EventChatMessage, msg)
}

// isCloseGuess reports whether a wrong guess was nearly right: either
// the lengths differ by at most one with at most two positions
// mismatching, or one string contains the other and the guess has at
// least three characters. Comparison is case-insensitive (callers
// lower-case) with no diacritic folding.
func isCloseGuess(guess, word string) bool {
	g := []rune(guess)
	w := []rune(word)
	if len(g) == 0 || len(w) == 0 {
		return false
	}

	diff := len(g) - len(w)
	if diff < 0 {
		diff = -diff
	}
	if diff <= 1 {
		shorter := len(g)
		if len(w) < shorter {
			shorter = len(w)
		}
		mismatches := 0
		for i := 0; i < shorter; i++ {
			if g[i] != w[i] {
				mismatches++
			}
		}
		if mismatches <= 2 {
			return true
		}
	}
	if len(g) >= 3 && (strings.Contains(word, guess) || strings.Contains(guess, word)) {
		return true
	}
	return false
}
