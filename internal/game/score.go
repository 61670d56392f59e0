package game

import (
	"context"
	"sort"

	"github.com/scrawlgg/scrawl-backend/internal"
)

const (
	guessBase = 100
	// drawerCut is what the drawer earns per distinct correct guesser.
	drawerCut = 25
)

// guessPoints scores a correct guess: the base, a bonus proportional
// to the time still on the clock, and an order bonus that shrinks by
// 20 per earlier guesser. arrival is the guesser's 1-based index among
// this turn's correct guessers.
func guessPoints(timeLeft, drawTime, arrival int) int {
	timeBonus := 0
	if drawTime > 0 {
		timeBonus = timeLeft * 100 / drawTime
	}
	orderBonus := 100 - arrival*20
	if orderBonus < 0 {
		orderBonus = 0
	}
	return guessBase + timeBonus + orderBonus
}

// rankingsLocked orders the members by score, breaking ties by arrival
// seat so earlier joiners rank first.
func (e *Engine) rankingsLocked(r *internal.Room) []internal.RankingEntry {
	players := make([]*internal.Player, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, p)
	}
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].Seat < players[j].Seat
	})

	rankings := make([]internal.RankingEntry, len(players))
	for i, p := range players {
		rankings[i] = internal.RankingEntry{
			Rank:   i + 1,
			Id:     p.Id,
			Name:   p.Name,
			Score:  p.Score,
			UserId: p.UserId,
		}
	}
	return rankings
}

// awardsLocked picks the end-of-game honours: the top scorer and the
// fastest correct guess of the game. Nil when nothing qualifies.
func (e *Engine) awardsLocked(r *internal.Room, rankings []internal.RankingEntry) *internal.GameAwards {
	if len(rankings) == 0 {
		return nil
	}
	awards := &internal.GameAwards{}
	if rankings[0].Score > 0 {
		awards.Mvp = &internal.AwardEntry{
			PlayerId:   rankings[0].Id,
			PlayerName: rankings[0].Name,
			Value:      rankings[0].Score,
		}
	}
	for _, p := range r.Players {
		if p.BestGuessSeconds == 0 {
			continue
		}
		if awards.FastestGuess == nil || p.BestGuessSeconds < awards.FastestGuess.Value {
			awards.FastestGuess = &internal.AwardEntry{
				PlayerId:   p.Id,
				PlayerName: p.Name,
				Value:      p.BestGuessSeconds,
			}
		}
	}
	if awards.Mvp == nil && awards.FastestGuess == nil {
		return nil
	}
	return awards
}

// bumpProfiles fires the end-of-game stat increments for registered
// players. Best effort: failures are logged, never retried here.
func (e *Engine) bumpProfiles(rankings []internal.RankingEntry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.storeTimeout)
		defer cancel()
		for _, entry := range rankings {
			if entry.UserId == "" {
				continue
			}
			won := entry.Rank == 1
			if err := e.store.BumpProfile(ctx, entry.UserId, won, entry.Score); err != nil {
				e.log.Warn("transient: profile update failed", "userId", entry.UserId, "err", err)
			}
		}
	}()
}
