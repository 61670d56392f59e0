package game

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrawlgg/scrawl-backend/internal"
)

func TestIsCloseGuess(t *testing.T) {
	tests := []struct {
		guess string
		word  string
		want  bool
	}{
		// Near-miss by position.
		{"pome", "pomme", true},
		{"hause", "house", true},
		{"cat", "car", true},
		{"dog", "fog", true},
		{"axx", "abc", true},
		{"xyz", "abc", false},
		{"banana", "bandana", false},

		// Containment.
		{"pple", "apple", true},
		{"applepie", "apple", true},
		{"ap", "apple", false},
		{"pi", "pie", true},
		{"le", "apple", false},

		// Degenerates.
		{"", "word", false},
		{"word", "", false},

		// Multi-byte runes compare by rune, not byte.
		{"cafe", "café", true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s vs %s", tt.guess, tt.word), func(t *testing.T) {
			assert.Equal(t, tt.want, isCloseGuess(tt.guess, tt.word))
		})
	}
}

func TestChatValidation(t *testing.T) {
	rig := newTestRig(t)
	room, players, _ := rig.makeRoom(t, 2)

	require.ErrorIs(t, rig.engine.HandleChat(room, "ghost", "hi"), internal.ErrNotMember)
	require.ErrorIs(t, rig.engine.HandleChat(room, players[0].Id, "   "), internal.ErrInvalidInput)
	require.ErrorIs(t, rig.engine.HandleChat(room, players[0].Id, strings.Repeat("x", internal.MaxChatLength+1)), internal.ErrInvalidInput)
	require.NoError(t, rig.engine.HandleChat(room, players[0].Id, "hello"))

	room.Mu.RLock()
	defer room.Mu.RUnlock()
	require.Len(t, room.ChatHistory, 1)
	assert.Equal(t, "hello", room.ChatHistory[0].Text)
	assert.False(t, room.ChatHistory[0].IsGuess, "lobby chat is not a guess")
}

func TestCorrectGuessScoresOnce(t *testing.T) {
	rig := newTestRig(t)
	room, players, sessions := rig.makeRoom(t, 3)
	drawerIdx, word := rig.startDrawing(t, room, players)

	guesserIdx := (drawerIdx + 1) % 3
	guesser := players[guesserIdx]
	drawer := players[drawerIdx]

	room.Mu.RLock()
	timeLeft := room.TimeLeft
	drawTime := room.DrawTime
	room.Mu.RUnlock()

	// Case-insensitive match.
	require.NoError(t, rig.engine.HandleChat(room, guesser.Id, strings.ToUpper(word)))

	room.Mu.RLock()
	wantPoints := guessPoints(timeLeft, drawTime, 1)
	assert.Equal(t, wantPoints, guesser.Score)
	assert.Equal(t, drawerCut, drawer.Score)
	assert.True(t, guesser.HasGuessed)
	assert.Contains(t, room.GuessedPlayers, guesser.Id)
	room.Mu.RUnlock()

	// Repeating the word once guessed is plain chat, not a second score.
	require.NoError(t, rig.engine.HandleChat(room, guesser.Id, word))
	room.Mu.RLock()
	assert.Equal(t, wantPoints, guesser.Score)
	room.Mu.RUnlock()

	// Everyone saw the announcement, nobody saw the raw word.
	for i, s := range sessions {
		require.Equal(t, 1, s.countEvents(internal.EventGameCorrectGuess), "session %d", i)
	}
}

func TestCorrectGuessTextNeverBroadcast(t *testing.T) {
	rig := newTestRig(t)
	room, players, sessions := rig.makeRoom(t, 3)
	drawerIdx, word := rig.startDrawing(t, room, players)

	guesserIdx := (drawerIdx + 1) % 3
	otherIdx := (drawerIdx + 2) % 3
	require.NoError(t, rig.engine.HandleChat(room, players[guesserIdx].Id, word))

	quoted := []byte(fmt.Sprintf("%q", word))
	for _, frame := range sessions[otherIdx].rawFrames() {
		var msg internal.Message[json.RawMessage]
		require.NoError(t, json.Unmarshal(frame, &msg))
		if msg.Type == internal.EventChatMessage {
			assert.False(t, bytes.Contains(frame, quoted), "guessed word leaked into chat: %s", frame)
		}
	}
}

func TestCloseGuessPrivateNudge(t *testing.T) {
	rig := newTestRig(t)
	room, players, sessions := rig.makeRoom(t, 3)
	drawerIdx, word := rig.startDrawing(t, room, players)

	guesserIdx := (drawerIdx + 1) % 3
	otherIdx := (drawerIdx + 2) % 3

	// Mutate one letter to stay within the close-guess distance.
	runes := []rune(word)
	runes[0] = 'z'
	if string(runes) == word {
		runes[0] = 'q'
	}
	almost := string(runes)
	require.NoError(t, rig.engine.HandleChat(room, players[guesserIdx].Id, almost))

	require.Equal(t, 1, sessions[guesserIdx].countEvents(internal.EventGameCloseGuess))
	assert.Equal(t, 0, sessions[otherIdx].countEvents(internal.EventGameCloseGuess), "close-guess nudge must stay private")

	// The near miss still lands in chat for everyone, flagged as close.
	data := sessions[otherIdx].lastEvent(internal.EventChatMessage)
	require.NotNil(t, data)
	var msg internal.ChatMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, almost, msg.Text)
	assert.True(t, msg.IsClose)

	room.Mu.RLock()
	assert.Zero(t, players[guesserIdx].Score, "a close guess earns nothing")
	room.Mu.RUnlock()
}

func TestDrawerChatIsNeverAGuess(t *testing.T) {
	rig := newTestRig(t)
	room, players, _ := rig.makeRoom(t, 2)
	drawerIdx, word := rig.startDrawing(t, room, players)

	require.NoError(t, rig.engine.HandleChat(room, players[drawerIdx].Id, word))

	room.Mu.RLock()
	defer room.Mu.RUnlock()
	assert.Empty(t, room.GuessedPlayers)
	assert.Equal(t, 0, players[drawerIdx].Score)
	require.NotEmpty(t, room.ChatHistory)
	assert.False(t, room.ChatHistory[len(room.ChatHistory)-1].IsGuess)
}

func TestAllGuessedSchedulesSettle(t *testing.T) {
	rig := newTestRig(t)
	room, players, _ := rig.makeRoom(t, 3)
	drawerIdx, word := rig.startDrawing(t, room, players)

	for i, p := range players {
		if i == drawerIdx {
			continue
		}
		require.NoError(t, rig.engine.HandleChat(room, p.Id, word))
	}

	// The settle delay fires and the turn ends with every guesser done.
	waitForPhase(t, room, internal.PhaseRoundEnd)
	room.Mu.RLock()
	assert.Empty(t, room.CurrentWord)
	room.Mu.RUnlock()
}
