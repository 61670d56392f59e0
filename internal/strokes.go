package internal

import "encoding/json"

// StrokeJournalCap bounds how many stroke frames one turn can
// accumulate before the oldest are dropped.
const StrokeJournalCap = 2048

// StrokeJournal keeps the current turn's drawing as the opaque stroke
// payloads the drawer sent, in order. The server never interprets
// stroke contents; the journal exists so a reconnecting member can be
// caught up to the in-progress drawing. Guarded by the owning room's
// mutex.
type StrokeJournal struct {
	strokes []json.RawMessage
}

func NewStrokeJournal() *StrokeJournal {
	return &StrokeJournal{strokes: make([]json.RawMessage, 0, 64)}
}

// Append records one stroke frame, evicting the oldest past the cap.
func (j *StrokeJournal) Append(stroke json.RawMessage) {
	j.strokes = append(j.strokes, stroke)
	if len(j.strokes) > StrokeJournalCap {
		j.strokes = j.strokes[len(j.strokes)-StrokeJournalCap:]
	}
}

// Undo removes the most recent stroke, if any.
func (j *StrokeJournal) Undo() {
	if n := len(j.strokes); n > 0 {
		j.strokes = j.strokes[:n-1]
	}
}

// Clear empties the journal. Called on draw:clear and on turn end.
func (j *StrokeJournal) Clear() {
	j.strokes = j.strokes[:0]
}

// Replay returns the journal contents in draw order.
func (j *StrokeJournal) Replay() []json.RawMessage {
	out := make([]json.RawMessage, len(j.strokes))
	copy(out, j.strokes)
	return out
}

func (j *StrokeJournal) Len() int {
	return len(j.strokes)
}
