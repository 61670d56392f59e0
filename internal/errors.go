package internal

import "errors"

// Command errors. These travel back to the sender inside the reply
// envelope and never broadcast.
var (
	ErrNotAuthorised  = errors.New("not authorised")
	ErrWrongPhase     = errors.New("not allowed in the current phase")
	ErrRoomFull       = errors.New("room is full")
	ErrRoomNotFound   = errors.New("room not found")
	ErrCodeExhaustion = errors.New("could not allocate a unique room code")
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotMember      = errors.New("not a member of this room")
	ErrJoinDenied     = errors.New("join denied")
)

// ErrorKind maps a command error to the wire-level kind string carried
// in the reply envelope.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrNotAuthorised):
		return "NotAuthorised"
	case errors.Is(err, ErrWrongPhase):
		return "WrongPhase"
	case errors.Is(err, ErrRoomFull):
		return "RoomFull"
	case errors.Is(err, ErrRoomNotFound):
		return "RoomNotFound"
	case errors.Is(err, ErrCodeExhaustion):
		return "CodeExhaustion"
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrNotMember):
		return "NotMember"
	case errors.Is(err, ErrJoinDenied):
		return "NotAuthorised"
	default:
		return "Internal"
	}
}
