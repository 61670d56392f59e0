package internal

// Message is the envelope every frame on the socket uses, in both
// directions. Data is typed at the call site; inbound frames decode it
// as json.RawMessage and re-decode per event.
type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Events sent by clients.
const (
	EventRoomCreate     = "room:create"
	EventRoomJoin       = "room:join"
	EventRoomLeave      = "room:leave"
	EventRoomSettings   = "room:settings"
	EventGameStart      = "game:start"
	EventGameSelectWord = "game:select_word"
	EventGamePlayAgain  = "game:play_again"
	EventPlayerKick     = "player:kick"
)

// Events sent by the server.
const (
	EventRoomSync           = "room:sync"
	EventPlayerJoined       = "player:joined"
	EventPlayerDisconnected = "player:disconnected"
	EventPlayerKicked       = "player:kicked"
	EventHostChanged        = "host:changed"
	EventGameStarting       = "game:starting"
	EventGameChooseWord     = "game:choose_word" // drawer only
	EventGameWord           = "game:word"        // drawer only
	EventGameTurnStart      = "game:turn_start"
	EventGameTimeUpdate     = "game:time_update"
	EventGameHint           = "game:hint"
	EventGameCorrectGuess   = "game:correct_guess"
	EventGameCloseGuess     = "game:close_guess" // sender only
	EventGameTurnEnd        = "game:turn_end"
	EventGameRoundEnd       = "game:round_end"
	EventGameEnded          = "game:ended"
	EventServerShutdown     = "server:shutdown"
)

// Events travelling in both directions.
const (
	EventChatMessage = "chat:message"
	EventDrawStroke  = "draw:stroke"
	EventDrawClear   = "draw:clear"
	EventDrawUndo    = "draw:undo"
)

// Inbound payloads.

type CreateRoomRequest struct {
	PlayerName string         `json:"playerName"`
	Settings   CreateSettings `json:"settings"`
}

type CreateSettings struct {
	DrawTime   *int    `json:"drawTime,omitempty"`
	Rounds     *int    `json:"rounds,omitempty"`
	MaxPlayers *int    `json:"maxPlayers,omitempty"`
	Theme      *string `json:"theme,omitempty"`
	IsPrivate  *bool   `json:"isPrivate,omitempty"`
	Avatar     *string `json:"avatar,omitempty"`
}

type JoinRoomRequest struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
	// PlayerId, when present and still a member of the room, turns
	// the join into a reconnect for that player.
	PlayerId string `json:"playerId,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

type SettingsRequest struct {
	DrawTime  *int `json:"drawTime,omitempty"`
	MaxRounds *int `json:"maxRounds,omitempty"`
}

type SelectWordRequest struct {
	Word string `json:"word"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type KickRequest struct {
	PlayerId string `json:"playerId"`
}

// Replies. A reply echoes the command's event type back to the sender
// with one of these payloads; Ack alone covers the commands whose
// success carries no data.

type Ack struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

type CreateRoomReply struct {
	Ack
	RoomCode string `json:"roomCode,omitempty"`
	RoomId   string `json:"roomId,omitempty"`
	PlayerId string `json:"playerId,omitempty"`
}

type JoinRoomReply struct {
	Ack
	RoomCode string        `json:"roomCode,omitempty"`
	RoomId   string        `json:"roomId,omitempty"`
	PlayerId string        `json:"playerId,omitempty"`
	Messages []ChatMessage `json:"messages,omitempty"`
}

// Outbound payloads.

// RoomInfo is the room half of the snapshot. currentWord never appears
// here; guessers derive everything from wordLength and maskedWord.
type RoomInfo struct {
	Id            string `json:"id"`
	Code          string `json:"code"`
	Phase         Phase  `json:"phase"`
	Round         int    `json:"round"`
	Turn          int    `json:"turn"`
	MaxRounds     int    `json:"maxRounds"`
	TimeLeft      int    `json:"timeLeft"`
	DrawTime      int    `json:"drawTime"`
	CurrentDrawer string `json:"currentDrawer"`
	WordLength    int    `json:"wordLength"`
	MaskedWord    string `json:"maskedWord"`
	Theme         string `json:"theme"`
	IsPrivate     bool   `json:"isPrivate"`
	MaxPlayers    int    `json:"maxPlayers"`
}

type PlayerInfo struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	IsHost      bool   `json:"isHost"`
	IsDrawing   bool   `json:"isDrawing"`
	HasGuessed  bool   `json:"hasGuessed"`
	Avatar      string `json:"avatar"`
	IsConnected bool   `json:"isConnected"`
}

type RoomSyncData struct {
	Room    RoomInfo     `json:"room"`
	Players []PlayerInfo `json:"players"`
}

type PlayerJoinedData struct {
	Player PlayerInfo `json:"player"`
}

type PlayerDisconnectedData struct {
	PlayerId   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type HostChangedData struct {
	NewHostId   string `json:"newHostId"`
	NewHostName string `json:"newHostName"`
}

type GameStartingData struct {
	Countdown int `json:"countdown"`
}

type ChooseWordData struct {
	Words []string `json:"words"`
}

type WordData struct {
	Word string `json:"word"`
}

type TurnStartData struct {
	DrawerId   string `json:"drawerId"`
	WordLength int    `json:"wordLength"`
	MaskedWord string `json:"maskedWord"`
	TimeLeft   int    `json:"timeLeft"`
}

type TimeUpdateData struct {
	TimeLeft int `json:"timeLeft"`
}

type HintData struct {
	MaskedWord string `json:"maskedWord"`
}

type CorrectGuessData struct {
	PlayerId   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Points     int    `json:"points"`
}

type TurnEndData struct {
	Word       string `json:"word"`
	Reason     string `json:"reason"`
	AllGuessed bool   `json:"allGuessed"`
}

type RoundEndData struct {
	Round int `json:"round"`
}

type RankingEntry struct {
	Rank   int    `json:"rank"`
	Id     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	UserId string `json:"userId,omitempty"`
}

type AwardEntry struct {
	PlayerId   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Value      int    `json:"value"`
}

type GameAwards struct {
	Mvp          *AwardEntry `json:"mvp,omitempty"`
	FastestGuess *AwardEntry `json:"fastestGuess,omitempty"`
}

type GameEndedData struct {
	Rankings []RankingEntry `json:"rankings"`
	Reason   string         `json:"reason,omitempty"`
	Awards   *GameAwards    `json:"awards,omitempty"`
}

type KickedData struct {
	Reason string `json:"reason"`
}

type CloseGuessData struct {
	Message string `json:"message"`
}

type ShutdownData struct {
	Message string `json:"message"`
}
