package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoinLobby   = "join_lobby"
	MsgChat        = "chat_message" // also Server -> Client for broadcasts
	MsgPlayerMove  = "player_move"
	MsgPlaceBomb   = "place_bomb"
	MsgLobbyStatus = "lobby_status"
	MsgPing        = "ping"
)

// Server -> Client message types
const (
	MsgSuccess      = "success"
	MsgError        = "error"
	MsgLobbyUpdate  = "lobby_update"
	MsgPlayerJoined = "player_joined"
	MsgPlayerLeft   = "player_left"
	MsgGameStart    = "game_start"        // data is the initial GameState
	MsgGameState    = "game_state_update" // data is the current GameState
	MsgPong         = "pong"
)

// Error codes carried in ErrorMsg
const (
	ErrBadRequest    = "bad_request"
	ErrNicknameTaken = "nickname_taken"
	ErrLobbyFull     = "lobby_full"
	ErrGameRunning   = "game_in_progress"
	ErrNotInLobby    = "not_in_lobby"
	ErrChatInvalid   = "chat_invalid"
)

// errorText maps an error code to its human-readable message
func errorText(code string) string {
	switch code {
	case ErrNicknameTaken:
		return "nickname already taken"
	case ErrLobbyFull:
		return "lobby is full"
	case ErrGameRunning:
		return "a match is in progress"
	case ErrNotInLobby:
		return "join the lobby first"
	case ErrChatInvalid:
		return "empty or oversized chat message"
	}
	return "bad request"
}

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// JoinLobbyMsg asks to enter the waiting room. Binary opts the connection
// into msgpack game-state frames instead of JSON envelopes.
type JoinLobbyMsg struct {
	Nickname string `json:"nickname"`
	Binary   bool   `json:"binary,omitempty"`
}

// ChatInMsg carries one chat line from a client
type ChatInMsg struct {
	Message string `json:"message"`
}

// MoveMsg is a movement request. Precise asks for a single-cell step even
// when speed power-ups would normally move further.
type MoveMsg struct {
	Direction string `json:"direction"`
	Precise   bool   `json:"precise,omitempty"`
}

// SuccessMsg acknowledges a successful join
type SuccessMsg struct {
	Message  string `json:"message"`
	PlayerID string `json:"playerId"`
}

// ErrorMsg reports a rejected request to the offending client only
type ErrorMsg struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// LobbyPlayerInfo describes one waiting-room member
type LobbyPlayerInfo struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

// LobbySnapshot is the wire form of the waiting room. Chat history is only
// filled in on personal updates, never on broadcasts.
type LobbySnapshot struct {
	Players []LobbyPlayerInfo `json:"players"`
	Chat    []ChatMessage     `json:"chat,omitempty"`
}

// LobbyUpdateMsg is broadcast on every roster or phase change, and once per
// second while a lobby timer runs. TimeLeft is present only during timers.
type LobbyUpdateMsg struct {
	Lobby       LobbySnapshot `json:"lobby"`
	PlayerCount int           `json:"playerCount"`
	TimeLeft    *int          `json:"timeLeft,omitempty"`
	Status      LobbyStatus   `json:"status"`
}

// PlayerJoinedMsg announces a new roster member
type PlayerJoinedMsg struct {
	Player      LobbyPlayerInfo `json:"player"`
	PlayerCount int             `json:"playerCount"`
	Message     string          `json:"message"`
}

// PlayerLeftMsg announces a departure
type PlayerLeftMsg struct {
	PlayerID    string `json:"playerId"`
	Nickname    string `json:"nickname"`
	PlayerCount int    `json:"playerCount"`
	Message     string `json:"message"`
}

// ChatMessage is one chat line as stored and broadcast
type ChatMessage struct {
	PlayerID  string `json:"playerId"`
	Nickname  string `json:"nickname"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"` // unix millis
}

// ChatOutMsg wraps a chat line for broadcast
type ChatOutMsg struct {
	ChatMessage ChatMessage `json:"chatMessage"`
}

// PongMsg answers a protocol-level ping
type PongMsg struct {
	Timestamp int64 `json:"timestamp"` // unix millis, server clock
}
