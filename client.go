package main

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
	maxNameLen        = 16
)

// Client represents one WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	playerID   string // set once the join is accepted
	remoteAddr string
	binary     bool // wants msgpack state frames; guarded by hub.mu
	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF marker byte so WritePump can distinguish from text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF // binary marker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(code string) {
	c.SendJSON(Envelope{Type: MsgError, Data: ErrorMsg{Code: code, Message: errorText(code)}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.sendError(ErrBadRequest)
		return
	}

	switch env.Type {
	case MsgJoinLobby:
		c.handleJoinLobby(env.Data)
	case MsgChat:
		c.handleChat(env.Data)
	case MsgPlayerMove:
		c.handleMove(env.Data)
	case MsgPlaceBomb:
		c.handlePlaceBomb()
	case MsgLobbyStatus:
		c.handleLobbyStatus()
	case MsgPing:
		c.SendJSON(Envelope{Type: MsgPong, Data: PongMsg{Timestamp: nowMillis()}})
	default:
		c.sendError(ErrBadRequest)
	}
}

func (c *Client) handleJoinLobby(data json.RawMessage) {
	var msg JoinLobbyMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrBadRequest)
		return
	}
	if c.playerID != "" {
		c.sendError(ErrBadRequest)
		return
	}
	if c.hub.MatchRunning() {
		c.sendError(ErrGameRunning)
		return
	}

	id := GenerateUUID()
	if code := c.hub.lobby.Join(id, msg.Nickname); code != "" {
		c.sendError(code)
		return
	}
	c.playerID = id
	if msg.Binary {
		c.hub.SetBinary(c, true)
	}
	c.hub.recorder.Track(Event{Type: EvtPlayerJoined, PlayerID: id, Detail: msg.Nickname})

	c.SendJSON(Envelope{Type: MsgSuccess, Data: SuccessMsg{
		Message:  "joined the lobby",
		PlayerID: id,
	}})
	// Personal snapshot carries the chat backlog for late joiners
	c.SendJSON(c.hub.lobby.UpdateMsg())
}

func (c *Client) handleChat(data json.RawMessage) {
	if c.playerID == "" {
		c.sendError(ErrNotInLobby)
		return
	}
	var msg ChatInMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrBadRequest)
		return
	}
	if code := c.hub.lobby.Chat(c.playerID, msg.Message); code != "" {
		c.sendError(code)
		return
	}
	c.hub.recorder.Track(Event{Type: EvtChatMessage, PlayerID: c.playerID})
}

func (c *Client) handleMove(data json.RawMessage) {
	if c.playerID == "" {
		return
	}
	var msg MoveMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	game := c.hub.CurrentGame()
	if game == nil {
		return
	}
	game.HandleMove(c.playerID, msg.Direction, msg.Precise)
}

func (c *Client) handlePlaceBomb() {
	if c.playerID == "" {
		return
	}
	game := c.hub.CurrentGame()
	if game == nil {
		return
	}
	game.HandlePlaceBomb(c.playerID)
}

func (c *Client) handleLobbyStatus() {
	c.SendJSON(c.hub.lobby.UpdateMsg())
}
