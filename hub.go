package main

import (
	"encoding/json"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	maxConnsPerIP  = 5
	maxTotalConns  = 1000
	broadcastQueue = 256
)

// outbound is one queued broadcast: a JSON envelope for everyone, plus an
// optional msgpack frame that replaces it for binary subscribers.
type outbound struct {
	json   []byte
	binary []byte
}

// Hub manages all connected clients, the shared lobby and the running match
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	cfg        Config
	lobby      *Lobby
	game       *Game
	db         *DB
	recorder   *Recorder
	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
}

// NewHub creates a Hub wired to its lobby, database and event recorder
func NewHub(cfg Config, db *DB, rec *Recorder) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan outbound, broadcastQueue),
		cfg:        cfg,
		db:         db,
		recorder:   rec,
		ipConns:    make(map[string]int),
	}
	h.lobby = NewLobby(cfg, h)
	h.lobby.onStart = h.startMatch
	return h
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events and fans out broadcasts
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			game := h.game
			h.mu.Unlock()
			if client.playerID != "" {
				if game != nil {
					game.KillPlayer(client.playerID)
				}
				h.lobby.Leave(client.playerID)
				h.recorder.Track(Event{Type: EvtPlayerLeft, PlayerID: client.playerID})
			}

		case out := <-h.broadcast:
			h.fanOut(out)
		}
	}
}

// fanOut delivers one broadcast, dropping clients whose send queue is full
func (h *Hub) fanOut(out outbound) {
	var binFrame []byte
	if out.binary != nil {
		binFrame = make([]byte, len(out.binary)+1)
		binFrame[0] = 0xFF // binary marker for WritePump
		copy(binFrame[1:], out.binary)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		data := out.json
		if c.binary && binFrame != nil {
			data = binFrame
		}
		select {
		case c.send <- data:
		default:
			close(c.send)
			delete(h.clients, c)
		}
	}
}

// BroadcastEnvelope queues a JSON envelope for every client. Takes no hub
// lock, so lobby and game may call it while holding theirs. A full queue
// drops the message.
func (h *Hub) BroadcastEnvelope(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	select {
	case h.broadcast <- outbound{json: data}:
	default:
		// Queue full, drop; the next update covers it
	}
}

// BroadcastGameEvent queues a game envelope, adding a msgpack twin of the
// state for binary subscribers on tick updates.
func (h *Hub) BroadcastGameEvent(msgType string, state *GameState) {
	data, err := json.Marshal(Envelope{Type: msgType, Data: state})
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	out := outbound{json: data}
	if msgType == MsgGameState {
		if bin, err := msgpack.Marshal(state); err == nil {
			out.binary = bin
		}
	}
	select {
	case h.broadcast <- out:
	default:
	}
}

// SetBinary flips a client's state-frame encoding. Guarded by the hub
// lock because fanOut reads the flag.
func (h *Hub) SetBinary(c *Client, binary bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.binary = binary
}

// CurrentGame returns the active match, nil when none has started
func (h *Hub) CurrentGame() *Game {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.game
}

// MatchRunning reports whether a match is being played right now
func (h *Hub) MatchRunning() bool {
	h.mu.RLock()
	game := h.game
	h.mu.RUnlock()
	return game != nil && !game.Finished()
}

// startMatch builds a game from the lobby roster and launches its loop.
// Invoked by the lobby when the countdown reaches zero.
func (h *Hub) startMatch() {
	roster := h.lobby.Roster()
	if len(roster) < h.cfg.MinPlayers {
		h.lobby.Reset()
		return
	}

	h.mu.Lock()
	if h.game != nil && !h.game.Finished() {
		h.mu.Unlock()
		return
	}
	game := NewGame(h.cfg, roster, h)
	matchID := game.state.ID
	game.onFinish = h.matchEnded
	h.game = game
	h.mu.Unlock()

	h.recorder.Track(Event{Type: EvtMatchStarted, MatchID: matchID})
	game.Start()
}

// matchEnded archives the finished match and reopens the lobby. Runs on
// the game loop goroutine after the final state broadcast.
func (h *Hub) matchEnded() {
	h.mu.Lock()
	game := h.game
	h.game = nil
	h.mu.Unlock()
	if game == nil {
		return
	}

	snap := game.Snapshot()
	if h.db != nil {
		if err := h.db.SaveMatch(&snap); err != nil {
			log.Printf("archive match: %v", err)
		}
	}
	h.recorder.Track(Event{Type: EvtMatchFinished, MatchID: snap.ID, PlayerID: snap.Winner})
	h.lobby.Reset()
}

// Shutdown stops the running match loop, if any
func (h *Hub) Shutdown() {
	h.mu.Lock()
	game := h.game
	h.mu.Unlock()
	if game != nil {
		game.Stop()
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
