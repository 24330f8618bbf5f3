package main

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// GameStatus tracks a match through its lifecycle
type GameStatus string

const (
	GameWaiting    GameStatus = "waiting_for_players"
	GameCountdown  GameStatus = "countdown"
	GameInProgress GameStatus = "in_progress"
	GameFinished   GameStatus = "finished"
)

// Broadcaster pushes game events to every connected client. The hub
// implements it; tests swap in a recording fake.
type Broadcaster interface {
	BroadcastGameEvent(msgType string, state *GameState)
}

// GameState is the authoritative snapshot pushed to clients every tick
type GameState struct {
	ID         string         `json:"id" msgpack:"id"`
	Status     GameStatus     `json:"status" msgpack:"status"`
	Tick       int64          `json:"tick" msgpack:"tick"`
	Map        *Board         `json:"map" msgpack:"map"`
	Players    []*MatchPlayer `json:"players" msgpack:"players"`
	Bombs      []*Bomb        `json:"bombs" msgpack:"bombs"`
	Flames     []*Flame       `json:"flames" msgpack:"flames"`
	PowerUps   []*PowerUp     `json:"powerUps" msgpack:"powerUps"`
	Winner     string         `json:"winner,omitempty" msgpack:"winner"`
	StartedAt  int64          `json:"startedAt" msgpack:"startedAt"`
	FinishedAt int64          `json:"finishedAt,omitempty" msgpack:"finishedAt"`
}

// Game runs one match. It owns the state, advances it on a fixed tick and
// pushes a snapshot through the broadcaster after every update.
type Game struct {
	mu          sync.Mutex
	cfg         Config
	state       *GameState
	broadcaster Broadcaster
	onFinish    func()
	done        chan struct{}
	stopOnce    sync.Once
}

// NewGame builds a match for the given entrants. Spawn corners are handed
// out in join order; entrants beyond the four corners are not admitted.
func NewGame(cfg Config, entrants []LobbyPlayerInfo, b Broadcaster) *Game {
	board := GenerateBoard(cfg)
	spawns := spawnPositions(cfg.MapWidth, cfg.MapHeight)
	n := len(entrants)
	if n > len(spawns) {
		n = len(spawns)
	}
	players := make([]*MatchPlayer, 0, n)
	for i := 0; i < n; i++ {
		players = append(players, NewMatchPlayer(entrants[i].ID, entrants[i].Nickname, spawns[i], cfg))
	}
	return &Game{
		cfg: cfg,
		state: &GameState{
			ID:        GenerateUUID(),
			Status:    GameInProgress,
			Map:       board,
			Players:   players,
			Bombs:     []*Bomb{},
			Flames:    []*Flame{},
			PowerUps:  []*PowerUp{},
			StartedAt: nowMillis(),
		},
		broadcaster: b,
		done:        make(chan struct{}),
	}
}

// Start announces the match and launches the tick loop
func (g *Game) Start() {
	log.Infof("match %s started with %d players", g.state.ID, len(g.state.Players))
	g.mu.Lock()
	g.broadcaster.BroadcastGameEvent(MsgGameStart, g.state)
	g.mu.Unlock()
	go g.loop()
}

// Stop ends the tick loop without finishing the match
func (g *Game) Stop() {
	g.stopOnce.Do(func() { close(g.done) })
}

func (g *Game) loop() {
	ticker := time.NewTicker(g.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-g.done:
			return
		case <-ticker.C:
			if g.update() {
				if g.onFinish != nil {
					g.onFinish()
				}
				return
			}
		}
	}
}

// update advances the simulation one tick and broadcasts the result.
// Returns true once the match has finished and the loop should exit.
func (g *Game) update() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.Status != GameInProgress {
		return true
	}
	g.state.Tick++
	g.tickBombs()
	g.tickFlames()
	g.tickPickups()
	g.checkWin()
	g.broadcaster.BroadcastGameEvent(MsgGameState, g.state)
	return g.state.Status == GameFinished
}

// checkWin finishes the match when at most one player is left standing
func (g *Game) checkWin() {
	alive := 0
	var last *MatchPlayer
	for _, p := range g.state.Players {
		if p.Alive {
			alive++
			last = p
		}
	}
	if alive > 1 {
		return
	}
	g.state.Status = GameFinished
	g.state.FinishedAt = nowMillis()
	if alive == 1 {
		g.state.Winner = last.ID
		log.Infof("match %s won by %s", g.state.ID, last.Name)
	} else {
		log.Infof("match %s ended in a draw", g.state.ID)
	}
}

// HandleMove applies a movement command from a client
func (g *Game) HandleMove(playerID, direction string, precise bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.Status != GameInProgress {
		return
	}
	if p := g.playerByID(playerID); p != nil {
		g.movePlayer(p, direction, precise)
	}
}

// HandlePlaceBomb applies a bomb command from a client
func (g *Game) HandlePlaceBomb(playerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.Status != GameInProgress {
		return
	}
	if p := g.playerByID(playerID); p != nil {
		g.placeBomb(p)
	}
}

// KillPlayer marks a player's pawn dead, used when its owner disconnects
// mid-match. The next tick's win check settles the consequences.
func (g *Game) KillPlayer(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.Status != GameInProgress {
		return
	}
	p := g.playerByID(id)
	if p == nil || !p.Alive {
		return
	}
	p.Lives = 0
	p.Alive = false
	log.Infof("%s forfeited the match", p.Name)
}

// Finished reports whether the match has ended
func (g *Game) Finished() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Status == GameFinished
}

// Snapshot returns a copy of the top-level state for archival reads
func (g *Game) Snapshot() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return *g.state
}

func (g *Game) playerByID(id string) *MatchPlayer {
	for _, p := range g.state.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}
