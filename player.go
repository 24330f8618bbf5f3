package main

// MatchPlayer is one participant in an active match: the game-side record,
// distinct from the transport-side Client. The two are joined by player ID.
type MatchPlayer struct {
	ID          string   `json:"id" msgpack:"id"`
	Name        string   `json:"name" msgpack:"name"`
	Position    Position `json:"position" msgpack:"position"`
	SpawnPoint  Position `json:"spawnPoint" msgpack:"spawnPoint"`
	Lives       int      `json:"lives" msgpack:"lives"`
	Alive       bool     `json:"alive" msgpack:"alive"`
	BombsPlaced int      `json:"bombsPlaced" msgpack:"bombsPlaced"`
	BombCount   int      `json:"bombCount" msgpack:"bombCount"`
	FlameRange  int      `json:"flameRange" msgpack:"flameRange"`
	Speed       int      `json:"speed" msgpack:"speed"`
	Score       int      `json:"score" msgpack:"score"`
}

// NewMatchPlayer places a player at their spawn corner with starting stats
func NewMatchPlayer(id, name string, spawn Position, cfg Config) *MatchPlayer {
	return &MatchPlayer{
		ID:         id,
		Name:       name,
		Position:   spawn,
		SpawnPoint: spawn,
		Lives:      cfg.StartLives,
		Alive:      true,
		BombCount:  cfg.StartBombCount,
		FlameRange: cfg.StartFlameRange,
	}
}

// TakeHit removes one life and returns true if the player just died. Dead
// players stay on the map as corpses and never revive. A player keeps their
// cell when hit, so overlapping flames from one burst can each land.
func (p *MatchPlayer) TakeHit() bool {
	if !p.Alive {
		return false
	}
	p.Lives--
	if p.Lives <= 0 {
		p.Lives = 0
		p.Alive = false
		return true
	}
	return false
}

// LivesLost reports how many lives the player has burned through
func (p *MatchPlayer) LivesLost(cfg Config) int {
	return cfg.StartLives - p.Lives
}
