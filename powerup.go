package main

// PowerUpKind identifies a power-up effect
type PowerUpKind string

const (
	PowerUpNone  PowerUpKind = ""
	PowerUpSpeed PowerUpKind = "speed_up" // +1 cell per move
	PowerUpFlame PowerUpKind = "flame_up" // +1 explosion range
	PowerUpBomb  PowerUpKind = "bomb_up"  // +1 concurrent bomb
)

// PowerUp is a revealed power-up lying on the map, claimable by the first
// living player to stand on its cell
type PowerUp struct {
	Kind     PowerUpKind `json:"kind" msgpack:"kind"`
	Position Position    `json:"position" msgpack:"position"`
}

// Apply grants the power-up's effect to a player
func (k PowerUpKind) Apply(p *MatchPlayer) {
	switch k {
	case PowerUpSpeed:
		p.Speed++
	case PowerUpFlame:
		p.FlameRange++
	case PowerUpBomb:
		p.BombCount++
	}
}
