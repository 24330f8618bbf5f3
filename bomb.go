package main

import log "github.com/sirupsen/logrus"

// Bomb is a placed explosive. FlameRange is copied from the owner at
// placement, so power-ups picked up afterwards never grow a lit fuse.
type Bomb struct {
	Position   Position `json:"position" msgpack:"position"`
	OwnerID    string   `json:"ownerId" msgpack:"ownerId"`
	Timer      int      `json:"timer" msgpack:"timer"`
	FlameRange int      `json:"flameRange" msgpack:"flameRange"`
}

// Flame is a burning cell left behind by an explosion. Contact damage lands
// when the flame is placed; a decaying flame is harmless to walk through.
type Flame struct {
	Position Position `json:"position" msgpack:"position"`
	Timer    int      `json:"timer" msgpack:"timer"`
}

// rayDirections are the four cardinal blast directions
var rayDirections = []Position{
	{X: 0, Y: -1},
	{X: 0, Y: 1},
	{X: -1, Y: 0},
	{X: 1, Y: 0},
}

// placeBomb drops a bomb on the player's cell. Rejected without effect when
// the player is at capacity or the cell already holds a bomb.
func (g *Game) placeBomb(p *MatchPlayer) bool {
	if !p.Alive || p.BombsPlaced >= p.BombCount {
		return false
	}
	if g.bombAt(p.Position) != nil {
		return false
	}
	g.state.Bombs = append(g.state.Bombs, &Bomb{
		Position:   p.Position,
		OwnerID:    p.ID,
		Timer:      g.cfg.BombFuseTicks,
		FlameRange: p.FlameRange,
	})
	p.BombsPlaced++
	log.Debugf("%s placed a bomb at %d,%d", p.Name, p.Position.X, p.Position.Y)
	return true
}

// bombAt returns the live bomb at pos, or nil
func (g *Game) bombAt(pos Position) *Bomb {
	for _, b := range g.state.Bombs {
		if b.Position == pos {
			return b
		}
	}
	return nil
}

// removeBomb drops b from the live bomb list, if present
func (g *Game) removeBomb(b *Bomb) {
	for i, other := range g.state.Bombs {
		if other == b {
			g.state.Bombs = append(g.state.Bombs[:i], g.state.Bombs[i+1:]...)
			return
		}
	}
}

// tickBombs counts down every fuse and detonates the expired bombs
func (g *Game) tickBombs() {
	var exploding []*Bomb
	remaining := g.state.Bombs[:0]
	for _, b := range g.state.Bombs {
		b.Timer--
		if b.Timer <= 0 {
			exploding = append(exploding, b)
		} else {
			remaining = append(remaining, b)
		}
	}
	g.state.Bombs = remaining
	for _, b := range exploding {
		g.explode(b)
	}
}

// explode removes the bomb, refunds its owner's budget, and burns the
// center cell plus four cardinal rays. A ray stops before a wall or the
// arena edge, stops after destroying a block, and stops after
// chain-detonating another bomb on its path.
func (g *Game) explode(b *Bomb) {
	g.removeBomb(b)
	owner := g.playerByID(b.OwnerID)
	if owner != nil && owner.BombsPlaced > 0 {
		owner.BombsPlaced--
	}

	g.igniteCell(b.Position, owner)
	for _, d := range rayDirections {
		for step := 1; step <= b.FlameRange; step++ {
			cell := Position{X: b.Position.X + d.X*step, Y: b.Position.Y + d.Y*step}
			if !g.state.Map.InBounds(cell) || g.state.Map.WallAt(cell) {
				break
			}
			g.igniteCell(cell, owner)
			if blk := g.state.Map.BlockAt(cell); blk != nil {
				g.destroyBlock(blk)
				break
			}
			if other := g.bombAt(cell); other != nil {
				g.explode(other)
				break
			}
		}
	}
}

// igniteCell places a flame and applies its contact effects: every living
// player on the cell loses one life, and any revealed power-up on the cell
// burns away. Kills credit the bomb owner, never a self-kill.
func (g *Game) igniteCell(cell Position, owner *MatchPlayer) {
	g.state.Flames = append(g.state.Flames, &Flame{Position: cell, Timer: g.cfg.FlameLifeTicks})

	for _, p := range g.state.Players {
		if !p.Alive || p.Position != cell {
			continue
		}
		if p.TakeHit() {
			if owner != nil && owner.ID != p.ID {
				owner.Score++
			}
			log.Debugf("%s eliminated at %d,%d", p.Name, cell.X, cell.Y)
		}
	}

	remaining := g.state.PowerUps[:0]
	for _, pu := range g.state.PowerUps {
		if pu.Position != cell {
			remaining = append(remaining, pu)
		}
	}
	g.state.PowerUps = remaining
}

// destroyBlock marks a block destroyed and reveals its hidden power-up.
// The reveal happens after the cell has already been flamed, so a fresh
// power-up survives the burst that uncovered it.
func (g *Game) destroyBlock(blk *Block) {
	blk.Destroyed = true
	if blk.PowerUp != PowerUpNone {
		g.state.PowerUps = append(g.state.PowerUps, &PowerUp{Kind: blk.PowerUp, Position: blk.Position})
	}
}

// tickFlames burns down flame timers and clears the expired ones
func (g *Game) tickFlames() {
	remaining := g.state.Flames[:0]
	for _, f := range g.state.Flames {
		f.Timer--
		if f.Timer > 0 {
			remaining = append(remaining, f)
		}
	}
	g.state.Flames = remaining
}
