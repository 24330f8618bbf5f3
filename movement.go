package main

// directions maps wire direction names to unit cell offsets
var directions = map[string]Position{
	"up":    {X: 0, Y: -1},
	"down":  {X: 0, Y: 1},
	"left":  {X: -1, Y: 0},
	"right": {X: 1, Y: 0},
}

// movePlayer advances p one cell at a time in the named direction. A normal
// move covers 1+Speed cells, a precise move exactly one. Each step is
// validated on its own, so a blocked step keeps the ground already gained.
func (g *Game) movePlayer(p *MatchPlayer, dir string, precise bool) bool {
	if !p.Alive {
		return false
	}
	d, ok := directions[dir]
	if !ok {
		return false
	}
	steps := 1 + p.Speed
	if precise {
		steps = 1
	}
	moved := false
	for i := 0; i < steps; i++ {
		next := Position{X: p.Position.X + d.X, Y: p.Position.Y + d.Y}
		if !g.canEnter(p, next) {
			break
		}
		p.Position = next
		moved = true
		g.pickUpAt(p)
	}
	return moved
}

// canEnter reports whether p may step onto pos. Walls, intact blocks,
// living players and bombs all block. Only the target cell is tested, so
// a player standing on their own bomb can still walk off it.
func (g *Game) canEnter(p *MatchPlayer, pos Position) bool {
	if !g.state.Map.InBounds(pos) || g.state.Map.WallAt(pos) {
		return false
	}
	if g.state.Map.BlockAt(pos) != nil {
		return false
	}
	for _, other := range g.state.Players {
		if other.Alive && other.ID != p.ID && other.Position == pos {
			return false
		}
	}
	if g.bombAt(pos) != nil {
		return false
	}
	return true
}

// pickUpAt applies and removes any power-up under p's feet
func (g *Game) pickUpAt(p *MatchPlayer) {
	remaining := g.state.PowerUps[:0]
	for _, pu := range g.state.PowerUps {
		if pu.Position == p.Position {
			pu.Kind.Apply(p)
			continue
		}
		remaining = append(remaining, pu)
	}
	g.state.PowerUps = remaining
}

// tickPickups collects power-ups that living players are already standing
// on, covering drops revealed under a player's feet.
func (g *Game) tickPickups() {
	for _, p := range g.state.Players {
		if p.Alive {
			g.pickUpAt(p)
		}
	}
}
