package main

import "testing"

// ---------- basic stepping ----------

func TestMoveIntoOpenCell(t *testing.T) {
	g, _ := newTestGame(testConfig(), "A")
	p := g.state.Players[0]

	g.HandleMove(p.ID, "right", false)
	if p.Position != (Position{X: 2, Y: 1}) {
		t.Errorf("expected (2,1), got %v", p.Position)
	}
	g.HandleMove(p.ID, "down", false)
	if p.Position != (Position{X: 2, Y: 2}) {
		t.Errorf("expected (2,2) to be blocked by wall; got %v", p.Position)
	}
}

func TestMoveBlockedByWalls(t *testing.T) {
	g, _ := newTestGame(testConfig(), "A")
	p := g.state.Players[0]

	// Spawn corner: up and left are border walls.
	g.HandleMove(p.ID, "up", false)
	g.HandleMove(p.ID, "left", false)
	if p.Position != (Position{X: 1, Y: 1}) {
		t.Errorf("border walls should block, got %v", p.Position)
	}
}

func TestMoveUnknownDirection(t *testing.T) {
	g, _ := newTestGame(testConfig(), "A")
	p := g.state.Players[0]
	g.HandleMove(p.ID, "sideways", false)
	if p.Position != (Position{X: 1, Y: 1}) {
		t.Errorf("unknown direction should be ignored, got %v", p.Position)
	}
}

func TestDeadPlayerCannotAct(t *testing.T) {
	g, _ := newTestGame(testConfig(), "A")
	p := g.state.Players[0]
	p.Alive = false

	g.HandleMove(p.ID, "right", false)
	if p.Position != (Position{X: 1, Y: 1}) {
		t.Error("corpses should not move")
	}
	g.HandlePlaceBomb(p.ID)
	if len(g.state.Bombs) != 0 {
		t.Error("corpses should not place bombs")
	}
}

// ---------- blocks and players ----------

func TestMoveBlockedByBlock(t *testing.T) {
	g, _ := newTestGame(testConfig(), "A")
	p := g.state.Players[0]
	g.state.Map.Blocks = append(g.state.Map.Blocks, &Block{Position: Position{X: 2, Y: 1}})

	g.HandleMove(p.ID, "right", false)
	if p.Position != (Position{X: 1, Y: 1}) {
		t.Errorf("blocks should block movement, got %v", p.Position)
	}
}

func TestDestroyedBlockIsPassable(t *testing.T) {
	g, _ := newTestGame(testConfig(), "A")
	p := g.state.Players[0]
	g.state.Map.Blocks = append(g.state.Map.Blocks, &Block{Position: Position{X: 2, Y: 1}, Destroyed: true})

	g.HandleMove(p.ID, "right", false)
	if p.Position != (Position{X: 2, Y: 1}) {
		t.Errorf("destroyed blocks should not block, got %v", p.Position)
	}
}

func TestMoveBlockedByLivingPlayerOnly(t *testing.T) {
	g, _ := newTestGame(testConfig(), "A", "B")
	a, b := g.state.Players[0], g.state.Players[1]
	b.Position = Position{X: 2, Y: 1}

	g.HandleMove(a.ID, "right", false)
	if a.Position != (Position{X: 1, Y: 1}) {
		t.Errorf("living players should block, got %v", a.Position)
	}

	b.Alive = false
	g.HandleMove(a.ID, "right", false)
	if a.Position != (Position{X: 2, Y: 1}) {
		t.Errorf("corpses should not block, got %v", a.Position)
	}
}

// ---------- speed ----------

func TestSpeedMovesMultipleCells(t *testing.T) {
	g, _ := newTestGame(testConfig(), "A")
	p := g.state.Players[0]
	p.Speed = 2

	g.HandleMove(p.ID, "right", false)
	if p.Position != (Position{X: 4, Y: 1}) {
		t.Errorf("speed 2 should cover 3 cells, got %v", p.Position)
	}
}

func TestSpeedHaltsAtObstacleMidPath(t *testing.T) {
	g, _ := newTestGame(testConfig(), "A")
	p := g.state.Players[0]
	p.Speed = 2
	g.state.Map.Blocks = append(g.state.Map.Blocks, &Block{Position: Position{X: 3, Y: 1}})

	g.HandleMove(p.ID, "right", false)
	if p.Position != (Position{X: 2, Y: 1}) {
		t.Errorf("should stop on the last open cell, got %v", p.Position)
	}
}

func TestPreciseMoveIsSingleCell(t *testing.T) {
	g, _ := newTestGame(testConfig(), "A")
	p := g.state.Players[0]
	p.Speed = 2

	g.HandleMove(p.ID, "right", true)
	if p.Position != (Position{X: 2, Y: 1}) {
		t.Errorf("precise move should step one cell, got %v", p.Position)
	}
}

// ---------- bombs underfoot ----------

func TestWalkOffOwnBombButNotBack(t *testing.T) {
	g, _ := newTestGame(testConfig(), "A")
	p := g.state.Players[0]

	g.HandlePlaceBomb(p.ID)
	g.HandleMove(p.ID, "right", false)
	if p.Position != (Position{X: 2, Y: 1}) {
		t.Fatalf("walking off own bomb should work, got %v", p.Position)
	}
	g.HandleMove(p.ID, "left", false)
	if p.Position != (Position{X: 2, Y: 1}) {
		t.Errorf("a vacated bomb cell should block re-entry, got %v", p.Position)
	}
}

func TestBombBlocksOtherPlayers(t *testing.T) {
	g, _ := newTestGame(testConfig(), "A", "B")
	a, b := g.state.Players[0], g.state.Players[1]
	g.HandlePlaceBomb(a.ID)
	b.Position = Position{X: 1, Y: 2}

	g.HandleMove(b.ID, "up", false)
	if b.Position != (Position{X: 1, Y: 2}) {
		t.Errorf("bombs should block other players, got %v", b.Position)
	}
}

// ---------- pickups along the path ----------

func TestPickUpDuringMove(t *testing.T) {
	g, _ := newTestGame(testConfig(), "A")
	p := g.state.Players[0]
	p.Speed = 1
	g.state.PowerUps = append(g.state.PowerUps, &PowerUp{Kind: PowerUpFlame, Position: Position{X: 2, Y: 1}})

	g.HandleMove(p.ID, "right", false)
	if p.Position != (Position{X: 3, Y: 1}) {
		t.Fatalf("expected (3,1), got %v", p.Position)
	}
	if p.FlameRange != testConfig().StartFlameRange+1 {
		t.Error("power-up on an intermediate cell should be collected")
	}
	if len(g.state.PowerUps) != 0 {
		t.Error("collected power-up should leave the board")
	}
}

func TestPickUpWhileStandingStill(t *testing.T) {
	g, _ := newTestGame(testConfig(), "A")
	p := g.state.Players[0]
	g.state.PowerUps = append(g.state.PowerUps, &PowerUp{Kind: PowerUpSpeed, Position: p.Position})

	g.update()
	if p.Speed != 1 {
		t.Error("power-up under a standing player should be collected on tick")
	}
	if len(g.state.PowerUps) != 0 {
		t.Error("collected power-up should leave the board")
	}
}
