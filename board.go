package main

import "math/rand"

// Position is one cell on the grid. Two entities occupy the same cell
// exactly when their positions are equal.
type Position struct {
	X int `json:"x" msgpack:"x"`
	Y int `json:"y" msgpack:"y"`
}

// Wall is an indestructible cell, never removed for the life of a match
type Wall struct {
	Position Position `json:"position" msgpack:"position"`
}

// Block is a destructible cell. It may hide one power-up, revealed when the
// block burns down. Destroyed blocks stay in the list but are passable.
// The hidden kind is never serialized; clients learn it on reveal.
type Block struct {
	Position  Position    `json:"position" msgpack:"position"`
	Destroyed bool        `json:"destroyed" msgpack:"destroyed"`
	PowerUp   PowerUpKind `json:"-" msgpack:"-"`
}

// Board is the generated arena terrain
type Board struct {
	Width  int      `json:"width" msgpack:"width"`
	Height int      `json:"height" msgpack:"height"`
	Walls  []Wall   `json:"walls" msgpack:"walls"`
	Blocks []*Block `json:"blocks" msgpack:"blocks"`
}

// GenerateBoard builds a fresh arena: a deterministic wall skeleton, then
// BlockCount destructible blocks drawn without replacement from the free
// cells. The four corner spawn halos always stay clear.
func GenerateBoard(cfg Config) *Board {
	b := &Board{Width: cfg.MapWidth, Height: cfg.MapHeight}

	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if isWallCell(x, y, b.Width, b.Height) {
				b.Walls = append(b.Walls, Wall{Position: Position{X: x, Y: y}})
			}
		}
	}

	protected := spawnHalos(b.Width, b.Height)
	var candidates []Position
	for y := 1; y < b.Height-1; y++ {
		for x := 1; x < b.Width-1; x++ {
			pos := Position{X: x, Y: y}
			if isWallCell(x, y, b.Width, b.Height) || protected[pos] {
				continue
			}
			candidates = append(candidates, pos)
		}
	}
	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	count := cfg.BlockCount
	if count > len(candidates) {
		count = len(candidates)
	}
	for i := 0; i < count; i++ {
		b.Blocks = append(b.Blocks, &Block{Position: candidates[i]})
	}

	assignPowerUps(b.Blocks, cfg.PowerUpsPerKind)
	// Shuffle once more so block order reveals nothing about the assignment
	rand.Shuffle(len(b.Blocks), func(i, j int) {
		b.Blocks[i], b.Blocks[j] = b.Blocks[j], b.Blocks[i]
	})
	return b
}

// assignPowerUps hides perKind power-ups of each kind in the leading blocks
// of the (shuffled) list
func assignPowerUps(blocks []*Block, perKind int) {
	i := 0
	for _, kind := range []PowerUpKind{PowerUpSpeed, PowerUpFlame, PowerUpBomb} {
		for n := 0; n < perKind && i < len(blocks); n++ {
			blocks[i].PowerUp = kind
			i++
		}
	}
}

// isWallCell reports whether (x,y) belongs to the wall skeleton: the full
// border plus every interior cell with both coordinates even
func isWallCell(x, y, w, h int) bool {
	if x == 0 || y == 0 || x == w-1 || y == h-1 {
		return true
	}
	return x%2 == 0 && y%2 == 0
}

// spawnPositions returns the four corner spawn cells, in join order
func spawnPositions(w, h int) [4]Position {
	return [4]Position{
		{X: 1, Y: 1},
		{X: w - 2, Y: 1},
		{X: 1, Y: h - 2},
		{X: w - 2, Y: h - 2},
	}
}

// spawnHalos returns the protected cells around each corner spawn: the
// spawn itself plus its two open neighbors toward the arena center
func spawnHalos(w, h int) map[Position]bool {
	protected := make(map[Position]bool)
	for _, s := range spawnPositions(w, h) {
		dx, dy := 1, 1
		if s.X > w/2 {
			dx = -1
		}
		if s.Y > h/2 {
			dy = -1
		}
		protected[s] = true
		protected[Position{X: s.X + dx, Y: s.Y}] = true
		protected[Position{X: s.X, Y: s.Y + dy}] = true
	}
	return protected
}

// InBounds reports whether pos lies inside the arena
func (b *Board) InBounds(pos Position) bool {
	return pos.X >= 0 && pos.X < b.Width && pos.Y >= 0 && pos.Y < b.Height
}

// WallAt reports whether an indestructible wall occupies pos. Walls follow
// the fixed skeleton, so no lookup table is needed.
func (b *Board) WallAt(pos Position) bool {
	return isWallCell(pos.X, pos.Y, b.Width, b.Height)
}

// BlockAt returns the un-destroyed block at pos, or nil
func (b *Board) BlockAt(pos Position) *Block {
	for _, blk := range b.Blocks {
		if !blk.Destroyed && blk.Position == pos {
			return blk
		}
	}
	return nil
}
