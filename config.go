package main

import "time"

// Config holds every gameplay and lobby tunable. Values are fixed at
// startup; tests shrink the timers to keep runs fast.
type Config struct {
	MinPlayers int // roster size that arms the wait timer
	MaxPlayers int // roster size that starts the countdown immediately

	WaitSeconds      int           // waiting_for_players timer
	CountdownSeconds int           // starting timer
	TimerTick        time.Duration // how often lobby timers tick down one "second"
	TickInterval     time.Duration // simulation tick period

	MapWidth  int
	MapHeight int

	BlockCount      int // destructible blocks scattered per match
	PowerUpsPerKind int // hidden speed/flame/bomb power-ups, each

	BombFuseTicks  int // ticks from placement to explosion
	FlameLifeTicks int // ticks a flame cell keeps burning

	StartLives      int
	StartBombCount  int
	StartFlameRange int

	ChatHistory int // chat ring size
	MaxChatLen  int
}

// DefaultConfig returns the standard arena setup: a 15x13 grid at 20
// ticks per second, 3 second fuses and 1 second flames.
func DefaultConfig() Config {
	return Config{
		MinPlayers:       2,
		MaxPlayers:       4,
		WaitSeconds:      20,
		CountdownSeconds: 10,
		TimerTick:        time.Second,
		TickInterval:     50 * time.Millisecond,
		MapWidth:         15,
		MapHeight:        13,
		BlockCount:       80,
		PowerUpsPerKind:  5,
		BombFuseTicks:    60,
		FlameLifeTicks:   20,
		StartLives:       3,
		StartBombCount:   1,
		StartFlameRange:  1,
		ChatHistory:      50,
		MaxChatLen:       200,
	}
}
