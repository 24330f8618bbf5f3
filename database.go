package main

import (
	"database/sql"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		nickname TEXT PRIMARY KEY,
		matches INTEGER NOT NULL DEFAULT 0,
		wins INTEGER NOT NULL DEFAULT 0,
		kills INTEGER NOT NULL DEFAULT 0,
		deaths INTEGER NOT NULL DEFAULT 0,
		best_score INTEGER NOT NULL DEFAULT 0,
		last_seen DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS matches (
		id TEXT PRIMARY KEY,
		winner TEXT NOT NULL DEFAULT '',
		players INTEGER NOT NULL DEFAULT 0,
		ticks INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS match_players (
		match_id TEXT NOT NULL REFERENCES matches(id),
		player_id TEXT NOT NULL,
		nickname TEXT NOT NULL,
		score INTEGER NOT NULL DEFAULT 0,
		lives_left INTEGER NOT NULL DEFAULT 0,
		winner INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (match_id, player_id)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		match_id TEXT,
		player_id TEXT,
		detail TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_match_players_nickname ON match_players(nickname);
	CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// SaveMatch archives a finished match: the match row, one row per
// participant and the aggregate counters on the players table.
func (db *DB) SaveMatch(state *GameState) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	duration := float64(state.FinishedAt-state.StartedAt) / 1000.0
	winnerName := ""
	for _, p := range state.Players {
		if p.ID == state.Winner {
			winnerName = p.Name
		}
	}

	_, err = tx.Exec(
		"INSERT INTO matches (id, winner, players, ticks, duration) VALUES (?, ?, ?, ?, ?)",
		state.ID, winnerName, len(state.Players), state.Tick, duration,
	)
	if err != nil {
		return err
	}

	for _, p := range state.Players {
		won := 0
		if p.ID == state.Winner {
			won = 1
		}
		died := 0
		if !p.Alive {
			died = 1
		}
		_, err = tx.Exec(
			`INSERT INTO match_players (match_id, player_id, nickname, score, lives_left, winner)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			state.ID, p.ID, p.Name, p.Score, p.Lives, won,
		)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT INTO players (nickname, matches, wins, kills, deaths, best_score)
			 VALUES (?, 1, ?, ?, ?, ?)
			 ON CONFLICT(nickname) DO UPDATE SET
				matches = matches + 1,
				wins = wins + excluded.wins,
				kills = kills + excluded.kills,
				deaths = deaths + excluded.deaths,
				best_score = MAX(best_score, excluded.best_score),
				last_seen = CURRENT_TIMESTAMP`,
			p.Name, won, p.Score, died, p.Score,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LeaderboardEntry represents one row in the leaderboard
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	Nickname  string `json:"nickname"`
	Matches   int    `json:"matches"`
	Wins      int    `json:"wins"`
	Kills     int    `json:"kills"`
	Deaths    int    `json:"deaths"`
	BestScore int    `json:"bestScore"`
}

// Leaderboard returns top players by wins, kills breaking ties
func (db *DB) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	rows, err := db.conn.Query(
		`SELECT nickname, matches, wins, kills, deaths, best_score
		 FROM players ORDER BY wins DESC, kills DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Nickname, &e.Matches, &e.Wins, &e.Kills, &e.Deaths, &e.BestScore); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

// MatchSummary is one archived match for the history endpoint
type MatchSummary struct {
	ID        string  `json:"id"`
	Winner    string  `json:"winner"`
	Players   int     `json:"players"`
	Ticks     int64   `json:"ticks"`
	Duration  float64 `json:"duration"` // seconds
	CreatedAt string  `json:"createdAt"`
}

// RecentMatches returns the newest archived matches
func (db *DB) RecentMatches(limit int) ([]MatchSummary, error) {
	rows, err := db.conn.Query(
		`SELECT id, winner, players, ticks, duration, created_at
		 FROM matches ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MatchSummary
	for rows.Next() {
		var m MatchSummary
		var created time.Time
		if err := rows.Scan(&m.ID, &m.Winner, &m.Players, &m.Ticks, &m.Duration, &created); err != nil {
			return nil, err
		}
		m.CreatedAt = created.UTC().Format(time.RFC3339)
		result = append(result, m)
	}
	return result, rows.Err()
}

// MatchPlayerRow is a player's line in an archived match
type MatchPlayerRow struct {
	MatchID   string `json:"matchId"`
	PlayerID  string `json:"playerId"`
	Nickname  string `json:"nickname"`
	Score     int    `json:"score"`
	LivesLeft int    `json:"livesLeft"`
	Winner    bool   `json:"winner"`
}

// MatchPlayers returns the participant rows for one archived match
func (db *DB) MatchPlayers(matchID string) ([]MatchPlayerRow, error) {
	rows, err := db.conn.Query(
		`SELECT match_id, player_id, nickname, score, lives_left, winner
		 FROM match_players WHERE match_id = ? ORDER BY score DESC`, matchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MatchPlayerRow
	for rows.Next() {
		var r MatchPlayerRow
		var won int
		if err := rows.Scan(&r.MatchID, &r.PlayerID, &r.Nickname, &r.Score, &r.LivesLeft, &won); err != nil {
			return nil, err
		}
		r.Winner = won == 1
		result = append(result, r)
	}
	return result, rows.Err()
}
