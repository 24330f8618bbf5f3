package main

import (
	"database/sql"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Event types recorded for later analysis
const (
	EvtPlayerJoined  = "player_joined"
	EvtPlayerLeft    = "player_left"
	EvtMatchStarted  = "match_started"
	EvtMatchFinished = "match_finished"
	EvtChatMessage   = "chat_message"
)

// Event is a single trackable event
type Event struct {
	Type      string
	MatchID   string
	PlayerID  string
	Detail    string // free-form metadata (optional)
	Timestamp time.Time
}

// Recorder persists events with batched background writes. All methods are
// safe on a nil receiver so the server can run without a database.
type Recorder struct {
	db     *DB
	events chan Event
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewRecorder creates and starts the background writer
func NewRecorder(db *DB) *Recorder {
	r := &Recorder{
		db:     db,
		events: make(chan Event, 1024),
		stop:   make(chan struct{}),
	}
	r.wg.Add(1)
	go r.writer()
	return r
}

// Track enqueues an event for async persistence (non-blocking)
func (r *Recorder) Track(evt Event) {
	if r == nil {
		return
	}
	evt.Timestamp = time.Now().UTC()
	select {
	case r.events <- evt:
	default:
		// Channel full — drop event rather than blocking game loop
	}
}

// Stop gracefully shuts down the writer, flushing whatever is queued
func (r *Recorder) Stop() {
	if r == nil {
		return
	}
	close(r.stop)
	r.wg.Wait()
}

// writer is the background goroutine that batches and writes events to DB
func (r *Recorder) writer() {
	defer r.wg.Done()

	batch := make([]Event, 0, 64)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt := <-r.events:
			batch = append(batch, evt)
			// Flush immediately if batch is large
			if len(batch) >= 50 {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-r.stop:
			// Drain remaining events
			close(r.events)
			for evt := range r.events {
				batch = append(batch, evt)
			}
			if len(batch) > 0 {
				r.flush(batch)
			}
			return
		}
	}
}

// flush writes a batch of events to the database
func (r *Recorder) flush(events []Event) {
	if r.db == nil || len(events) == 0 {
		return
	}
	tx, err := r.db.conn.Begin()
	if err != nil {
		log.Printf("recorder: begin tx error: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO events (event_type, match_id, player_id, detail, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("recorder: prepare error: %v", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		mid := sql.NullString{String: evt.MatchID, Valid: evt.MatchID != ""}
		pid := sql.NullString{String: evt.PlayerID, Valid: evt.PlayerID != ""}
		detail := sql.NullString{String: evt.Detail, Valid: evt.Detail != ""}
		_, err := stmt.Exec(evt.Type, mid, pid, detail, evt.Timestamp.Format(time.RFC3339))
		if err != nil {
			log.Printf("recorder: insert error: %v", err)
		}
	}
	tx.Commit()
}
