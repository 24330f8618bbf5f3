package main

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/gorilla/websocket"
	qrcode "github.com/skip2/go-qrcode"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, clientDir string) *http.ServeMux {
	mux := http.NewServeMux()

	// Serve static files with no-cache so browsers always revalidate
	fs := http.FileServer(http.Dir(clientDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		if r.URL.Path == "/" {
			http.ServeFile(w, r, filepath.Join(clientDir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	}))

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	// QR code pointing phones at the lobby page
	mux.HandleFunc("/qr", func(w http.ResponseWriter, r *http.Request) {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		png, err := qrcode.Encode(scheme+"://"+r.Host+"/", qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	mux.HandleFunc("/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		entries := []LeaderboardEntry{}
		if hub.db != nil {
			got, err := hub.db.Leaderboard(20)
			if err != nil {
				log.Printf("leaderboard query: %v", err)
				http.Error(w, "query failed", http.StatusInternalServerError)
				return
			}
			if got != nil {
				entries = got
			}
		}
		writeJSON(w, entries)
	})

	// Match archive: recent matches, or one match's scoreboard via ?id=
	mux.HandleFunc("/matches", func(w http.ResponseWriter, r *http.Request) {
		if hub.db == nil {
			writeJSON(w, []MatchSummary{})
			return
		}
		if id := r.URL.Query().Get("id"); id != "" {
			players, err := hub.db.MatchPlayers(id)
			if err != nil {
				log.Printf("match players query: %v", err)
				http.Error(w, "query failed", http.StatusInternalServerError)
				return
			}
			if players == nil {
				players = []MatchPlayerRow{}
			}
			writeJSON(w, players)
			return
		}
		matches, err := hub.db.RecentMatches(20)
		if err != nil {
			log.Printf("matches query: %v", err)
			http.Error(w, "query failed", http.StatusInternalServerError)
			return
		}
		if matches == nil {
			matches = []MatchSummary{}
		}
		writeJSON(w, matches)
	})

	return mux
}
