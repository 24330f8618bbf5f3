package main

import (
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// LobbyStatus is the waiting-room phase
type LobbyStatus string

const (
	LobbyWaiting           LobbyStatus = "waiting"
	LobbyWaitingForPlayers LobbyStatus = "waiting_for_players"
	LobbyStarting          LobbyStatus = "starting"
	LobbyPlaying           LobbyStatus = "playing"
)

// Notifier delivers lobby traffic to every connected client. The hub
// implements it without taking its own lock, so the lobby may call it
// while holding its mutex.
type Notifier interface {
	BroadcastEnvelope(env Envelope)
}

// Lobby is the single shared waiting room. It owns the roster, the chat
// history and the two pre-match timers, and hands the roster to onStart
// when the countdown reaches zero.
type Lobby struct {
	mu       sync.Mutex
	cfg      Config
	notifier Notifier
	status   LobbyStatus
	players  []LobbyPlayerInfo
	chat     []ChatMessage
	timeLeft int
	epoch    int // bumped to cancel a running timer goroutine
	onStart  func()
}

// NewLobby creates an empty lobby in the waiting phase
func NewLobby(cfg Config, n Notifier) *Lobby {
	return &Lobby{
		cfg:      cfg,
		notifier: n,
		status:   LobbyWaiting,
		players:  []LobbyPlayerInfo{},
	}
}

// Join admits a player into the lobby and re-evaluates the phase. The
// returned wire code is empty on success.
func (l *Lobby) Join(id, nickname string) string {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return ErrBadRequest
	}
	if len(nickname) > maxNameLen {
		nickname = nickname[:maxNameLen]
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.status == LobbyPlaying {
		return ErrGameRunning
	}
	if len(l.players) >= l.cfg.MaxPlayers {
		return ErrLobbyFull
	}
	for _, p := range l.players {
		if strings.EqualFold(p.Nickname, nickname) {
			return ErrNicknameTaken
		}
	}

	l.players = append(l.players, LobbyPlayerInfo{ID: id, Nickname: nickname})
	log.Infof("%s joined the lobby (%d/%d)", nickname, len(l.players), l.cfg.MaxPlayers)

	l.notifier.BroadcastEnvelope(Envelope{Type: MsgPlayerJoined, Data: PlayerJoinedMsg{
		Player:      LobbyPlayerInfo{ID: id, Nickname: nickname},
		PlayerCount: len(l.players),
		Message:     nickname + " joined the lobby",
	}})
	l.admissionLocked()
	l.broadcastLocked()
	return ""
}

// Leave removes a player. Pre-match, dropping below the minimum cancels
// any timer and returns the lobby to waiting. During a match only the
// bookkeeping resets; the running game is untouched.
func (l *Lobby) Leave(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i, p := range l.players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	left := l.players[idx]
	l.players = append(l.players[:idx], l.players[idx+1:]...)
	log.Infof("%s left the lobby (%d/%d)", left.Nickname, len(l.players), l.cfg.MaxPlayers)

	if len(l.players) < l.cfg.MinPlayers && l.status != LobbyWaiting {
		l.resetLocked()
	}

	l.notifier.BroadcastEnvelope(Envelope{Type: MsgPlayerLeft, Data: PlayerLeftMsg{
		PlayerID:    left.ID,
		Nickname:    left.Nickname,
		PlayerCount: len(l.players),
		Message:     left.Nickname + " left the lobby",
	}})
	l.broadcastLocked()
}

// Chat validates and broadcasts one chat line, keeping it in the rolling
// history. The returned wire code is empty on success.
func (l *Lobby) Chat(id, text string) string {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > l.cfg.MaxChatLen {
		return ErrChatInvalid
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var sender *LobbyPlayerInfo
	for i := range l.players {
		if l.players[i].ID == id {
			sender = &l.players[i]
			break
		}
	}
	if sender == nil {
		return ErrNotInLobby
	}

	msg := ChatMessage{
		PlayerID:  sender.ID,
		Nickname:  sender.Nickname,
		Message:   text,
		Timestamp: nowMillis(),
	}
	l.chat = append(l.chat, msg)
	if len(l.chat) > l.cfg.ChatHistory {
		l.chat = l.chat[len(l.chat)-l.cfg.ChatHistory:]
	}
	l.notifier.BroadcastEnvelope(Envelope{Type: MsgChat, Data: ChatOutMsg{ChatMessage: msg}})
	return ""
}

// Reset is called when a match ends: the lobby returns to waiting and the
// admission rules run again over whoever stayed connected.
func (l *Lobby) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetLocked()
	l.admissionLocked()
	l.broadcastLocked()
}

// UpdateMsg builds a lobby_update envelope for a single client. Unlike the
// broadcast variant it includes the chat history.
func (l *Lobby) UpdateMsg() Envelope {
	l.mu.Lock()
	defer l.mu.Unlock()
	update := l.updateLocked()
	update.Lobby.Chat = append([]ChatMessage{}, l.chat...)
	return Envelope{Type: MsgLobbyUpdate, Data: update}
}

// Roster returns the members in join order
func (l *Lobby) Roster() []LobbyPlayerInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LobbyPlayerInfo{}, l.players...)
}

// Status returns the current phase
func (l *Lobby) Status() LobbyStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// PlayerCount returns the roster size
func (l *Lobby) PlayerCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.players)
}

// TimeLeft returns the seconds remaining on the running timer, 0 when idle
func (l *Lobby) TimeLeft() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.timeLeft
}

// admissionLocked applies the phase rules after a roster change: a full
// lobby starts the countdown at once, a quorum arms the wait timer.
func (l *Lobby) admissionLocked() {
	switch {
	case l.status == LobbyPlaying || l.status == LobbyStarting:
		return
	case len(l.players) >= l.cfg.MaxPlayers:
		l.startCountdownLocked()
	case len(l.players) >= l.cfg.MinPlayers && l.status == LobbyWaiting:
		l.startWaitLocked()
	}
}

func (l *Lobby) startWaitLocked() {
	l.status = LobbyWaitingForPlayers
	l.timeLeft = l.cfg.WaitSeconds
	l.epoch++
	go l.runTimer(l.epoch, l.waitExpiredLocked)
}

func (l *Lobby) startCountdownLocked() {
	l.status = LobbyStarting
	l.timeLeft = l.cfg.CountdownSeconds
	l.epoch++
	go l.runTimer(l.epoch, l.countdownExpiredLocked)
	log.Infof("match countdown started with %d players", len(l.players))
}

func (l *Lobby) resetLocked() {
	l.status = LobbyWaiting
	l.timeLeft = 0
	l.epoch++ // cancels any timer in flight
}

// runTimer decrements timeLeft once per tick, broadcasting the remaining
// time, until it reaches zero or the epoch moves on. onZero runs with the
// lobby mutex held.
func (l *Lobby) runTimer(epoch int, onZero func()) {
	for {
		time.Sleep(l.cfg.TimerTick)
		l.mu.Lock()
		if epoch != l.epoch {
			l.mu.Unlock()
			return
		}
		l.timeLeft--
		if l.timeLeft <= 0 {
			onZero()
			l.mu.Unlock()
			return
		}
		l.broadcastLocked()
		l.mu.Unlock()
	}
}

// waitExpiredLocked fires when the wait timer hits zero: with a quorum
// still present the countdown starts, otherwise back to waiting.
func (l *Lobby) waitExpiredLocked() {
	if len(l.players) >= l.cfg.MinPlayers {
		l.startCountdownLocked()
	} else {
		l.resetLocked()
	}
	l.broadcastLocked()
}

// countdownExpiredLocked fires when the countdown hits zero and hands off
// to the match starter. The start hook runs on its own goroutine because
// it takes the hub lock.
func (l *Lobby) countdownExpiredLocked() {
	if len(l.players) < l.cfg.MinPlayers {
		l.resetLocked()
		l.broadcastLocked()
		return
	}
	l.status = LobbyPlaying
	l.timeLeft = 0
	l.broadcastLocked()
	if l.onStart != nil {
		go l.onStart()
	}
}

func (l *Lobby) updateLocked() LobbyUpdateMsg {
	update := LobbyUpdateMsg{
		Lobby:       LobbySnapshot{Players: append([]LobbyPlayerInfo{}, l.players...)},
		PlayerCount: len(l.players),
		Status:      l.status,
	}
	if l.status == LobbyWaitingForPlayers || l.status == LobbyStarting {
		t := l.timeLeft
		update.TimeLeft = &t
	}
	return update
}

func (l *Lobby) broadcastLocked() {
	l.notifier.BroadcastEnvelope(Envelope{Type: MsgLobbyUpdate, Data: l.updateLocked()})
}
