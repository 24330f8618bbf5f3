package main

import (
	"strings"
	"sync"
	"testing"
	"time"
)

// ---------- helpers ----------

// recordingNotifier captures broadcast envelopes for inspection
type recordingNotifier struct {
	mu   sync.Mutex
	envs []Envelope
}

func (n *recordingNotifier) BroadcastEnvelope(env Envelope) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.envs = append(n.envs, env)
}

func (n *recordingNotifier) count(msgType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.envs {
		if e.Type == msgType {
			c++
		}
	}
	return c
}

func (n *recordingNotifier) sawLobbyStatus(status LobbyStatus) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, e := range n.envs {
		if e.Type != MsgLobbyUpdate {
			continue
		}
		if update, ok := e.Data.(LobbyUpdateMsg); ok && update.Status == status {
			return true
		}
	}
	return false
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func newTestLobby(cfg Config) (*Lobby, *recordingNotifier) {
	n := &recordingNotifier{}
	return NewLobby(cfg, n), n
}

// ---------- joining ----------

func TestJoinValidation(t *testing.T) {
	l, _ := newTestLobby(testConfig())

	if code := l.Join("p1", "   "); code != ErrBadRequest {
		t.Errorf("blank nickname: expected %s, got %q", ErrBadRequest, code)
	}
	if code := l.Join("p1", "Ana"); code != "" {
		t.Fatalf("join failed with %q", code)
	}
	if code := l.Join("p2", "ana"); code != ErrNicknameTaken {
		t.Errorf("case-insensitive duplicate: expected %s, got %q", ErrNicknameTaken, code)
	}
	if code := l.Join("p2", " Ana "); code != ErrNicknameTaken {
		t.Errorf("padded duplicate: expected %s, got %q", ErrNicknameTaken, code)
	}
}

func TestJoinTruncatesLongNickname(t *testing.T) {
	l, _ := newTestLobby(testConfig())
	if code := l.Join("p1", strings.Repeat("x", 40)); code != "" {
		t.Fatalf("join failed with %q", code)
	}
	roster := l.Roster()
	if len(roster[0].Nickname) != maxNameLen {
		t.Errorf("expected nickname cut to %d, got %d", maxNameLen, len(roster[0].Nickname))
	}
}

func TestJoinFullLobby(t *testing.T) {
	l, _ := newTestLobby(testConfig())
	for i, name := range []string{"Ana", "Bo", "Cy", "Di"} {
		if code := l.Join(string(rune('a'+i)), name); code != "" {
			t.Fatalf("join %s failed with %q", name, code)
		}
	}
	if code := l.Join("p5", "Ed"); code != ErrLobbyFull {
		t.Errorf("expected %s, got %q", ErrLobbyFull, code)
	}
}

func TestJoinBroadcasts(t *testing.T) {
	l, n := newTestLobby(testConfig())
	l.Join("p1", "Ana")
	if n.count(MsgPlayerJoined) != 1 {
		t.Error("join should announce the player")
	}
	if n.count(MsgLobbyUpdate) == 0 {
		t.Error("join should broadcast a lobby update")
	}
}

// ---------- phase transitions ----------

func TestQuorumArmsWaitTimer(t *testing.T) {
	l, n := newTestLobby(testConfig())
	l.Join("p1", "Ana")
	if l.Status() != LobbyWaiting {
		t.Fatalf("one player should keep the lobby waiting, got %s", l.Status())
	}
	l.Join("p2", "Bo")
	if l.Status() != LobbyWaitingForPlayers {
		t.Fatalf("quorum should arm the wait timer, got %s", l.Status())
	}
	if l.TimeLeft() != testConfig().WaitSeconds {
		t.Errorf("expected %d seconds on the clock, got %d", testConfig().WaitSeconds, l.TimeLeft())
	}
	if !n.sawLobbyStatus(LobbyWaitingForPlayers) {
		t.Error("the new phase should be broadcast")
	}
}

func TestFullLobbySkipsStraightToCountdown(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPlayers = 2
	l, n := newTestLobby(cfg)

	l.Join("p1", "Ana")
	l.Join("p2", "Bo")
	if l.Status() != LobbyStarting {
		t.Fatalf("a full lobby should start the countdown at once, got %s", l.Status())
	}
	if l.TimeLeft() != cfg.CountdownSeconds {
		t.Errorf("expected countdown of %d, got %d", cfg.CountdownSeconds, l.TimeLeft())
	}
	if n.sawLobbyStatus(LobbyWaitingForPlayers) {
		t.Error("the wait phase should be skipped entirely")
	}
}

func TestFourthPlayerCutsWaitShort(t *testing.T) {
	l, _ := newTestLobby(testConfig())
	l.Join("a", "Ana")
	l.Join("b", "Bo")
	l.Join("c", "Cy")
	if l.Status() != LobbyWaitingForPlayers {
		t.Fatalf("expected wait phase, got %s", l.Status())
	}
	l.Join("d", "Di")
	if l.Status() != LobbyStarting {
		t.Errorf("a full lobby should jump to the countdown, got %s", l.Status())
	}
}

func TestLeaveBelowMinimumResets(t *testing.T) {
	l, n := newTestLobby(testConfig())
	l.Join("p1", "Ana")
	l.Join("p2", "Bo")
	l.Leave("p2")

	if l.Status() != LobbyWaiting {
		t.Errorf("dropping below the minimum should reset, got %s", l.Status())
	}
	if l.TimeLeft() != 0 {
		t.Errorf("the timer should be cleared, got %d", l.TimeLeft())
	}
	if n.count(MsgPlayerLeft) != 1 {
		t.Error("the departure should be announced")
	}
}

func TestLeaveDuringCountdownKeepsQuorum(t *testing.T) {
	l, _ := newTestLobby(testConfig())
	for i, name := range []string{"Ana", "Bo", "Cy", "Di"} {
		l.Join(string(rune('a'+i)), name)
	}
	l.Leave("d")
	if l.Status() != LobbyStarting {
		t.Errorf("three players keep the countdown alive, got %s", l.Status())
	}
	l.Leave("c")
	l.Leave("b")
	if l.Status() != LobbyWaiting {
		t.Errorf("one player cannot hold a countdown, got %s", l.Status())
	}
}

func TestWaitExpiryStartsCountdown(t *testing.T) {
	l, n := newTestLobby(testConfig())
	l.Join("p1", "Ana")
	l.Join("p2", "Bo")

	// The countdown phase is short, so watch the broadcasts rather than
	// sampling the status.
	waitFor(t, 2*time.Second, func() bool { return n.sawLobbyStatus(LobbyStarting) },
		"wait timer never promoted the lobby to the countdown")
}

func TestCountdownReachesPlayingAndFiresHook(t *testing.T) {
	l, _ := newTestLobby(testConfig())
	started := make(chan struct{})
	l.onStart = func() { close(started) }

	l.Join("p1", "Ana")
	l.Join("p2", "Bo")

	waitFor(t, 3*time.Second, func() bool { return l.Status() == LobbyPlaying },
		"lobby never reached the playing phase")
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("start hook never fired")
	}
}

func TestJoinRejectedWhilePlaying(t *testing.T) {
	l, _ := newTestLobby(testConfig())
	l.Join("p1", "Ana")
	l.Join("p2", "Bo")
	waitFor(t, 3*time.Second, func() bool { return l.Status() == LobbyPlaying },
		"lobby never reached the playing phase")

	if code := l.Join("p3", "Cy"); code != ErrGameRunning {
		t.Errorf("expected %s, got %q", ErrGameRunning, code)
	}
}

func TestResetReadmitsRoster(t *testing.T) {
	l, _ := newTestLobby(testConfig())
	l.Join("p1", "Ana")
	l.Join("p2", "Bo")
	waitFor(t, 3*time.Second, func() bool { return l.Status() == LobbyPlaying },
		"lobby never reached the playing phase")

	l.Reset()
	if l.Status() != LobbyWaitingForPlayers {
		t.Errorf("a quorum of stayers should re-arm the wait timer, got %s", l.Status())
	}
	if l.PlayerCount() != 2 {
		t.Errorf("the roster should survive a reset, got %d", l.PlayerCount())
	}
}

// ---------- chat ----------

func TestChatValidation(t *testing.T) {
	cfg := testConfig()
	l, _ := newTestLobby(cfg)
	l.Join("p1", "Ana")

	if code := l.Chat("ghost", "hello"); code != ErrNotInLobby {
		t.Errorf("expected %s, got %q", ErrNotInLobby, code)
	}
	if code := l.Chat("p1", "   "); code != ErrChatInvalid {
		t.Errorf("blank message: expected %s, got %q", ErrChatInvalid, code)
	}
	if code := l.Chat("p1", strings.Repeat("x", cfg.MaxChatLen+1)); code != ErrChatInvalid {
		t.Errorf("oversized message: expected %s, got %q", ErrChatInvalid, code)
	}
	if code := l.Chat("p1", "hello"); code != "" {
		t.Errorf("valid chat failed with %q", code)
	}
}

func TestChatBroadcastAndHistory(t *testing.T) {
	cfg := testConfig()
	cfg.ChatHistory = 2
	l, n := newTestLobby(cfg)
	l.Join("p1", "Ana")

	for _, text := range []string{"one", "two", "three"} {
		if code := l.Chat("p1", text); code != "" {
			t.Fatalf("chat %q failed with %s", text, code)
		}
	}
	if n.count(MsgChat) != 3 {
		t.Errorf("expected 3 chat broadcasts, got %d", n.count(MsgChat))
	}

	env := l.UpdateMsg()
	update := env.Data.(LobbyUpdateMsg)
	if len(update.Lobby.Chat) != 2 {
		t.Fatalf("history should keep the last 2 lines, got %d", len(update.Lobby.Chat))
	}
	if update.Lobby.Chat[0].Message != "two" || update.Lobby.Chat[1].Message != "three" {
		t.Errorf("history should drop the oldest line, got %+v", update.Lobby.Chat)
	}
	if update.Lobby.Chat[0].Nickname != "Ana" {
		t.Error("chat lines carry the sender nickname")
	}
}

// ---------- update payloads ----------

func TestUpdateTimeLeftOnlyDuringTimers(t *testing.T) {
	l, _ := newTestLobby(testConfig())
	l.Join("p1", "Ana")

	env := l.UpdateMsg()
	if env.Type != MsgLobbyUpdate {
		t.Fatalf("expected %s, got %s", MsgLobbyUpdate, env.Type)
	}
	update := env.Data.(LobbyUpdateMsg)
	if update.TimeLeft != nil {
		t.Error("an idle lobby has no time left field")
	}
	if update.PlayerCount != 1 || update.Status != LobbyWaiting {
		t.Errorf("unexpected update %+v", update)
	}

	l.Join("p2", "Bo")
	update = l.UpdateMsg().Data.(LobbyUpdateMsg)
	if update.TimeLeft == nil || *update.TimeLeft != testConfig().WaitSeconds {
		t.Error("the wait phase should expose the remaining time")
	}
}
