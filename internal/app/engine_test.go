package app

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/jwulff/storytrack/internal/engine"
)

var errBroken = errors.New("broken pipe")

// startEngine starts a websocket endpoint that reads and discards commands.
func startEngine(t *testing.T) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(svr.Close)
	return "ws" + strings.TrimPrefix(svr.URL, "http")
}

func dialEngine(t *testing.T, url string) *engine.Client {
	t.Helper()
	c, err := engine.Dial(t.Context(), url)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestEventFromClosedEngineIsDropped(t *testing.T) {
	m, _ := loadedModel(t)
	old := &engine.Client{}
	m.engine = old

	// The send failure tears the link down before the reader's last event lands.
	m, _ = applyUpdate(m, EngineErrorMsg{Client: old, Err: errBroken})
	if m.engine != nil {
		t.Fatal("engine should be dropped after an error")
	}

	at := 1500.0
	m, cmd := applyUpdate(m, EngineEventMsg{Client: old, Event: engine.Event{Event: engine.EventTime, CurrentTimeMs: &at}})
	if cmd != nil {
		t.Error("event from a dropped client should not schedule another read")
	}
	if got := m.shared.Playback.Snapshot().CurrentTimeMs; got != 0 {
		t.Errorf("CurrentTimeMs = %v, want 0", got)
	}
}

func TestEventFromCurrentEngineReadsAgain(t *testing.T) {
	m, _ := loadedModel(t)
	cur := &engine.Client{}
	m.engine = cur

	_, cmd := applyUpdate(m, EngineEventMsg{Client: cur, Event: engine.Event{Event: engine.EventEnded}})
	if cmd == nil {
		t.Error("event from the current client should schedule the next read")
	}
}

func TestEngineFailureSchedulesOneReconnect(t *testing.T) {
	m, _ := loadedModel(t)
	c := &engine.Client{}
	m.engine = c

	// Both the failed send and the failing reader report the same client.
	m, first := applyUpdate(m, EngineErrorMsg{Client: c, Err: errBroken})
	m, second := applyUpdate(m, EngineErrorMsg{Client: c, Err: errBroken})
	if first == nil {
		t.Error("first failure should schedule a reconnect")
	}
	if second != nil {
		t.Error("second failure of the same client should be ignored")
	}

	// A failed dial keeps the single retry loop going.
	m, cmd := applyUpdate(m, EngineErrorMsg{Err: errBroken})
	if cmd == nil {
		t.Error("failed dial should schedule the next attempt")
	}
	if m.engine != nil {
		t.Error("engine should stay disconnected")
	}
}

func TestEngineConnectedClosesPreviousClient(t *testing.T) {
	url := startEngine(t)
	old := dialEngine(t, url)
	next := dialEngine(t, url)

	m, _ := loadedModel(t)
	m.engine = old
	m, cmd := applyUpdate(m, EngineConnectedMsg{Client: next})
	if m.engine != next || cmd == nil {
		t.Fatal("new client should become current and start reading")
	}
	if err := old.Send(engine.Pause()); err == nil {
		t.Error("previous client should be closed")
	}
	if err := next.Send(engine.Pause()); err != nil {
		t.Errorf("current client send: %v", err)
	}
}

func TestQuitLeavesEngineForCaller(t *testing.T) {
	c := dialEngine(t, startEngine(t))
	m, _ := loadedModel(t)
	m.engine = c

	m, cmd := applyUpdate(m, runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if err := c.Send(engine.Pause()); err != nil {
		t.Fatalf("engine closed before the program exited: %v", err)
	}

	m.Close()
	if err := c.Send(engine.Pause()); err == nil {
		t.Error("Close should release the engine")
	}
}

func TestPauseClearsPlayingHighlight(t *testing.T) {
	m, _ := loadedModel(t)
	m, _ = applyUpdate(m, tea.KeyMsg{Type: tea.KeySpace})
	m, _ = applyUpdate(m, ClockTickMsg{At: time.Now()})
	if m.activeID != "A" {
		t.Fatalf("activeID = %q, want %q", m.activeID, "A")
	}

	m, _ = applyUpdate(m, tea.KeyMsg{Type: tea.KeySpace})
	if m.shared.Playback.Snapshot().IsPlaying {
		t.Fatal("space should pause")
	}
	if m.activeID != "" {
		t.Errorf("activeID = %q after pause", m.activeID)
	}
}
