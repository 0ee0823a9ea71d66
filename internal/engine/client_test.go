package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jwulff/storytrack/internal/story"
)

// startMockEngine accepts one websocket, forwards every command it reads to
// cmds and writes back the canned events after the first command.
func startMockEngine(t *testing.T, events []Event) (string, <-chan Command) {
	t.Helper()

	cmds := make(chan Command, 8)
	upgrader := websocket.Upgrader{}
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sent := false
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var cmd Command
			if err := json.Unmarshal(data, &cmd); err != nil {
				return
			}
			cmds <- cmd
			if sent {
				continue
			}
			sent = true
			for _, ev := range events {
				b, _ := json.Marshal(ev)
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(svr.Close)

	return "ws" + strings.TrimPrefix(svr.URL, "http"), cmds
}

func TestClientPlayAndClock(t *testing.T) {
	at := 1250.0
	url, cmds := startMockEngine(t, []Event{
		{Event: EventTime, CurrentTimeMs: &at},
		{Event: EventEnded},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := Dial(ctx, url)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	items := []story.Item{{GenerationID: "g1", StartTimeMs: 500, Duration: 1.5, Track: 1}}
	clips := Clips(items, func(id string) string { return "http://voice/audio/" + id })
	if err := client.Send(Play("s1", clips)); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case cmd := <-cmds:
		if cmd.Cmd != "play" || cmd.StoryID != "s1" {
			t.Errorf("cmd = %+v", cmd)
		}
		if len(cmd.Clips) != 1 || cmd.Clips[0].AudioURL != "http://voice/audio/g1" || cmd.Clips[0].DurationMs != 1500 {
			t.Errorf("clips = %+v", cmd.Clips)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("engine never received play")
	}

	ev, err := client.ReadEvent()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Event != EventTime || ev.CurrentTimeMs == nil || *ev.CurrentTimeMs != 1250 {
		t.Errorf("event = %+v", ev)
	}
	ev, err = client.ReadEvent()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Event != EventEnded {
		t.Errorf("event = %q, want %q", ev.Event, EventEnded)
	}
}

func TestSeekCarriesTime(t *testing.T) {
	data, err := json.Marshal(Seek(0))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"cmd":"seek","timeMs":0}` {
		t.Errorf("seek = %s", data)
	}
	data, _ = json.Marshal(Pause())
	if string(data) != `{"cmd":"pause"}` {
		t.Errorf("pause = %s", data)
	}
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := Dial(ctx, "ws://127.0.0.1:1/engine"); err == nil {
		t.Error("expected dial error")
	}
}
