package engine

import (
	"encoding/json"
	"testing"

	"github.com/jwulff/storytrack/internal/story"
)

func TestCommandOmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(Stop())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	for _, k := range []string{"storyId", "clips", "timeMs"} {
		if _, ok := raw[k]; ok {
			t.Errorf("stop command should omit %s", k)
		}
	}
}

func TestEventUnmarshal(t *testing.T) {
	var ev Event
	if err := json.Unmarshal([]byte(`{"event":"time","currentTimeMs":1250.5}`), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Event != EventTime {
		t.Errorf("event = %q, want %q", ev.Event, EventTime)
	}
	if ev.CurrentTimeMs == nil || *ev.CurrentTimeMs != 1250.5 {
		t.Errorf("currentTimeMs = %v, want 1250.5", ev.CurrentTimeMs)
	}

	ev = Event{}
	if err := json.Unmarshal([]byte(`{"event":"ended"}`), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.CurrentTimeMs != nil {
		t.Error("ended event should carry no time")
	}
}

func TestClipsFromItems(t *testing.T) {
	items := []story.Item{
		{GenerationID: "A", StartTimeMs: 0, Duration: 2, Track: 0},
		{GenerationID: "B", StartTimeMs: 2500, Duration: 1.5, Track: -1},
	}
	clips := Clips(items, func(id string) string { return "http://voice/audio/" + id })

	if len(clips) != 2 {
		t.Fatalf("len = %d, want 2", len(clips))
	}
	if clips[1].AudioURL != "http://voice/audio/B" {
		t.Errorf("audioUrl = %q", clips[1].AudioURL)
	}
	if clips[1].DurationMs != 1500 || clips[1].Track != -1 || clips[1].StartTimeMs != 2500 {
		t.Errorf("clip = %+v", clips[1])
	}
}
