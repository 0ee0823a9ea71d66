// Package engine provides the client and protocol types for the external
// playback engine. The engine decodes and mixes audio; the client only
// sends transport commands and receives the clock.
package engine

// Command is sent from the client to the engine.
type Command struct {
	Cmd     string `json:"cmd"`
	StoryID string `json:"storyId,omitempty"`
	Clips   []Clip `json:"clips,omitempty"`
	TimeMs  *int64 `json:"timeMs,omitempty"`
}

// Clip tells the engine where to fetch one item's audio and when it starts.
type Clip struct {
	GenerationID string  `json:"generationId"`
	AudioURL     string  `json:"audioUrl"`
	StartTimeMs  int64   `json:"startTimeMs"`
	DurationMs   float64 `json:"durationMs"`
	Track        int     `json:"track"`
}

// Event is streamed from the engine.
type Event struct {
	Event         string   `json:"event"`
	CurrentTimeMs *float64 `json:"currentTimeMs,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// Event names.
const (
	EventTime  = "time"
	EventEnded = "ended"
	EventError = "error"
)

// Play starts storyID with the given clips.
func Play(storyID string, clips []Clip) Command {
	return Command{Cmd: "play", StoryID: storyID, Clips: clips}
}

// Pause holds the clock.
func Pause() Command { return Command{Cmd: "pause"} }

// Stop halts and rewinds.
func Stop() Command { return Command{Cmd: "stop"} }

// Seek moves the engine clock.
func Seek(ms int64) Command { return Command{Cmd: "seek", TimeMs: &ms} }
