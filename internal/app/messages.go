package app

import (
	"time"

	"github.com/jwulff/storytrack/internal/engine"
	"github.com/jwulff/storytrack/internal/story"
)

// StoriesLoadedMsg carries the story switcher list.
type StoriesLoadedMsg struct {
	Stories []story.Summary
}

// StoriesErrorMsg is sent when the store cannot be reached.
type StoriesErrorMsg struct {
	Err error
}

// StoryLoadedMsg carries a freshly fetched story.
type StoryLoadedMsg struct {
	Story story.Story
}

// MutationResultMsg carries the store's answer to a dispatched mutation.
type MutationResultMsg struct {
	Result story.Result
}

// GenerationsLoadedMsg carries the add-item picker candidates.
type GenerationsLoadedMsg struct {
	Generations []story.Generation
}

// ActionErrorMsg reports a failed user action. It is shown as a transient
// "Failed to <action>: <detail>" toast.
type ActionErrorMsg struct {
	Action string
	Err    error
}

// ExportDoneMsg is sent when a story export has been written.
type ExportDoneMsg struct {
	Path  string
	Bytes int
}

// EngineConnectedMsg is sent when the playback engine link is up.
type EngineConnectedMsg struct {
	Client *engine.Client
}

// EngineEventMsg wraps a streamed event from the engine client that read it.
type EngineEventMsg struct {
	Client *engine.Client
	Event  engine.Event
}

// EngineErrorMsg is sent when the engine link fails. Client is nil when the
// dial itself failed.
type EngineErrorMsg struct {
	Client *engine.Client
	Err    error
}

// EngineReconnectTickMsg triggers an engine reconnection attempt.
type EngineReconnectTickMsg struct{}

// WaveformLoadedMsg carries a generation's peak levels for its clip.
type WaveformLoadedMsg struct {
	GenerationID string
	Peaks        []float64
	Err          error
}

// ClockTickMsg advances the built-in clock when no engine is connected.
type ClockTickMsg struct {
	At time.Time
}

// ClearTransientErrorMsg clears a transient toast after a timeout.
type ClearTransientErrorMsg struct{}

// ReconnectTickMsg triggers another attempt to load the story list.
type ReconnectTickMsg struct{}
