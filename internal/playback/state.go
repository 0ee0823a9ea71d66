// Package playback holds the process-wide playback state and derives the
// currently playing item from it. The clock itself is advanced by an
// external engine; this package only records and reacts to it.
package playback

import (
	"math"
	"slices"
	"sync"

	"github.com/jwulff/storytrack/internal/story"
)

// Snapshot is a consistent copy of the playback state.
type Snapshot struct {
	IsPlaying       bool
	CurrentTimeMs   float64
	TotalDurationMs float64
	StoryID         string
	Items           []story.Item
}

// State is the shared transport. Play, Pause, Stop and Seek are the only
// user-facing mutation points; Tick and Ended are fed by the engine.
type State struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewState returns a stopped transport.
func NewState() *State {
	return &State{}
}

// Snapshot returns a copy safe to read outside the lock.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.snap
	out.Items = slices.Clone(s.snap.Items)
	return out
}

// Play starts storyID with items in playback order. Starting a different
// story resets the clock; resuming the same story keeps it.
func (s *State) Play(storyID string, items []story.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.StoryID != storyID {
		s.snap.CurrentTimeMs = 0
	}
	s.snap.StoryID = storyID
	s.snap.Items = slices.Clone(items)
	s.snap.TotalDurationMs = endOf(items)
	s.snap.IsPlaying = true
}

// Pause halts playback and keeps the clock.
func (s *State) Pause() {
	s.mu.Lock()
	s.snap.IsPlaying = false
	s.mu.Unlock()
}

// Stop halts playback and rewinds to zero.
func (s *State) Stop() {
	s.mu.Lock()
	s.snap.IsPlaying = false
	s.snap.CurrentTimeMs = 0
	s.mu.Unlock()
}

// Seek moves the clock regardless of play state.
func (s *State) Seek(ms float64) {
	s.mu.Lock()
	s.snap.CurrentTimeMs = math.Max(0, ms)
	s.mu.Unlock()
}

// Tick records the engine clock.
func (s *State) Tick(ms float64) {
	s.Seek(ms)
}

// Advance moves the clock forward by deltaMs while playing and reports
// whether the end of the story was reached. It stands in for an engine.
func (s *State) Advance(deltaMs float64) (ended bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.snap.IsPlaying {
		return false
	}
	s.snap.CurrentTimeMs += deltaMs
	if s.snap.CurrentTimeMs >= s.snap.TotalDurationMs {
		s.snap.IsPlaying = false
		s.snap.CurrentTimeMs = 0
		return true
	}
	return false
}

// Ended handles the engine reaching the end of the story.
func (s *State) Ended() {
	s.Stop()
}

// Playing reports whether storyID is the story currently playing.
func (s *State) Playing(storyID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.IsPlaying && s.snap.StoryID == storyID
}

func endOf(items []story.Item) float64 {
	var end float64
	for _, it := range items {
		end = math.Max(end, it.EndMs())
	}
	return end
}
