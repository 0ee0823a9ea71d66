package playback

import "github.com/jwulff/storytrack/internal/story"

// ActiveItem returns the first item of sorted whose interval contains the
// clock. There is no active item unless storyID is the one playing; gaps
// between clips yield none.
func ActiveItem(snap Snapshot, storyID string, sorted []story.Item) (story.Item, bool) {
	if !snap.IsPlaying || snap.StoryID != storyID {
		return story.Item{}, false
	}
	for _, it := range sorted {
		if it.Contains(snap.CurrentTimeMs) {
			return it, true
		}
	}
	return story.Item{}, false
}

// CurrentlyPlaying returns the generation id playing in any story, for
// views that only highlight.
func CurrentlyPlaying(s *State) (string, bool) {
	snap := s.Snapshot()
	it, ok := ActiveItem(snap, snap.StoryID, story.Sorted(snap.Items))
	return it.GenerationID, ok
}

// Synchronizer turns the active item into scroll requests for one view.
type Synchronizer struct {
	state        *State
	lastScrolled string
}

// NewSynchronizer binds a view to the shared state.
func NewSynchronizer(s *State) *Synchronizer {
	return &Synchronizer{state: s}
}

// Observe derives the active item for the story shown in the view. scroll is
// true exactly once each time a new item becomes active. The marker resets
// whenever playback is not running so the next play scrolls again.
func (s *Synchronizer) Observe(storyID string, items []story.Item) (activeID string, scrollTo story.Item, scroll bool) {
	snap := s.state.Snapshot()
	if !snap.IsPlaying {
		s.lastScrolled = ""
	}
	it, ok := ActiveItem(snap, storyID, story.Sorted(items))
	if !ok {
		return "", story.Item{}, false
	}
	if it.GenerationID != s.lastScrolled {
		s.lastScrolled = it.GenerationID
		return it.GenerationID, it, true
	}
	return it.GenerationID, it, false
}
