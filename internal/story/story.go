// Package story holds the story domain types, the store collaborator
// interface and the mutation session that reconciles local edits with the
// store's confirmed state.
package story

import (
	"errors"
	"sort"
	"time"
)

// ErrNotFound is returned when a story or item id does not resolve.
var ErrNotFound = errors.New("not found")

// Item is one placed generation within a story.
type Item struct {
	ID           string    `json:"id"`
	StoryID      string    `json:"story_id"`
	GenerationID string    `json:"generation_id"`
	StartTimeMs  int64     `json:"start_time_ms"`
	Duration     float64   `json:"duration"` // seconds
	Track        int       `json:"track"`
	ProfileName  string    `json:"profile_name,omitempty"`
	Text         string    `json:"text,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// DurationMs returns the clip length in milliseconds.
func (i Item) DurationMs() float64 {
	return i.Duration * 1000
}

// EndMs returns the exclusive end of the clip interval.
func (i Item) EndMs() float64 {
	return float64(i.StartTimeMs) + i.DurationMs()
}

// Contains reports whether ms falls in [start, end).
func (i Item) Contains(ms float64) bool {
	return ms >= float64(i.StartTimeMs) && ms < i.EndMs()
}

// Position is the persisted placement of an item.
type Position struct {
	StartTimeMs int64 `json:"start_time_ms"`
	Track       int   `json:"track"`
}

// Position returns the item's current placement.
func (i Item) Position() Position {
	return Position{StartTimeMs: i.StartTimeMs, Track: i.Track}
}

// Story is a named composition of generations.
type Story struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Items       []Item    `json:"items"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Find returns the item referencing generationID.
func (s Story) Find(generationID string) (Item, bool) {
	for _, it := range s.Items {
		if it.GenerationID == generationID {
			return it, true
		}
	}
	return Item{}, false
}

// Has reports whether the story already contains generationID.
func (s Story) Has(generationID string) bool {
	_, ok := s.Find(generationID)
	return ok
}

// Summary is the list-level view of a story.
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ItemCount   int    `json:"item_count"`
}

// Generation is a synthesized audio artifact that can be placed in a story.
type Generation struct {
	ID          string  `json:"id"`
	ProfileName string  `json:"profile_name"`
	Text        string  `json:"text"`
	Duration    float64 `json:"duration"`
}

// Sorted returns a copy of items ordered by start time. Ties keep their
// incoming order.
func Sorted(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].StartTimeMs < out[b].StartTimeMs
	})
	return out
}

// GenerationIDs extracts generation ids in slice order.
func GenerationIDs(items []Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.GenerationID
	}
	return ids
}
