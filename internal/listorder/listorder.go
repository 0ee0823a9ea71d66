// Package listorder turns drag gestures on the flat story list into
// "set item order" mutations.
package listorder

import (
	"slices"

	"github.com/jwulff/storytrack/internal/story"
)

// DragEnd names the dragged row and the row under the pointer on release.
type DragEnd struct {
	ActiveID string
	OverID   string
}

// Move returns a copy of s with the element at from relocated to to.
func Move[T any](s []T, from, to int) []T {
	out := slices.Clone(s)
	if from == to || from < 0 || to < 0 || from >= len(s) || to >= len(s) {
		return out
	}
	v := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, v)
}

// Plan evaluates a drop against the confirmed story. The ordering is derived
// at dispatch time so a drop queued behind another mutation never works from
// a stale list.
func Plan(ev DragEnd) story.Plan {
	return func(confirmed story.Story) (story.Mutation, bool) {
		ids, ok := Reorder(confirmed.Items, ev)
		if !ok {
			return story.Mutation{}, false
		}
		return story.Mutation{
			Kind:          story.KindReorder,
			StoryID:       confirmed.ID,
			GenerationIDs: ids,
		}, true
	}
}

// Reorder computes the generation id order after dropping ev.ActiveID onto
// ev.OverID among items sorted by start time.
func Reorder(items []story.Item, ev DragEnd) ([]string, bool) {
	if ev.ActiveID == "" || ev.OverID == "" || ev.ActiveID == ev.OverID {
		return nil, false
	}
	ids := story.GenerationIDs(story.Sorted(items))
	from := slices.Index(ids, ev.ActiveID)
	to := slices.Index(ids, ev.OverID)
	if from < 0 || to < 0 {
		return nil, false
	}
	return Move(ids, from, to), true
}

// Neighbor returns the id one rank away from id in direction dir (-1 up, +1
// down), for keyboard reordering.
func Neighbor(items []story.Item, id string, dir int) (string, bool) {
	ids := story.GenerationIDs(story.Sorted(items))
	i := slices.Index(ids, id)
	if i < 0 {
		return "", false
	}
	j := i + dir
	if j < 0 || j >= len(ids) {
		return "", false
	}
	return ids[j], true
}

// Display orders items for the list view. A pending reorder wins over start
// times so the list shows the requested order until the store answers.
func Display(items []story.Item, pending []string) []story.Item {
	sorted := story.Sorted(items)
	if len(pending) == 0 {
		return sorted
	}
	rank := make(map[string]int, len(pending))
	for i, id := range pending {
		rank[id] = i
	}
	slices.SortStableFunc(sorted, func(a, b story.Item) int {
		ra, okA := rank[a.GenerationID]
		rb, okB := rank[b.GenerationID]
		switch {
		case okA && okB:
			return ra - rb
		case okA:
			return -1
		case okB:
			return 1
		}
		return 0
	})
	return sorted
}
