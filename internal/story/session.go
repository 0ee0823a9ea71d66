package story

import (
	"context"
	"fmt"
	"slices"
)

// Kind identifies a story mutation.
type Kind int

const (
	KindReorder Kind = iota
	KindMove
	KindAdd
	KindRemove
)

// Mutation is a single command for the store.
type Mutation struct {
	Kind          Kind
	StoryID       string
	GenerationID  string   // move, add, remove
	GenerationIDs []string // reorder
	Position      Position // move
}

// Action names the mutation for user-facing messages.
func (m Mutation) Action() string {
	switch m.Kind {
	case KindReorder:
		return "reorder items"
	case KindMove:
		return "move item"
	case KindAdd:
		return "add generation"
	case KindRemove:
		return "remove item"
	}
	return "update story"
}

// Apply sends the mutation to the store.
func (m Mutation) Apply(ctx context.Context, s Store) (Story, error) {
	switch m.Kind {
	case KindReorder:
		return s.ReorderItems(ctx, m.StoryID, m.GenerationIDs)
	case KindMove:
		return s.MoveItem(ctx, m.StoryID, m.GenerationID, m.Position)
	case KindAdd:
		return s.AddItem(ctx, m.StoryID, m.GenerationID)
	case KindRemove:
		return s.RemoveItem(ctx, m.StoryID, m.GenerationID)
	}
	return Story{}, fmt.Errorf("unknown mutation kind %d", m.Kind)
}

// Plan computes a mutation from the latest confirmed story. It returns false
// when there is nothing to send.
type Plan func(confirmed Story) (Mutation, bool)

// Result is the outcome of an applied mutation.
type Result struct {
	Mutation Mutation
	Story    Story
	Err      error
}

// Session tracks one story's confirmed state and at most one in-flight
// mutation. Plans submitted while a mutation is in flight are queued and
// evaluated against whatever the store confirms next, never against the
// snapshot that existed when the gesture ended.
type Session struct {
	confirmed Story
	pending   *Mutation
	queue     []Plan
}

// NewSession starts a session from a store-confirmed story.
func NewSession(confirmed Story) *Session {
	return &Session{confirmed: confirmed}
}

// Confirmed returns the last store-confirmed story.
func (s *Session) Confirmed() Story {
	return s.confirmed
}

// Pending returns the in-flight mutation, if any.
func (s *Session) Pending() (Mutation, bool) {
	if s.pending == nil {
		return Mutation{}, false
	}
	return *s.pending, true
}

// Queued returns how many plans wait behind the in-flight mutation.
func (s *Session) Queued() int {
	return len(s.queue)
}

// Submit offers a plan. When nothing is in flight the plan is evaluated now
// and the resulting mutation is returned for dispatch.
func (s *Session) Submit(p Plan) (Mutation, bool) {
	if s.pending != nil {
		s.queue = append(s.queue, p)
		return Mutation{}, false
	}
	return s.dispatch(p)
}

// Resolve records the store's answer to the in-flight mutation and returns
// the next queued mutation to dispatch, if any. On failure the confirmed
// story is kept as is; nothing from the rejected mutation survives.
func (s *Session) Resolve(r Result) (Mutation, bool) {
	s.pending = nil
	if r.Err == nil {
		s.confirmed = r.Story
	}
	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue = s.queue[1:]
		if m, ok := s.dispatch(next); ok {
			return m, true
		}
	}
	return Mutation{}, false
}

// Replace installs a freshly fetched story as the confirmed state.
func (s *Session) Replace(confirmed Story) {
	s.confirmed = confirmed
}

func (s *Session) dispatch(p Plan) (Mutation, bool) {
	m, ok := p(s.confirmed)
	if !ok {
		return Mutation{}, false
	}
	if m.StoryID == "" {
		m.StoryID = s.confirmed.ID
	}
	m.GenerationIDs = slices.Clone(m.GenerationIDs)
	s.pending = &m
	return m, true
}

// Optimistic returns the confirmed story with the in-flight move or removal
// applied, for display only.
func (s *Session) Optimistic() Story {
	if s.pending == nil {
		return s.confirmed
	}
	out := s.confirmed
	out.Items = slices.Clone(s.confirmed.Items)
	switch s.pending.Kind {
	case KindMove:
		for i := range out.Items {
			if out.Items[i].GenerationID == s.pending.GenerationID {
				out.Items[i].StartTimeMs = s.pending.Position.StartTimeMs
				out.Items[i].Track = s.pending.Position.Track
			}
		}
	case KindRemove:
		out.Items = slices.DeleteFunc(out.Items, func(it Item) bool {
			return it.GenerationID == s.pending.GenerationID
		})
	}
	return out
}

// PendingOrder returns the generation order of an in-flight reorder.
func (s *Session) PendingOrder() ([]string, bool) {
	if s.pending == nil || s.pending.Kind != KindReorder {
		return nil, false
	}
	return s.pending.GenerationIDs, true
}
