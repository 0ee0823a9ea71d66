package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jwulff/storytrack/internal/listorder"
	"github.com/jwulff/storytrack/internal/story"
	"github.com/jwulff/storytrack/internal/timeline"
	"github.com/jwulff/storytrack/internal/trackdrag"
)

// Service adapts a story store for MCP clients. Every mutation is planned
// against a freshly fetched story, the same way the editor plans against the
// latest confirmed state.
type Service struct {
	store story.Store
	mu    sync.Mutex // one mutation at a time per process
}

// NewService constructs a Service around store.
func NewService(store story.Store) *Service {
	return &Service{store: store}
}

// ItemDTO is an item as exposed to MCP clients.
type ItemDTO struct {
	GenerationID string  `json:"generation_id"`
	StartTimeMs  int64   `json:"start_time_ms"`
	EndTimeMs    int64   `json:"end_time_ms"`
	Start        string  `json:"start"`
	Track        int     `json:"track"`
	Duration     float64 `json:"duration"`
	ProfileName  string  `json:"profile_name,omitempty"`
	Text         string  `json:"text,omitempty"`
}

// StoryDTO is a story with its items in playback order.
type StoryDTO struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	TotalDurationMs int64     `json:"total_duration_ms"`
	Tracks          []int     `json:"tracks"`
	Items           []ItemDTO `json:"items"`
}

// MutationDTO reports the outcome of a mutating tool.
type MutationDTO struct {
	Changed bool      `json:"changed"`
	Action  string    `json:"action,omitempty"`
	Story   *StoryDTO `json:"story"`
}

func toStoryDTO(st story.Story) *StoryDTO {
	sorted := story.Sorted(st.Items)
	items := make([]ItemDTO, 0, len(sorted))
	for _, it := range sorted {
		items = append(items, ItemDTO{
			GenerationID: it.GenerationID,
			StartTimeMs:  it.StartTimeMs,
			EndTimeMs:    int64(it.EndMs()),
			Start:        timeline.FormatTime(float64(it.StartTimeMs)),
			Track:        it.Track,
			Duration:     it.Duration,
			ProfileName:  it.ProfileName,
			Text:         it.Text,
		})
	}
	return &StoryDTO{
		ID:              st.ID,
		Name:            st.Name,
		Description:     st.Description,
		TotalDurationMs: timeline.TotalDuration(st.Items),
		Tracks:          timeline.TrackSet(st.Items),
		Items:           items,
	}
}

// ListStories returns all story summaries.
func (s *Service) ListStories(ctx context.Context) ([]story.Summary, error) {
	return s.store.ListStories(ctx)
}

// GetStory returns one story.
func (s *Service) GetStory(ctx context.Context, id string) (*StoryDTO, error) {
	st, err := s.store.GetStory(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	return toStoryDTO(st), nil
}

// ListGenerations returns generations, optionally filtered by a substring of
// the profile name or text.
func (s *Service) ListGenerations(ctx context.Context, query string) ([]story.Generation, error) {
	gens, err := s.store.ListGenerations(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return gens, nil
	}
	out := gens[:0:0]
	for _, g := range gens {
		if strings.Contains(strings.ToLower(g.ProfileName), query) ||
			strings.Contains(strings.ToLower(g.Text), query) {
			out = append(out, g)
		}
	}
	return out, nil
}

// ReorderItems moves activeID to overID's rank and lays the story out again.
func (s *Service) ReorderItems(ctx context.Context, storyID, activeID, overID string) (*MutationDTO, error) {
	if activeID == "" || overID == "" {
		return nil, errors.New("active_id and over_id are required")
	}
	return s.apply(ctx, storyID, listorder.Plan(listorder.DragEnd{ActiveID: activeID, OverID: overID}))
}

// MoveItem places generationID at pos.
func (s *Service) MoveItem(ctx context.Context, storyID, generationID string, pos story.Position) (*MutationDTO, error) {
	if pos.StartTimeMs < 0 {
		return nil, fmt.Errorf("start_time_ms must not be negative, got %d", pos.StartTimeMs)
	}
	return s.apply(ctx, storyID, trackdrag.MovePlan(generationID, pos))
}

// AddItem appends generationID to the story.
func (s *Service) AddItem(ctx context.Context, storyID, generationID string) (*MutationDTO, error) {
	return s.apply(ctx, storyID, story.AddPlan(generationID))
}

// RemoveItem drops generationID from the story.
func (s *Service) RemoveItem(ctx context.Context, storyID, generationID string) (*MutationDTO, error) {
	return s.apply(ctx, storyID, story.RemovePlan(generationID))
}

func (s *Service) apply(ctx context.Context, storyID string, plan story.Plan) (*MutationDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.store.GetStory(ctx, strings.TrimSpace(storyID))
	if err != nil {
		return nil, err
	}
	sess := story.NewSession(st)
	mut, ok := sess.Submit(plan)
	if !ok {
		return &MutationDTO{Changed: false, Story: toStoryDTO(st)}, nil
	}
	next, err := mut.Apply(ctx, s.store)
	sess.Resolve(story.Result{Mutation: mut, Story: next, Err: err})
	if err != nil {
		slog.Warn("MCP mutation rejected", "action", mut.Action(), "story", mut.StoryID, "error", err)
		return nil, fmt.Errorf("failed to %s: %w", mut.Action(), err)
	}
	slog.Info("MCP mutation applied", "action", mut.Action(), "story", mut.StoryID)
	return &MutationDTO{Changed: true, Action: mut.Action(), Story: toStoryDTO(sess.Confirmed())}, nil
}
