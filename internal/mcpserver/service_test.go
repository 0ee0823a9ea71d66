package mcpserver

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/storytrack/internal/db"
	"github.com/jwulff/storytrack/internal/story"
)

// seededStore opens a temporary database holding one story with A (2s),
// B (1s) and C (1.5s) placed in that order, and an unplaced D.
func seededStore(t *testing.T) (*db.Store, string) {
	t.Helper()
	ctx := context.Background()

	store, err := db.Open(filepath.Join(t.TempDir(), "stories.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	st, err := store.CreateStory(ctx, "Pilot", "")
	require.NoError(t, err)
	for _, g := range []story.Generation{
		{ID: "A", ProfileName: "Narrator", Text: "Once upon a time", Duration: 2},
		{ID: "B", ProfileName: "Fox", Text: "Hello", Duration: 1},
		{ID: "C", ProfileName: "Owl", Text: "Who", Duration: 1.5},
		{ID: "D", ProfileName: "Fox", Text: "Goodbye", Duration: 1},
	} {
		_, err := store.ImportGeneration(ctx, g, filepath.Join(t.TempDir(), g.ID+".wav"))
		require.NoError(t, err)
	}
	for _, id := range []string{"A", "B", "C"} {
		_, err := store.AddItem(ctx, st.ID, id)
		require.NoError(t, err)
	}
	return store, st.ID
}

func order(dto *StoryDTO) []string {
	ids := make([]string, len(dto.Items))
	for i, it := range dto.Items {
		ids[i] = it.GenerationID
	}
	return ids
}

func TestServiceReorder(t *testing.T) {
	store, id := seededStore(t)
	svc := NewService(store)

	res, err := svc.ReorderItems(context.Background(), id, "A", "C")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "reorder items", res.Action)
	assert.Equal(t, []string{"B", "C", "A"}, order(res.Story))
	assert.Equal(t, int64(2500), res.Story.Items[2].StartTimeMs)
}

func TestServiceReorderSameRankIsNoOp(t *testing.T) {
	store, id := seededStore(t)
	svc := NewService(store)

	res, err := svc.ReorderItems(context.Background(), id, "B", "B")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, []string{"A", "B", "C"}, order(res.Story))
}

func TestServiceMove(t *testing.T) {
	store, id := seededStore(t)
	svc := NewService(store)
	ctx := context.Background()

	res, err := svc.MoveItem(ctx, id, "A", story.Position{StartTimeMs: 6000, Track: -1})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, []string{"B", "C", "A"}, order(res.Story))
	assert.Equal(t, -1, res.Story.Items[2].Track)
	assert.Equal(t, "0:06", res.Story.Items[2].Start)

	res, err = svc.MoveItem(ctx, id, "A", story.Position{StartTimeMs: 6000, Track: -1})
	require.NoError(t, err)
	assert.False(t, res.Changed, "same position should not send a move")

	_, err = svc.MoveItem(ctx, id, "A", story.Position{StartTimeMs: -5})
	assert.Error(t, err)
}

func TestServiceAddRemove(t *testing.T) {
	store, id := seededStore(t)
	svc := NewService(store)
	ctx := context.Background()

	res, err := svc.AddItem(ctx, id, "D")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, order(res.Story))
	assert.Equal(t, int64(4500), res.Story.Items[3].StartTimeMs)

	res, err = svc.AddItem(ctx, id, "D")
	require.NoError(t, err)
	assert.False(t, res.Changed)

	res, err = svc.RemoveItem(ctx, id, "B")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C", "D"}, order(res.Story))
}

func TestServiceAddUnknownGenerationFails(t *testing.T) {
	store, id := seededStore(t)
	svc := NewService(store)

	_, err := svc.AddItem(context.Background(), id, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to add generation")
}

func TestServiceListGenerationsFilter(t *testing.T) {
	store, _ := seededStore(t)
	svc := NewService(store)

	gens, err := svc.ListGenerations(context.Background(), "fox")
	require.NoError(t, err)
	assert.Len(t, gens, 2)

	gens, err = svc.ListGenerations(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, gens, 4)
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestMoveToolKeepsTrackWhenOmitted(t *testing.T) {
	store, id := seededStore(t)
	ctx := context.Background()
	_, err := store.MoveItem(ctx, id, "C", story.Position{StartTimeMs: 3000, Track: 1})
	require.NoError(t, err)

	h := handlers{svc: NewService(store)}
	res, err := h.moveItem(ctx, callRequest(map[string]any{
		"story_id":      id,
		"generation_id": "C",
		"start_time_ms": float64(8000),
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	st, err := store.GetStory(ctx, id)
	require.NoError(t, err)
	it, ok := st.Find("C")
	require.True(t, ok)
	assert.Equal(t, story.Position{StartTimeMs: 8000, Track: 1}, it.Position())
}

func TestToolMissingArgumentIsToolError(t *testing.T) {
	store, _ := seededStore(t)
	h := handlers{svc: NewService(store)}

	res, err := h.addItem(context.Background(), callRequest(map[string]any{"story_id": "x"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestReorderTool(t *testing.T) {
	store, id := seededStore(t)
	h := handlers{svc: NewService(store)}
	ctx := context.Background()

	res, err := h.reorderItems(ctx, callRequest(map[string]any{
		"story_id":  id,
		"active_id": "C",
		"over_id":   "A",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	st, err := store.GetStory(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, story.GenerationIDs(story.Sorted(st.Items)))
}

func TestNewServerDefaults(t *testing.T) {
	store, _ := seededStore(t)
	assert.NotNil(t, NewServer(store, "", ""))
	assert.Error(t, Runner{}.Do(context.Background()), "runner without a store should fail")
}
