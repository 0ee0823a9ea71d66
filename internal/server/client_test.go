package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwulff/storytrack/internal/story"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	svr := httptest.NewServer(h)
	t.Cleanup(svr.Close)
	c := New(svr.URL, 5*time.Second)
	c.retryDelay = time.Millisecond
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Logf("encode failed: %v", err)
	}
}

func TestGetStory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/stories/s1", r.URL.Path)
		writeJSON(t, w, 200, story.Story{
			ID:    "s1",
			Name:  "Pilot",
			Items: []story.Item{{GenerationID: "g1", StartTimeMs: 1500, Duration: 2.5, Track: -1}},
		})
	})

	got, err := c.GetStory(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Pilot", got.Name)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(1500), got.Items[0].StartTimeMs)
	assert.Equal(t, -1, got.Items[0].Track)
}

func TestReorderSendsFullOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/stories/s1/items/reorder", r.URL.Path)
		var req reorderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"B", "C", "A"}, req.GenerationIDs)
		writeJSON(t, w, 200, story.Story{ID: "s1"})
	})

	_, err := c.ReorderItems(context.Background(), "s1", []string{"B", "C", "A"})
	require.NoError(t, err)
}

func TestMoveSendsPosition(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stories/s1/items/g1/move", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"start_time_ms": 2500, "track": -2}`, string(body))
		writeJSON(t, w, 200, story.Story{ID: "s1"})
	})

	_, err := c.MoveItem(context.Background(), "s1", "g1", story.Position{StartTimeMs: 2500, Track: -2})
	require.NoError(t, err)
}

func TestMutationErrorCarriesDetail(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(t, w, 500, map[string]string{"detail": "database is locked"})
	})

	_, err := c.RemoveItem(context.Background(), "s1", "g1")
	require.Error(t, err)
	assert.Equal(t, "database is locked", err.Error())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "mutations must not be retried")
}

func TestValidationDetailList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, 422, map[string]any{
			"detail": []map[string]string{{"msg": "field required"}, {"msg": "bad track"}},
		})
	})

	_, err := c.AddItem(context.Background(), "s1", "g1")
	require.Error(t, err)
	assert.Equal(t, "field required; bad track", err.Error())
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(t, w, 200, []story.Summary{{ID: "s1", Name: "Pilot", ItemCount: 2}})
	})

	got, err := c.ListStories(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ItemCount)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestNotFoundMatchesSentinel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, 404, map[string]string{"detail": "Story not found"})
	})

	_, err := c.GetStory(context.Background(), "missing")
	assert.ErrorIs(t, err, story.ErrNotFound)
}

func TestListGenerationsAndAudioURL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/history", r.URL.Path)
		writeJSON(t, w, 200, historyResponse{
			Items: []story.Generation{{ID: "g1", ProfileName: "Narrator", Text: "Once", Duration: 1.2}},
			Total: 1,
		})
	})

	gens, err := c.ListGenerations(context.Background())
	require.NoError(t, err)
	require.Len(t, gens, 1)
	assert.Equal(t, "Narrator", gens[0].ProfileName)
	assert.Equal(t, c.baseURL+"/audio/g%201", c.AudioURL("g 1"))
}

func TestExportAudioReturnsBytes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stories/s1/export-audio", r.URL.Path)
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write([]byte("RIFF"))
	})

	got, err := c.ExportAudio(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), got)
}
