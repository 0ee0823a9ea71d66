// Package server is the HTTP client for the story store. It implements
// story.Store against the voice server's JSON API.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jwulff/storytrack/internal/story"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return e.Detail
}

// Is lets callers match a 404 with errors.Is(err, story.ErrNotFound).
func (e *APIError) Is(target error) bool {
	return target == story.ErrNotFound && e.Status == http.StatusNotFound
}

// Client talks to the story server.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// GETs are retried on transport errors, 429 and 5xx. Mutations never are.
	maxAttempts int
	retryDelay  time.Duration
}

// New creates a client for baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		maxAttempts: 3,
		retryDelay:  250 * time.Millisecond,
	}
}

var _ story.Store = (*Client)(nil)

type reorderRequest struct {
	GenerationIDs []string `json:"generation_ids"`
}

type addRequest struct {
	GenerationID string `json:"generation_id"`
}

type historyResponse struct {
	Items []story.Generation `json:"items"`
	Total int                `json:"total"`
}

// ListStories returns every story summary.
func (c *Client) ListStories(ctx context.Context) ([]story.Summary, error) {
	var out []story.Summary
	if err := c.get(ctx, "/stories", &out); err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	return out, nil
}

// GetStory fetches one story with its items.
func (c *Client) GetStory(ctx context.Context, id string) (story.Story, error) {
	var out story.Story
	if err := c.get(ctx, "/stories/"+url.PathEscape(id), &out); err != nil {
		return story.Story{}, fmt.Errorf("get story: %w", err)
	}
	return out, nil
}

// ReorderItems sets the item order.
func (c *Client) ReorderItems(ctx context.Context, storyID string, generationIDs []string) (story.Story, error) {
	path := "/stories/" + url.PathEscape(storyID) + "/items/reorder"
	return c.mutate(ctx, http.MethodPut, path, reorderRequest{GenerationIDs: generationIDs})
}

// MoveItem places one item at pos.
func (c *Client) MoveItem(ctx context.Context, storyID, generationID string, pos story.Position) (story.Story, error) {
	path := "/stories/" + url.PathEscape(storyID) + "/items/" + url.PathEscape(generationID) + "/move"
	return c.mutate(ctx, http.MethodPut, path, pos)
}

// AddItem appends a generation to the story.
func (c *Client) AddItem(ctx context.Context, storyID, generationID string) (story.Story, error) {
	path := "/stories/" + url.PathEscape(storyID) + "/items"
	return c.mutate(ctx, http.MethodPost, path, addRequest{GenerationID: generationID})
}

// RemoveItem deletes a generation from the story.
func (c *Client) RemoveItem(ctx context.Context, storyID, generationID string) (story.Story, error) {
	path := "/stories/" + url.PathEscape(storyID) + "/items/" + url.PathEscape(generationID)
	return c.mutate(ctx, http.MethodDelete, path, nil)
}

// ExportAudio downloads the rendered story as WAV bytes.
func (c *Client) ExportAudio(ctx context.Context, storyID string) ([]byte, error) {
	body, err := c.do(ctx, http.MethodGet, "/stories/"+url.PathEscape(storyID)+"/export-audio", nil)
	if err != nil {
		return nil, fmt.Errorf("export audio: %w", err)
	}
	return body, nil
}

// ListGenerations returns the generation history.
func (c *Client) ListGenerations(ctx context.Context) ([]story.Generation, error) {
	var out historyResponse
	if err := c.get(ctx, "/history", &out); err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	return out.Items, nil
}

// AudioURL locates a generation's audio.
func (c *Client) AudioURL(generationID string) string {
	return c.baseURL + "/audio/" + url.PathEscape(generationID)
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) mutate(ctx context.Context, method, path string, payload any) (story.Story, error) {
	var reqBody []byte
	if payload != nil {
		var err error
		reqBody, err = json.Marshal(payload)
		if err != nil {
			return story.Story{}, fmt.Errorf("marshal request: %w", err)
		}
	}
	body, err := c.do(ctx, method, path, reqBody)
	if err != nil {
		return story.Story{}, err
	}
	var out story.Story
	if err := json.Unmarshal(body, &out); err != nil {
		return story.Story{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, reqBody []byte) ([]byte, error) {
	attempts := 1
	if method == http.MethodGet {
		attempts = c.maxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := time.Duration(math.Pow(2, float64(attempt-1))) * c.retryDelay
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, retry, err := c.once(ctx, method, path, reqBody)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
		slog.Warn("Request failed, retrying", "method", method, "path", path, "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}

func (c *Client) once(ctx context.Context, method, path string, reqBody []byte) (body []byte, retry bool, err error) {
	var rd io.Reader = http.NoBody
	if reqBody != nil {
		rd = bytes.NewReader(reqBody)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	slog.Debug("Story request", "method", method, "path", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Detail: detail(body)}
		return nil, resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500, apiErr
	}
	return body, false, nil
}

// detail extracts the server's error message. Validation errors arrive as a
// list of {msg} objects.
func detail(body []byte) string {
	var plain struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &plain); err == nil && plain.Detail != "" {
		return plain.Detail
	}
	var list struct {
		Detail []struct {
			Msg string `json:"msg"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(body, &list); err == nil && len(list.Detail) > 0 {
		msgs := make([]string, len(list.Detail))
		for i, d := range list.Detail {
			msgs[i] = d.Msg
		}
		return strings.Join(msgs, "; ")
	}
	return strings.TrimSpace(string(body))
}
