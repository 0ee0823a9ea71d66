package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/jwulff/storytrack/internal/story"
)

// Client is a websocket link to the playback engine. Send may be called from
// any goroutine; ReadEvent belongs to a single reader.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Dial connects to the engine at url (ws:// or wss://).
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("connect to engine: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close shuts down the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	c.mu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.mu.Unlock()
	return c.conn.Close()
}

// Send writes one command as a text frame.
func (c *Client) Send(cmd Command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// ReadEvent blocks until the engine sends the next event.
func (c *Client) ReadEvent() (Event, error) {
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return Event{}, fmt.Errorf("read event: %w", err)
		}
		if mt != websocket.TextMessage {
			continue
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			return Event{}, fmt.Errorf("unmarshal event: %w", err)
		}
		return ev, nil
	}
}

// Clips builds the play payload for items in playback order.
func Clips(items []story.Item, audioURL func(generationID string) string) []Clip {
	out := make([]Clip, len(items))
	for i, it := range items {
		out[i] = Clip{
			GenerationID: it.GenerationID,
			AudioURL:     audioURL(it.GenerationID),
			StartTimeMs:  it.StartTimeMs,
			DurationMs:   it.DurationMs(),
			Track:        it.Track,
		}
	}
	return out
}
