// Package trackdrag implements clip dragging on the track editor: a live
// position while the pointer moves and a single move command on release.
package trackdrag

import (
	"math"

	"github.com/jwulff/storytrack/internal/story"
	"github.com/jwulff/storytrack/internal/timeline"
)

// Point is a position in editor pixels, relative to the top-left corner of
// the lane area.
type Point struct {
	X, Y float64
}

// Session is one drag gesture.
type Session struct {
	GenerationID string
	Offset       Point // pointer offset inside the clip
	Live         Point // clip top-left while dragging
}

// Controller is Idle when it has no session and Dragging otherwise.
type Controller struct {
	session *Session
}

// Start opens a session for item, grabbed at pointer while drawn at origin.
func (c *Controller) Start(item story.Item, pointer, origin Point) {
	c.session = &Session{
		GenerationID: item.GenerationID,
		Offset:       Point{X: pointer.X - origin.X, Y: pointer.Y - origin.Y},
		Live:         origin,
	}
}

// Move follows the pointer. Clips cannot start before time zero; the
// vertical position is left free until release.
func (c *Controller) Move(pointer Point) {
	if c.session == nil {
		return
	}
	c.session.Live = Point{
		X: math.Max(0, pointer.X-c.session.Offset.X),
		Y: pointer.Y - c.session.Offset.Y,
	}
}

// End closes the session and returns the plan for the final position. The
// plan issues nothing when the item already sits at that position.
func (c *Controller) End(geo timeline.Geometry) (story.Plan, bool) {
	if c.session == nil {
		return nil, false
	}
	s := *c.session
	c.session = nil
	return MovePlan(s.GenerationID, Resolve(s.Live, geo)), true
}

// Leave handles the pointer leaving the editor mid-drag. There is no abort
// gesture, so it commits the last live position exactly like End.
func (c *Controller) Leave(geo timeline.Geometry) (story.Plan, bool) {
	return c.End(geo)
}

// Dragging reports whether a session is open.
func (c *Controller) Dragging() bool {
	return c.session != nil
}

// Session returns the open session.
func (c *Controller) Session() (Session, bool) {
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Seek converts a background click at x into a seek target. Clicks are
// ignored while a drag is open.
func (c *Controller) Seek(x float64, scale timeline.Scale) (int64, bool) {
	if c.session != nil {
		return 0, false
	}
	return scale.PixelsToMsRounded(x), true
}

// Resolve quantizes a live clip position to a persisted position.
func Resolve(live Point, geo timeline.Geometry) story.Position {
	return story.Position{
		StartTimeMs: geo.Scale.PixelsToMsRounded(live.X),
		Track:       geo.LaneAt(live.Y),
	}
}

// MovePlan moves generationID to pos unless it is already there.
func MovePlan(generationID string, pos story.Position) story.Plan {
	return func(confirmed story.Story) (story.Mutation, bool) {
		it, ok := confirmed.Find(generationID)
		if !ok || it.Position() == pos {
			return story.Mutation{}, false
		}
		return story.Mutation{
			Kind:         story.KindMove,
			StoryID:      confirmed.ID,
			GenerationID: generationID,
			Position:     pos,
		}, true
	}
}
