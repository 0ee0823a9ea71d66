package trackdrag

import (
	"testing"

	"github.com/jwulff/storytrack/internal/story"
	"github.com/jwulff/storytrack/internal/timeline"
)

func laneStory() story.Story {
	return story.Story{
		ID: "s1",
		Items: []story.Item{
			{GenerationID: "A", StartTimeMs: 1000, Duration: 2, Track: 0},
			{GenerationID: "B", StartTimeMs: 4000, Duration: 1, Track: 2},
			{GenerationID: "C", StartTimeMs: 6000, Duration: 1, Track: -2},
		},
	}
}

func grab(c *Controller, geo timeline.Geometry, it story.Item, dx, dy float64) {
	r := geo.ClipRect(it)
	c.Start(it, Point{X: r.X + dx, Y: r.Y + dy}, Point{X: r.X, Y: r.Y})
}

func TestDragCapturesOffsetAndFollowsPointer(t *testing.T) {
	st := laneStory()
	geo := timeline.Compute(st.Items, timeline.DefaultScale(), 0)
	var c Controller

	grab(&c, geo, st.Items[0], 10, 5)
	s, ok := c.Session()
	if !ok {
		t.Fatal("expected a session")
	}
	if s.Offset != (Point{X: 10, Y: 5}) {
		t.Errorf("Offset = %+v", s.Offset)
	}
	if s.Live != (Point{X: 50, Y: 96}) {
		t.Errorf("Live = %+v, want clip origin", s.Live)
	}

	c.Move(Point{X: 210, Y: 30})
	s, _ = c.Session()
	if s.Live != (Point{X: 200, Y: 25}) {
		t.Errorf("Live after move = %+v", s.Live)
	}
}

func TestMoveClampsHorizontalOnly(t *testing.T) {
	var c Controller
	c.Start(story.Item{GenerationID: "A"}, Point{X: 20, Y: 20}, Point{X: 0, Y: 0})
	c.Move(Point{X: 5, Y: -300})
	s, _ := c.Session()
	if s.Live.X != 0 {
		t.Errorf("Live.X = %v, want 0", s.Live.X)
	}
	if s.Live.Y != -320 {
		t.Errorf("Live.Y = %v, want -320 (unclamped)", s.Live.Y)
	}
}

func TestDragToNegativeTimeAndHighLaneClamps(t *testing.T) {
	st := laneStory() // lanes {2, 1, 0, -1, -2}
	geo := timeline.Compute(st.Items, timeline.DefaultScale(), 0)
	var c Controller

	// Aim for -500ms on a lane above the top one (track 5 does not exist).
	grab(&c, geo, st.Items[0], 0, 0)
	c.Move(Point{X: geo.Scale.MsToPixels(-500), Y: -3 * timeline.TrackHeight})

	plan, ok := c.End(geo)
	if !ok {
		t.Fatal("End should return a plan")
	}
	m, ok := plan(st)
	if !ok {
		t.Fatal("position changed, expected a move")
	}
	if m.Position != (story.Position{StartTimeMs: 0, Track: 2}) {
		t.Errorf("Position = %+v, want {0 2}", m.Position)
	}
	if c.Dragging() {
		t.Error("controller should be idle after End")
	}
}

func TestUnchangedDropIssuesNothing(t *testing.T) {
	st := laneStory()
	geo := timeline.Compute(st.Items, timeline.DefaultScale(), 0)
	sess := story.NewSession(st)
	var c Controller

	grab(&c, geo, st.Items[1], 12, 12)
	c.Move(Point{X: geo.ClipRect(st.Items[1]).X + 12, Y: 12})
	plan, _ := c.End(geo)

	if _, ok := sess.Submit(plan); ok {
		t.Error("a drop at the original position must not issue a command")
	}
}

func TestLeaveCommitsLikeRelease(t *testing.T) {
	st := laneStory()
	geo := timeline.Compute(st.Items, timeline.DefaultScale(), 0)
	var c Controller

	grab(&c, geo, st.Items[0], 0, 0)
	c.Move(Point{X: geo.Scale.MsToPixels(2500), Y: 4*timeline.TrackHeight + 3})
	plan, ok := c.Leave(geo)
	if !ok {
		t.Fatal("Leave should commit")
	}
	m, ok := plan(st)
	if !ok {
		t.Fatal("expected a move")
	}
	if m.Position != (story.Position{StartTimeMs: 2500, Track: -2}) {
		t.Errorf("Position = %+v", m.Position)
	}
}

func TestEndWhenIdle(t *testing.T) {
	var c Controller
	if _, ok := c.End(timeline.Compute(nil, timeline.DefaultScale(), 0)); ok {
		t.Error("End without a session should do nothing")
	}
}

func TestSeekSuppressedWhileDragging(t *testing.T) {
	var c Controller
	scale := timeline.DefaultScale()
	if ms, ok := c.Seek(100, scale); !ok || ms != 2000 {
		t.Errorf("Seek = %d, %v; want 2000, true", ms, ok)
	}
	c.Start(story.Item{GenerationID: "A"}, Point{}, Point{})
	if _, ok := c.Seek(100, scale); ok {
		t.Error("Seek must be ignored during a drag")
	}
}
