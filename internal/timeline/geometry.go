package timeline

import (
	"iter"
	"math"
	"slices"

	"github.com/jwulff/storytrack/internal/story"
)

// Rect is an axis-aligned box in editor pixels.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Geometry is the derived layout of one story at one zoom level.
type Geometry struct {
	Scale           Scale
	Tracks          []int
	TotalDurationMs int64
	WidthPx         float64
}

// Compute derives the editor geometry for items.
func Compute(items []story.Item, scale Scale, viewportWidthPx float64) Geometry {
	total := TotalDuration(items)
	content := scale.MsToPixels(float64(total)) + ContentPaddingPx
	return Geometry{
		Scale:           scale,
		Tracks:          TrackSet(items),
		TotalDurationMs: total,
		WidthPx:         math.Max(content, viewportWidthPx),
	}
}

// HeightPx is the height of all lanes stacked.
func (g Geometry) HeightPx() float64 {
	return float64(len(g.Tracks) * TrackHeight)
}

// TrackIndex returns the row of a lane, or -1 when the lane is not shown.
func (g Geometry) TrackIndex(track int) int {
	return slices.Index(g.Tracks, track)
}

// LaneAt maps a vertical pixel offset to a lane, clamping to the first and
// last rows.
func (g Geometry) LaneAt(y float64) int {
	if len(g.Tracks) == 0 {
		return 0
	}
	idx := int(math.Floor(y / TrackHeight))
	idx = max(0, min(idx, len(g.Tracks)-1))
	return g.Tracks[idx]
}

// ClipRect is where an item is drawn when it is not being dragged.
func (g Geometry) ClipRect(it story.Item) Rect {
	return Rect{
		X: g.Scale.MsToPixels(float64(it.StartTimeMs)),
		Y: float64(g.TrackIndex(it.Track) * TrackHeight),
		W: g.Scale.MsToPixels(it.DurationMs()),
		H: ClipHeight,
	}
}

// ClipAt returns the topmost item under (x, y). Items later in the slice are
// drawn above earlier ones.
func (g Geometry) ClipAt(items []story.Item, x, y float64) (story.Item, bool) {
	for i := len(items) - 1; i >= 0; i-- {
		if g.ClipRect(items[i]).Contains(x, y) {
			return items[i], true
		}
	}
	return story.Item{}, false
}

// Markers yields the ruler positions for this geometry.
func (g Geometry) Markers() iter.Seq[int64] {
	return Markers(g.TotalDurationMs, g.Scale.PixelsPerSecond)
}
