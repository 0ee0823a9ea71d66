// Package timeline converts between story time and editor pixels. Everything
// here is pure and safe to recompute on every render.
package timeline

import (
	"cmp"
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/jwulff/storytrack/internal/story"
)

const (
	MinPixelsPerSecond     = 10.0
	MaxPixelsPerSecond     = 200.0
	DefaultPixelsPerSecond = 50.0
	ZoomFactor             = 1.5

	// TrackHeight is the lane height in pixels.
	TrackHeight = 48
	// ClipHeight leaves a small gap between stacked lanes.
	ClipHeight = TrackHeight - 4

	MinDurationMs    = 10000
	ContentPaddingPx = 200
)

// DefaultTracks are always shown, even for an empty story.
var DefaultTracks = []int{1, 0, -1}

// Scale is a zoom level in pixels per second.
type Scale struct {
	PixelsPerSecond float64
}

// NewScale clamps pps into the supported zoom range.
func NewScale(pps float64) Scale {
	return Scale{PixelsPerSecond: clamp(pps, MinPixelsPerSecond, MaxPixelsPerSecond)}
}

// DefaultScale returns the initial zoom level.
func DefaultScale() Scale {
	return Scale{PixelsPerSecond: DefaultPixelsPerSecond}
}

// MsToPixels converts a time offset to a horizontal pixel offset.
func (s Scale) MsToPixels(ms float64) float64 {
	return ms / 1000 * s.PixelsPerSecond
}

// PixelsToMs converts a horizontal pixel offset to a time offset.
func (s Scale) PixelsToMs(px float64) float64 {
	return px / s.PixelsPerSecond * 1000
}

// PixelsToMsRounded converts px to whole milliseconds, floored at zero. Use
// it wherever the value is persisted.
func (s Scale) PixelsToMsRounded(px float64) int64 {
	ms := int64(math.Round(s.PixelsToMs(px)))
	if ms < 0 {
		return 0
	}
	return ms
}

// ZoomIn increases the zoom by ZoomFactor.
func (s Scale) ZoomIn() Scale {
	return NewScale(s.PixelsPerSecond * ZoomFactor)
}

// ZoomOut decreases the zoom by ZoomFactor.
func (s Scale) ZoomOut() Scale {
	return NewScale(s.PixelsPerSecond / ZoomFactor)
}

// TrackSet returns the lanes to render: the default lanes plus every lane in
// use, highest first.
func TrackSet(items []story.Item) []int {
	tracks := slices.Clone(DefaultTracks)
	for _, it := range items {
		tracks = append(tracks, it.Track)
	}
	slices.SortFunc(tracks, func(a, b int) int { return cmp.Compare(b, a) })
	return slices.Compact(tracks)
}

// TotalDuration returns the timeline length in ms, never below MinDurationMs.
func TotalDuration(items []story.Item) int64 {
	total := float64(MinDurationMs)
	for _, it := range items {
		total = math.Max(total, it.EndMs())
	}
	return int64(math.Ceil(total))
}

// MarkerInterval picks the ruler spacing for a zoom level.
func MarkerInterval(pps float64) int64 {
	switch {
	case pps > 100:
		return 1000
	case pps > 50:
		return 2000
	case pps < 20:
		return 10000
	}
	return 5000
}

// Markers yields ruler positions from 0 through totalMs+interval inclusive.
func Markers(totalMs int64, pps float64) iter.Seq[int64] {
	interval := MarkerInterval(pps)
	return func(yield func(int64) bool) {
		for ms := int64(0); ms <= totalMs+interval; ms += interval {
			if !yield(ms) {
				return
			}
		}
	}
}

// FormatTime renders ms as m:ss.
func FormatTime(ms float64) string {
	total := int64(math.Floor(ms / 1000))
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
