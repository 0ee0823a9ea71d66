// Package layout owns the track editor height shared by every view that
// reserves space for the editor, and the drag handle that resizes it.
package layout

import "sync"

const (
	MinHeight     = 120
	MaxHeight     = 500
	DefaultHeight = 240
)

// Height is the shared editor height in pixels. It lives for the process and
// survives story switches.
type Height struct {
	mu sync.RWMutex
	px int
}

// NewHeight returns a Height initialised to px, clamped.
func NewHeight(px int) *Height {
	return &Height{px: Clamp(px)}
}

// Get returns the current height.
func (h *Height) Get() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.px
}

// Set stores px clamped to [MinHeight, MaxHeight] and returns the stored value.
func (h *Height) Set(px int) int {
	px = Clamp(px)
	h.mu.Lock()
	h.px = px
	h.mu.Unlock()
	return px
}

// Clamp bounds px to the supported editor height.
func Clamp(px int) int {
	return max(MinHeight, min(px, MaxHeight))
}

// Resizer is the vertical drag on the editor's top edge. Dragging up grows
// the editor.
type Resizer struct {
	height      *Height
	active      bool
	startY      int
	startHeight int
}

// NewResizer binds a resizer to the shared height.
func NewResizer(h *Height) *Resizer {
	return &Resizer{height: h}
}

// Start captures the pointer and the height at press time.
func (r *Resizer) Start(y int) {
	r.active = true
	r.startY = y
	r.startHeight = r.height.Get()
}

// Move writes the new height immediately so other views follow the gesture.
func (r *Resizer) Move(y int) int {
	if !r.active {
		return r.height.Get()
	}
	return r.height.Set(r.startHeight + (r.startY - y))
}

// End closes the gesture. The height is already written.
func (r *Resizer) End() {
	r.active = false
}

// Active reports whether a resize is in progress.
func (r *Resizer) Active() bool {
	return r.active
}

// Nudge grows (positive) or shrinks the height by delta pixels.
func (r *Resizer) Nudge(delta int) int {
	return r.height.Set(r.height.Get() + delta)
}
