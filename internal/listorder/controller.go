package listorder

// Controller follows one pointer gesture over the list. A press arms the
// gesture; it only becomes a drag once the pointer leaves the row it started
// on, so a plain click never reorders anything.
type Controller struct {
	armed     bool
	activated bool
	activeID  string
	overID    string
	startRow  int
}

// Press arms a gesture on the row holding id.
func (c *Controller) Press(id string, row int) {
	*c = Controller{armed: true, activeID: id, overID: id, startRow: row}
}

// Motion updates the row under the pointer. overID is empty when the pointer
// is not over a row.
func (c *Controller) Motion(overID string, row int) {
	if !c.armed {
		return
	}
	if row != c.startRow {
		c.activated = true
	}
	if overID != "" {
		c.overID = overID
	}
}

// Release ends the gesture. It reports a drop only for activated drags.
func (c *Controller) Release() (DragEnd, bool) {
	ev := DragEnd{ActiveID: c.activeID, OverID: c.overID}
	activated := c.activated
	*c = Controller{}
	if !activated {
		return DragEnd{}, false
	}
	return ev, true
}

// Cancel drops the gesture without a result.
func (c *Controller) Cancel() {
	*c = Controller{}
}

// Dragging reports whether an activated drag is in progress.
func (c *Controller) Dragging() bool {
	return c.activated
}

// Armed reports whether a press is being tracked.
func (c *Controller) Armed() bool {
	return c.armed
}

// Active returns the dragged id and the id under the pointer.
func (c *Controller) Active() (activeID, overID string) {
	return c.activeID, c.overID
}
