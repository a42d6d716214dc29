package monitor

// Cursor tracks which process row is selected and which contiguous window
// of rows is visible. It tracks positions, not process identities, so it
// must be re-clamped via Resize after every process-list replacement.
type Cursor struct {
	Selected     int
	ScrollOffset int

	length        int
	visibleHeight int
}

// MoveDown advances the selection, scrolling just far enough to keep it
// inside the visible window.
func (c *Cursor) MoveDown() {
	if c.length == 0 {
		return
	}
	if c.Selected < c.length-1 {
		c.Selected++
	}
	if c.visibleHeight > 0 && c.Selected >= c.ScrollOffset+c.visibleHeight {
		c.ScrollOffset = c.Selected - c.visibleHeight + 1
	}
}

// MoveUp retreats the selection, scrolling up when it would leave the
// window.
func (c *Cursor) MoveUp() {
	if c.Selected > 0 {
		c.Selected--
	}
	if c.Selected < c.ScrollOffset {
		c.ScrollOffset = c.Selected
	}
}

// Resize re-clamps the cursor for a new list length and window height.
// It is called on every process-table refresh and on terminal resize, and
// is idempotent for identical inputs.
func (c *Cursor) Resize(length, visibleHeight int) {
	if length < 0 {
		length = 0
	}
	if visibleHeight < 0 {
		visibleHeight = 0
	}
	c.length = length
	c.visibleHeight = visibleHeight

	maxScroll := length - visibleHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	if c.ScrollOffset > maxScroll {
		c.ScrollOffset = maxScroll
	}
	if c.Selected >= length {
		c.Selected = length - 1
		if c.Selected < 0 {
			c.Selected = 0
		}
	}
	// Selection must stay within the visible window.
	if c.Selected < c.ScrollOffset {
		c.ScrollOffset = c.Selected
	}
	if visibleHeight > 0 && c.Selected >= c.ScrollOffset+visibleHeight {
		c.ScrollOffset = c.Selected - visibleHeight + 1
	}
}

func (c *Cursor) Length() int {
	return c.length
}

func (c *Cursor) VisibleHeight() int {
	return c.visibleHeight
}
