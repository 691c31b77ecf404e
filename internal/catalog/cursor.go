package catalog

// PageSize is the fixed listing page size, for both the incremental reveal
// cursor and the offset/limit listing endpoint.
const PageSize = 24

// Cursor is the monotonically growing display-count cursor for incremental
// reveal. It starts at one page, grows by one page per Advance, and is
// clamped to the underlying sequence length. Any filter or sort change must
// go through Reset.
type Cursor struct {
	total   int
	visible int
}

// NewCursor creates a cursor over a sequence of the given length.
func NewCursor(total int) *Cursor {
	c := &Cursor{}
	c.Reset(total)
	return c
}

// Reset re-targets the cursor at a new sequence length and rewinds the
// visible count to the initial page size.
func (c *Cursor) Reset(total int) {
	if total < 0 {
		total = 0
	}
	c.total = total
	c.visible = min(PageSize, total)
}

// Advance grows the visible count by one page, clamped to the sequence
// length, and returns the new count.
func (c *Cursor) Advance() int {
	c.visible = min(c.visible+PageSize, c.total)
	return c.visible
}

// Visible returns the current display count.
func (c *Cursor) Visible() int {
	return c.visible
}

// HasMore reports whether entries beyond the visible window remain.
func (c *Cursor) HasMore() bool {
	return c.visible < c.total
}
