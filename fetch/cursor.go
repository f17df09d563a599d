package fetch

import "fmt"

// Cursor maps a (skip, count) window onto fixed-size backend pages.
type Cursor struct {
	pageSize  uint32
	page      uint32
	offset    uint32
	remaining uint32
}

// NewCursor positions a cursor on the page holding item skip. It panics when pageSize is zero.
func NewCursor(skip, count, pageSize uint32) *Cursor {
	if pageSize == 0 {
		panic("fetch: page size must be positive")
	}

	return &Cursor{
		pageSize:  pageSize,
		page:      1 + skip/pageSize,
		offset:    skip % pageSize,
		remaining: count,
	}
}

// Page is the 1-based number of the backend page to request next.
func (c *Cursor) Page() uint32 { return c.page }

// Offset is the number of leading items of the current page to discard.
func (c *Cursor) Offset() uint32 { return c.offset }

// Remaining is the number of items still owed to the caller.
func (c *Cursor) Remaining() uint32 { return c.remaining }

// PageSize is the fixed backend page size.
func (c *Cursor) PageSize() uint32 { return c.pageSize }

// Consume accounts for a page of pageLen items and returns how many of them,
// starting at Offset, must be emitted.
func (c *Cursor) Consume(pageLen uint32) uint32 {
	var usable uint32
	if pageLen > c.offset {
		usable = pageLen - c.offset
	}

	n := min(usable, c.remaining)
	c.remaining -= n
	return n
}

// Advance moves to the start of the next page.
func (c *Cursor) Advance() {
	c.page++
	c.offset = 0
}

func (c *Cursor) String() string {
	return fmt.Sprintf("page=%d offset=%d remaining=%d size=%d", c.page, c.offset, c.remaining, c.pageSize)
}
