package arena

import "fmt"

// Cursor is a reusable view onto one slot at a time.
//
// A Cursor is not safe for concurrent use; keep one per goroutine.
type Cursor struct {
	a     *Allocator
	id    uint32
	buf   []byte
	bound bool
}

// NewCursor returns an unbound cursor over the allocator's slots.
func (a *Allocator) NewCursor() *Cursor {
	return &Cursor{a: a}
}

// MoveTo binds the cursor to slot id.
func (c *Cursor) MoveTo(id uint32) error {
	if c.a.closed {
		c.Unbind()
		return ErrClosed
	}
	if !c.a.live.Contains(id) {
		c.Unbind()
		return fmt.Errorf("%w: %d", ErrBadSlot, id)
	}
	c.id = id
	c.buf = c.a.slot(id)
	c.bound = true
	return nil
}

// Unbind detaches the cursor from its slot.
func (c *Cursor) Unbind() {
	c.id = 0
	c.buf = nil
	c.bound = false
}

// ID returns the bound slot id and whether the cursor is bound.
func (c *Cursor) ID() (uint32, bool) {
	return c.id, c.bound
}

// Bytes returns the bound slot's bytes, or ErrUnbound.
func (c *Cursor) Bytes() ([]byte, error) {
	if !c.bound {
		return nil, ErrUnbound
	}
	return c.buf, nil
}
