package handle

import (
	"fmt"
	"slices"
)

type span struct {
	off, n int
}

// Planner assigns slot regions to handles. Released regions are reused
// first-fit before the slot grows. With bit packing, bit-packed booleans
// share bytes and fill spare bits before a new byte is taken.
//
// Size never shrinks: slots already handed out keep their length.
type Planner struct {
	packBits bool
	size     int
	holes    []span        // sorted by offset, coalesced
	bitBytes map[int]uint8 // offset -> occupied bits
}

// NewPlanner creates an empty planner.
func NewPlanner(packBits bool) *Planner {
	return &Planner{
		packBits: packBits,
		bitBytes: make(map[int]uint8),
	}
}

// PackBits reports whether booleans are bit-packed.
func (p *Planner) PackBits() bool { return p.packBits }

// Size returns the slot size needed for everything placed so far.
func (p *Planner) Size() int { return p.size }

// Place reserves a region for c.
func (p *Planner) Place(c *Converter) Placement {
	if c.kind == KindBitBool {
		return p.placeBit()
	}
	return Placement{Offset: p.take(c.width)}
}

// Release returns a region obtained from Place.
func (p *Planner) Release(pl Placement, c *Converter) error {
	if c.kind == KindBitBool {
		used, ok := p.bitBytes[pl.Offset]
		if !ok || used&bitMask(pl.Bit) == 0 {
			return fmt.Errorf("%w: bit %d.%d not placed", ErrInvalidConverter, pl.Offset, pl.Bit)
		}
		used &^= bitMask(pl.Bit)
		if used != 0 {
			p.bitBytes[pl.Offset] = used
			return nil
		}
		delete(p.bitBytes, pl.Offset)
		p.give(pl.Offset, 1)
		return nil
	}
	if pl.Offset < 0 || pl.Offset+c.width > p.size {
		return fmt.Errorf("%w: region %d+%d outside slot of %d", ErrInvalidConverter, pl.Offset, c.width, p.size)
	}
	p.give(pl.Offset, c.width)
	return nil
}

func (p *Planner) placeBit() Placement {
	// Lowest shared byte with a spare bit, so layouts are deterministic.
	best := -1
	for off, used := range p.bitBytes {
		if used != 0xFF && (best < 0 || off < best) {
			best = off
		}
	}
	if best < 0 {
		best = p.take(1)
	}
	used := p.bitBytes[best]
	for bit := range 8 {
		if used&bitMask(bit) == 0 {
			p.bitBytes[best] = used | bitMask(bit)
			return Placement{Offset: best, Bit: bit}
		}
	}
	panic("unreachable")
}

func (p *Planner) take(n int) int {
	for i, h := range p.holes {
		if h.n < n {
			continue
		}
		off := h.off
		if h.n == n {
			p.holes = slices.Delete(p.holes, i, i+1)
		} else {
			p.holes[i] = span{off: h.off + n, n: h.n - n}
		}
		return off
	}
	off := p.size
	p.size += n
	return off
}

func (p *Planner) give(off, n int) {
	i, _ := slices.BinarySearchFunc(p.holes, off, func(s span, target int) int { return s.off - target })
	p.holes = slices.Insert(p.holes, i, span{off: off, n: n})

	// Merge with the right neighbor, then the left.
	if i+1 < len(p.holes) && p.holes[i].off+p.holes[i].n == p.holes[i+1].off {
		p.holes[i].n += p.holes[i+1].n
		p.holes = slices.Delete(p.holes, i+1, i+2)
	}
	if i > 0 && p.holes[i-1].off+p.holes[i-1].n == p.holes[i].off {
		p.holes[i-1].n += p.holes[i].n
		p.holes = slices.Delete(p.holes, i, i+1)
	}
}

// Free returns the number of bytes currently available for reuse.
func (p *Planner) Free() int {
	total := 0
	for _, h := range p.holes {
		total += h.n
	}
	return total
}
