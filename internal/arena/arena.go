package arena

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/annopack/internal/conv"
	"github.com/hupe1980/annopack/internal/resource"
)

const (
	// MinChunkPower is the smallest accepted chunk power (2 slots per chunk).
	MinChunkPower = 1
	// MaxChunkPower is the largest accepted chunk power (16M slots per chunk).
	MaxChunkPower = 24
	// DefaultChunkPower is used by callers that do not pick a chunk power.
	DefaultChunkPower = 10

	// UnspecifiedCapacity asks for the default capacity of one chunk.
	UnspecifiedCapacity = -1
)

// Stats tracks allocator usage.
type Stats struct {
	Source        string
	SlotSize      int
	ChunkPower    int
	Chunks        int
	Capacity      uint64 // slots backed by mapped chunks
	Live          uint64 // slots currently allocated
	Free          uint64 // recycled ids waiting for reuse
	BytesReserved int64
	TotalAllocs   uint64
	Resizes       uint64
}

type chunk struct {
	data    []byte
	release func() error
}

// Allocator is a fixed-size slot allocator.
type Allocator struct {
	slotSize   int
	chunkPower int
	chunkSlots int
	chunkMask  uint32

	chunks []*chunk
	next   uint64 // ids below next have been handed out at least once
	free   *roaring.Bitmap
	live   *roaring.Bitmap

	source  Source
	rc      *resource.Controller
	onChunk func(slots int, bytes int64)
	closed  bool

	bytesReserved int64
	totalAllocs   uint64
	resizes       uint64
}

// Option is a configuration option for Allocator.
type Option func(*Allocator)

// WithSource sets the memory source for chunks. Defaults to HeapSource.
func WithSource(s Source) Option {
	return func(a *Allocator) {
		if s != nil {
			a.source = s
		}
	}
}

// WithMemoryController charges every mapped chunk against rc.
func WithMemoryController(rc *resource.Controller) Option {
	return func(a *Allocator) {
		a.rc = rc
	}
}

// WithChunkHook registers fn to be called after each chunk is mapped.
func WithChunkHook(fn func(slots int, bytes int64)) Option {
	return func(a *Allocator) {
		a.onChunk = fn
	}
}

// New creates an Allocator of slotSize-byte slots in chunks of 2^chunkPower
// slots, pre-sized to hold capacity slots.
func New(slotSize, chunkPower, capacity int, opts ...Option) (*Allocator, error) {
	if slotSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSlotSize, slotSize)
	}
	if chunkPower < MinChunkPower || chunkPower > MaxChunkPower {
		return nil, fmt.Errorf("%w: %d (want %d..%d)", ErrInvalidChunkPower, chunkPower, MinChunkPower, MaxChunkPower)
	}
	if capacity == UnspecifiedCapacity {
		capacity = 1 << chunkPower
	} else if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	a := &Allocator{
		slotSize:   slotSize,
		chunkPower: chunkPower,
		chunkSlots: 1 << chunkPower,
		chunkMask:  uint32(1<<chunkPower) - 1,
		free:       roaring.New(),
		live:       roaring.New(),
		source:     HeapSource{},
	}

	for _, opt := range opts {
		opt(a)
	}

	for n := conv.CeilDiv(capacity, a.chunkSlots); n > 0; n-- {
		if err := a.grow(); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	return a, nil
}

// SlotSize returns the current size of every slot in bytes.
func (a *Allocator) SlotSize() int {
	return a.slotSize
}

func (a *Allocator) capacity() uint64 {
	return uint64(len(a.chunks)) << a.chunkPower
}

func (a *Allocator) chunkBytes() int {
	return a.chunkSlots * a.slotSize
}

func (a *Allocator) grow() error {
	if a.capacity() >= math.MaxUint32 {
		return ErrCapacityExhausted
	}

	size := a.chunkBytes()
	if err := a.rc.AcquireMemory(int64(size)); err != nil {
		return fmt.Errorf("arena: grow: %w", err)
	}

	data, release, err := a.source.Map(size)
	if err != nil {
		a.rc.ReleaseMemory(int64(size))
		return fmt.Errorf("arena: map %d bytes from %s: %w", size, a.source.Name(), err)
	}

	a.chunks = append(a.chunks, &chunk{data: data, release: release})
	a.bytesReserved += int64(size)

	if a.onChunk != nil {
		a.onChunk(a.chunkSlots, int64(size))
	}
	return nil
}

// Alloc returns a fresh, zeroed slot id. Freed ids are reused lowest first;
// otherwise the allocator grows by one chunk when every mapped slot is taken.
func (a *Allocator) Alloc() (uint32, error) {
	if a.closed {
		return 0, ErrClosed
	}

	if !a.free.IsEmpty() {
		id := a.free.Minimum()
		a.free.Remove(id)
		clear(a.slot(id))
		a.live.Add(id)
		a.totalAllocs++
		return id, nil
	}

	if a.next >= math.MaxUint32 {
		return 0, ErrCapacityExhausted
	}
	if a.next == a.capacity() {
		if err := a.grow(); err != nil {
			return 0, err
		}
	}

	id := uint32(a.next) //nolint:gosec // bounded by MaxUint32 check above
	a.next++
	a.live.Add(id)
	a.totalAllocs++
	return id, nil
}

// Free returns id to the free list. The slot's bytes must not be touched
// until the id is handed out again.
func (a *Allocator) Free(id uint32) error {
	if a.closed {
		return ErrClosed
	}
	if !a.live.Contains(id) {
		return fmt.Errorf("%w: %d", ErrBadSlot, id)
	}
	a.live.Remove(id)
	a.free.Add(id)
	return nil
}

// IsLive reports whether id is currently allocated.
func (a *Allocator) IsLive(id uint32) bool {
	return a.live.Contains(id)
}

// Len returns the number of allocated slots.
func (a *Allocator) Len() int {
	return int(a.live.GetCardinality()) //nolint:gosec // bounded by uint32 id space
}

// ForEachLive calls fn for every allocated slot id in ascending order until
// fn returns false.
func (a *Allocator) ForEachLive(fn func(id uint32) bool) {
	it := a.live.Iterator()
	for it.HasNext() {
		if !fn(it.Next()) {
			return
		}
	}
}

// Bytes returns the bytes of slot id. It panics on ids that were never
// handed out; use a Cursor for checked access.
func (a *Allocator) Bytes(id uint32) []byte {
	return a.slot(id)
}

func (a *Allocator) slot(id uint32) []byte {
	c := a.chunks[id>>a.chunkPower]
	off := int(id&a.chunkMask) * a.slotSize
	end := off + a.slotSize
	return c.data[off:end:end]
}

// Resize widens every slot to newSlotSize bytes. Existing bytes keep their
// offsets and the added tail of every slot is zero. Slots never shrink: a
// newSlotSize not larger than the current size is a no-op.
//
// Only the growth is charged against the memory controller, so a resize fits
// any limit the widened chunks fit. The old chunks stay mapped until every
// new chunk is copied.
//
// Resize remaps every chunk, so cursors must be moved again before use.
func (a *Allocator) Resize(newSlotSize int) error {
	if a.closed {
		return ErrClosed
	}
	if newSlotSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSlotSize, newSlotSize)
	}
	if newSlotSize <= a.slotSize {
		return nil
	}

	size := a.chunkSlots * newSlotSize
	growth := int64(len(a.chunks)) * int64(size-a.chunkBytes())
	if err := a.rc.AcquireMemory(growth); err != nil {
		return fmt.Errorf("arena: resize: %w", err)
	}

	fresh := make([]*chunk, 0, len(a.chunks))
	for range a.chunks {
		data, release, err := a.source.Map(size)
		if err != nil {
			for _, c := range fresh {
				_ = c.release()
			}
			a.rc.ReleaseMemory(growth)
			return fmt.Errorf("arena: resize: map %d bytes from %s: %w", size, a.source.Name(), err)
		}
		fresh = append(fresh, &chunk{data: data, release: release})
	}

	for i, old := range a.chunks {
		dst := fresh[i].data
		for s := 0; s < a.chunkSlots; s++ {
			copy(dst[s*newSlotSize:s*newSlotSize+a.slotSize], old.data[s*a.slotSize:(s+1)*a.slotSize])
		}
		_ = old.release()
	}

	a.chunks = fresh
	a.slotSize = newSlotSize
	a.bytesReserved += growth
	a.resizes++
	return nil
}

// Clear zeroes every chunk and forgets all handed-out ids. Chunks stay mapped.
func (a *Allocator) Clear() {
	for _, c := range a.chunks {
		clear(c.data)
	}
	a.next = 0
	a.free.Clear()
	a.live.Clear()
}

// Close releases every chunk. The allocator cannot be used afterwards.
func (a *Allocator) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	var firstErr error
	size := int64(a.chunkBytes())
	for i, c := range a.chunks {
		if err := c.release(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.rc.ReleaseMemory(size)
		a.chunks[i] = nil
	}
	a.chunks = nil
	a.bytesReserved = 0
	a.free.Clear()
	a.live.Clear()
	return firstErr
}

// Stats returns a snapshot of allocator usage.
func (a *Allocator) Stats() Stats {
	return Stats{
		Source:        a.source.Name(),
		SlotSize:      a.slotSize,
		ChunkPower:    a.chunkPower,
		Chunks:        len(a.chunks),
		Capacity:      a.capacity(),
		Live:          a.live.GetCardinality(),
		Free:          a.free.GetCardinality(),
		BytesReserved: a.bytesReserved,
		TotalAllocs:   a.totalAllocs,
		Resizes:       a.resizes,
	}
}

func (a *Allocator) String() string {
	s := a.Stats()
	return fmt.Sprintf(
		"Allocator{source: %s, slot: %dB, chunks: %d, live: %d, free: %d, reserved: %.2f KB}",
		s.Source, s.SlotSize, s.Chunks, s.Live, s.Free, float64(s.BytesReserved)/1024,
	)
}
