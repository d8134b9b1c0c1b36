package arena

import "errors"

var (
	// ErrInvalidSlotSize indicates a non-positive slot size.
	ErrInvalidSlotSize = errors.New("arena: slot size must be positive")

	// ErrInvalidChunkPower indicates a chunk power outside [MinChunkPower, MaxChunkPower].
	ErrInvalidChunkPower = errors.New("arena: chunk power out of range")

	// ErrInvalidCapacity indicates a non-positive capacity other than UnspecifiedCapacity.
	ErrInvalidCapacity = errors.New("arena: capacity must be positive")

	// ErrBadSlot indicates an out-of-range or unallocated slot id.
	ErrBadSlot = errors.New("arena: bad slot id")

	// ErrCapacityExhausted indicates the uint32 id space is used up.
	ErrCapacityExhausted = errors.New("arena: slot id space exhausted")

	// ErrClosed indicates use of an allocator after Close.
	ErrClosed = errors.New("arena: allocator is closed")

	// ErrUnbound indicates a cursor that has not been moved to a slot.
	ErrUnbound = errors.New("arena: cursor is not bound to a slot")
)
