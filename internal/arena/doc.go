// Package arena provides the fixed-size slot allocator behind the annotation
// store.
//
// An Allocator hands out dense uint32 slot ids. Each slot is a fixed-size byte
// region inside a chunk; chunks hold 2^chunkPower slots and are mapped from a
// Source (Go heap or off-heap anonymous memory). Ids double as array indices:
//
//	chunk  = id >> chunkPower
//	offset = (id & (2^chunkPower - 1)) * slotSize
//
// # Features
//
//   - Power-of-two chunks, allocated on demand or pre-sized from a capacity
//   - Lowest-id-first recycling of freed slots (Roaring bitmap free list)
//   - In-place widening of every slot (Resize) for dynamic schemas
//   - Optional memory budget charged per chunk
//
// # Concurrency
//
// The allocator is not synchronized. Alloc, Free, Resize, Clear and Close
// mutate shared state and must not race with each other or with cursors.
// A Cursor is bound to a single slot at a time and must stay on one goroutine.
package arena
