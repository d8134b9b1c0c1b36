package annopack

import (
	"runtime"
	"sync"
	"weak"
)

// ownerTable maps owners to slot ids.
type ownerTable[T any] interface {
	lookup(owner *T) (uint32, bool)
	insert(owner *T, slot uint32)
	remove(owner *T) (uint32, bool)
	len() int
	// reclaim removes owners the garbage collector has dropped and returns
	// their slots.
	reclaim() []uint32
	// pending returns the number of collected owners not yet reclaimed.
	pending() int
	reset()
}

type strongOwners[T any] struct {
	slots map[*T]uint32
}

func newStrongOwners[T any]() *strongOwners[T] {
	return &strongOwners[T]{slots: make(map[*T]uint32)}
}

func (s *strongOwners[T]) lookup(owner *T) (uint32, bool) {
	id, ok := s.slots[owner]
	return id, ok
}

func (s *strongOwners[T]) insert(owner *T, slot uint32) {
	s.slots[owner] = slot
}

func (s *strongOwners[T]) remove(owner *T) (uint32, bool) {
	id, ok := s.slots[owner]
	if ok {
		delete(s.slots, owner)
	}
	return id, ok
}

func (s *strongOwners[T]) len() int          { return len(s.slots) }
func (s *strongOwners[T]) reclaim() []uint32 { return nil }
func (s *strongOwners[T]) pending() int      { return 0 }
func (s *strongOwners[T]) reset()            { clear(s.slots) }

type weakEntry struct {
	slot    uint32
	cleanup runtime.Cleanup
}

// weakOwners keys entries by weak pointer. A cleanup attached to each owner
// queues its weak pointer once the owner is collected; reclaim drains the
// queue on the writer's goroutine.
type weakOwners[T any] struct {
	entries map[weak.Pointer[T]]*weakEntry

	mu        sync.Mutex
	collected []weak.Pointer[T]
}

func newWeakOwners[T any]() *weakOwners[T] {
	return &weakOwners[T]{entries: make(map[weak.Pointer[T]]*weakEntry)}
}

func (w *weakOwners[T]) enqueue(p weak.Pointer[T]) {
	w.mu.Lock()
	w.collected = append(w.collected, p)
	w.mu.Unlock()
}

func (w *weakOwners[T]) lookup(owner *T) (uint32, bool) {
	e, ok := w.entries[weak.Make(owner)]
	if !ok {
		return 0, false
	}
	return e.slot, true
}

func (w *weakOwners[T]) insert(owner *T, slot uint32) {
	p := weak.Make(owner)
	e := &weakEntry{slot: slot}
	e.cleanup = runtime.AddCleanup(owner, w.enqueue, p)
	w.entries[p] = e
}

func (w *weakOwners[T]) remove(owner *T) (uint32, bool) {
	p := weak.Make(owner)
	e, ok := w.entries[p]
	if !ok {
		return 0, false
	}
	e.cleanup.Stop()
	delete(w.entries, p)
	return e.slot, true
}

func (w *weakOwners[T]) len() int { return len(w.entries) }

func (w *weakOwners[T]) reclaim() []uint32 {
	w.mu.Lock()
	collected := w.collected
	w.collected = nil
	w.mu.Unlock()

	var slots []uint32
	for _, p := range collected {
		e, ok := w.entries[p]
		if !ok || p.Value() != nil {
			continue
		}
		delete(w.entries, p)
		slots = append(slots, e.slot)
	}
	return slots
}

func (w *weakOwners[T]) pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.collected)
}

func (w *weakOwners[T]) reset() {
	for _, e := range w.entries {
		e.cleanup.Stop()
	}
	clear(w.entries)

	w.mu.Lock()
	w.collected = nil
	w.mu.Unlock()
}
