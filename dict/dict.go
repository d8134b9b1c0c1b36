package dict

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

var (
	// ErrReleased is returned by every operation after Release.
	ErrReleased = errors.New("dict: dictionary released")

	// ErrUnknownID is returned when decoding an id that was never assigned.
	ErrUnknownID = errors.New("dict: unknown id")

	// ErrUnhashable is returned when a value cannot be used as a map key,
	// such as a struct whose interface field holds a slice.
	ErrUnhashable = errors.New("dict: unhashable value")

	// ErrLimit is returned by EncodeWithin when a new value would exceed the
	// requested id range.
	ErrLimit = errors.New("dict: id limit reached")
)

// Dictionary assigns stable dense ids to comparable values.
type Dictionary[T comparable] struct {
	mu       sync.RWMutex
	ids      map[T]int
	values   []T
	released bool
}

// Option configures a Dictionary.
type Option func(*options)

type options struct {
	capacity int
}

// WithCapacity pre-sizes the dictionary for n distinct values.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// New creates an empty dictionary.
func New[T comparable](opts ...Option) *Dictionary[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Dictionary[T]{
		ids:    make(map[T]int, o.capacity),
		values: make([]T, 0, o.capacity),
	}
}

// With creates a dictionary, passes it to fn, and releases it when fn
// returns, even if fn panics.
func With[T comparable](fn func(*Dictionary[T]) error, opts ...Option) error {
	d := New[T](opts...)
	defer d.Release()
	return fn(d)
}

// Encode returns the id of v, assigning the next dense id on first encounter.
func (d *Dictionary[T]) Encode(v T) (int, error) {
	return d.EncodeWithin(v, math.MaxInt)
}

// EncodeWithin is Encode restricted to ids below limit. A new value that
// would receive an id >= limit fails with ErrLimit and is not inserted;
// values that already hold an id are returned regardless of limit.
func (d *Dictionary[T]) EncodeWithin(v T, limit int) (id int, err error) {
	// Comparable interface types may still hold unhashable values.
	defer func() {
		if r := recover(); r != nil {
			id, err = 0, fmt.Errorf("%w: %v", ErrUnhashable, r)
		}
	}()

	id, ok, err := d.find(v)
	if err != nil || ok {
		return id, err
	}
	return d.insert(v, limit)
}

func (d *Dictionary[T]) find(v T) (int, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.released {
		return 0, false, ErrReleased
	}
	id, ok := d.ids[v]
	return id, ok, nil
}

func (d *Dictionary[T]) insert(v T, limit int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return 0, ErrReleased
	}
	// Another writer may have assigned it between the locks.
	if id, ok := d.ids[v]; ok {
		return id, nil
	}
	id := len(d.values)
	if id >= limit {
		return 0, fmt.Errorf("%w: id %d, limit %d", ErrLimit, id, limit)
	}
	d.ids[v] = id
	d.values = append(d.values, v)
	return id, nil
}

// Lookup returns the id of v without assigning one. Unhashable values are
// never found.
func (d *Dictionary[T]) Lookup(v T) (id int, ok bool) {
	defer func() {
		if recover() != nil {
			id, ok = 0, false
		}
	}()
	id, ok, err := d.find(v)
	if err != nil {
		return 0, false
	}
	return id, ok
}

// Decode returns the value assigned to id.
func (d *Dictionary[T]) Decode(id int) (T, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var zero T
	if d.released {
		return zero, ErrReleased
	}
	if id < 0 || id >= len(d.values) {
		return zero, fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	return d.values[id], nil
}

// Len returns the number of distinct values encoded so far.
func (d *Dictionary[T]) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.values)
}

// Values returns a copy of the values in id order.
func (d *Dictionary[T]) Values() []T {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]T, len(d.values))
	copy(out, d.values)
	return out
}

// Released reports whether Release has been called.
func (d *Dictionary[T]) Released() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.released
}

// Release drops the backing structures. It is idempotent.
func (d *Dictionary[T]) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released = true
	d.ids = nil
	d.values = nil
}
