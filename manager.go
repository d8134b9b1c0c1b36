package annopack

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/annopack/dict"
	"github.com/hupe1980/annopack/handle"
	"github.com/hupe1980/annopack/internal/arena"
	"github.com/hupe1980/annopack/internal/resource"
	"github.com/hupe1980/annopack/schema"
)

// ErrMemoryLimitExceeded is returned when a new chunk would exceed the
// limit set by WithMemoryLimit.
var ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded

// Manager stores packed annotations for owners of type *T. Each registered
// owner holds one fixed-width slot; each registered key owns a region of
// every slot.
//
// Without WithLocking a Manager supports one writer at a time; readers may
// run concurrently with each other but not with a writer. Writers are
// Register, Unregister, the Set and Clear families, schema changes, Expunge,
// Reset and Close.
type Manager[T any] struct {
	mu      sync.RWMutex
	locking bool

	opts    options
	ctx     context.Context
	logger  *Logger
	metrics MetricsCollector

	rc      *resource.Controller
	alloc   *arena.Allocator
	cursors sync.Pool
	planner *handle.Planner
	zero    []byte // slot-sized, read for unregistered owners

	// Without WithDictionary every substituted key owns a dictionary, so
	// keys never spend each other's surrogate ids. An injected dictionary is
	// shared through one converter per width.
	shared *dict.Dictionary[any]
	substs map[int]*handle.Converter
	dicts  map[*handle.Converter]*dict.Dictionary[any]

	handles   map[string]*handle.Handle
	order     []*handle.Handle
	nextIndex int

	owners ownerTable[T]
	closed bool
}

// New creates a Manager with the keys declared by s.
func New[T any](s schema.Schema, optFns ...Option) (*Manager[T], error) {
	o := applyOptions(optFns)

	if o.surrogateWidth < 1 || o.surrogateWidth > schema.MaxSurrogateWidth {
		return nil, fmt.Errorf("%w: surrogate width %d (want 1..%d)", ErrInvalidConfig, o.surrogateWidth, schema.MaxSurrogateWidth)
	}
	if o.memoryLimit < 0 {
		return nil, fmt.Errorf("%w: memory limit %d", ErrInvalidConfig, o.memoryLimit)
	}
	if err := s.Validate(); err != nil {
		return nil, translateError(err)
	}

	m := &Manager[T]{
		locking: o.locking,
		opts:    o,
		ctx:     context.Background(),
		logger:  o.logger,
		metrics: o.metricsCollector,
		planner: handle.NewPlanner(o.bitPacking),
		shared:  o.dictionary,
		substs:  make(map[int]*handle.Converter),
		dicts:   make(map[*handle.Converter]*dict.Dictionary[any]),
		handles: make(map[string]*handle.Handle, len(s)),
	}

	if o.weakOwners {
		m.owners = newWeakOwners[T]()
	} else {
		m.owners = newStrongOwners[T]()
	}

	added, err := m.place(s)
	if err != nil {
		return nil, translateError(err)
	}
	m.commit(added)

	m.rc = resource.NewController(resource.Config{MemoryLimitBytes: o.memoryLimit})

	alloc, err := arena.New(max(m.planner.Size(), 1), o.chunkPower, o.initialCapacity,
		arena.WithSource(o.source.arenaSource()),
		arena.WithMemoryController(m.rc),
		arena.WithChunkHook(m.metrics.RecordChunkAlloc),
	)
	if err != nil {
		m.releaseDicts()
		return nil, translateError(err)
	}
	m.alloc = alloc
	m.zero = make([]byte, alloc.SlotSize())
	m.cursors.New = func() any { return m.alloc.NewCursor() }

	m.logger.DebugContext(m.ctx, "manager created",
		"handles", len(m.order),
		"slot_size", alloc.SlotSize(),
		"source", o.source,
		"weak_owners", o.weakOwners,
		"dynamic_schema", o.dynamicSchema,
	)
	return m, nil
}

func noop() {}

// lock acquires the writer lock when locking is enabled and returns the
// matching unlock.
func (m *Manager[T]) lock() func() {
	if !m.locking {
		return noop
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *Manager[T]) rlock() func() {
	if !m.locking {
		return noop
	}
	m.mu.RLock()
	return m.mu.RUnlock
}

func (m *Manager[T]) checkOpen() error {
	if m.closed {
		return ErrClosed
	}
	return nil
}

// dropDict releases the dictionary owned by c, if any.
func (m *Manager[T]) dropDict(c *handle.Converter) {
	if d, ok := m.dicts[c]; ok {
		d.Release()
		delete(m.dicts, c)
	}
}

func (m *Manager[T]) releaseDicts() {
	for c := range m.dicts {
		m.dropDict(c)
	}
}

func (m *Manager[T]) dictionarySize() int {
	if m.shared != nil {
		return m.shared.Len()
	}
	n := 0
	for _, d := range m.dicts {
		n += d.Len()
	}
	return n
}

// cursor binds a pooled cursor to slot id. Callers return it with putCursor.
func (m *Manager[T]) cursor(id uint32) (*arena.Cursor, []byte, error) {
	cur := m.cursors.Get().(*arena.Cursor) //nolint:errcheck // pool only holds cursors
	if err := cur.MoveTo(id); err != nil {
		m.cursors.Put(cur)
		return nil, nil, translateError(err)
	}
	b, err := cur.Bytes()
	if err != nil {
		m.putCursor(cur)
		return nil, nil, err
	}
	return cur, b, nil
}

func (m *Manager[T]) putCursor(cur *arena.Cursor) {
	if cur == nil {
		return
	}
	cur.Unbind()
	m.cursors.Put(cur)
}

// slotFor returns the owner's slot bytes, or the shared zero slot when the
// owner is not registered. A non-nil cursor must be returned with putCursor.
func (m *Manager[T]) slotFor(owner *T) (*arena.Cursor, []byte, error) {
	if owner == nil {
		return nil, nil, ErrNilOwner
	}
	id, ok := m.owners.lookup(owner)
	if !ok {
		return nil, m.zero, nil
	}
	return m.cursor(id)
}

// expunge recycles the slots of collected weak owners. Callers hold the
// writer lock.
func (m *Manager[T]) expunge() int {
	slots := m.owners.reclaim()
	if len(slots) == 0 {
		return 0
	}
	for _, id := range slots {
		// Ids come from the table, so Free cannot fail on a bad slot.
		_ = m.alloc.Free(id)
	}
	m.logger.LogReclaim(m.ctx, len(slots))
	m.metrics.RecordReclaim(len(slots))
	return len(slots)
}

// Expunge recycles the slots of weak owners that have been garbage
// collected and returns how many were reclaimed. Writer operations call it
// implicitly; it is a no-op without WithWeakOwners.
func (m *Manager[T]) Expunge() int {
	defer m.lock()()
	if m.closed {
		return 0
	}
	return m.expunge()
}

// Stats describes a Manager's footprint.
type Stats struct {
	Owners         int
	PendingReclaim int
	Handles        int
	SlotSize       int
	Source         string
	Chunks         int
	Capacity       uint64
	FreeSlots      uint64
	BytesReserved  int64
	PeakBytes      int64
	DictionarySize int // ids held by the manager's dictionaries
}

// Stats returns a snapshot of the manager's footprint.
func (m *Manager[T]) Stats() Stats {
	defer m.rlock()()

	as := m.alloc.Stats()
	return Stats{
		Owners:         m.owners.len(),
		PendingReclaim: m.owners.pending(),
		Handles:        len(m.order),
		SlotSize:       m.planner.Size(),
		Source:         as.Source,
		Chunks:         as.Chunks,
		Capacity:       as.Capacity,
		FreeSlots:      as.Free,
		BytesReserved:  as.BytesReserved,
		PeakBytes:      m.rc.PeakMemoryUsage(),
		DictionarySize: m.dictionarySize(),
	}
}

// Reset unregisters every owner and zeroes all slots. The schema is kept and
// allocated memory stays reserved.
func (m *Manager[T]) Reset() error {
	defer m.lock()()
	if err := m.checkOpen(); err != nil {
		return err
	}
	n := m.owners.len()
	m.owners.reset()
	m.alloc.Clear()
	m.logger.InfoContext(m.ctx, "manager reset", "owners", n)
	return nil
}

// Close releases slot memory and the dictionaries the manager owns. A
// dictionary passed with WithDictionary is left to its owner. Close is
// idempotent.
func (m *Manager[T]) Close() error {
	defer m.lock()()
	if m.closed {
		return nil
	}
	m.closed = true
	m.owners.reset()
	m.releaseDicts()
	return translateError(m.alloc.Close())
}
