package annopack

import (
	"fmt"
	"slices"
	"time"

	"github.com/hupe1980/annopack/dict"
	"github.com/hupe1980/annopack/handle"
	"github.com/hupe1980/annopack/schema"
)

func (m *Manager[T]) converterFor(d schema.Declaration) (*handle.Converter, error) {
	var subst *handle.Converter
	if d.Substituted() {
		width := d.Width
		if width == 0 {
			width = m.opts.surrogateWidth
		}
		var err error
		if subst, err = m.substituteFor(width); err != nil {
			return nil, err
		}
	}
	c, err := handle.ForType(d.Type, m.planner.PackBits(), subst)
	if err != nil && subst != nil {
		m.dropDict(subst)
	}
	return c, err
}

func (m *Manager[T]) substituteFor(width int) (*handle.Converter, error) {
	if m.shared != nil {
		if c := m.substs[width]; c != nil {
			return c, nil
		}
		c, err := handle.DictionarySubstitute(width, m.shared)
		if err != nil {
			return nil, err
		}
		m.substs[width] = c
		return c, nil
	}

	d := dict.New[any]()
	c, err := handle.DictionarySubstitute(width, d)
	if err != nil {
		d.Release()
		return nil, err
	}
	m.dicts[c] = d
	return c, nil
}

// place lays out decls without installing them. On error every region it
// reserved is released again.
func (m *Manager[T]) place(decls []schema.Declaration) ([]*handle.Handle, error) {
	placed := make([]*handle.Handle, 0, len(decls))
	rollback := func() { m.unplace(placed) }

	seen := make(map[string]struct{}, len(decls))
	for i, d := range decls {
		if err := d.Validate(); err != nil {
			rollback()
			return nil, err
		}
		if _, dup := m.handles[d.Key]; dup {
			rollback()
			return nil, duplicateKey(d.Key)
		}
		if _, dup := seen[d.Key]; dup {
			rollback()
			return nil, duplicateKey(d.Key)
		}
		seen[d.Key] = struct{}{}

		c, err := m.converterFor(d)
		if err != nil {
			rollback()
			return nil, err
		}
		p := m.planner.Place(c)
		h, err := handle.New(d, p, c, m.nextIndex+i)
		if err != nil {
			_ = m.planner.Release(p, c)
			m.dropDict(c)
			rollback()
			return nil, err
		}
		placed = append(placed, h)
	}
	return placed, nil
}

// unplace undoes place for handles that were never committed.
func (m *Manager[T]) unplace(hs []*handle.Handle) {
	for _, h := range hs {
		_ = m.planner.Release(h.Placement(), h.Converter())
		m.dropDict(h.Converter())
	}
}

func (m *Manager[T]) commit(hs []*handle.Handle) {
	for _, h := range hs {
		m.handles[h.Key()] = h
		m.order = append(m.order, h)
	}
	m.nextIndex += len(hs)
}

func keysOf(hs []*handle.Handle) []string {
	keys := make([]string, len(hs))
	for i, h := range hs {
		keys[i] = h.Key()
	}
	return keys
}

// RegisterHandles installs new keys and returns their handles in the order
// given. Slots grow when the new keys do not fit released regions or spare
// bits; every existing owner reads the no-entry value for the new keys.
//
// It fails with ErrStaticSchema unless the manager was built with
// WithDynamicSchema, and with ErrDuplicateKey for keys already installed.
// On failure the schema is unchanged.
func (m *Manager[T]) RegisterHandles(decls ...schema.Declaration) ([]*handle.Handle, error) {
	defer m.lock()()
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	if !m.opts.dynamicSchema {
		return nil, ErrStaticSchema
	}
	m.expunge()

	start := time.Now()
	hs, err := m.registerHandles(decls)
	m.logger.LogSchemaChange(m.ctx, keysOf(hs), nil, m.planner.Size(), err)
	m.metrics.RecordSchemaChange(len(hs), 0, m.planner.Size(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return slices.Clone(hs), nil
}

func (m *Manager[T]) registerHandles(decls []schema.Declaration) ([]*handle.Handle, error) {
	hs, err := m.place(decls)
	if err != nil {
		return nil, translateError(err)
	}

	if size := m.planner.Size(); size > m.alloc.SlotSize() {
		if err := m.alloc.Resize(size); err != nil {
			m.unplace(hs)
			return nil, translateError(err)
		}
		m.zero = make([]byte, size)
	}

	m.commit(hs)
	return hs, nil
}

// UnregisterHandles removes keys. Their bytes are zeroed in every live slot
// before the regions become reusable, and the removed handles are retired:
// any later access through them fails with handle.ErrRetired.
//
// It fails with ErrStaticSchema unless the manager was built with
// WithDynamicSchema, and with ErrUnknownKey when any key is not installed,
// in which case nothing is removed.
func (m *Manager[T]) UnregisterHandles(keys ...string) error {
	defer m.lock()()
	if err := m.checkOpen(); err != nil {
		return err
	}
	if !m.opts.dynamicSchema {
		return ErrStaticSchema
	}
	m.expunge()

	start := time.Now()
	removed, err := m.unregisterHandles(keys)
	m.logger.LogSchemaChange(m.ctx, nil, keysOf(removed), m.planner.Size(), err)
	m.metrics.RecordSchemaChange(0, len(removed), m.planner.Size(), time.Since(start), err)
	return err
}

func (m *Manager[T]) unregisterHandles(keys []string) ([]*handle.Handle, error) {
	hs, err := m.lookupAll(keys)
	if err != nil {
		return nil, err
	}
	seen := make(map[*handle.Handle]struct{}, len(hs))
	hs = slices.DeleteFunc(hs, func(h *handle.Handle) bool {
		_, dup := seen[h]
		seen[h] = struct{}{}
		return dup
	})

	if err := m.clearSlots(hs); err != nil {
		return nil, err
	}
	for _, h := range hs {
		if err := m.planner.Release(h.Placement(), h.Converter()); err != nil {
			return nil, err
		}
		delete(m.handles, h.Key())
		h.Retire()
		m.dropDict(h.Converter())
	}
	m.order = slices.DeleteFunc(m.order, func(h *handle.Handle) bool { return h.Retired() })
	return hs, nil
}

// clearSlots zeroes the regions of hs in every live slot.
func (m *Manager[T]) clearSlots(hs []*handle.Handle) error {
	var err error
	m.alloc.ForEachLive(func(id uint32) bool {
		slot := m.alloc.Bytes(id)
		for _, h := range hs {
			if err = h.Converter().Clear(slot, h); err != nil {
				return false
			}
		}
		return true
	})
	return err
}

// Lookup returns the handle for key.
func (m *Manager[T]) Lookup(key string) (*handle.Handle, error) {
	defer m.rlock()()
	h, ok := m.handles[key]
	if !ok {
		return nil, unknownKey(key)
	}
	return h, nil
}

// LookupAll returns the handles for keys in order. It fails on the first
// unknown key.
func (m *Manager[T]) LookupAll(keys ...string) ([]*handle.Handle, error) {
	defer m.rlock()()
	return m.lookupAll(keys)
}

func (m *Manager[T]) lookupAll(keys []string) ([]*handle.Handle, error) {
	hs := make([]*handle.Handle, len(keys))
	for i, k := range keys {
		h, ok := m.handles[k]
		if !ok {
			return nil, unknownKey(k)
		}
		hs[i] = h
	}
	return hs, nil
}

// Handles returns the installed handles in registration order.
func (m *Manager[T]) Handles() []*handle.Handle {
	defer m.rlock()()
	return slices.Clone(m.order)
}

// Schema returns the declarations of the installed keys in registration order.
func (m *Manager[T]) Schema() schema.Schema {
	defer m.rlock()()
	s := make(schema.Schema, len(m.order))
	for i, h := range m.order {
		d := schema.Declaration{Key: h.Key(), Type: h.Type(), NoEntry: h.NoEntry().Any()}
		if c := h.Converter(); c.Kind() == handle.KindSubstitute {
			d.Width = c.Width()
		}
		s[i] = d
	}
	return s
}

func (m *Manager[T]) String() string {
	defer m.rlock()()
	return fmt.Sprintf("Manager{handles: %d, owners: %d, %s}", len(m.order), m.owners.len(), m.alloc)
}
