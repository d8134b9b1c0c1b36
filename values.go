package annopack

import (
	"fmt"

	"github.com/hupe1980/annopack/handle"
)

func (m *Manager[T]) handlesFor(keys []string) ([]*handle.Handle, error) {
	if len(keys) == 0 {
		return m.order, nil
	}
	return m.lookupAll(keys)
}

// ClearOwner resets keys for owner to their zero representation, which
// reads back as the no-entry value. With no keys every key is cleared.
// Clearing an unregistered owner is a no-op.
func (m *Manager[T]) ClearOwner(owner *T, keys ...string) error {
	defer m.lock()()
	if err := m.checkOpen(); err != nil {
		return err
	}
	m.expunge()

	hs, err := m.handlesFor(keys)
	if err != nil {
		return err
	}
	if owner == nil {
		return ErrNilOwner
	}
	id, ok := m.owners.lookup(owner)
	if !ok {
		return nil
	}

	cur, slot, err := m.cursor(id)
	if err != nil {
		return err
	}
	defer m.putCursor(cur)
	for _, h := range hs {
		if err := h.Converter().Clear(slot, h); err != nil {
			return err
		}
	}
	return nil
}

// ClearAll resets keys for every registered owner. With no keys every key
// is cleared.
func (m *Manager[T]) ClearAll(keys ...string) error {
	defer m.lock()()
	if err := m.checkOpen(); err != nil {
		return err
	}
	m.expunge()

	hs, err := m.handlesFor(keys)
	if err != nil {
		return err
	}
	return m.clearSlots(hs)
}

func hasValues(slot []byte, hs []*handle.Handle) bool {
	for _, h := range hs {
		if def, err := h.Converter().IsDefault(slot, h); err == nil && !def {
			return true
		}
	}
	return false
}

// HasValues reports whether any key of owner differs from its no-entry value.
func (m *Manager[T]) HasValues(owner *T) bool {
	defer m.rlock()()
	if m.closed || owner == nil {
		return false
	}
	id, ok := m.owners.lookup(owner)
	if !ok {
		return false
	}
	return hasValues(m.alloc.Bytes(id), m.order)
}

// HasAnyValues reports whether any registered owner holds a value that
// differs from its key's no-entry value.
func (m *Manager[T]) HasAnyValues() bool {
	defer m.rlock()()
	if m.closed {
		return false
	}
	found := false
	m.alloc.ForEachLive(func(id uint32) bool {
		found = hasValues(m.alloc.Bytes(id), m.order)
		return !found
	})
	return found
}

// CollectHandles calls sink, in registration order, for each handle whose
// value for owner differs from its no-entry value, until sink returns false.
func (m *Manager[T]) CollectHandles(owner *T, sink func(h *handle.Handle) bool) {
	defer m.rlock()()
	if m.closed || owner == nil {
		return
	}
	id, ok := m.owners.lookup(owner)
	if !ok {
		return
	}
	slot := m.alloc.Bytes(id)
	for _, h := range m.order {
		def, err := h.Converter().IsDefault(slot, h)
		if err != nil || def {
			continue
		}
		if !sink(h) {
			return
		}
	}
}

// Dump encodes owner's non-default values as a JSON object keyed by
// annotation key, using the configured codec. Unregistered owners dump as
// an empty object.
func (m *Manager[T]) Dump(owner *T) ([]byte, error) {
	defer m.rlock()()
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, ErrNilOwner
	}

	out := make(map[string]any)
	if id, ok := m.owners.lookup(owner); ok {
		slot := m.alloc.Bytes(id)
		for _, h := range m.order {
			c := h.Converter()
			def, err := c.IsDefault(slot, h)
			if err != nil {
				return nil, err
			}
			if def {
				continue
			}
			v, err := c.Get(slot, h)
			if err != nil {
				return nil, err
			}
			out[h.Key()] = v
		}
	}

	data, err := m.opts.codec.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("annopack: dump with %s codec: %w", m.opts.codec.Name(), err)
	}
	return data, nil
}
