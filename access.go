package annopack

import (
	"github.com/hupe1980/annopack/handle"
	"github.com/hupe1980/annopack/schema"
)

// get reads key for owner. Unregistered owners read the zero slot, which
// decodes to the key's no-entry value.
func get[T, V any](m *Manager[T], owner *T, key string, fn func(*handle.Converter, []byte, *handle.Handle) (V, error)) (V, error) {
	defer m.rlock()()

	var zero V
	if err := m.checkOpen(); err != nil {
		return zero, err
	}
	h, ok := m.handles[key]
	if !ok {
		return zero, unknownKey(key)
	}
	cur, slot, err := m.slotFor(owner)
	if err != nil {
		return zero, err
	}
	defer m.putCursor(cur)
	return fn(h.Converter(), slot, h)
}

// set writes key for owner, registering it first when auto-registration is
// on. The type is checked before an owner is registered implicitly.
func set[T, V any](m *Manager[T], owner *T, key string, t schema.Type, v V, fn func(*handle.Converter, []byte, *handle.Handle, V) error) error {
	defer m.lock()()

	if err := m.checkOpen(); err != nil {
		return err
	}
	m.expunge()

	if owner == nil {
		return ErrNilOwner
	}
	h, ok := m.handles[key]
	if !ok {
		return unknownKey(key)
	}
	c := h.Converter()
	if err := c.Check(h, t); err != nil {
		return err
	}
	if t == schema.TypeValue {
		if err := c.CheckValue(h, any(v)); err != nil {
			return err
		}
	}

	id, ok := m.owners.lookup(owner)
	if !ok {
		if !m.opts.autoRegister {
			return ErrNotRegistered
		}
		var err error
		if id, err = m.register(owner, true); err != nil {
			return err
		}
	}

	cur, slot, err := m.cursor(id)
	if err != nil {
		return err
	}
	defer m.putCursor(cur)
	return fn(c, slot, h, v)
}

// Get reads key for owner as its natural Go type: bool, int32, int64,
// float32, float64, string, or the stored reference.
func (m *Manager[T]) Get(owner *T, key string) (any, error) {
	return get(m, owner, key, (*handle.Converter).Get)
}

// GetBool reads a boolean key.
func (m *Manager[T]) GetBool(owner *T, key string) (bool, error) {
	return get(m, owner, key, (*handle.Converter).GetBool)
}

// SetBool writes a boolean key.
func (m *Manager[T]) SetBool(owner *T, key string, v bool) error {
	return set(m, owner, key, schema.TypeBoolean, v, (*handle.Converter).SetBool)
}

// GetInt reads a 32-bit integer key.
func (m *Manager[T]) GetInt(owner *T, key string) (int32, error) {
	return get(m, owner, key, (*handle.Converter).GetInt)
}

// SetInt writes a 32-bit integer key.
func (m *Manager[T]) SetInt(owner *T, key string, v int32) error {
	return set(m, owner, key, schema.TypeInteger, v, (*handle.Converter).SetInt)
}

// GetLong reads a 64-bit integer key.
func (m *Manager[T]) GetLong(owner *T, key string) (int64, error) {
	return get(m, owner, key, (*handle.Converter).GetLong)
}

// SetLong writes a 64-bit integer key.
func (m *Manager[T]) SetLong(owner *T, key string, v int64) error {
	return set(m, owner, key, schema.TypeLong, v, (*handle.Converter).SetLong)
}

// GetFloat reads a 32-bit float key.
func (m *Manager[T]) GetFloat(owner *T, key string) (float32, error) {
	return get(m, owner, key, (*handle.Converter).GetFloat)
}

// SetFloat writes a 32-bit float key.
func (m *Manager[T]) SetFloat(owner *T, key string, v float32) error {
	return set(m, owner, key, schema.TypeFloat, v, (*handle.Converter).SetFloat)
}

// GetDouble reads a 64-bit float key.
func (m *Manager[T]) GetDouble(owner *T, key string) (float64, error) {
	return get(m, owner, key, (*handle.Converter).GetDouble)
}

// SetDouble writes a 64-bit float key.
func (m *Manager[T]) SetDouble(owner *T, key string, v float64) error {
	return set(m, owner, key, schema.TypeDouble, v, (*handle.Converter).SetDouble)
}

// GetText reads a text key.
func (m *Manager[T]) GetText(owner *T, key string) (string, error) {
	return get(m, owner, key, (*handle.Converter).GetText)
}

// SetText writes a text key.
func (m *Manager[T]) SetText(owner *T, key string, v string) error {
	return set(m, owner, key, schema.TypeText, v, (*handle.Converter).SetText)
}

// GetValue reads a reference key.
func (m *Manager[T]) GetValue(owner *T, key string) (any, error) {
	return get(m, owner, key, (*handle.Converter).GetValue)
}

// SetValue writes a reference key. v must be comparable.
func (m *Manager[T]) SetValue(owner *T, key string, v any) error {
	return set(m, owner, key, schema.TypeValue, v, (*handle.Converter).SetValue)
}
