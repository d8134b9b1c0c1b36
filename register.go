package annopack

// Register allocates a slot for owner. Every key reads its no-entry value
// until written. It fails with ErrAlreadyRegistered for registered owners.
func (m *Manager[T]) Register(owner *T) error {
	defer m.lock()()
	if err := m.checkOpen(); err != nil {
		return err
	}
	m.expunge()

	if owner == nil {
		return ErrNilOwner
	}
	if _, ok := m.owners.lookup(owner); ok {
		m.metrics.RecordRegister(false, ErrAlreadyRegistered)
		return ErrAlreadyRegistered
	}
	_, err := m.register(owner, false)
	return err
}

func (m *Manager[T]) register(owner *T, implicit bool) (uint32, error) {
	id, err := m.alloc.Alloc()
	err = translateError(err)
	m.logger.LogRegister(m.ctx, id, implicit, err)
	m.metrics.RecordRegister(implicit, err)
	if err != nil {
		return 0, err
	}
	m.owners.insert(owner, id)
	return id, nil
}

// Unregister releases owner's slot. Afterwards every key reads its no-entry
// value for owner. It fails with ErrNotRegistered for unknown owners.
func (m *Manager[T]) Unregister(owner *T) error {
	defer m.lock()()
	if err := m.checkOpen(); err != nil {
		return err
	}
	m.expunge()

	if owner == nil {
		return ErrNilOwner
	}
	id, ok := m.owners.remove(owner)
	if !ok {
		m.metrics.RecordUnregister(ErrNotRegistered)
		return ErrNotRegistered
	}
	err := translateError(m.alloc.Free(id))
	m.logger.LogUnregister(m.ctx, id, err)
	m.metrics.RecordUnregister(err)
	return err
}

// IsRegistered reports whether owner holds a slot.
func (m *Manager[T]) IsRegistered(owner *T) bool {
	defer m.rlock()()
	if owner == nil || m.closed {
		return false
	}
	_, ok := m.owners.lookup(owner)
	return ok
}

// Len returns the number of registered owners. With WithWeakOwners it
// includes collected owners that have not been expunged yet.
func (m *Manager[T]) Len() int {
	defer m.rlock()()
	return m.owners.len()
}
