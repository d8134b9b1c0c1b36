package annopack

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// prommetrics package provides a Prometheus implementation.
//
// Typed get/set calls are not recorded.
type MetricsCollector interface {
	// RecordRegister is called after each owner registration.
	// implicit is true when the owner was auto-registered by a write.
	RecordRegister(implicit bool, err error)

	// RecordUnregister is called after each explicit owner unregistration.
	RecordUnregister(err error)

	// RecordReclaim is called when collected weak owners are expunged.
	RecordReclaim(count int)

	// RecordSchemaChange is called after handles are registered or
	// unregistered. slotSize is the resulting slot width in bytes.
	RecordSchemaChange(added, removed, slotSize int, duration time.Duration, err error)

	// RecordChunkAlloc is called whenever the allocator maps a new chunk.
	RecordChunkAlloc(slots int, bytes int64)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRegister(bool, error)                             {}
func (NoopMetricsCollector) RecordUnregister(error)                                 {}
func (NoopMetricsCollector) RecordReclaim(int)                                      {}
func (NoopMetricsCollector) RecordSchemaChange(int, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordChunkAlloc(int, int64)                            {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	RegisterCount      atomic.Int64
	ImplicitRegisters  atomic.Int64
	RegisterErrors     atomic.Int64
	UnregisterCount    atomic.Int64
	UnregisterErrors   atomic.Int64
	ReclaimCount       atomic.Int64
	SchemaChangeCount  atomic.Int64
	SchemaChangeErrors atomic.Int64
	SchemaChangeNanos  atomic.Int64
	HandlesAdded       atomic.Int64
	HandlesRemoved     atomic.Int64
	SlotSize           atomic.Int64
	ChunkCount         atomic.Int64
	ChunkBytes         atomic.Int64
}

// RecordRegister implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRegister(implicit bool, err error) {
	if err != nil {
		b.RegisterErrors.Add(1)
		return
	}
	b.RegisterCount.Add(1)
	if implicit {
		b.ImplicitRegisters.Add(1)
	}
}

// RecordUnregister implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUnregister(err error) {
	if err != nil {
		b.UnregisterErrors.Add(1)
		return
	}
	b.UnregisterCount.Add(1)
}

// RecordReclaim implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReclaim(count int) {
	b.ReclaimCount.Add(int64(count))
}

// RecordSchemaChange implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSchemaChange(added, removed, slotSize int, duration time.Duration, err error) {
	b.SchemaChangeCount.Add(1)
	b.SchemaChangeNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SchemaChangeErrors.Add(1)
		return
	}
	b.HandlesAdded.Add(int64(added))
	b.HandlesRemoved.Add(int64(removed))
	b.SlotSize.Store(int64(slotSize))
}

// RecordChunkAlloc implements MetricsCollector.
func (b *BasicMetricsCollector) RecordChunkAlloc(_ int, bytes int64) {
	b.ChunkCount.Add(1)
	b.ChunkBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		RegisterCount:        b.RegisterCount.Load(),
		ImplicitRegisters:    b.ImplicitRegisters.Load(),
		RegisterErrors:       b.RegisterErrors.Load(),
		UnregisterCount:      b.UnregisterCount.Load(),
		UnregisterErrors:     b.UnregisterErrors.Load(),
		ReclaimCount:         b.ReclaimCount.Load(),
		SchemaChangeCount:    b.SchemaChangeCount.Load(),
		SchemaChangeErrors:   b.SchemaChangeErrors.Load(),
		SchemaChangeAvgNanos: b.getAvgSchemaChangeNanos(),
		HandlesAdded:         b.HandlesAdded.Load(),
		HandlesRemoved:       b.HandlesRemoved.Load(),
		SlotSize:             b.SlotSize.Load(),
		ChunkCount:           b.ChunkCount.Load(),
		ChunkBytes:           b.ChunkBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSchemaChangeNanos() int64 {
	count := b.SchemaChangeCount.Load()
	if count == 0 {
		return 0
	}
	return b.SchemaChangeNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RegisterCount        int64
	ImplicitRegisters    int64
	RegisterErrors       int64
	UnregisterCount      int64
	UnregisterErrors     int64
	ReclaimCount         int64
	SchemaChangeCount    int64
	SchemaChangeErrors   int64
	SchemaChangeAvgNanos int64
	HandlesAdded         int64
	HandlesRemoved       int64
	SlotSize             int64
	ChunkCount           int64
	ChunkBytes           int64
}
