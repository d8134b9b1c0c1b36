// Package resource implements a memory budget shared by slot allocators.
//
// Every chunk an allocator maps is charged against the budget before the
// memory is touched. Acquisition is non-blocking and fail-fast:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 256 << 20,
//	})
//
//	if err := rc.AcquireMemory(chunkBytes); err != nil {
//	    // ErrMemoryLimitExceeded - the caller surfaces it, nothing is retried
//	}
//	defer rc.ReleaseMemory(chunkBytes)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
// This allows optional budgeting without nil checks everywhere.
package resource
