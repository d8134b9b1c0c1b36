package arena

import "github.com/hupe1980/annopack/internal/mmap"

// Source maps the zeroed backing memory of a chunk.
type Source interface {
	// Map returns size zeroed bytes and a function releasing them.
	Map(size int) ([]byte, func() error, error)
	// Name identifies the source in stats and logs.
	Name() string
}

// HeapSource allocates chunks on the Go heap.
type HeapSource struct{}

// Map implements Source.
func (HeapSource) Map(size int) ([]byte, func() error, error) {
	return make([]byte, size), func() error { return nil }, nil
}

// Name implements Source.
func (HeapSource) Name() string { return "heap" }

// OffHeapSource allocates chunks from anonymous memory mappings, outside the
// garbage collector's view.
type OffHeapSource struct{}

// Map implements Source.
func (OffHeapSource) Map(size int) ([]byte, func() error, error) {
	m, err := mmap.MapAnon(size)
	if err != nil {
		return nil, nil, err
	}
	return m.Bytes(), m.Close, nil
}

// Name implements Source.
func (OffHeapSource) Name() string { return "offheap" }
