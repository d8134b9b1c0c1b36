package annopack

import (
	"log/slog"

	"github.com/hupe1980/annopack/codec"
	"github.com/hupe1980/annopack/dict"
	"github.com/hupe1980/annopack/internal/arena"
)

// UnspecifiedCapacity leaves the initial capacity to the allocator
// (one chunk).
const UnspecifiedCapacity = arena.UnspecifiedCapacity

// DefaultSurrogateWidth is the surrogate width of text and value keys that
// do not declare one.
const DefaultSurrogateWidth = 4

// StorageSource selects where slot memory comes from.
type StorageSource int

const (
	// SourceHeap backs slots with Go-heap byte slices.
	SourceHeap StorageSource = iota
	// SourceOffHeap backs slots with anonymous memory mappings outside the
	// Go heap.
	SourceOffHeap
)

func (s StorageSource) String() string {
	switch s {
	case SourceHeap:
		return "heap"
	case SourceOffHeap:
		return "offheap"
	default:
		return "unknown"
	}
}

func (s StorageSource) arenaSource() arena.Source {
	if s == SourceOffHeap {
		return arena.OffHeapSource{}
	}
	return arena.HeapSource{}
}

type options struct {
	bitPacking       bool
	dynamicSchema    bool
	initialCapacity  int
	chunkPower       int
	autoRegister     bool
	weakOwners       bool
	source           StorageSource
	surrogateWidth   int
	dictionary       *dict.Dictionary[any]
	memoryLimit      int64
	locking          bool
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Manager construction.
type Option func(*options)

// WithBitPacking stores boolean keys as single bits, up to eight per byte.
func WithBitPacking(enabled bool) Option {
	return func(o *options) {
		o.bitPacking = enabled
	}
}

// WithDynamicSchema permits RegisterHandles and UnregisterHandles after
// construction. Without it the key set is frozen by New.
func WithDynamicSchema(enabled bool) Option {
	return func(o *options) {
		o.dynamicSchema = enabled
	}
}

// WithInitialCapacity pre-sizes the allocator for n owners.
// Pass UnspecifiedCapacity for the default; any other n <= 0 makes New fail
// with ErrInvalidConfig.
func WithInitialCapacity(n int) Option {
	return func(o *options) {
		o.initialCapacity = n
	}
}

// WithChunkPower sets the allocator growth step to 2^power slots.
func WithChunkPower(power int) Option {
	return func(o *options) {
		o.chunkPower = power
	}
}

// WithAutoRegister registers owners implicitly on their first write.
// Without it, writes to unregistered owners fail with ErrNotRegistered.
func WithAutoRegister(enabled bool) Option {
	return func(o *options) {
		o.autoRegister = enabled
	}
}

// WithWeakOwners holds owners weakly. An owner that becomes unreachable is
// unregistered automatically; its slot is recycled by the next writer
// operation or an explicit Expunge.
func WithWeakOwners(enabled bool) Option {
	return func(o *options) {
		o.weakOwners = enabled
	}
}

// WithStorageSource selects heap or off-heap slot memory.
func WithStorageSource(s StorageSource) Option {
	return func(o *options) {
		o.source = s
	}
}

// WithSurrogateWidth sets the default surrogate width (1..4 bytes) for text
// and value keys that do not declare one.
func WithSurrogateWidth(width int) Option {
	return func(o *options) {
		o.surrogateWidth = width
	}
}

// WithDictionary substitutes text and value keys through d instead of a
// dictionary owned by the manager. The caller keeps ownership: Close does
// not release d.
func WithDictionary(d *dict.Dictionary[any]) Option {
	return func(o *options) {
		o.dictionary = d
	}
}

// WithMemoryLimit caps the bytes the allocator may reserve.
// Zero means unlimited. Widening slots is charged only for the added bytes,
// though the old chunks stay mapped until the copy into the wider ones is
// done.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithLocking guards every operation with a read-write mutex, so writers may
// run concurrently with each other and with readers.
func WithLocking(enabled bool) Option {
	return func(o *options) {
		o.locking = enabled
	}
}

// WithCodec configures the codec used by Dump.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &annopack.BasicMetricsCollector{}
//	m, _ := annopack.New[Token](s, annopack.WithMetricsCollector(metrics))
//	// ... use m ...
//	stats := metrics.GetStats()
//	fmt.Printf("Owners: %d, Chunks: %d\n", stats.RegisterCount, stats.ChunkCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := annopack.NewJSONLogger(slog.LevelInfo)
//	m, _ := annopack.New[Token](s, annopack.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		initialCapacity:  UnspecifiedCapacity,
		chunkPower:       arena.DefaultChunkPower,
		surrogateWidth:   DefaultSurrogateWidth,
		source:           SourceHeap,
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
