package handle

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/hupe1980/annopack/schema"
)

// Placement locates a handle's region inside a slot.
type Placement struct {
	Offset int
	Bit    int
}

// Handle binds one annotation key to its place in a slot.
type Handle struct {
	key       string
	typ       schema.Type
	offset    int
	bit       int
	converter *Converter
	noEntry   schema.Value
	index     int

	// Derived from noEntry once, used by every access.
	mask    uint64
	noBool  bool
	noRef   any
	retired atomic.Bool
}

// New creates a handle for decl at placement p using c. The converter must
// support the declared type.
func New(decl schema.Declaration, p Placement, c *Converter, index int) (*Handle, error) {
	if err := decl.Validate(); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: nil converter for key %q", ErrInvalidConverter, decl.Key)
	}
	if !c.Supports(decl.Type) {
		return nil, &UnsupportedTypeError{Key: decl.Key, Kind: c.kind, Requested: decl.Type, Supported: c.supported}
	}
	if p.Offset < 0 {
		return nil, fmt.Errorf("%w: negative offset %d for key %q", ErrInvalidConverter, p.Offset, decl.Key)
	}
	if p.Bit < 0 || p.Bit > 7 || (p.Bit != 0 && c.kind != KindBitBool) {
		return nil, fmt.Errorf("%w: bit %d invalid for %s key %q", ErrInvalidConverter, p.Bit, c.kind, decl.Key)
	}

	def, err := decl.Default()
	if err != nil {
		return nil, err
	}

	h := &Handle{
		key:       decl.Key,
		typ:       decl.Type,
		offset:    p.Offset,
		bit:       p.Bit,
		converter: c,
		noEntry:   def,
		index:     index,
	}

	switch c.kind {
	case KindInt32:
		h.mask = uint64(uint32(int32(def.I64))) //nolint:gosec // int32 range validated by schema
	case KindInt64:
		h.mask = uint64(def.I64) //nolint:gosec // bit pattern
	case KindFloat32:
		h.mask = uint64(math.Float32bits(float32(def.F64)))
	case KindFloat64:
		h.mask = math.Float64bits(def.F64)
	case KindByteBool, KindBitBool:
		h.noBool = def.B
	case KindSubstitute:
		h.noRef = def.Any()
	}
	return h, nil
}

// Key returns the annotation key.
func (h *Handle) Key() string { return h.key }

// Type returns the declared value type.
func (h *Handle) Type() schema.Type { return h.typ }

// Offset returns the byte offset within a slot.
func (h *Handle) Offset() int { return h.offset }

// Bit returns the bit offset within the byte at Offset (0 unless bit-packed).
func (h *Handle) Bit() int { return h.bit }

// Placement returns offset and bit together.
func (h *Handle) Placement() Placement { return Placement{Offset: h.offset, Bit: h.bit} }

// Converter returns the handle's converter.
func (h *Handle) Converter() *Converter { return h.converter }

// NoEntry returns the value read for owners that never wrote the key.
func (h *Handle) NoEntry() schema.Value { return h.noEntry }

// Index returns the handle's registration sequence number within its store.
func (h *Handle) Index() int { return h.index }

// End returns the first byte offset past the handle's region.
func (h *Handle) End() int {
	if h.converter.kind == KindBitBool {
		return h.offset + 1
	}
	return h.offset + h.converter.width
}

// Retire marks the handle invalid. The owning store calls it when the key is
// unregistered; every later access fails with ErrRetired.
func (h *Handle) Retire() { h.retired.Store(true) }

// Retired reports whether Retire has been called.
func (h *Handle) Retired() bool { return h.retired.Load() }

func (h *Handle) String() string {
	if h.converter.kind == KindBitBool {
		return fmt.Sprintf("Handle{%s %s @%d.%d %s}", h.key, h.typ, h.offset, h.bit, h.converter)
	}
	return fmt.Sprintf("Handle{%s %s @%d %s}", h.key, h.typ, h.offset, h.converter)
}
