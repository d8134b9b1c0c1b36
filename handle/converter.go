package handle

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/annopack/dict"
	"github.com/hupe1980/annopack/internal/conv"
	"github.com/hupe1980/annopack/schema"
)

// Kind identifies a converter's storage layout.
type Kind uint8

const (
	// KindInt32 stores a 4-byte integer.
	KindInt32 Kind = iota + 1
	// KindInt64 stores an 8-byte integer.
	KindInt64
	// KindFloat32 stores a 4-byte float.
	KindFloat32
	// KindFloat64 stores an 8-byte float.
	KindFloat64
	// KindByteBool stores a boolean in a whole byte.
	KindByteBool
	// KindBitBool stores a boolean in a single bit.
	KindBitBool
	// KindSubstitute stores a dictionary surrogate id.
	KindSubstitute
)

func (k Kind) String() string {
	switch k {
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindByteBool:
		return "byte-bool"
	case KindBitBool:
		return "bit-bool"
	case KindSubstitute:
		return "substitute"
	default:
		return "unknown"
	}
}

// Encoder maps a value to a dense non-negative surrogate id.
type Encoder func(v any) (int, error)

// Decoder maps a surrogate id back to the value it was encoded from.
type Decoder func(id int) (any, error)

// Converter translates logical values to and from a fixed footprint in a slot.
type Converter struct {
	kind      Kind
	width     int
	supported schema.TypeSet

	// Substitute only.
	encode   Encoder
	decode   Decoder
	maxID    uint64
	substDef bool
}

// Shared converters. They hold no per-handle state and may back any number
// of handles.
var (
	Int32    = &Converter{kind: KindInt32, width: 4, supported: schema.TypeSetOf(schema.TypeInteger)}
	Int64    = &Converter{kind: KindInt64, width: 8, supported: schema.TypeSetOf(schema.TypeLong)}
	Float32  = &Converter{kind: KindFloat32, width: 4, supported: schema.TypeSetOf(schema.TypeFloat)}
	Float64  = &Converter{kind: KindFloat64, width: 8, supported: schema.TypeSetOf(schema.TypeDouble)}
	ByteBool = &Converter{kind: KindByteBool, width: 1, supported: schema.TypeSetOf(schema.TypeBoolean)}
	BitBool  = &Converter{kind: KindBitBool, width: 0, supported: schema.TypeSetOf(schema.TypeBoolean)}
)

// Substitute returns a converter storing width-byte surrogate ids produced by
// enc and resolved by dec. Supported types default to {Text, Value}; types
// may narrow that set but not extend it.
//
// Zero is reserved for the no-entry value, so a width-w converter holds at
// most 2^(8w)-1 distinct ids; larger ids fail with ErrSurrogateOverflow.
func Substitute(width int, enc Encoder, dec Decoder, types ...schema.Type) (*Converter, error) {
	if width < 1 || width > schema.MaxSurrogateWidth {
		return nil, fmt.Errorf("%w: surrogate width %d (want 1..%d)", ErrInvalidConverter, width, schema.MaxSurrogateWidth)
	}
	if enc == nil || dec == nil {
		return nil, fmt.Errorf("%w: nil encoder or decoder", ErrInvalidConverter)
	}

	allowed := schema.TypeSetOf(schema.TypeText, schema.TypeValue)
	supported := allowed
	if len(types) > 0 {
		supported = schema.TypeSetOf(types...)
		if supported&^allowed != 0 {
			return nil, fmt.Errorf("%w: substitute cannot support %s", ErrInvalidConverter, supported)
		}
	}

	maxStored, err := conv.MaxUnsigned(width)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConverter, err)
	}

	return &Converter{
		kind:      KindSubstitute,
		width:     width,
		supported: supported,
		encode:    enc,
		decode:    dec,
		maxID:     maxStored - 1,
	}, nil
}

// DictionarySubstitute returns a substituting converter backed by d. New
// values are only inserted into d while their id fits width, so an
// overflowing write leaves d unchanged. Keys sharing d share its id space.
func DictionarySubstitute(width int, d *dict.Dictionary[any], types ...schema.Type) (*Converter, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil dictionary", ErrInvalidConverter)
	}

	var limit int
	enc := func(v any) (int, error) {
		id, err := d.EncodeWithin(v, limit)
		if errors.Is(err, dict.ErrLimit) {
			return 0, &SurrogateOverflowError{Width: width, ID: d.Len()}
		}
		return id, err
	}
	c, err := Substitute(width, enc, func(id int) (any, error) { return d.Decode(id) }, types...)
	if err != nil {
		return nil, err
	}
	limit = int(min(c.maxID+1, uint64(math.MaxInt)))
	c.substDef = true
	return c, nil
}

// ForType returns the converter a store uses for t: shared numeric
// converters, BitBool or ByteBool for booleans depending on packBits, and
// subst for text and value types.
func ForType(t schema.Type, packBits bool, subst *Converter) (*Converter, error) {
	switch t {
	case schema.TypeBoolean:
		if packBits {
			return BitBool, nil
		}
		return ByteBool, nil
	case schema.TypeInteger:
		return Int32, nil
	case schema.TypeLong:
		return Int64, nil
	case schema.TypeFloat:
		return Float32, nil
	case schema.TypeDouble:
		return Float64, nil
	case schema.TypeText, schema.TypeValue:
		if subst == nil {
			return nil, fmt.Errorf("%w: no substituting converter for %s", ErrInvalidConverter, t)
		}
		return subst, nil
	default:
		return nil, fmt.Errorf("%w: no converter for %s", ErrInvalidConverter, t)
	}
}

// Kind returns the converter's layout.
func (c *Converter) Kind() Kind { return c.kind }

// Width returns the number of whole bytes the converter occupies. Bit-packed
// converters return 0.
func (c *Converter) Width() int { return c.width }

// Supported returns the logical types the converter accepts.
func (c *Converter) Supported() schema.TypeSet { return c.supported }

// Supports reports whether t is accepted.
func (c *Converter) Supports(t schema.Type) bool { return c.supported.Has(t) }

// Capacity returns the number of distinct surrogate ids a substituting
// converter can store, or 0 for other kinds.
func (c *Converter) Capacity() uint64 {
	if c.kind != KindSubstitute {
		return 0
	}
	return c.maxID + 1
}

// Dictionary reports whether the converter was built by DictionarySubstitute.
func (c *Converter) Dictionary() bool { return c.substDef }

func (c *Converter) String() string {
	if c.kind == KindSubstitute {
		return fmt.Sprintf("%s[%dB]%s", c.kind, c.width, c.supported)
	}
	return c.kind.String()
}

// Check reports whether h may be accessed as type t through c. It fails with
// ErrRetired for retired handles and *UnsupportedTypeError for types outside
// the supported set.
func (c *Converter) Check(h *Handle, t schema.Type) error {
	if h.Retired() {
		return fmt.Errorf("%w: key %q", ErrRetired, h.key)
	}
	if !c.supported.Has(t) {
		return &UnsupportedTypeError{Key: h.key, Kind: c.kind, Requested: t, Supported: c.supported}
	}
	return nil
}
