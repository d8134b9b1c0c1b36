package handle

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/annopack/schema"
)

func (c *Converter) region(slot []byte, h *Handle) ([]byte, error) {
	end := h.End()
	if end > len(slot) {
		return nil, fmt.Errorf("%w: key %q needs %d bytes, slot has %d", ErrShortSlot, h.key, end, len(slot))
	}
	return slot[h.offset:end], nil
}

// GetBool reads a boolean.
func (c *Converter) GetBool(slot []byte, h *Handle) (bool, error) {
	if err := c.Check(h, schema.TypeBoolean); err != nil {
		return false, err
	}
	r, err := c.region(slot, h)
	if err != nil {
		return false, err
	}
	if c.kind == KindBitBool {
		return bitGet(r[0], h.bit) != h.noBool, nil
	}
	return (r[0]&1 == 1) != h.noBool, nil
}

// SetBool writes a boolean.
func (c *Converter) SetBool(slot []byte, h *Handle, v bool) error {
	if err := c.Check(h, schema.TypeBoolean); err != nil {
		return err
	}
	r, err := c.region(slot, h)
	if err != nil {
		return err
	}
	if c.kind == KindBitBool {
		bitSet(&r[0], h.bit, v != h.noBool)
		return nil
	}
	if v != h.noBool {
		r[0] = 1
	} else {
		r[0] = 0
	}
	return nil
}

// GetInt reads a 32-bit integer.
func (c *Converter) GetInt(slot []byte, h *Handle) (int32, error) {
	if err := c.Check(h, schema.TypeInteger); err != nil {
		return 0, err
	}
	r, err := c.region(slot, h)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(r) ^ uint32(h.mask)), nil //nolint:gosec // bit pattern
}

// SetInt writes a 32-bit integer.
func (c *Converter) SetInt(slot []byte, h *Handle, v int32) error {
	if err := c.Check(h, schema.TypeInteger); err != nil {
		return err
	}
	r, err := c.region(slot, h)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(r, uint32(v)^uint32(h.mask)) //nolint:gosec // bit pattern
	return nil
}

// GetLong reads a 64-bit integer.
func (c *Converter) GetLong(slot []byte, h *Handle) (int64, error) {
	if err := c.Check(h, schema.TypeLong); err != nil {
		return 0, err
	}
	r, err := c.region(slot, h)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(r) ^ h.mask), nil //nolint:gosec // bit pattern
}

// SetLong writes a 64-bit integer.
func (c *Converter) SetLong(slot []byte, h *Handle, v int64) error {
	if err := c.Check(h, schema.TypeLong); err != nil {
		return err
	}
	r, err := c.region(slot, h)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(r, uint64(v)^h.mask) //nolint:gosec // bit pattern
	return nil
}

// GetFloat reads a 32-bit float. The bit pattern is preserved exactly.
func (c *Converter) GetFloat(slot []byte, h *Handle) (float32, error) {
	if err := c.Check(h, schema.TypeFloat); err != nil {
		return 0, err
	}
	r, err := c.region(slot, h)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(r) ^ uint32(h.mask)), nil //nolint:gosec // bit pattern
}

// SetFloat writes a 32-bit float.
func (c *Converter) SetFloat(slot []byte, h *Handle, v float32) error {
	if err := c.Check(h, schema.TypeFloat); err != nil {
		return err
	}
	r, err := c.region(slot, h)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(r, math.Float32bits(v)^uint32(h.mask)) //nolint:gosec // bit pattern
	return nil
}

// GetDouble reads a 64-bit float. The bit pattern is preserved exactly.
func (c *Converter) GetDouble(slot []byte, h *Handle) (float64, error) {
	if err := c.Check(h, schema.TypeDouble); err != nil {
		return 0, err
	}
	r, err := c.region(slot, h)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(r) ^ h.mask), nil
}

// SetDouble writes a 64-bit float.
func (c *Converter) SetDouble(slot []byte, h *Handle, v float64) error {
	if err := c.Check(h, schema.TypeDouble); err != nil {
		return err
	}
	r, err := c.region(slot, h)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(r, math.Float64bits(v)^h.mask)
	return nil
}

// GetValue reads a reference value through the converter's Decoder.
func (c *Converter) GetValue(slot []byte, h *Handle) (any, error) {
	if err := c.Check(h, schema.TypeValue); err != nil {
		return nil, err
	}
	return c.getRef(slot, h)
}

// SetValue writes a reference value through the converter's Encoder.
// Values must be hashable, and keys declared as text only take strings.
func (c *Converter) SetValue(slot []byte, h *Handle, v any) error {
	if err := c.CheckValue(h, v); err != nil {
		return err
	}
	return c.setRef(slot, h, v)
}

// CheckValue is Check for a SetValue of v. Beyond the type check it rejects
// unhashable values and non-string values for keys declared as text, which
// GetText could not read back.
func (c *Converter) CheckValue(h *Handle, v any) error {
	if err := c.Check(h, schema.TypeValue); err != nil {
		return err
	}
	if h.typ == schema.TypeText {
		if _, ok := v.(string); !ok {
			return fmt.Errorf("%w: key %q is text, got %T", ErrUnsupportedType, h.key, v)
		}
	}
	if !schema.Hashable(v) {
		return fmt.Errorf("%w: key %q: %T is not hashable", ErrUnsupportedType, h.key, v)
	}
	return nil
}

// GetText reads a string through the converter's Decoder.
func (c *Converter) GetText(slot []byte, h *Handle) (string, error) {
	if err := c.Check(h, schema.TypeText); err != nil {
		return "", err
	}
	v, err := c.getRef(slot, h)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("%w: key %q holds %T, not text", ErrUnsupportedType, h.key, v)
	}
}

// SetText writes a string through the converter's Encoder.
func (c *Converter) SetText(slot []byte, h *Handle, v string) error {
	if err := c.Check(h, schema.TypeText); err != nil {
		return err
	}
	return c.setRef(slot, h, v)
}

func (c *Converter) getRef(slot []byte, h *Handle) (any, error) {
	r, err := c.region(slot, h)
	if err != nil {
		return nil, err
	}
	stored := readUint(r)
	if stored == 0 {
		return h.noRef, nil
	}
	v, err := c.decode(int(stored - 1)) //nolint:gosec // stored fits 4 bytes
	if err != nil {
		return nil, fmt.Errorf("handle: key %q: decode surrogate %d: %w", h.key, stored-1, err)
	}
	return v, nil
}

// setRef expects v to have passed schema.Hashable, so comparing it with the
// equally hashable no-entry value cannot panic.
func (c *Converter) setRef(slot []byte, h *Handle, v any) error {
	r, err := c.region(slot, h)
	if err != nil {
		return err
	}
	if v == h.noRef {
		clear(r)
		return nil
	}

	id, err := c.encode(v)
	if err != nil {
		var soe *SurrogateOverflowError
		if errors.As(err, &soe) {
			soe.Key = h.key
			return soe
		}
		return fmt.Errorf("handle: key %q: encode: %w", h.key, err)
	}
	if id < 0 || uint64(id) > c.maxID {
		return &SurrogateOverflowError{Key: h.key, Width: c.width, ID: id}
	}
	writeUint(r, uint64(id)+1)
	return nil
}

// readUint decodes a little-endian unsigned integer of len(b) bytes.
func readUint(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// writeUint encodes v little-endian into len(b) bytes.
func writeUint(b []byte, v uint64) {
	for i := range b {
		b[i] = byte(v)
		v >>= 8
	}
}

// Clear resets the handle's region to zero, which reads back as the
// no-entry value.
func (c *Converter) Clear(slot []byte, h *Handle) error {
	r, err := c.region(slot, h)
	if err != nil {
		return err
	}
	if c.kind == KindBitBool {
		bitSet(&r[0], h.bit, false)
		return nil
	}
	clear(r)
	return nil
}

// IsDefault reports whether the handle's region holds the no-entry value.
func (c *Converter) IsDefault(slot []byte, h *Handle) (bool, error) {
	r, err := c.region(slot, h)
	if err != nil {
		return false, err
	}
	if c.kind == KindBitBool {
		return !bitGet(r[0], h.bit), nil
	}
	for _, b := range r {
		if b != 0 {
			return false, nil
		}
	}
	return true, nil
}

// Get reads the handle's value as its natural Go type (see schema.Value.Any).
func (c *Converter) Get(slot []byte, h *Handle) (any, error) {
	switch h.typ {
	case schema.TypeBoolean:
		return c.GetBool(slot, h)
	case schema.TypeInteger:
		return c.GetInt(slot, h)
	case schema.TypeLong:
		return c.GetLong(slot, h)
	case schema.TypeFloat:
		return c.GetFloat(slot, h)
	case schema.TypeDouble:
		return c.GetDouble(slot, h)
	case schema.TypeText:
		return c.GetText(slot, h)
	default:
		return c.GetValue(slot, h)
	}
}
