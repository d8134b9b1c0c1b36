package handle

import (
	"errors"
	"math"
	"testing"

	"github.com/hupe1980/annopack/dict"
	"github.com/hupe1980/annopack/schema"
	"github.com/hupe1980/annopack/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHandle(t *testing.T, decl schema.Declaration, p Placement, c *Converter) *Handle {
	t.Helper()
	h, err := New(decl, p, c, 0)
	require.NoError(t, err)
	return h
}

func mustSubst(t *testing.T, width int) (*Converter, *dict.Dictionary[any]) {
	t.Helper()
	d := dict.New[any]()
	t.Cleanup(d.Release)
	c, err := DictionarySubstitute(width, d)
	require.NoError(t, err)
	return c, d
}

func TestNumericRoundTrip(t *testing.T) {
	rng := testutil.NewRNG(42)
	slot := make([]byte, 32)

	hi := mustHandle(t, schema.Declaration{Key: "i", Type: schema.TypeInteger, NoEntry: -1}, Placement{Offset: 0}, Int32)
	hl := mustHandle(t, schema.Declaration{Key: "l", Type: schema.TypeLong, NoEntry: int64(7)}, Placement{Offset: 4}, Int64)
	hf := mustHandle(t, schema.Declaration{Key: "f", Type: schema.TypeFloat, NoEntry: 0.5}, Placement{Offset: 12}, Float32)
	hd := mustHandle(t, schema.Declaration{Key: "d", Type: schema.TypeDouble, NoEntry: math.Pi}, Placement{Offset: 16}, Float64)

	for range 500 {
		i, l := rng.Int32(), rng.Int64()
		f, d := rng.Float32Bits(), rng.Float64Bits()

		require.NoError(t, Int32.SetInt(slot, hi, i))
		require.NoError(t, Int64.SetLong(slot, hl, l))
		require.NoError(t, Float32.SetFloat(slot, hf, f))
		require.NoError(t, Float64.SetDouble(slot, hd, d))

		gi, err := Int32.GetInt(slot, hi)
		require.NoError(t, err)
		assert.Equal(t, i, gi)

		gl, err := Int64.GetLong(slot, hl)
		require.NoError(t, err)
		assert.Equal(t, l, gl)

		gf, err := Float32.GetFloat(slot, hf)
		require.NoError(t, err)
		assert.Equal(t, math.Float32bits(f), math.Float32bits(gf))

		gd, err := Float64.GetDouble(slot, hd)
		require.NoError(t, err)
		assert.Equal(t, math.Float64bits(d), math.Float64bits(gd))
	}
}

func TestZeroBytesReadNoEntry(t *testing.T) {
	tests := []struct {
		name string
		decl schema.Declaration
		c    *Converter
		want any
	}{
		{"int", schema.Declaration{Key: "k", Type: schema.TypeInteger, NoEntry: -1}, Int32, int32(-1)},
		{"long", schema.Declaration{Key: "k", Type: schema.TypeLong, NoEntry: int64(math.MinInt64)}, Int64, int64(math.MinInt64)},
		{"float", schema.Declaration{Key: "k", Type: schema.TypeFloat, NoEntry: 1.25}, Float32, float32(1.25)},
		{"double", schema.Declaration{Key: "k", Type: schema.TypeDouble, NoEntry: -2.5}, Float64, -2.5},
		{"byte bool", schema.Declaration{Key: "k", Type: schema.TypeBoolean, NoEntry: true}, ByteBool, true},
		{"bit bool", schema.Declaration{Key: "k", Type: schema.TypeBoolean, NoEntry: true}, BitBool, true},
		{"zero default", schema.Declaration{Key: "k", Type: schema.TypeLong}, Int64, int64(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := mustHandle(t, tt.decl, Placement{}, tt.c)
			slot := make([]byte, 8)

			got, err := tt.c.Get(slot, h)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			def, err := tt.c.IsDefault(slot, h)
			require.NoError(t, err)
			assert.True(t, def)
		})
	}
}

func TestWriteNoEntryClearsBytes(t *testing.T) {
	h := mustHandle(t, schema.Declaration{Key: "k", Type: schema.TypeInteger, NoEntry: 99}, Placement{}, Int32)
	slot := make([]byte, 4)

	require.NoError(t, Int32.SetInt(slot, h, 5))
	assert.NotEqual(t, []byte{0, 0, 0, 0}, slot)

	require.NoError(t, Int32.SetInt(slot, h, 99))
	assert.Equal(t, []byte{0, 0, 0, 0}, slot)
}

func TestClear(t *testing.T) {
	slot := make([]byte, 8)
	h := mustHandle(t, schema.Declaration{Key: "k", Type: schema.TypeDouble, NoEntry: 3.0}, Placement{}, Float64)

	require.NoError(t, Float64.SetDouble(slot, h, 10))
	require.NoError(t, Float64.Clear(slot, h))

	v, err := Float64.GetDouble(slot, h)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)
}

func TestBitIndependence(t *testing.T) {
	slot := make([]byte, 1)
	handles := make([]*Handle, 8)
	for bit := range 8 {
		handles[bit] = mustHandle(t,
			schema.Declaration{Key: string(rune('a' + bit)), Type: schema.TypeBoolean, NoEntry: bit%2 == 1},
			Placement{Offset: 0, Bit: bit}, BitBool)
	}

	rng := testutil.NewRNG(3)
	want := make([]bool, 8)
	for bit := range 8 {
		want[bit] = bit%2 == 1
	}

	for range 200 {
		bit := rng.Intn(8)
		v := rng.Bool()
		require.NoError(t, BitBool.SetBool(slot, handles[bit], v))
		want[bit] = v

		for b := range 8 {
			got, err := BitBool.GetBool(slot, handles[b])
			require.NoError(t, err)
			assert.Equal(t, want[b], got, "bit %d", b)
		}
	}

	// Clearing one bit leaves the others alone.
	require.NoError(t, BitBool.Clear(slot, handles[2]))
	for b := range 8 {
		got, err := BitBool.GetBool(slot, handles[b])
		require.NoError(t, err)
		if b == 2 {
			assert.False(t, got)
		} else {
			assert.Equal(t, want[b], got)
		}
	}
}

func TestUnsupportedTypeGrid(t *testing.T) {
	subst, _ := mustSubst(t, 4)

	handles := map[schema.Type]*Handle{
		schema.TypeBoolean: mustHandle(t, schema.Declaration{Key: "b", Type: schema.TypeBoolean}, Placement{}, ByteBool),
		schema.TypeInteger: mustHandle(t, schema.Declaration{Key: "i", Type: schema.TypeInteger}, Placement{}, Int32),
		schema.TypeLong:    mustHandle(t, schema.Declaration{Key: "l", Type: schema.TypeLong}, Placement{}, Int64),
		schema.TypeFloat:   mustHandle(t, schema.Declaration{Key: "f", Type: schema.TypeFloat}, Placement{}, Float32),
		schema.TypeDouble:  mustHandle(t, schema.Declaration{Key: "d", Type: schema.TypeDouble}, Placement{}, Float64),
		schema.TypeText:    mustHandle(t, schema.Declaration{Key: "t", Type: schema.TypeText}, Placement{}, subst),
	}

	accessors := map[schema.Type]func(c *Converter, slot []byte, h *Handle) error{
		schema.TypeBoolean: func(c *Converter, s []byte, h *Handle) error { _, err := c.GetBool(s, h); return err },
		schema.TypeInteger: func(c *Converter, s []byte, h *Handle) error { _, err := c.GetInt(s, h); return err },
		schema.TypeLong:    func(c *Converter, s []byte, h *Handle) error { _, err := c.GetLong(s, h); return err },
		schema.TypeFloat:   func(c *Converter, s []byte, h *Handle) error { _, err := c.GetFloat(s, h); return err },
		schema.TypeDouble:  func(c *Converter, s []byte, h *Handle) error { _, err := c.GetDouble(s, h); return err },
		schema.TypeText:    func(c *Converter, s []byte, h *Handle) error { _, err := c.GetText(s, h); return err },
		schema.TypeValue:   func(c *Converter, s []byte, h *Handle) error { _, err := c.GetValue(s, h); return err },
	}

	slot := make([]byte, 8)
	for ht, h := range handles {
		for at, access := range accessors {
			err := access(h.Converter(), slot, h)
			if h.Converter().Supports(at) {
				assert.NoError(t, err, "%s handle via %s accessor", ht, at)
				continue
			}
			var ute *UnsupportedTypeError
			require.True(t, errors.As(err, &ute), "%s handle via %s accessor: %v", ht, at, err)
			assert.Equal(t, at, ute.Requested)
			assert.ErrorIs(t, err, ErrUnsupportedType)
		}
	}
}

func TestSubstituteTextAndValue(t *testing.T) {
	c, d := mustSubst(t, 2)
	slot := make([]byte, 4)

	ht := mustHandle(t, schema.Declaration{Key: "pos", Type: schema.TypeText, NoEntry: "X"}, Placement{Offset: 0}, c)
	hv := mustHandle(t, schema.Declaration{Key: "ref", Type: schema.TypeValue}, Placement{Offset: 2}, c)

	s, err := c.GetText(slot, ht)
	require.NoError(t, err)
	assert.Equal(t, "X", s)

	v, err := c.GetValue(slot, hv)
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, c.SetText(slot, ht, "NOUN"))
	require.NoError(t, c.SetValue(slot, hv, [2]int{3, 9}))

	s, err = c.GetText(slot, ht)
	require.NoError(t, err)
	assert.Equal(t, "NOUN", s)

	v, err = c.GetValue(slot, hv)
	require.NoError(t, err)
	assert.Equal(t, [2]int{3, 9}, v)
	assert.Equal(t, 2, d.Len())

	// Writing the no-entry value stores zero and does not consume an id.
	require.NoError(t, c.SetText(slot, ht, "X"))
	assert.Equal(t, []byte{0, 0}, slot[:2])
	assert.Equal(t, 2, d.Len())
}

type boxed struct{ X any }

func TestSubstituteRejectsUnhashable(t *testing.T) {
	c, d := mustSubst(t, 4)
	h := mustHandle(t, schema.Declaration{Key: "ref", Type: schema.TypeValue}, Placement{}, c)
	slot := make([]byte, 4)

	tests := []struct {
		name string
		v    any
	}{
		{"slice", []int{1}},
		{"struct hiding a slice", boxed{X: []int{1}}},
		{"array hiding a map", [1]any{map[string]int{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, c.SetValue(slot, h, tt.v), ErrUnsupportedType)
			assert.Equal(t, []byte{0, 0, 0, 0}, slot)
		})
	}
	assert.Equal(t, 0, d.Len())

	require.NoError(t, c.SetValue(slot, h, boxed{X: "ok"}))
	got, err := c.GetValue(slot, h)
	require.NoError(t, err)
	assert.Equal(t, boxed{X: "ok"}, got)
}

func TestSetValueOnTextKey(t *testing.T) {
	c, d := mustSubst(t, 2)
	h := mustHandle(t, schema.Declaration{Key: "pos", Type: schema.TypeText}, Placement{}, c)
	slot := make([]byte, 2)

	require.NoError(t, c.SetValue(slot, h, "NN"))
	assert.ErrorIs(t, c.SetValue(slot, h, 42), ErrUnsupportedType)
	assert.ErrorIs(t, c.CheckValue(h, 42), ErrUnsupportedType)
	assert.Equal(t, 1, d.Len())

	got, err := c.GetText(slot, h)
	require.NoError(t, err)
	assert.Equal(t, "NN", got)
}

func TestSurrogateOverflow(t *testing.T) {
	c, d := mustSubst(t, 1)
	assert.Equal(t, uint64(255), c.Capacity())

	h := mustHandle(t, schema.Declaration{Key: "tok", Type: schema.TypeText}, Placement{}, c)
	slot := make([]byte, 1)

	values := testutil.NewRNG(11).DistinctTokens(256, 6)
	for _, v := range values[:255] {
		require.NoError(t, c.SetText(slot, h, v))
		got, err := c.GetText(slot, h)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	before := slot[0]

	err := c.SetText(slot, h, values[255])
	var soe *SurrogateOverflowError
	require.True(t, errors.As(err, &soe))
	assert.Equal(t, 1, soe.Width)
	assert.Equal(t, 255, soe.ID)
	assert.ErrorIs(t, err, ErrSurrogateOverflow)
	assert.Equal(t, before, slot[0], "failed write must leave the slot unchanged")
	assert.Equal(t, 255, d.Len(), "failed write must not grow the dictionary")
	assert.Equal(t, "tok", soe.Key)
	_, ok := d.Lookup(values[255])
	assert.False(t, ok)
}

func TestSubstituteValidation(t *testing.T) {
	enc := func(any) (int, error) { return 0, nil }
	dec := func(int) (any, error) { return nil, nil }

	_, err := Substitute(0, enc, dec)
	assert.ErrorIs(t, err, ErrInvalidConverter)
	_, err = Substitute(5, enc, dec)
	assert.ErrorIs(t, err, ErrInvalidConverter)
	_, err = Substitute(2, nil, dec)
	assert.ErrorIs(t, err, ErrInvalidConverter)
	_, err = Substitute(2, enc, dec, schema.TypeInteger)
	assert.ErrorIs(t, err, ErrInvalidConverter)

	c, err := Substitute(2, enc, dec, schema.TypeText)
	require.NoError(t, err)
	assert.True(t, c.Supports(schema.TypeText))
	assert.False(t, c.Supports(schema.TypeValue))
	assert.False(t, c.Dictionary())
}

func TestNewRejectsMismatch(t *testing.T) {
	_, err := New(schema.Declaration{Key: "k", Type: schema.TypeText}, Placement{}, Int32, 0)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = New(schema.Declaration{Key: "k", Type: schema.TypeInteger}, Placement{Bit: 3}, Int32, 0)
	assert.ErrorIs(t, err, ErrInvalidConverter)

	_, err = New(schema.Declaration{Key: "k", Type: schema.TypeInteger}, Placement{}, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidConverter)

	_, err = New(schema.Declaration{Key: "", Type: schema.TypeInteger}, Placement{}, Int32, 0)
	assert.ErrorIs(t, err, schema.ErrInvalidDeclaration)
}

func TestRetiredHandle(t *testing.T) {
	h := mustHandle(t, schema.Declaration{Key: "k", Type: schema.TypeLong}, Placement{}, Int64)
	h.Retire()
	assert.True(t, h.Retired())

	_, err := Int64.GetLong(make([]byte, 8), h)
	assert.ErrorIs(t, err, ErrRetired)
	assert.ErrorIs(t, Int64.SetLong(make([]byte, 8), h, 1), ErrRetired)
}

func TestShortSlot(t *testing.T) {
	h := mustHandle(t, schema.Declaration{Key: "k", Type: schema.TypeLong}, Placement{Offset: 4}, Int64)
	_, err := Int64.GetLong(make([]byte, 8), h)
	assert.ErrorIs(t, err, ErrShortSlot)
}

func TestForType(t *testing.T) {
	subst, _ := mustSubst(t, 3)

	tests := []struct {
		typ  schema.Type
		pack bool
		want *Converter
	}{
		{schema.TypeBoolean, true, BitBool},
		{schema.TypeBoolean, false, ByteBool},
		{schema.TypeInteger, true, Int32},
		{schema.TypeLong, false, Int64},
		{schema.TypeFloat, false, Float32},
		{schema.TypeDouble, false, Float64},
		{schema.TypeText, false, subst},
		{schema.TypeValue, true, subst},
	}
	for _, tt := range tests {
		got, err := ForType(tt.typ, tt.pack, subst)
		require.NoError(t, err)
		assert.Same(t, tt.want, got, tt.typ.String())
	}

	_, err := ForType(schema.TypeText, false, nil)
	assert.ErrorIs(t, err, ErrInvalidConverter)
}
