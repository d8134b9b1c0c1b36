package schema

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ      Type
		expected string
	}{
		{TypeBoolean, "boolean"},
		{TypeInteger, "integer"},
		{TypeLong, "long"},
		{TypeFloat, "float"},
		{TypeDouble, "double"},
		{TypeText, "text"},
		{TypeValue, "value"},
		{TypeInvalid, "invalid"},
		{Type(99), "invalid"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.typ.String())
		if tt.typ.Valid() {
			parsed, err := ParseType(tt.expected)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, parsed)
		}
	}

	_, err := ParseType("complex")
	assert.Error(t, err)

	got, err := ParseType(" String ")
	require.NoError(t, err)
	assert.Equal(t, TypeText, got)
}

func TestTypeSet(t *testing.T) {
	s := TypeSetOf(TypeValue, TypeText)
	assert.True(t, s.Has(TypeText))
	assert.True(t, s.Has(TypeValue))
	assert.False(t, s.Has(TypeBoolean))
	assert.Equal(t, []Type{TypeText, TypeValue}, s.Types())
	assert.Equal(t, "{text,value}", s.String())
	assert.Equal(t, "{}", TypeSet(0).String())
}

func TestFromAny(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		in      any
		want    Value
		wantErr bool
	}{
		{"nil is zero", TypeInteger, nil, Integer(0), false},
		{"bool", TypeBoolean, true, Bool(true), false},
		{"bool from int", TypeBoolean, 1, Value{}, true},
		{"integer from int", TypeInteger, -1, Integer(-1), false},
		{"integer overflow", TypeInteger, int64(math.MaxInt32) + 1, Value{}, true},
		{"integer from whole float", TypeInteger, float64(7), Integer(7), false},
		{"integer from fraction", TypeInteger, 7.5, Value{}, true},
		{"long", TypeLong, int64(math.MinInt64), Long(math.MinInt64), false},
		{"long from huge uint64", TypeLong, uint64(math.MaxUint64), Value{}, true},
		{"float", TypeFloat, float32(1.5), Float(1.5), false},
		{"float from int", TypeFloat, 2, Float(2), false},
		{"double", TypeDouble, 2.25, Double(2.25), false},
		{"text", TypeText, "n/a", Text("n/a"), false},
		{"text from int", TypeText, 3, Value{}, true},
		{"value", TypeValue, "ref", Ref("ref"), false},
		{"value not comparable", TypeValue, []int{1}, Value{}, true},
		{"value hides a slice", TypeValue, boxed{X: []int{1}}, Value{}, true},
		{"value boxes a string", TypeValue, boxed{X: "s"}, Ref(boxed{X: "s"}), false},
		{"invalid type", TypeInvalid, 1, Value{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.typ, tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type boxed struct{ X any }

func TestHashable(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want bool
	}{
		{"nil", nil, true},
		{"string", "a", true},
		{"array", [2]int{1, 2}, true},
		{"struct of scalars", boxed{X: 3}, true},
		{"slice", []int{1}, false},
		{"map", map[string]int{}, false},
		{"struct holding slice", boxed{X: []int{1}}, false},
		{"array holding map", [1]any{map[int]int{}}, false},
		{"nested struct holding func", boxed{X: boxed{X: func() {}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Hashable(tt.in))
		})
	}
}

func TestValueAny(t *testing.T) {
	assert.Equal(t, int32(-1), Integer(-1).Any())
	assert.Equal(t, int64(5), Long(5).Any())
	assert.Equal(t, float32(0.5), Float(0.5).Any())
	assert.Equal(t, 0.25, Double(0.25).Any())
	assert.Equal(t, true, Bool(true).Any())
	assert.Equal(t, "x", Text("x").Any())
	assert.Nil(t, Ref(nil).Any())
	assert.Equal(t, "integer(-1)", Integer(-1).String())
}

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		schema  Schema
		wantErr bool
	}{
		{
			"Valid",
			Schema{
				{Key: "score", Type: TypeInteger, NoEntry: -1},
				{Key: "lemma", Type: TypeText, Width: 2},
				{Key: "flag", Type: TypeBoolean},
			},
			false,
		},
		{"EmptyKey", Schema{{Type: TypeInteger}}, true},
		{"InvalidType", Schema{{Key: "x"}}, true},
		{"Duplicate", Schema{{Key: "x", Type: TypeLong}, {Key: "x", Type: TypeLong}}, true},
		{"WidthTooLarge", Schema{{Key: "x", Type: TypeText, Width: 5}}, true},
		{"BadNoEntry", Schema{{Key: "x", Type: TypeBoolean, NoEntry: "yes"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDeclaration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSchemaLookup(t *testing.T) {
	s := Schema{{Key: "a", Type: TypeLong}, {Key: "b", Type: TypeText}}
	assert.Equal(t, []string{"a", "b"}, s.Keys())

	d, ok := s.Lookup("b")
	require.True(t, ok)
	assert.True(t, d.Substituted())

	_, ok = s.Lookup("c")
	assert.False(t, ok)
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
annotations:
  - key: score
    type: integer
    no_entry: -1
  - key: weight
    type: double
    no_entry: 0.5
  - key: lemma
    type: text
    width: 2
  - key: isNoun
    type: boolean
`)

	s, err := ParseYAML(data)
	require.NoError(t, err)
	require.Len(t, s, 4)

	def, err := s[0].Default()
	require.NoError(t, err)
	assert.Equal(t, Integer(-1), def)

	def, err = s[1].Default()
	require.NoError(t, err)
	assert.Equal(t, Double(0.5), def)

	assert.Equal(t, TypeText, s[2].Type)
	assert.Equal(t, 2, s[2].Width)
	assert.Equal(t, TypeBoolean, s[3].Type)
}

func TestParseYAML_Errors(t *testing.T) {
	_, err := ParseYAML([]byte("annotations: ["))
	assert.Error(t, err)

	_, err = ParseYAML([]byte(`
annotations:
  - key: x
    type: matrix
`))
	assert.ErrorIs(t, err, ErrInvalidDeclaration)

	_, err = ParseYAML([]byte(`
annotations:
  - key: x
    type: integer
    no_entry: 4294967296
`))
	assert.ErrorIs(t, err, ErrInvalidDeclaration)
}
