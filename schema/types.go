package schema

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Type identifies the logical type of an annotation value.
type Type uint8

const (
	// TypeInvalid represents an invalid type.
	TypeInvalid Type = iota
	// TypeBoolean is a bool.
	TypeBoolean
	// TypeInteger is a 32-bit signed integer.
	TypeInteger
	// TypeLong is a 64-bit signed integer.
	TypeLong
	// TypeFloat is a 32-bit float.
	TypeFloat
	// TypeDouble is a 64-bit float.
	TypeDouble
	// TypeText is a string.
	TypeText
	// TypeValue is an arbitrary comparable reference value.
	TypeValue
)

// String returns the string representation of the Type.
func (t Type) String() string {
	switch t {
	case TypeBoolean:
		return "boolean"
	case TypeInteger:
		return "integer"
	case TypeLong:
		return "long"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeText:
		return "text"
	case TypeValue:
		return "value"
	default:
		return "invalid"
	}
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	return t >= TypeBoolean && t <= TypeValue
}

// ParseType parses the name produced by Type.String. Matching is case-insensitive.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "boolean", "bool":
		return TypeBoolean, nil
	case "integer", "int":
		return TypeInteger, nil
	case "long":
		return TypeLong, nil
	case "float":
		return TypeFloat, nil
	case "double":
		return TypeDouble, nil
	case "text", "string":
		return TypeText, nil
	case "value", "reference":
		return TypeValue, nil
	default:
		return TypeInvalid, fmt.Errorf("schema: unknown type %q", s)
	}
}

// TypeSet is a set of Types.
type TypeSet uint16

// TypeSetOf returns the set holding ts.
func TypeSetOf(ts ...Type) TypeSet {
	var s TypeSet
	for _, t := range ts {
		s |= 1 << t
	}
	return s
}

// Has reports whether t is in the set.
func (s TypeSet) Has(t Type) bool {
	return s&(1<<t) != 0
}

// Types returns the members of the set in declaration order.
func (s TypeSet) Types() []Type {
	var out []Type
	for t := TypeBoolean; t <= TypeValue; t++ {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s TypeSet) String() string {
	types := s.Types()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return "{" + strings.Join(names, ",") + "}"
}

// Value is a typed annotation value. It is used for no-entry defaults.
//
// Only the field matching Type is meaningful: B for booleans, I64 for
// integers and longs, F64 for floats and doubles, S for text, Ref for values.
type Value struct {
	Type Type
	I64  int64
	F64  float64
	B    bool
	S    string
	Ref  any
}

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{Type: TypeBoolean, B: v} }

// Integer returns a 32-bit integer Value.
func Integer(v int32) Value { return Value{Type: TypeInteger, I64: int64(v)} }

// Long returns a 64-bit integer Value.
func Long(v int64) Value { return Value{Type: TypeLong, I64: v} }

// Float returns a 32-bit float Value.
func Float(v float32) Value { return Value{Type: TypeFloat, F64: float64(v)} }

// Double returns a 64-bit float Value.
func Double(v float64) Value { return Value{Type: TypeDouble, F64: v} }

// Text returns a string Value.
func Text(v string) Value { return Value{Type: TypeText, S: v} }

// Ref returns a reference Value.
func Ref(v any) Value { return Value{Type: TypeValue, Ref: v} }

// Zero returns the zero Value of t.
func Zero(t Type) Value { return Value{Type: t} }

// Any returns the natural Go representation of v: bool, int32, int64,
// float32, float64, string, or the reference itself.
func (v Value) Any() any {
	switch v.Type {
	case TypeBoolean:
		return v.B
	case TypeInteger:
		return int32(v.I64) //nolint:gosec // constructed from int32
	case TypeLong:
		return v.I64
	case TypeFloat:
		return float32(v.F64)
	case TypeDouble:
		return v.F64
	case TypeText:
		return v.S
	case TypeValue:
		return v.Ref
	default:
		return nil
	}
}

func (v Value) String() string {
	return fmt.Sprintf("%s(%v)", v.Type, v.Any())
}

// FromAny converts a Go value into a Value of type t.
//
// Integer types accept any Go integer within range, float types accept Go
// floats and integers, and TypeValue accepts any hashable value (including
// nil). A nil x yields the zero Value of t.
func FromAny(t Type, x any) (Value, error) {
	if !t.Valid() {
		return Value{}, fmt.Errorf("schema: invalid type %d", t)
	}
	if x == nil {
		return Zero(t), nil
	}

	switch t {
	case TypeBoolean:
		if b, ok := x.(bool); ok {
			return Bool(b), nil
		}
	case TypeInteger:
		if i, ok := toInt64(x); ok {
			if i < math.MinInt32 || i > math.MaxInt32 {
				return Value{}, fmt.Errorf("schema: %d overflows %s", i, t)
			}
			return Integer(int32(i)), nil
		}
	case TypeLong:
		if i, ok := toInt64(x); ok {
			return Long(i), nil
		}
	case TypeFloat:
		if f, ok := toFloat64(x); ok {
			return Float(float32(f)), nil
		}
	case TypeDouble:
		if f, ok := toFloat64(x); ok {
			return Double(f), nil
		}
	case TypeText:
		if s, ok := x.(string); ok {
			return Text(s), nil
		}
	case TypeValue:
		if !Hashable(x) {
			return Value{}, fmt.Errorf("schema: %T is not hashable", x)
		}
		return Ref(x), nil
	}
	return Value{}, fmt.Errorf("schema: %T is not a valid %s", x, t)
}

func toInt64(x any) (int64, bool) {
	switch v := x.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float64:
		// YAML and JSON decoders may hand integers over as float64.
		if v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64 {
			return int64(v), true
		}
	}
	return 0, false
}

func toFloat64(x any) (float64, bool) {
	switch v := x.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	if i, ok := toInt64(x); ok {
		return float64(i), true
	}
	return 0, false
}

// Hashable reports whether x can be used as a map key. A comparable static
// type is not enough: interface fields may hold slices, maps or funcs, and
// hashing those panics at run time.
func Hashable(x any) (ok bool) {
	if x == nil {
		return true
	}
	if !reflect.TypeOf(x).Comparable() {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	keys := make(map[any]struct{}, 1)
	keys[x] = struct{}{}
	return len(keys) == 1
}
