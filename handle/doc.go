// Package handle maps annotation keys onto bytes and bits of a fixed-size
// slot.
//
// A Handle binds one key to a byte offset, a bit offset (for packed
// booleans), a Converter and the key's no-entry value. A Converter is one of
// a closed set of storage layouts, identified by Kind:
//
//	KindInt32, KindInt64      4/8-byte little-endian integers
//	KindFloat32, KindFloat64  4/8-byte IEEE-754 bit patterns
//	KindByteBool              one boolean in a whole byte
//	KindBitBool               one boolean in one bit of a byte shared by up to 8 handles
//	KindSubstitute            a 1..4 byte surrogate id resolved through an Encoder/Decoder pair
//
// Every accessor first checks the converter's supported type set and fails
// with ErrUnsupportedType on a mismatch; nothing is coerced.
//
// # Default-relative encoding
//
// Stored bytes hold the value's bit pattern XOR the handle's no-entry bit
// pattern. Substituted values store id+1 and reserve 0. A zeroed region thus
// always reads back as the no-entry value, which lets fresh slots, cleared
// slots and regions added by a slot resize skip any initialization.
//
// # Concurrency
//
// Handles and the shared numeric/boolean converters are immutable and safe to
// share. A substituting converter is as safe as its Encoder; the dictionary
// based one relies on dict.Dictionary, which is synchronized. Concurrent
// writes to bit-packed handles sharing one byte of the same slot race.
package handle
