package handle

import (
	"errors"
	"fmt"

	"github.com/hupe1980/annopack/schema"
)

var (
	// ErrUnsupportedType is returned when an accessor does not match the
	// converter's supported types.
	ErrUnsupportedType = errors.New("handle: unsupported type")

	// ErrSurrogateOverflow is returned when a surrogate id does not fit the
	// converter's width.
	ErrSurrogateOverflow = errors.New("handle: surrogate overflow")

	// ErrRetired is returned when a handle is used after its key was unregistered.
	ErrRetired = errors.New("handle: retired")

	// ErrShortSlot is returned when a slot is too small for the handle's region.
	ErrShortSlot = errors.New("handle: slot too short")

	// ErrInvalidConverter is returned for converter parameters out of range.
	ErrInvalidConverter = errors.New("handle: invalid converter")
)

// UnsupportedTypeError reports an accessor invoked for a type the converter
// does not support.
type UnsupportedTypeError struct {
	Key       string
	Kind      Kind
	Requested schema.Type
	Supported schema.TypeSet
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("handle: key %q: %s converter does not support %s (supports %s)",
		e.Key, e.Kind, e.Requested, e.Supported)
}

func (e *UnsupportedTypeError) Unwrap() error { return ErrUnsupportedType }

// SurrogateOverflowError reports a surrogate id that exceeds the converter's width.
type SurrogateOverflowError struct {
	Key   string
	Width int
	ID    int
}

func (e *SurrogateOverflowError) Error() string {
	return fmt.Sprintf("handle: key %q: surrogate id %d does not fit %d byte(s)", e.Key, e.ID, e.Width)
}

func (e *SurrogateOverflowError) Unwrap() error { return ErrSurrogateOverflow }
