package annopack

import (
	"errors"
	"fmt"

	"github.com/hupe1980/annopack/handle"
	"github.com/hupe1980/annopack/internal/arena"
	"github.com/hupe1980/annopack/schema"
)

var (
	// ErrInvalidConfig is returned for construction parameters out of range:
	// slot size, chunk power, capacity, surrogate width.
	ErrInvalidConfig = errors.New("annopack: invalid configuration")

	// ErrUnsupportedType is returned when an accessor does not match the
	// key's converter.
	ErrUnsupportedType = handle.ErrUnsupportedType

	// ErrSurrogateOverflow is returned when a text or value key runs out of
	// surrogate ids for its width.
	ErrSurrogateOverflow = handle.ErrSurrogateOverflow

	// ErrUnknownKey is returned when looking up a key that was never registered.
	ErrUnknownKey = errors.New("annopack: unknown key")

	// ErrDuplicateKey is returned when registering a key twice.
	ErrDuplicateKey = errors.New("annopack: duplicate key")

	// ErrNotRegistered is returned when writing to an owner that is not
	// registered while auto-registration is off, or unregistering it.
	ErrNotRegistered = errors.New("annopack: owner not registered")

	// ErrAlreadyRegistered is returned when registering an owner twice.
	ErrAlreadyRegistered = errors.New("annopack: owner already registered")

	// ErrStaticSchema is returned when changing the schema of a manager built
	// without dynamic schema composition.
	ErrStaticSchema = errors.New("annopack: schema is static")

	// ErrNilOwner is returned for nil owner pointers.
	ErrNilOwner = errors.New("annopack: nil owner")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("annopack: manager is closed")
)

// KeyError reports an unknown or duplicate key.
//
// errors.Is matches ErrUnknownKey or ErrDuplicateKey respectively.
type KeyError struct {
	Key   string
	cause error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%s: %q", e.cause, e.Key)
}

func (e *KeyError) Unwrap() error { return e.cause }

func unknownKey(key string) error   { return &KeyError{Key: key, cause: ErrUnknownKey} }
func duplicateKey(key string) error { return &KeyError{Key: key, cause: ErrDuplicateKey} }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Allocator and declaration parameters are configuration errors.
	switch {
	case errors.Is(err, arena.ErrInvalidSlotSize),
		errors.Is(err, arena.ErrInvalidChunkPower),
		errors.Is(err, arena.ErrInvalidCapacity),
		errors.Is(err, handle.ErrInvalidConverter),
		errors.Is(err, schema.ErrInvalidDeclaration):
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	case errors.Is(err, arena.ErrClosed):
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	return err
}
