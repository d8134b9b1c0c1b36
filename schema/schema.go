package schema

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MaxSurrogateWidth is the widest surrogate a substituted key may declare.
const MaxSurrogateWidth = 4

// ErrInvalidDeclaration is returned for declarations that cannot be installed.
var ErrInvalidDeclaration = errors.New("schema: invalid declaration")

// Declaration describes one annotation key.
type Declaration struct {
	// Key is the unique annotation name.
	Key string
	// Type is the logical value type.
	Type Type
	// NoEntry is returned for owners that never wrote the key. Nil means
	// the zero value of Type. See FromAny for accepted Go types.
	NoEntry any
	// Width is the surrogate width in bytes (1..4) for text and value keys.
	// Zero selects the store's default. Ignored for other types.
	Width int
}

// Default returns the declaration's no-entry Value.
func (d Declaration) Default() (Value, error) {
	v, err := FromAny(d.Type, d.NoEntry)
	if err != nil {
		return Value{}, fmt.Errorf("%w: key %q: %w", ErrInvalidDeclaration, d.Key, err)
	}
	return v, nil
}

// Substituted reports whether values of the declaration are stored as
// dictionary surrogates.
func (d Declaration) Substituted() bool {
	return d.Type == TypeText || d.Type == TypeValue
}

// Validate checks the declaration in isolation.
func (d Declaration) Validate() error {
	if d.Key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidDeclaration)
	}
	if !d.Type.Valid() {
		return fmt.Errorf("%w: key %q has invalid type %d", ErrInvalidDeclaration, d.Key, d.Type)
	}
	if d.Width < 0 || d.Width > MaxSurrogateWidth {
		return fmt.Errorf("%w: key %q has width %d (want 0..%d)", ErrInvalidDeclaration, d.Key, d.Width, MaxSurrogateWidth)
	}
	_, err := d.Default()
	return err
}

// Schema is an ordered list of declarations.
type Schema []Declaration

// Validate checks every declaration and rejects duplicate keys.
func (s Schema) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for _, d := range s {
		if err := d.Validate(); err != nil {
			return err
		}
		if _, dup := seen[d.Key]; dup {
			return fmt.Errorf("%w: duplicate key %q", ErrInvalidDeclaration, d.Key)
		}
		seen[d.Key] = struct{}{}
	}
	return nil
}

// Keys returns the declared keys in order.
func (s Schema) Keys() []string {
	keys := make([]string, len(s))
	for i, d := range s {
		keys[i] = d.Key
	}
	return keys
}

// Lookup returns the declaration for key.
func (s Schema) Lookup(key string) (Declaration, bool) {
	for _, d := range s {
		if d.Key == key {
			return d, true
		}
	}
	return Declaration{}, false
}

type yamlDeclaration struct {
	Key     string `yaml:"key"`
	Type    string `yaml:"type"`
	NoEntry any    `yaml:"no_entry"`
	Width   int    `yaml:"width"`
}

type yamlSchema struct {
	Annotations []yamlDeclaration `yaml:"annotations"`
}

// ParseYAML parses and validates a schema descriptor.
func ParseYAML(data []byte) (Schema, error) {
	var doc yamlSchema
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("schema: parse yaml: %w", err)
	}

	s := make(Schema, 0, len(doc.Annotations))
	for i, yd := range doc.Annotations {
		t, err := ParseType(yd.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: annotation %d (%q): %w", ErrInvalidDeclaration, i, yd.Key, err)
		}
		s = append(s, Declaration{
			Key:     yd.Key,
			Type:    t,
			NoEntry: yd.NoEntry,
			Width:   yd.Width,
		})
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
