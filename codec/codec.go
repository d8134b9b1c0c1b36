// Package codec encodes annotation dumps. A dump maps each key that differs
// from its no-entry value to the annotation's natural Go value.
package codec

import (
	"encoding/json"

	gojson "github.com/goccy/go-json"
)

// Codec turns a dump into bytes. Implementations must be safe for
// concurrent use.
type Codec interface {
	Marshal(dump any) ([]byte, error)
	Name() string
}

// Default is the codec Manager.Dump uses unless WithCodec sets another.
var Default Codec = GoJSON{}

// JSON encodes dumps with encoding/json. Keys come out sorted, so a dump is
// byte-stable across runs.
type JSON struct{}

func (JSON) Marshal(dump any) ([]byte, error) { return json.Marshal(dump) }

func (JSON) Name() string { return "json" }

// GoJSON encodes dumps with github.com/goccy/go-json.
type GoJSON struct{}

func (GoJSON) Marshal(dump any) ([]byte, error) { return gojson.Marshal(dump) }

func (GoJSON) Name() string { return "go-json" }

var builtin = map[string]Codec{
	JSON{}.Name():   JSON{},
	GoJSON{}.Name(): GoJSON{},
}

// ByName returns the built-in codec a config file names.
func ByName(name string) (Codec, bool) {
	c, ok := builtin[name]
	return c, ok
}
