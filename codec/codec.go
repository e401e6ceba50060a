// Package codec centralizes payload encoding for persisted artifacts.
//
// Clusterkit treats codec selection as a breaking-change boundary: if you
// change codecs, persisted records created by older codecs may no longer
// decode. Durable records therefore store the codec name alongside the
// payload so reads can select the matching codec.
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for internal tests.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}

// Default is the codec used when none is configured.
//
// This affects newly-written records only; existing records are
// self-describing and decoded by the codec named in their envelope.
var Default Codec = GoJSON{}
