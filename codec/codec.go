// Package codec centralizes document and state-file encoding.
//
// Lattice intentionally treats codec selection as a compatibility boundary:
// the database file records no codec name because the on-disk format is
// always JSON, but the codec used in-process decides how documents are
// validated and deep-copied. All built-in codecs produce interchangeable
// JSON bytes.
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

// Clone deep-copies a document by passing it through the codec.
//
// This doubles as the JSON-compatibility check: any value that survives a
// marshal/unmarshal round trip is by definition encodable in the database
// file, and the copy shares no mutable state with the caller's value.
func Clone(c Codec, v any) (any, error) {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec %s marshal failed: %w", c.Name(), err)
	}
	var out any
	if err := c.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("codec %s unmarshal failed: %w", c.Name(), err)
	}
	return out, nil
}

// MustMarshal is a helper for internal tests/benchmarks.
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
