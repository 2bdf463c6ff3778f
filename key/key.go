// Package key implements the bidirectional mapping between N-dimensional
// coordinate keys and their single-string on-disk tokens.
//
// A coordinate key is an ordered tuple of string components with a fixed
// arity (the database dimension count). Each component is percent-escaped and
// the components are joined with '/'. The encoding is injective, so distinct
// tuples never collide, and lexicographic order over encoded tokens is a
// valid total order for prefix range scans.
package key

import (
	"fmt"
	"strings"
)

const (
	// Separator joins encoded components into one token.
	Separator = '/'
	// Escape introduces a two-hex-digit escape sequence inside a component.
	Escape = '%'
)

// ErrDimensionMismatch indicates a coordinate tuple of the wrong arity.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("key: dimension mismatch: expected %d components, got %d", e.Expected, e.Actual)
}

// ErrInvalidEncoding indicates a token that cannot be decoded back into a
// coordinate tuple: a malformed escape sequence or the wrong component count.
type ErrInvalidEncoding struct {
	Token  string
	Reason string
}

func (e *ErrInvalidEncoding) Error() string {
	return fmt.Sprintf("key: invalid encoded key %q: %s", e.Token, e.Reason)
}

// Codec encodes and decodes coordinate keys of a fixed arity.
// The zero value is not usable; construct with NewCodec.
type Codec struct {
	dims int
}

// NewCodec returns a codec for coordinate keys of the given arity.
func NewCodec(dimensions int) (*Codec, error) {
	if dimensions < 1 {
		return nil, fmt.Errorf("key: dimensions must be positive, got %d", dimensions)
	}
	return &Codec{dims: dimensions}, nil
}

// Dimensions returns the fixed coordinate arity.
func (c *Codec) Dimensions() int { return c.dims }

// Encode converts a full coordinate tuple into its on-disk token.
func (c *Codec) Encode(coords []string) (string, error) {
	if len(coords) != c.dims {
		return "", &ErrDimensionMismatch{Expected: c.dims, Actual: len(coords)}
	}
	return joinEscaped(coords), nil
}

// EncodePrefix converts a leading subset of coordinate components into a
// token prefix suitable for range scans. A partial prefix carries a trailing
// separator so "u1" never matches keys under "u1x". The empty prefix returns
// "" and matches every key.
func (c *Codec) EncodePrefix(coords []string) (string, error) {
	if len(coords) > c.dims {
		return "", &ErrDimensionMismatch{Expected: c.dims, Actual: len(coords)}
	}
	if len(coords) == 0 {
		return "", nil
	}
	s := joinEscaped(coords)
	if len(coords) < c.dims {
		s += string(Separator)
	}
	return s, nil
}

// Decode converts an on-disk token back into its coordinate tuple.
// It is the exact inverse of Encode: Decode(Encode(x)) == x for all valid x.
func (c *Codec) Decode(token string) ([]string, error) {
	parts := strings.Split(token, string(Separator))
	if len(parts) != c.dims {
		return nil, &ErrInvalidEncoding{
			Token:  token,
			Reason: fmt.Sprintf("expected %d components, got %d", c.dims, len(parts)),
		}
	}
	coords := make([]string, len(parts))
	for i, p := range parts {
		u, err := unescapeComponent(p)
		if err != nil {
			return nil, &ErrInvalidEncoding{Token: token, Reason: err.Error()}
		}
		coords[i] = u
	}
	return coords, nil
}

func joinEscaped(coords []string) string {
	var b strings.Builder
	for i, comp := range coords {
		if i > 0 {
			b.WriteByte(Separator)
		}
		escapeComponent(&b, comp)
	}
	return b.String()
}

func escapeComponent(b *strings.Builder, comp string) {
	for i := 0; i < len(comp); i++ {
		ch := comp[i]
		if ch == Separator || ch == Escape {
			b.WriteByte(Escape)
			b.WriteByte(hexDigit(ch >> 4))
			b.WriteByte(hexDigit(ch & 0x0f))
		} else {
			b.WriteByte(ch)
		}
	}
}

func unescapeComponent(s string) (string, error) {
	if !strings.ContainsRune(s, Escape) {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != Escape {
			b.WriteByte(ch)
			continue
		}
		if i+2 >= len(s) {
			return "", fmt.Errorf("truncated escape sequence at offset %d", i)
		}
		hi, ok1 := hexValue(s[i+1])
		lo, ok2 := hexValue(s[i+2])
		if !ok1 || !ok2 {
			return "", fmt.Errorf("malformed escape sequence %q at offset %d", s[i:i+3], i)
		}
		b.WriteByte(hi<<4 | lo)
		i += 2
	}
	return b.String(), nil
}

func hexDigit(v byte) byte {
	if v < 10 {
		return '0' + v
	}
	return 'A' + v - 10
}

func hexValue(ch byte) (byte, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return ch - '0', true
	case ch >= 'A' && ch <= 'F':
		return ch - 'A' + 10, true
	case ch >= 'a' && ch <= 'f':
		return ch - 'a' + 10, true
	default:
		return 0, false
	}
}
