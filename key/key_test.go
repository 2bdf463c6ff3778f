package key

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodec(t *testing.T) {
	_, err := NewCodec(0)
	require.Error(t, err)

	_, err = NewCodec(-3)
	require.Error(t, err)

	c, err := NewCodec(2)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Dimensions())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		dims   int
		coords []string
	}{
		{"plain", 2, []string{"u1", "orders"}},
		{"empty components", 2, []string{"", ""}},
		{"separator in component", 2, []string{"a/b", "c"}},
		{"escape char in component", 2, []string{"100%", "done"}},
		{"both special chars", 3, []string{"a/b", "%2F", "/%/"}},
		{"unicode", 2, []string{"könig", "straße"}},
		{"single dimension", 1, []string{"only"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCodec(tt.dims)
			require.NoError(t, err)

			token, err := c.Encode(tt.coords)
			require.NoError(t, err)

			got, err := c.Decode(token)
			require.NoError(t, err)
			assert.Equal(t, tt.coords, got)
		})
	}
}

func TestEncodeDimensionMismatch(t *testing.T) {
	c, err := NewCodec(2)
	require.NoError(t, err)

	_, err = c.Encode([]string{"only-one"})
	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 2, dm.Expected)
	assert.Equal(t, 1, dm.Actual)

	_, err = c.Encode([]string{"a", "b", "c"})
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 3, dm.Actual)
}

func TestEncodingIsInjective(t *testing.T) {
	c, err := NewCodec(2)
	require.NoError(t, err)

	// These tuples would collide under naive joining.
	pairs := [][]string{
		{"a/b", "c"},
		{"a", "b/c"},
		{"a/", "b"},
		{"a/b/c", ""},
		{"", "a/b/c"},
	}

	seen := make(map[string][]string)
	for _, coords := range pairs {
		token, err := c.Encode(coords)
		require.NoError(t, err)
		prev, dup := seen[token]
		require.False(t, dup, "tuples %v and %v collided on %q", prev, coords, token)
		seen[token] = coords
	}
}

func TestDecodeInvalid(t *testing.T) {
	c, err := NewCodec(2)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"wrong arity low", "onlyone"},
		{"wrong arity high", "a/b/c"},
		{"truncated escape", "a/b%2"},
		{"dangling escape", "a%/b"},
		{"bad hex digits", "a/%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decode(tt.token)
			var inv *ErrInvalidEncoding
			require.ErrorAs(t, err, &inv)
			assert.Equal(t, tt.token, inv.Token)
		})
	}
}

func TestEncodePrefix(t *testing.T) {
	c, err := NewCodec(3)
	require.NoError(t, err)

	empty, err := c.EncodePrefix(nil)
	require.NoError(t, err)
	assert.Equal(t, "", empty)

	partial, err := c.EncodePrefix([]string{"u1"})
	require.NoError(t, err)
	assert.Equal(t, "u1/", partial)

	full, err := c.EncodePrefix([]string{"u1", "2024", "orders"})
	require.NoError(t, err)
	token, err := c.Encode([]string{"u1", "2024", "orders"})
	require.NoError(t, err)
	assert.Equal(t, token, full)

	_, err = c.EncodePrefix([]string{"a", "b", "c", "d"})
	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
}

func TestPrefixDoesNotMatchSiblings(t *testing.T) {
	c, err := NewCodec(2)
	require.NoError(t, err)

	prefix, err := c.EncodePrefix([]string{"u1"})
	require.NoError(t, err)

	under, err := c.Encode([]string{"u1", "orders"})
	require.NoError(t, err)
	sibling, err := c.Encode([]string{"u1x", "orders"})
	require.NoError(t, err)

	assert.True(t, len(under) >= len(prefix) && under[:len(prefix)] == prefix)
	assert.False(t, len(sibling) >= len(prefix) && sibling[:len(prefix)] == prefix)
}

func TestEncodedOrderIsStable(t *testing.T) {
	c, err := NewCodec(2)
	require.NoError(t, err)

	tuples := [][]string{
		{"a", "1"}, {"a", "2"}, {"b", "1"}, {"aa", "0"}, {"a/b", "x"},
	}

	tokens := make([]string, len(tuples))
	for i, tup := range tuples {
		tokens[i], err = c.Encode(tup)
		require.NoError(t, err)
	}
	sort.Strings(tokens)

	// Sorting tokens must keep all keys under one first component contiguous.
	for i := 1; i < len(tokens); i++ {
		a, err := c.Decode(tokens[i-1])
		require.NoError(t, err)
		b, err := c.Decode(tokens[i])
		require.NoError(t, err)
		if a[0] == b[0] {
			continue
		}
		for j := i + 1; j < len(tokens); j++ {
			later, err := c.Decode(tokens[j])
			require.NoError(t, err)
			assert.NotEqual(t, a[0], later[0], "keys with first component %q are not contiguous", a[0])
		}
	}
}
