package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	c, ok = ByName("go-json")
	require.True(t, ok)
	assert.Equal(t, "go-json", c.Name())

	_, ok = ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecsProduceInterchangeableJSON(t *testing.T) {
	doc := map[string]any{
		"count":  float64(3),
		"tags":   []any{"a", "b"},
		"nested": map[string]any{"ok": true, "note": nil},
	}

	jsonBytes := MustMarshal(JSON{}, doc)

	var viaGoJSON any
	require.NoError(t, GoJSON{}.Unmarshal(jsonBytes, &viaGoJSON))
	var viaStdlib any
	require.NoError(t, JSON{}.Unmarshal(jsonBytes, &viaStdlib))

	assert.Equal(t, viaStdlib, viaGoJSON)
}

func TestClone(t *testing.T) {
	t.Run("deep copies", func(t *testing.T) {
		orig := map[string]any{"items": []any{"x"}, "n": float64(1)}

		cloned, err := Clone(Default, orig)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"items": []any{"x"}, "n": float64(1)}, cloned)

		// Mutating the clone must not touch the original.
		cloned.(map[string]any)["items"].([]any)[0] = "mutated"
		assert.Equal(t, "x", orig["items"].([]any)[0])
	})

	t.Run("normalizes typed values", func(t *testing.T) {
		cloned, err := Clone(Default, map[string]int{"count": 3})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"count": float64(3)}, cloned)
	})

	t.Run("rejects unencodable values", func(t *testing.T) {
		_, err := Clone(Default, map[string]any{"fn": func() {}})
		require.Error(t, err)

		_, err = Clone(Default, make(chan int))
		require.Error(t, err)
	})

	t.Run("nil codec falls back to default", func(t *testing.T) {
		cloned, err := Clone(nil, "hello")
		require.NoError(t, err)
		assert.Equal(t, "hello", cloned)
	})
}
