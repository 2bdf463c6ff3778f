package index

import (
	"testing"

	"github.com/hupe1980/lattice/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrefixSorted(t *testing.T) {
	data := map[string]any{
		"u2/orders":   map[string]any{"n": float64(1)},
		"u1/orders":   map[string]any{"n": float64(2)},
		"u1/invoices": map[string]any{"n": float64(3)},
	}

	idx := Build(data, nil, codec.Default)
	assert.Equal(t, []string{"u1/invoices", "u1/orders", "u2/orders"}, idx.Prefix)
	assert.Empty(t, idx.Fields)
}

func TestBuildFieldIndex(t *testing.T) {
	data := map[string]any{
		"u1/orders":   map[string]any{"status": "open", "total": float64(10)},
		"u2/orders":   map[string]any{"status": "open"},
		"u3/orders":   map[string]any{"status": "closed"},
		"u4/orders":   map[string]any{"note": "no status field"},
		"u5/settings": "not an object",
	}
	defs := []Definition{{Name: "by_status", Field: "status"}}

	idx := Build(data, defs, codec.Default)

	require.Contains(t, idx.Fields, "by_status")
	byStatus := idx.Fields["by_status"]
	assert.Equal(t, []string{"u1/orders", "u2/orders"}, byStatus[`"open"`])
	assert.Equal(t, []string{"u3/orders"}, byStatus[`"closed"`])
	assert.Len(t, byStatus, 2)
}

func TestBuildNestedFieldPath(t *testing.T) {
	data := map[string]any{
		"a/1": map[string]any{"meta": map[string]any{"region": "eu"}},
		"a/2": map[string]any{"meta": map[string]any{"region": "us"}},
		"a/3": map[string]any{"meta": "flat"},
	}
	defs := []Definition{{Name: "by_region", Field: "meta.region"}}

	idx := Build(data, defs, codec.Default)
	byRegion := idx.Fields["by_region"]
	assert.Equal(t, []string{"a/1"}, byRegion[`"eu"`])
	assert.Equal(t, []string{"a/2"}, byRegion[`"us"`])
	assert.Len(t, byRegion, 2)
}

func TestBuildIsDeterministic(t *testing.T) {
	data := map[string]any{
		"k/1": map[string]any{"v": float64(1)},
		"k/2": map[string]any{"v": float64(1)},
		"k/3": map[string]any{"v": float64(2)},
	}
	defs := []Definition{{Name: "by_v", Field: "v"}}

	a := Build(data, defs, codec.Default)
	b := Build(data, defs, codec.Default)
	assert.True(t, Equal(a, b))

	// Removing a document must change the rebuild.
	delete(data, "k/2")
	c := Build(data, defs, codec.Default)
	assert.False(t, Equal(a, c))
}

func TestExtractField(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{"b": map[string]any{"c": float64(42)}},
		"s": "leaf",
	}

	v, ok := ExtractField(doc, "a.b.c")
	require.True(t, ok)
	assert.Equal(t, float64(42), v)

	v, ok = ExtractField(doc, "s")
	require.True(t, ok)
	assert.Equal(t, "leaf", v)

	_, ok = ExtractField(doc, "a.missing")
	assert.False(t, ok)

	_, ok = ExtractField(doc, "s.deeper")
	assert.False(t, ok)

	_, ok = ExtractField("scalar document", "any")
	assert.False(t, ok)
}

func TestPrefixScan(t *testing.T) {
	p := NewPrefix([]string{"u2/orders", "u1/orders", "u1/invoices", "u10/orders"})

	assert.Equal(t, 4, p.Len())
	assert.True(t, p.Contains("u1/orders"))
	assert.False(t, p.Contains("u1/"))

	collect := func(prefix string) []string {
		var got []string
		for k := range p.Scan(prefix) {
			got = append(got, k)
		}
		return got
	}

	assert.Equal(t, []string{"u1/invoices", "u1/orders"}, collect("u1/"))
	assert.Equal(t, []string{"u10/orders"}, collect("u10/"))
	assert.Equal(t, []string{"u1/invoices", "u1/orders", "u10/orders", "u2/orders"}, collect(""))
	assert.Empty(t, collect("zz/"))
}

func TestPrefixScanEarlyStopAndRestart(t *testing.T) {
	p := NewPrefix([]string{"a/1", "a/2", "a/3"})

	var first []string
	for k := range p.Scan("a/") {
		first = append(first, k)
		if len(first) == 2 {
			break
		}
	}
	require.Equal(t, []string{"a/1", "a/2"}, first)

	// The sequence restarts from the beginning on the next range.
	var second []string
	for k := range p.Scan("a/") {
		second = append(second, k)
	}
	assert.Equal(t, []string{"a/1", "a/2", "a/3"}, second)
}
