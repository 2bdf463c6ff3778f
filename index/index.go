// Package index maintains the two derived indexes of a lattice database:
// the sorted prefix listing of encoded keys and the per-field value-to-keys
// mappings.
//
// Both indexes are a pure function of the document data. They are rebuilt
// from scratch on every commit rather than patched incrementally; the
// rebuild cost is accepted so that index state can never diverge from
// document state.
package index

import (
	"sort"
	"strings"

	"github.com/hupe1980/lattice/codec"
)

// Definition declares a field index: for every document whose Field path
// resolves to a value, the index maps that value's canonical form to the
// document's encoded key.
type Definition struct {
	Name  string `json:"name"`
	Field string `json:"field"` // dot-separated path into the document
}

// Index is the serializable index pair stored in the database file.
type Index struct {
	Prefix []string                       `json:"prefix"`
	Fields map[string]map[string][]string `json:"fields"`
}

// Build rebuilds both indexes from the full document map.
// Key lists come out sorted, so building twice from equal data yields
// byte-for-byte equal serialized indexes.
func Build(data map[string]any, defs []Definition, c codec.Codec) Index {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make(map[string]map[string][]string, len(defs))
	for _, def := range defs {
		byValue := make(map[string][]string)
		for _, k := range keys {
			v, ok := ExtractField(data[k], def.Field)
			if !ok {
				continue
			}
			canon := CanonicalValue(c, v)
			byValue[canon] = append(byValue[canon], k)
		}
		fields[def.Name] = byValue
	}

	return Index{Prefix: keys, Fields: fields}
}

// ExtractField resolves a dot-separated path inside a document.
// It reports false if any step is missing or not an object.
func ExtractField(doc any, path string) (any, bool) {
	cur := doc
	for path != "" {
		var seg string
		if i := strings.IndexByte(path, '.'); i >= 0 {
			seg, path = path[:i], path[i+1:]
		} else {
			seg, path = path, ""
		}
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// CanonicalValue renders an extracted field value as its canonical index
// form: the codec-marshaled JSON text. Values that cannot be marshaled
// never occur here because documents are validated on the way in.
func CanonicalValue(c codec.Codec, v any) string {
	return string(codec.MustMarshal(c, v))
}

// Equal reports whether two serializable indexes are identical.
func Equal(a, b Index) bool {
	if len(a.Prefix) != len(b.Prefix) || len(a.Fields) != len(b.Fields) {
		return false
	}
	for i, k := range a.Prefix {
		if b.Prefix[i] != k {
			return false
		}
	}
	for name, av := range a.Fields {
		bv, ok := b.Fields[name]
		if !ok || len(av) != len(bv) {
			return false
		}
		for canon, aks := range av {
			bks, ok := bv[canon]
			if !ok || len(aks) != len(bks) {
				return false
			}
			for i, k := range aks {
				if bks[i] != k {
					return false
				}
			}
		}
	}
	return true
}
