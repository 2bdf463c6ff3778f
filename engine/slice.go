package engine

import (
	"context"
	"fmt"

	"github.com/hupe1980/lattice/codec"
	"github.com/hupe1980/lattice/key"
	"github.com/hupe1980/lattice/query"
)

// Slice extracts a nested sub-tree of the keyspace. The caller supplies
// exactly one selector per dimension; the result is a map nested one level
// per dimension, keyed by the matched component values, with deep-copied
// documents at the leaves. Components that match no stored key simply do
// not appear; an empty result is a usable empty map, never nil.
func (e *Engine) Slice(ctx context.Context, selectors []query.Selector) (map[string]any, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	if dims := e.Dimensions(); len(selectors) != dims {
		return nil, &key.ErrDimensionMismatch{Expected: dims, Actual: len(selectors)}
	}
	if err := e.refresh(ctx); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]any)
	for token := range e.scanLocked("") {
		doc, ok := e.lookupLocked(token)
		if !ok {
			continue
		}
		coords, err := e.keys.Decode(token)
		if err != nil {
			return nil, fmt.Errorf("engine: stored key %q: %w", token, err)
		}
		if !matchAll(selectors, coords) {
			continue
		}
		stored, err := codec.Clone(e.codec, doc)
		if err != nil {
			return nil, fmt.Errorf("engine: copy document: %w", err)
		}
		insertNested(out, coords, stored)
	}
	return out, nil
}

func matchAll(selectors []query.Selector, coords []string) bool {
	for i, sel := range selectors {
		if !sel.Match(coords[i]) {
			return false
		}
	}
	return true
}

// insertNested places doc under out[coords[0]][coords[1]]...[coords[n-1]],
// creating intermediate maps as needed. Keys are unique per token so the
// leaf slot is never contested.
func insertNested(out map[string]any, coords []string, doc any) {
	node := out
	for _, comp := range coords[:len(coords)-1] {
		next, ok := node[comp].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[comp] = next
		}
		node = next
	}
	node[coords[len(coords)-1]] = doc
}
