package engine

import (
	"context"
	"fmt"
	"iter"

	"github.com/hupe1980/lattice/codec"
	"github.com/hupe1980/lattice/index"
	"github.com/hupe1980/lattice/query"
)

// Result is one find match.
type Result struct {
	// Coords is the decoded coordinate key.
	Coords []string
	// Token is the encoded on-disk key.
	Token string
	// Document is a deep copy of the matched document.
	Document any
}

// Find returns, in encoded-key order, every document under the coordinate
// prefix that satisfies the predicate. A nil predicate matches everything.
//
// Candidates always come from the prefix index; the field indexes are
// maintained for every commit but are not yet consulted for candidate
// selection. On a read-write handle the overlay is visible: pending sets are
// found, pending deletes are not.
func (e *Engine) Find(ctx context.Context, prefix []string, where query.Predicate) ([]Result, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	if err := e.refresh(ctx); err != nil {
		return nil, err
	}
	if where == nil {
		where = query.All()
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	candidates, err := e.candidatesLocked(prefix)
	if err != nil {
		return nil, err
	}

	var results []Result
	for token := range candidates {
		doc, ok := e.lookupLocked(token)
		if !ok {
			continue
		}
		if !where.Evaluate(doc) {
			continue
		}
		coords, err := e.keys.Decode(token)
		if err != nil {
			return nil, fmt.Errorf("engine: stored key %q: %w", token, err)
		}
		out, err := codec.Clone(e.codec, doc)
		if err != nil {
			return nil, fmt.Errorf("engine: copy document: %w", err)
		}
		results = append(results, Result{Coords: coords, Token: token, Document: out})
	}
	return results, nil
}

// Keys returns, in encoded-key order, the coordinate keys under the given
// prefix, overlay included.
func (e *Engine) Keys(ctx context.Context, prefix []string) ([][]string, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	if err := e.refresh(ctx); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	candidates, err := e.candidatesLocked(prefix)
	if err != nil {
		return nil, err
	}

	var out [][]string
	for token := range candidates {
		if _, ok := e.lookupLocked(token); !ok {
			continue
		}
		coords, err := e.keys.Decode(token)
		if err != nil {
			return nil, fmt.Errorf("engine: stored key %q: %w", token, err)
		}
		out = append(out, coords)
	}
	return out, nil
}

// candidatesLocked yields the candidate tokens for a coordinate prefix. A
// full-arity prefix names exactly one key, so it becomes a single-token
// lookup rather than a range scan; "ab/x" as a scan prefix would also sweep
// up "ab/xy". The caller holds at least a read lock on e.mu.
func (e *Engine) candidatesLocked(coords []string) (iter.Seq[string], error) {
	if len(coords) == e.keys.Dimensions() {
		token, err := e.keys.Encode(coords)
		if err != nil {
			return nil, err
		}
		return func(yield func(string) bool) {
			yield(token)
		}, nil
	}

	scanPrefix, err := e.keys.EncodePrefix(coords)
	if err != nil {
		return nil, err
	}
	return e.scanLocked(scanPrefix), nil
}

// scanLocked yields candidate tokens in sorted order: the committed prefix
// index plus any overlay-pending keys. Pending deletes are not filtered
// here; lookupLocked handles them. The caller holds at least a read lock on
// e.mu.
func (e *Engine) scanLocked(prefix string) iter.Seq[string] {
	if len(e.pendingSets) == 0 {
		return e.basePrefix.Scan(prefix)
	}

	// Merge overlay keys into the candidate set for this scan only; the
	// committed index is rebuilt for real at commit time.
	keys := make([]string, 0, e.basePrefix.Len()+len(e.pendingSets))
	keys = append(keys, e.basePrefix.Keys()...)
	for token := range e.pendingSets {
		keys = append(keys, token)
	}
	return index.NewPrefix(keys).Scan(prefix)
}
