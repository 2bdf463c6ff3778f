package engine

import (
	"context"
	"time"

	"github.com/hupe1980/lattice/flock"

	"github.com/hupe1980/lattice/index"
	"github.com/hupe1980/lattice/persistence"
)

// Commit publishes the overlay in one atomic step: it takes the exclusive
// read-write lock, merges the overlay into the base state, rebuilds both
// indexes from the merged data, atomically replaces the database file, and
// only then swaps the in-memory base and clears the overlay.
//
// If anything fails before the file is replaced, the overlay is left intact
// and the caller may retry; nothing is lost.
func (e *Engine) Commit(ctx context.Context) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if e.mode != ReadWrite {
		return ErrReadOnly
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.pendingSets) == 0 && len(e.pendingDeletes) == 0 {
		return nil
	}

	release, err := e.acquireRW(ctx, flock.Exclusive)
	if err != nil {
		return err
	}
	defer release()

	merged := e.mergedStateLocked(time.Now())
	if err := e.store.WriteAtomic(merged); err != nil {
		return err
	}

	e.base = merged
	e.basePrefix = index.NewPrefix(merged.Index.Prefix)
	e.pendingSets = map[string]any{}
	e.pendingDeletes = map[string]struct{}{}
	return nil
}

// mergedStateLocked computes base plus overlay with freshly rebuilt indexes.
// The caller holds e.mu exclusively.
func (e *Engine) mergedStateLocked(now time.Time) *persistence.State {
	data := make(map[string]any, len(e.base.Data)+len(e.pendingSets))
	for token, doc := range e.base.Data {
		if _, deleted := e.pendingDeletes[token]; deleted {
			continue
		}
		data[token] = doc
	}
	for token, doc := range e.pendingSets {
		data[token] = doc
	}

	meta := e.base.Meta
	meta.UpdatedAt = now.UTC().Truncate(time.Second)

	return &persistence.State{
		Format:        persistence.FormatName,
		FormatVersion: persistence.FormatVersion,
		Meta:          meta,
		Data:          data,
		Index:         index.Build(data, meta.IndexDefinitions, e.codec),
	}
}

// Rollback discards the overlay and reloads the committed state from disk
// under a shared read lock.
func (e *Engine) Rollback(ctx context.Context) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if e.mode != ReadWrite {
		return ErrReadOnly
	}

	e.mu.Lock()
	e.pendingSets = map[string]any{}
	e.pendingDeletes = map[string]struct{}{}
	e.mu.Unlock()

	release, err := e.acquireRW(ctx, flock.Shared)
	if err != nil {
		return err
	}
	defer release()
	return e.loadBaseLocked()
}
