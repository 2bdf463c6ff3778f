// Package engine implements the transactional core of a lattice database:
// the in-memory overlay of pending writes, the commit/rollback protocol, and
// the overlay-aware read, find, and slice operations.
//
// One Engine value is one handle. A read-write handle owns the cross-process
// writer lock for its whole lifetime and buffers mutations in its overlay
// until Commit publishes them in a single atomic file replace. A read-only
// handle has no overlay and reloads the committed state from disk on every
// read, so it always observes the latest commit.
//
// The engine runs no goroutines of its own. In-process the handle is safe
// for concurrent use thanks to a mutex; across processes safety comes from
// the advisory locks in package flock.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/lattice/codec"
	"github.com/hupe1980/lattice/flock"
	"github.com/hupe1980/lattice/index"
	"github.com/hupe1980/lattice/internal/fs"
	"github.com/hupe1980/lattice/key"
	"github.com/hupe1980/lattice/persistence"
)

// Lock file suffixes, siblings of the database path.
const (
	WriterLockSuffix    = ".writer.lock"
	ReadWriteLockSuffix = ".rw.lock"
)

// Mode selects what a handle may do.
type Mode int

const (
	// ReadOnly handles can get, find, and slice; they take no writer lock
	// and observe the latest committed state on every read.
	ReadOnly Mode = iota
	// ReadWrite handles additionally buffer set/delete in an overlay and
	// can commit or roll back. At most one exists per database file across
	// all processes.
	ReadWrite
)

func (m Mode) String() string {
	if m == ReadWrite {
		return "read-write"
	}
	return "read-only"
}

// Options configures an engine handle.
type Options struct {
	// Codec serializes state and validates documents. Nil means codec.Default.
	Codec codec.Codec
	// FileSystem is the storage seam, for fault-injection tests. Nil means
	// the local OS filesystem.
	FileSystem fs.FileSystem
	// LockTimeout bounds every lock acquisition. Zero means fail immediately
	// when the lock is contended.
	LockTimeout time.Duration
}

// Engine is one open handle onto a database file.
type Engine struct {
	mode  Mode
	store *persistence.Store
	codec codec.Codec
	keys  *key.Codec

	writerLock *flock.Lock // held for the handle's lifetime in ReadWrite mode
	rwLock     *flock.Lock // taken shared around reads, exclusive around commits

	lockTimeout time.Duration

	mu             sync.RWMutex
	base           *persistence.State
	basePrefix     *index.Prefix
	pendingSets    map[string]any
	pendingDeletes map[string]struct{}
	closed         bool

	// Collapses concurrent base reloads of a read-only handle into one
	// disk read.
	reload singleflight.Group
}

// Open opens an existing database file. In ReadWrite mode it acquires the
// exclusive writer session lock first; a second concurrent read-write handle
// fails with ErrWriterLockBusy.
func Open(ctx context.Context, path string, mode Mode, o Options) (*Engine, error) {
	e := newEngine(path, mode, o)

	if mode == ReadWrite {
		if err := e.writerLock.Acquire(ctx, flock.Exclusive, e.lockTimeout); err != nil {
			if errors.Is(err, flock.ErrBusy) {
				return nil, fmt.Errorf("%w: %w", ErrWriterLockBusy, err)
			}
			return nil, err
		}
	}

	if err := e.recoverAndLoad(ctx); err != nil {
		if mode == ReadWrite {
			e.writerLock.Release()
		}
		return nil, err
	}
	return e, nil
}

// Create initializes a new database file with the given dimension count and
// field index definitions, and returns an open read-write handle on it.
// An existing database is only replaced when overwrite is set.
func Create(ctx context.Context, path string, dimensions int, defs []index.Definition, overwrite bool, o Options) (*Engine, error) {
	if _, err := key.NewCodec(dimensions); err != nil {
		return nil, err
	}

	e := newEngine(path, ReadWrite, o)

	// The writer lock also serializes competing creates.
	if err := e.writerLock.Acquire(ctx, flock.Exclusive, e.lockTimeout); err != nil {
		if errors.Is(err, flock.ErrBusy) {
			return nil, fmt.Errorf("%w: %w", ErrWriterLockBusy, err)
		}
		return nil, err
	}

	if err := e.createFile(ctx, dimensions, defs, overwrite); err != nil {
		e.writerLock.Release()
		return nil, err
	}

	if err := e.recoverAndLoad(ctx); err != nil {
		e.writerLock.Release()
		return nil, err
	}
	return e, nil
}

func newEngine(path string, mode Mode, o Options) *Engine {
	c := o.Codec
	if c == nil {
		c = codec.Default
	}
	return &Engine{
		mode:           mode,
		store:          persistence.NewStore(path, o.FileSystem, c),
		codec:          c,
		writerLock:     flock.New(path + WriterLockSuffix),
		rwLock:         flock.New(path + ReadWriteLockSuffix),
		lockTimeout:    o.LockTimeout,
		pendingSets:    map[string]any{},
		pendingDeletes: map[string]struct{}{},
	}
}

func (e *Engine) createFile(ctx context.Context, dimensions int, defs []index.Definition, overwrite bool) error {
	release, err := e.acquireRW(ctx, flock.Exclusive)
	if err != nil {
		return err
	}
	defer release()

	action, err := e.store.Recover()
	if err != nil {
		return err
	}
	if action != persistence.ActionFresh && !overwrite {
		return fmt.Errorf("%w: %s", ErrExists, e.store.Path())
	}

	st := persistence.NewState(dimensions, defs, time.Now())
	st.Index = index.Build(st.Data, defs, e.codec)

	return e.store.WriteAtomic(st)
}

// recoverAndLoad runs crash recovery and then loads the committed state.
// The exclusive lock covers the recovery probe as well as its repair
// actions: without it, a concurrent commit could be observed between
// staging and rename, and its staging file mistaken for a stale leftover.
func (e *Engine) recoverAndLoad(ctx context.Context) error {
	release, err := e.acquireRW(ctx, flock.Exclusive)
	if err != nil {
		return err
	}
	defer release()

	if _, err := e.store.Recover(); err != nil {
		return err
	}
	return e.loadBaseLocked()
}

// loadBaseLocked reads the committed state; the caller holds the shared
// read-write lock.
func (e *Engine) loadBaseLocked() error {
	st, err := e.store.Load()
	if err != nil {
		return err
	}
	keys, err := key.NewCodec(st.Meta.Dimensions)
	if err != nil {
		return fmt.Errorf("engine: %s: %w", e.store.Path(), err)
	}

	e.mu.Lock()
	e.base = st
	e.basePrefix = index.NewPrefix(st.Index.Prefix)
	e.keys = keys
	e.mu.Unlock()
	return nil
}

// acquireRW takes the cross-process read-write lock in the given mode and
// returns its release function.
func (e *Engine) acquireRW(ctx context.Context, mode flock.Mode) (func(), error) {
	if err := e.rwLock.Acquire(ctx, mode, e.lockTimeout); err != nil {
		if errors.Is(err, flock.ErrBusy) {
			return nil, fmt.Errorf("%w: %w", ErrReadWriteLockBusy, err)
		}
		return nil, err
	}
	return func() { e.rwLock.Release() }, nil
}

// refresh makes a read-only handle observe the latest committed state.
// Concurrent callers share one disk read.
func (e *Engine) refresh(ctx context.Context) error {
	if e.mode == ReadWrite {
		// The writer lock guarantees nobody else can have committed; the
		// base loaded at open (or after the last commit/rollback) is current.
		return nil
	}
	_, err, _ := e.reload.Do("reload", func() (any, error) {
		release, err := e.acquireRW(ctx, flock.Shared)
		if err != nil {
			return nil, err
		}
		defer release()
		return nil, e.loadBaseLocked()
	})
	return err
}

// Mode returns the handle's mode.
func (e *Engine) Mode() Mode { return e.mode }

// Path returns the database file path.
func (e *Engine) Path() string { return e.store.Path() }

// Dimensions returns the database's fixed coordinate arity.
func (e *Engine) Dimensions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.keys.Dimensions()
}

// IndexDefinitions returns the declared field indexes.
func (e *Engine) IndexDefinitions() []index.Definition {
	e.mu.RLock()
	defer e.mu.RUnlock()
	defs := make([]index.Definition, len(e.base.Meta.IndexDefinitions))
	copy(defs, e.base.Meta.IndexDefinitions)
	return defs
}

// Meta returns a copy of the committed metadata.
func (e *Engine) Meta() persistence.Meta {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.base.Meta
}

// Get returns the document at the given coordinates, or ok=false if absent.
// The overlay takes precedence on a read-write handle: a pending delete
// masks the base value, a pending set overrides it. The returned document is
// a deep copy; callers may mutate it freely.
func (e *Engine) Get(ctx context.Context, coords []string) (any, bool, error) {
	if err := e.checkOpen(); err != nil {
		return nil, false, err
	}
	if err := e.refresh(ctx); err != nil {
		return nil, false, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	token, err := e.keys.Encode(coords)
	if err != nil {
		return nil, false, err
	}

	doc, ok := e.lookupLocked(token)
	if !ok {
		return nil, false, nil
	}
	out, err := codec.Clone(e.codec, doc)
	if err != nil {
		return nil, false, fmt.Errorf("engine: copy document: %w", err)
	}
	return out, true, nil
}

// MustGet is the strict variant of Get: absence is an error.
func (e *Engine) MustGet(ctx context.Context, coords []string) (any, error) {
	doc, ok, err := e.Get(ctx, coords)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, coords)
	}
	return doc, nil
}

// lookupLocked resolves a token through overlay then base.
// The caller holds at least a read lock on e.mu.
func (e *Engine) lookupLocked(token string) (any, bool) {
	if _, deleted := e.pendingDeletes[token]; deleted {
		return nil, false
	}
	if doc, ok := e.pendingSets[token]; ok {
		return doc, true
	}
	doc, ok := e.base.Data[token]
	return doc, ok
}

// Set buffers a document write at the given coordinates. The document is
// validated and deep-copied immediately; the write becomes durable only on
// Commit.
func (e *Engine) Set(coords []string, doc any) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if e.mode != ReadWrite {
		return ErrReadOnly
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	token, err := e.keys.Encode(coords)
	if err != nil {
		return err
	}
	// Copy before touching the overlay so a validation failure mutates
	// nothing.
	stored, err := codec.Clone(e.codec, doc)
	if err != nil {
		return &ErrNotSerializable{cause: err}
	}

	e.pendingSets[token] = stored
	delete(e.pendingDeletes, token)
	return nil
}

// Delete buffers a tombstone at the given coordinates. Deleting an absent
// key is a no-op, not an error.
func (e *Engine) Delete(coords []string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	if e.mode != ReadWrite {
		return ErrReadOnly
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	token, err := e.keys.Encode(coords)
	if err != nil {
		return err
	}

	e.pendingDeletes[token] = struct{}{}
	delete(e.pendingSets, token)
	return nil
}

// Pending reports the overlay size: buffered sets and deletes not yet
// committed.
func (e *Engine) Pending() (sets, deletes int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.pendingSets), len(e.pendingDeletes)
}

// Len returns the number of documents visible to this handle, overlay
// included.
func (e *Engine) Len(ctx context.Context) (int, error) {
	if err := e.checkOpen(); err != nil {
		return 0, err
	}
	if err := e.refresh(ctx); err != nil {
		return 0, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	n := len(e.base.Data)
	for token := range e.pendingSets {
		if _, inBase := e.base.Data[token]; !inBase {
			n++
		}
	}
	for token := range e.pendingDeletes {
		if _, inBase := e.base.Data[token]; inBase {
			n--
		}
	}
	return n, nil
}

func (e *Engine) checkOpen() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrClosed
	}
	return nil
}

// Close releases the writer lock (if held) and invalidates the handle.
// An uncommitted overlay is discarded. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.pendingSets = nil
	e.pendingDeletes = nil
	e.mu.Unlock()

	if e.mode == ReadWrite {
		return e.writerLock.Release()
	}
	return nil
}
