package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/lattice/flock"
	"github.com/hupe1980/lattice/persistence"
)

// Backup streams a compressed copy of the last committed state. The overlay
// of a read-write handle is not included: a backup captures exactly what a
// crash would leave behind.
//
// Backup takes the read-write lock through its own descriptor, not the
// handle's shared Lock value, so it can run concurrently with Commit or
// with a read-only handle's reloads without tripping the re-acquire guard.
func (e *Engine) Backup(ctx context.Context, w io.Writer, comp persistence.Compression) error {
	if err := e.checkOpen(); err != nil {
		return err
	}

	lk := flock.New(e.store.Path() + ReadWriteLockSuffix)
	if err := lk.Acquire(ctx, flock.Shared, e.lockTimeout); err != nil {
		if errors.Is(err, flock.ErrBusy) {
			return fmt.Errorf("%w: %w", ErrReadWriteLockBusy, err)
		}
		return err
	}
	defer lk.Release()

	st, err := e.store.Load()
	if err != nil {
		return err
	}
	return e.store.WriteBackup(w, st, comp)
}

// Restore atomically replaces the database at path with the state carried
// by the backup stream. It takes the writer session lock for the duration,
// so it fails with ErrWriterLockBusy while any writer handle is open on the
// target.
func Restore(ctx context.Context, path string, r io.Reader, o Options) error {
	e := newEngine(path, ReadWrite, o)

	if err := e.writerLock.Acquire(ctx, flock.Exclusive, e.lockTimeout); err != nil {
		if errors.Is(err, flock.ErrBusy) {
			return fmt.Errorf("%w: %w", ErrWriterLockBusy, err)
		}
		return err
	}
	defer e.writerLock.Release()

	release, err := e.acquireRW(ctx, flock.Exclusive)
	if err != nil {
		return err
	}
	defer release()

	return e.store.RestoreBackup(r)
}
