// Package flock provides cross-process advisory file locking with shared and
// exclusive modes and acquire-with-timeout semantics.
//
// Locks are identified by a sibling lock file on disk. They are advisory:
// every process touching the same database must go through this package.
// POSIX and Windows implement the underlying primitive differently
// (flock(2) vs LockFileEx), both hidden behind the same Lock API.
//
// A Lock value is safe for use by one goroutine at a time; the cross-process
// exclusion is provided by the OS, not by Go-level synchronization.
package flock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrBusy is returned when a lock cannot be acquired within the caller's
// timeout. The caller may retry.
var ErrBusy = errors.New("flock: lock busy")

// errWouldBlock is the platform-neutral "lock held elsewhere" signal
// produced by the per-platform lock attempt.
var errWouldBlock = errors.New("flock: would block")

// Mode selects between shared and exclusive locking.
type Mode int

const (
	// Shared allows many concurrent holders; used around reads.
	Shared Mode = iota
	// Exclusive allows a single holder; used around commits and for the
	// writer session lock.
	Exclusive
)

func (m Mode) String() string {
	if m == Exclusive {
		return "exclusive"
	}
	return "shared"
}

// pollInterval paces retry attempts while waiting for a contended lock.
const pollInterval = 10 * time.Millisecond

// Lock is an advisory lock backed by a file on disk.
type Lock struct {
	path string

	mu   sync.Mutex
	f    *os.File
	mode Mode
}

// New returns a lock backed by the given file path. The file is created on
// first acquire and intentionally never deleted: removing a lock file while
// another process holds an open descriptor to it would split the lock space.
func New(path string) *Lock {
	return &Lock{path: path}
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// TryAcquire attempts to take the lock in the given mode without waiting.
// It returns ErrBusy if another holder is in the way.
func (l *Lock) TryAcquire(mode Mode) error {
	return l.Acquire(context.Background(), mode, 0)
}

// Acquire takes the lock in the given mode, waiting up to timeout for
// competing holders to release. A zero timeout means a single immediate
// attempt. On expiry (or context cancellation) it returns ErrBusy wrapped
// with the mode and path for diagnostics.
func (l *Lock) Acquire(ctx context.Context, mode Mode, timeout time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f != nil {
		return fmt.Errorf("flock: %s already held on %s", l.mode, l.path)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("flock: open lock file %s: %w", l.path, err)
	}

	if err := l.acquireWithin(ctx, f, mode, timeout); err != nil {
		f.Close()
		return err
	}

	l.f = f
	l.mode = mode
	return nil
}

func (l *Lock) acquireWithin(ctx context.Context, f *os.File, mode Mode, timeout time.Duration) error {
	err := lockFile(f, mode)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errWouldBlock) {
		return fmt.Errorf("flock: lock %s (%s): %w", l.path, mode, err)
	}
	if timeout <= 0 {
		return fmt.Errorf("%w: %s lock on %s", ErrBusy, mode, l.path)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(pollInterval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %s lock on %s not acquired within %s", ErrBusy, mode, l.path, timeout)
		}
		err := lockFile(f, mode)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errWouldBlock) {
			return fmt.Errorf("flock: lock %s (%s): %w", l.path, mode, err)
		}
	}
}

// Release drops the lock and closes the underlying file. Releasing an
// unheld lock is a no-op.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return nil
	}
	unlockErr := unlockFile(l.f)
	closeErr := l.f.Close()
	l.f = nil

	if unlockErr != nil {
		return fmt.Errorf("flock: unlock %s: %w", l.path, unlockErr)
	}
	if closeErr != nil {
		return fmt.Errorf("flock: close %s: %w", l.path, closeErr)
	}
	return nil
}

// Held reports whether this Lock value currently holds the OS lock.
func (l *Lock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f != nil
}
