package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when operations are attempted on a closed handle.
	ErrClosed = errors.New("engine: handle is closed")

	// ErrReadOnly is returned when a read-only handle is asked to mutate.
	ErrReadOnly = errors.New("engine: handle is read-only")

	// ErrExists is returned by Create when a database already exists at the
	// path and overwriting was not requested.
	ErrExists = errors.New("engine: database already exists")

	// ErrNotFound is returned by strict lookups that must have a target.
	// Plain Get reports absence with an explicit bool instead.
	ErrNotFound = errors.New("engine: key not found")

	// ErrWriterLockBusy is returned when another read-write handle holds the
	// writer session lock.
	ErrWriterLockBusy = errors.New("engine: writer lock busy")

	// ErrReadWriteLockBusy is returned when the shared/exclusive read-write
	// lock could not be acquired within the timeout.
	ErrReadWriteLockBusy = errors.New("engine: read-write lock busy")
)

// ErrNotSerializable indicates a document outside the JSON-compatible value
// subset. The codec's underlying error is available via errors.Unwrap.
type ErrNotSerializable struct {
	cause error
}

func (e *ErrNotSerializable) Error() string {
	return fmt.Sprintf("engine: document is not JSON-serializable: %v", e.cause)
}

func (e *ErrNotSerializable) Unwrap() error { return e.cause }
