package lattice

import (
	"errors"
	"fmt"

	"github.com/hupe1980/lattice/engine"
	"github.com/hupe1980/lattice/key"
	"github.com/hupe1980/lattice/persistence"
)

var (
	// ErrNotFound is returned by strict lookups when the key has no document.
	ErrNotFound = errors.New("key not found")

	// ErrClosed is returned when operations are attempted on a closed handle.
	ErrClosed = errors.New("database is closed")

	// ErrReadOnly is returned when a read-only handle is asked to mutate.
	ErrReadOnly = errors.New("database is read-only")

	// ErrDatabaseExists is returned by Create when its target already exists
	// and overwriting was not requested.
	ErrDatabaseExists = errors.New("database already exists")

	// ErrDatabaseNotExist is returned by Open when no database file exists at
	// the path.
	ErrDatabaseNotExist = errors.New("database does not exist")

	// ErrDatabaseLocked is returned when another writer holds a lock this
	// operation needs.
	ErrDatabaseLocked = errors.New("database is locked")

	// ErrInvalidBackup is returned by Restore when the stream is not a
	// lattice backup.
	ErrInvalidBackup = errors.New("invalid backup")
)

// ErrDimensionMismatch indicates a key/selector arity that does not match
// the database's fixed dimension count.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrNotSerializable indicates a document outside the JSON-compatible value
// subset.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrNotSerializable struct {
	cause error
}

func (e *ErrNotSerializable) Error() string {
	return fmt.Sprintf("document is not JSON-serializable: %v", e.cause)
}

func (e *ErrNotSerializable) Unwrap() error { return e.cause }

// ErrCorrupted indicates that neither the database file nor its staging
// sibling held a readable state during recovery.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrCorrupted struct {
	Path  string
	cause error
}

func (e *ErrCorrupted) Error() string {
	return fmt.Sprintf("database corrupted: %s", e.Path)
}

func (e *ErrCorrupted) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, engine.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, engine.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	if errors.Is(err, engine.ErrReadOnly) {
		return fmt.Errorf("%w: %w", ErrReadOnly, err)
	}
	if errors.Is(err, engine.ErrExists) {
		return fmt.Errorf("%w: %w", ErrDatabaseExists, err)
	}
	if errors.Is(err, persistence.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrDatabaseNotExist, err)
	}
	if errors.Is(err, engine.ErrWriterLockBusy) || errors.Is(err, engine.ErrReadWriteLockBusy) {
		return fmt.Errorf("%w: %w", ErrDatabaseLocked, err)
	}
	if errors.Is(err, persistence.ErrInvalidBackup) {
		return fmt.Errorf("%w: %w", ErrInvalidBackup, err)
	}

	var dm *key.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var ns *engine.ErrNotSerializable
	if errors.As(err, &ns) {
		return &ErrNotSerializable{cause: err}
	}
	var ec *persistence.ErrCorrupted
	if errors.As(err, &ec) {
		return &ErrCorrupted{Path: ec.Path, cause: err}
	}

	return err
}
