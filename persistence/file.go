package persistence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hupe1980/lattice/codec"
	"github.com/hupe1980/lattice/internal/fs"
)

var (
	// ErrWriteFailed wraps any I/O failure during the staging phase of an
	// atomic write. The destination file is untouched when it is returned.
	ErrWriteFailed = errors.New("persistence: write failed")

	// ErrNotExist is returned when loading a database file that does not exist.
	ErrNotExist = errors.New("persistence: database file does not exist")
)

// ErrCorrupted reports that neither the main file nor the staging file held a
// parseable state. It is fatal to opening the database: guessing past the
// documented recovery rules would mask real corruption.
type ErrCorrupted struct {
	Path     string
	TempPath string // empty if no staging file existed
	cause    error
}

func (e *ErrCorrupted) Error() string {
	if e.TempPath != "" {
		return fmt.Sprintf("persistence: corrupted database: neither %s nor %s is readable", e.Path, e.TempPath)
	}
	return fmt.Sprintf("persistence: corrupted database: %s is not readable", e.Path)
}

func (e *ErrCorrupted) Unwrap() error { return e.cause }

// Store reads and writes one database file.
type Store struct {
	path  string
	fsys  fs.FileSystem
	codec codec.Codec
}

// NewStore returns a store for the given database path. A nil filesystem
// defaults to the local OS; a nil codec defaults to codec.Default.
func NewStore(path string, fsys fs.FileSystem, c codec.Codec) *Store {
	if fsys == nil {
		fsys = fs.Default
	}
	if c == nil {
		c = codec.Default
	}
	return &Store{path: path, fsys: fsys, codec: c}
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// TempPath returns the sibling staging file path.
func (s *Store) TempPath() string { return s.path + TempSuffix }

// Exists reports whether the main database file is present.
func (s *Store) Exists() (bool, error) {
	_, err := s.fsys.Stat(s.path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("persistence: stat %s: %w", s.path, err)
}

// Load reads and validates the committed state. Callers must run Recover
// first; Load itself assumes the main file is the single source of truth.
func (s *Store) Load() (*State, error) {
	st, err := s.parseFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, s.path)
		}
		return nil, &ErrCorrupted{Path: s.path, cause: err}
	}
	return st, nil
}

// WriteAtomic publishes a new state with the staged-rename protocol:
//
//  1. serialize the state
//  2. write it to the staging file and fsync the file contents
//  3. rename the staging file onto the database path
//  4. best-effort fsync of the containing directory
//
// A failure in steps 1-2 returns ErrWriteFailed and leaves the database path
// untouched. Step 3 is atomic by the platform's rename contract.
func (s *Store) WriteAtomic(st *State) error {
	raw, err := s.codec.Marshal(st)
	if err != nil {
		return fmt.Errorf("%w: serialize state: %w", ErrWriteFailed, err)
	}

	tmp := s.TempPath()
	if err := s.stageFile(tmp, raw); err != nil {
		// Remove the partial staging file so a later open does not have to
		// reason about it; ignore failures, recovery handles leftovers.
		_ = s.fsys.Remove(tmp)
		return err
	}

	if err := s.fsys.Rename(tmp, s.path); err != nil {
		_ = s.fsys.Remove(tmp)
		return fmt.Errorf("%w: rename %s onto %s: %w", ErrWriteFailed, tmp, s.path, err)
	}

	// Survive machine crash, not just process crash. Some filesystems do not
	// support directory fsync; the rename itself already happened.
	_ = fs.SyncDir(s.fsys, filepath.Dir(s.path))

	return nil
}

func (s *Store) stageFile(tmp string, raw []byte) error {
	f, err := s.fsys.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrWriteFailed, tmp, err)
	}
	if _, err := f.Write(raw); err != nil {
		f.Close()
		return fmt.Errorf("%w: write %s: %w", ErrWriteFailed, tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("%w: sync %s: %w", ErrWriteFailed, tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrWriteFailed, tmp, err)
	}
	return nil
}

// parseFile reads a candidate state file and validates it.
func (s *Store) parseFile(path string) (*State, error) {
	raw, err := fs.ReadFile(s.fsys, path)
	if err != nil {
		return nil, err
	}
	var st State
	if err := s.codec.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return &st, nil
}
