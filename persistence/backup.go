package persistence

import (
	"errors"
	"fmt"
	"io"
)

// Backup stream layout: a 6-byte header followed by the compressed state.
//
//	offset 0..3  magic "LTCB"
//	offset 4     backup format version
//	offset 5     compression id
var backupMagic = [4]byte{'L', 'T', 'C', 'B'}

const backupVersion = 1

// ErrInvalidBackup is returned when a backup stream cannot be understood.
var ErrInvalidBackup = errors.New("persistence: invalid backup stream")

// WriteBackup streams a compressed, self-describing copy of the state.
func (s *Store) WriteBackup(w io.Writer, st *State, comp Compression) error {
	if !comp.valid() {
		return fmt.Errorf("persistence: unknown compression %d", byte(comp))
	}

	header := [6]byte{backupMagic[0], backupMagic[1], backupMagic[2], backupMagic[3], backupVersion, byte(comp)}
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("persistence: write backup header: %w", err)
	}

	cw, err := compressingWriter(w, comp)
	if err != nil {
		return err
	}
	raw, err := s.codec.Marshal(st)
	if err != nil {
		return fmt.Errorf("persistence: serialize backup state: %w", err)
	}
	if _, err := cw.Write(raw); err != nil {
		cw.Close()
		return fmt.Errorf("persistence: write backup body: %w", err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("persistence: finish backup: %w", err)
	}
	return nil
}

// ReadBackup parses a backup stream back into a validated state.
func (s *Store) ReadBackup(r io.Reader) (*State, error) {
	var header [6]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: short header: %w", ErrInvalidBackup, err)
	}
	if [4]byte(header[:4]) != backupMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidBackup)
	}
	if header[4] != backupVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidBackup, header[4])
	}
	comp := Compression(header[5])
	if !comp.valid() {
		return nil, fmt.Errorf("%w: unknown compression %d", ErrInvalidBackup, header[5])
	}

	cr, err := decompressingReader(r, comp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBackup, err)
	}
	raw, err := io.ReadAll(cr)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %w", ErrInvalidBackup, err)
	}

	var st State
	if err := s.codec.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("%w: parse state: %w", ErrInvalidBackup, err)
	}
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBackup, err)
	}
	return &st, nil
}

// RestoreBackup reads a backup stream and atomically writes its state to
// this store's database path. The resulting file opens like any committed
// database.
func (s *Store) RestoreBackup(r io.Reader) error {
	st, err := s.ReadBackup(r)
	if err != nil {
		return err
	}
	return s.WriteAtomic(st)
}
