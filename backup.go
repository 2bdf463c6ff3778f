package lattice

import (
	"context"
	"io"

	"github.com/hupe1980/lattice/engine"
	"github.com/hupe1980/lattice/persistence"
)

// Compression selects the backup stream compressor. The choice is recorded
// in the backup header, so Restore never needs to be told which one was
// used.
type Compression = persistence.Compression

const (
	// CompressionGzip compresses backups with gzip.
	CompressionGzip = persistence.CompressionGzip
	// CompressionLZ4 compresses backups with the LZ4 frame format. Faster
	// than gzip, slightly larger output.
	CompressionLZ4 = persistence.CompressionLZ4
)

// Backup streams a compressed, self-describing copy of the last committed
// state to w. Buffered writes of this handle are not included; commit first
// if they should be part of the backup.
func (db *DB) Backup(ctx context.Context, w io.Writer, comp Compression) error {
	err := translateError(db.eng.Backup(ctx, w, comp))
	db.logger.LogBackup(ctx, comp.String(), err)
	return err
}

// Restore atomically replaces the database at path with the state carried
// by the backup stream. The target may but need not exist; it must not have
// an open writer handle, or Restore fails with ErrDatabaseLocked.
func Restore(ctx context.Context, path string, r io.Reader, optFns ...Option) error {
	o := applyOptions(optFns)

	err := translateError(engine.Restore(ctx, path, r, engineOptions(o)))
	o.logger.WithPath(path).LogRestore(ctx, err)
	return err
}
