package lattice

import (
	"context"
	"time"

	"github.com/hupe1980/lattice/engine"
	"github.com/hupe1980/lattice/index"
	"github.com/hupe1980/lattice/query"
)

// IndexDefinition declares one persisted field index; see WithIndexes.
type IndexDefinition = index.Definition

// Result is one Find match: the decoded coordinate key and a deep copy of
// the matched document.
type Result = engine.Result

// DB is one open handle onto a lattice database file.
//
// A handle obtained from Create or Open is a writer: it holds the exclusive
// cross-process writer lock for its whole lifetime, buffers Set and Delete
// in memory, and publishes them atomically on Commit. A handle from
// OpenReadOnly takes no writer lock and observes the latest committed state
// on every read.
//
// A DB is safe for concurrent use by multiple goroutines.
type DB struct {
	eng     *engine.Engine
	opts    options
	logger  *Logger
	metrics MetricsCollector
}

// Create initializes a new database file with the given number of key
// dimensions and returns an open read-write handle on it. Creation fails
// with ErrDatabaseExists when the file is already present, unless
// WithOverwrite is given.
func Create(ctx context.Context, path string, dimensions int, optFns ...Option) (*DB, error) {
	o := applyOptions(optFns)

	eng, err := engine.Create(ctx, path, dimensions, o.indexes, o.overwrite, engineOptions(o))
	if err != nil {
		return nil, translateError(err)
	}

	db := newDB(eng, o)
	db.logger.InfoContext(ctx, "database created")
	return db, nil
}

// Open opens an existing database for reading and writing. It fails with
// ErrDatabaseLocked while another writer handle exists, and with
// ErrDatabaseNotExist when there is no database at the path.
func Open(ctx context.Context, path string, optFns ...Option) (*DB, error) {
	return open(ctx, path, engine.ReadWrite, optFns)
}

// OpenReadOnly opens an existing database for reading. Any number of
// read-only handles may coexist with each other and with one writer; each
// read observes the latest committed state.
func OpenReadOnly(ctx context.Context, path string, optFns ...Option) (*DB, error) {
	return open(ctx, path, engine.ReadOnly, optFns)
}

func open(ctx context.Context, path string, mode engine.Mode, optFns []Option) (*DB, error) {
	o := applyOptions(optFns)

	eng, err := engine.Open(ctx, path, mode, engineOptions(o))
	if err != nil {
		return nil, translateError(err)
	}

	db := newDB(eng, o)
	db.logger.DebugContext(ctx, "database opened", "mode", mode.String())
	return db, nil
}

func engineOptions(o options) engine.Options {
	return engine.Options{
		Codec:       o.codec,
		FileSystem:  o.fileSystem,
		LockTimeout: o.lockTimeout,
	}
}

func newDB(eng *engine.Engine, o options) *DB {
	return &DB{
		eng:     eng,
		opts:    o,
		logger:  o.logger.WithPath(eng.Path()).WithDimensions(eng.Dimensions()),
		metrics: o.metricsCollector,
	}
}

// Path returns the database file path.
func (db *DB) Path() string { return db.eng.Path() }

// Dimensions returns the fixed number of key components.
func (db *DB) Dimensions() int { return db.eng.Dimensions() }

// ReadOnly reports whether this handle was opened via OpenReadOnly.
func (db *DB) ReadOnly() bool { return db.eng.Mode() == engine.ReadOnly }

// Indexes returns the field index definitions declared at creation.
func (db *DB) Indexes() []IndexDefinition { return db.eng.IndexDefinitions() }

// Get returns the document stored at the given coordinates, or ok=false if
// the key holds nothing. The returned document is a deep copy; callers may
// mutate it without affecting the database.
func (db *DB) Get(ctx context.Context, key ...string) (doc any, ok bool, err error) {
	start := time.Now()
	doc, ok, err = db.eng.Get(ctx, key)
	err = translateError(err)
	db.metrics.RecordGet(time.Since(start), err)
	return doc, ok, err
}

// MustGet is the strict variant of Get: a missing key is an ErrNotFound
// error rather than an ok=false result.
func (db *DB) MustGet(ctx context.Context, key ...string) (any, error) {
	start := time.Now()
	doc, err := db.eng.MustGet(ctx, key)
	err = translateError(err)
	db.metrics.RecordGet(time.Since(start), err)
	return doc, err
}

// Set stores a document at the given coordinates, replacing any previous
// one. The write is buffered in this handle and becomes durable and visible
// to other handles only after Commit. The document must consist of
// JSON-compatible values; it is validated and deep-copied immediately, so
// later caller mutations have no effect.
func (db *DB) Set(ctx context.Context, key []string, doc any) error {
	start := time.Now()
	err := translateError(db.eng.Set(key, doc))
	db.metrics.RecordSet(time.Since(start), err)
	db.logger.LogSet(ctx, key, err)
	return err
}

// Delete removes the document at the given coordinates. Deleting a missing
// key is a no-op. Like Set, the removal is buffered until Commit.
func (db *DB) Delete(ctx context.Context, key ...string) error {
	start := time.Now()
	err := translateError(db.eng.Delete(key))
	db.metrics.RecordDelete(time.Since(start), err)
	db.logger.LogDelete(ctx, key, err)
	return err
}

// Find returns every document under the coordinate prefix that satisfies
// the predicate, in stable key order. A nil predicate matches everything;
// an empty prefix scans the whole database. Uncommitted writes of this
// handle are visible.
func (db *DB) Find(ctx context.Context, prefix []string, where query.Predicate) ([]Result, error) {
	start := time.Now()
	results, err := db.eng.Find(ctx, prefix, where)
	err = translateError(err)
	db.metrics.RecordFind(len(results), time.Since(start), err)
	db.logger.LogFind(ctx, prefix, len(results), err)
	return results, err
}

// Keys returns the coordinate keys under the given prefix in stable key
// order. An empty prefix lists every key.
func (db *DB) Keys(ctx context.Context, prefix ...string) ([][]string, error) {
	keys, err := db.eng.Keys(ctx, prefix)
	return keys, translateError(err)
}

// Slice extracts a nested sub-tree of the keyspace: one selector per
// dimension, a result map nested one level per dimension. See the query
// package for the selector vocabulary (Any, Exact, OneOf, ComponentFunc).
func (db *DB) Slice(ctx context.Context, selectors ...query.Selector) (map[string]any, error) {
	start := time.Now()
	tree, err := db.eng.Slice(ctx, selectors)
	err = translateError(err)
	db.metrics.RecordSlice(time.Since(start), err)
	return tree, err
}

// Len returns the number of documents visible to this handle, pending
// writes included.
func (db *DB) Len(ctx context.Context) (int, error) {
	n, err := db.eng.Len(ctx)
	return n, translateError(err)
}

// Pending reports the buffered, uncommitted overlay size of a writer
// handle.
func (db *DB) Pending() (sets, deletes int) { return db.eng.Pending() }

// Commit durably publishes all buffered writes in one atomic step. Either
// every pending set and delete becomes visible to other handles, or — if
// anything fails — none do and the buffer is kept for a retry. Committing
// with nothing pending is a no-op.
func (db *DB) Commit(ctx context.Context) error {
	sets, deletes := db.eng.Pending()

	start := time.Now()
	err := translateError(db.eng.Commit(ctx))
	db.metrics.RecordCommit(sets, deletes, time.Since(start), err)
	db.logger.LogCommit(ctx, sets, deletes, err)
	return err
}

// Rollback discards all buffered writes and reverts the handle to the
// latest committed state.
func (db *DB) Rollback(ctx context.Context) error {
	sets, deletes := db.eng.Pending()

	err := translateError(db.eng.Rollback(ctx))
	db.logger.LogRollback(ctx, sets, deletes, err)
	return err
}

// Stats is a point-in-time snapshot of database shape and handle state.
type Stats struct {
	Path           string
	Dimensions     int
	Documents      int
	PendingSets    int
	PendingDeletes int
	Indexes        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Stats returns a snapshot of the database as seen by this handle.
func (db *DB) Stats(ctx context.Context) (Stats, error) {
	n, err := db.eng.Len(ctx)
	if err != nil {
		return Stats{}, translateError(err)
	}
	sets, deletes := db.eng.Pending()
	meta := db.eng.Meta()

	return Stats{
		Path:           db.eng.Path(),
		Dimensions:     meta.Dimensions,
		Documents:      n,
		PendingSets:    sets,
		PendingDeletes: deletes,
		Indexes:        len(meta.IndexDefinitions),
		CreatedAt:      meta.CreatedAt,
		UpdatedAt:      meta.UpdatedAt,
	}, nil
}

// Close releases the handle and, for a writer, its cross-process writer
// lock. Buffered writes that were never committed are discarded. Close is
// idempotent.
func (db *DB) Close() error {
	if db == nil {
		return nil
	}
	return translateError(db.eng.Close())
}
