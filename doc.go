// Package lattice provides an embedded N-dimensional document database for Go.
//
// Lattice stores JSON-compatible documents addressed by fixed-length
// coordinate keys. A three-dimensional database might key documents by
// (year, region, city); every key in one database has the same number of
// components, chosen at creation time.
//
// # Quick Start
//
//	ctx := context.Background()
//	db, _ := lattice.Create(ctx, "./cities.lattice", 3)
//	defer db.Close()
//
//	db.Set(ctx, []string{"2024", "eu", "berlin"}, map[string]any{"pop": 3.7})
//	db.Commit(ctx)
//
//	doc, ok, _ := db.Get(ctx, "2024", "eu", "berlin")
//
// Re-open an existing database with Open (read-write) or OpenReadOnly.
//
// # Durability Model
//
// Lattice uses commit-oriented durability. Set and Delete buffer changes in
// the handle; Commit publishes them in a single atomic file replace:
//
//	db.Set(ctx, key, doc)  // buffered in memory
//	db.Commit(ctx)         // durable after this
//
// A crash at any point leaves either the previous committed state or the
// new one, never a mix. Rollback discards the buffer.
//
// # Concurrency Model
//
// At most one writer handle exists per database file across all processes;
// a second Open fails with ErrDatabaseLocked. Read-only handles are
// unlimited and always observe the latest commit.
//
// # Queries
//
// Find scans a key prefix and filters documents with a predicate tree from
// the query package:
//
//	results, _ := db.Find(ctx, []string{"2024"},
//	    query.And(query.Eq("country", "de"), query.Gt("pop", 1)))
//
// Slice extracts a nested sub-tree with one selector per dimension:
//
//	tree, _ := db.Slice(ctx, query.Exact("2024"), query.Any(), query.Any())
//
// # Key Features
//
//   - Fixed-arity coordinate keys with arbitrary string components
//   - Atomic, crash-safe commits (temp file + fsync + rename)
//   - Cross-process advisory locking, single-writer/multi-reader
//   - Prefix and declared field indexes, rebuilt per commit
//   - Predicate queries and dimensional slicing
//   - Compressed backups (gzip/LZ4) with atomic restore
package lattice
