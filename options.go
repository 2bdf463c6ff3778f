package lattice

import (
	"log/slog"
	"time"

	"github.com/hupe1980/lattice/codec"
	"github.com/hupe1980/lattice/index"
	"github.com/hupe1980/lattice/internal/fs"
)

// DefaultLockTimeout bounds lock acquisition when no explicit timeout is
// configured. Zero via WithLockTimeout means fail immediately on contention.
const DefaultLockTimeout = 5 * time.Second

type options struct {
	codec            codec.Codec
	fileSystem       fs.FileSystem
	lockTimeout      time.Duration
	indexes          []index.Definition
	overwrite        bool
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures constructor behavior for Create and Open.
//
// Options exist to avoid exploding the API surface with codec-specific or
// timeout-specific constructor variants.
type Option func(*options)

// WithCodec configures the codec used for document validation, deep copies,
// and the on-disk state encoding.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithFileSystem swaps the storage backend, primarily for fault-injection
// tests. Pass nil for the local OS filesystem.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fileSystem = fsys
	}
}

// WithLockTimeout bounds every cross-process lock acquisition. Zero means
// fail immediately when the lock is contended; the default is
// DefaultLockTimeout.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		o.lockTimeout = d
	}
}

// WithIndexes declares field indexes for a new database. Each definition
// names a dot-separated document field; the index is rebuilt on every commit
// and persisted inside the database file. Only Create consults this option.
//
// Example:
//
//	db, _ := lattice.Create(ctx, "./data.lattice", 3,
//	    lattice.WithIndexes(
//	        lattice.IndexDefinition{Name: "by-country", Field: "country"},
//	        lattice.IndexDefinition{Name: "by-zip", Field: "address.zip"},
//	    ))
func WithIndexes(defs ...index.Definition) Option {
	return func(o *options) {
		o.indexes = defs
	}
}

// WithOverwrite makes Create replace an existing database instead of
// failing with ErrDatabaseExists.
func WithOverwrite() Option {
	return func(o *options) {
		o.overwrite = true
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &lattice.BasicMetricsCollector{}
//	db, _ := lattice.Open(ctx, path, lattice.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Commits: %d, Avg latency: %dns\n", stats.CommitCount, stats.CommitAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := lattice.NewJSONLogger(slog.LevelInfo)
//	db, _ := lattice.Open(ctx, path, lattice.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		lockTimeout:      DefaultLockTimeout,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
