package lattice

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    commitCounter   prometheus.Counter
//	    findHistogram   prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordCommit(sets, deletes int, duration time.Duration, err error) {
//	    p.commitCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordGet is called after each get operation.
	// duration is the total time taken, err is nil if successful.
	RecordGet(duration time.Duration, err error)

	// RecordSet is called after each buffered set operation.
	RecordSet(duration time.Duration, err error)

	// RecordDelete is called after each buffered delete operation.
	RecordDelete(duration time.Duration, err error)

	// RecordFind is called after each find operation.
	// results is the number of matches returned.
	RecordFind(results int, duration time.Duration, err error)

	// RecordSlice is called after each slice operation.
	RecordSlice(duration time.Duration, err error)

	// RecordCommit is called after each commit attempt.
	// sets and deletes are the overlay sizes being published.
	RecordCommit(sets, deletes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordGet(time.Duration, error)              {}
func (NoopMetricsCollector) RecordSet(time.Duration, error)              {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)           {}
func (NoopMetricsCollector) RecordFind(int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordSlice(time.Duration, error)            {}
func (NoopMetricsCollector) RecordCommit(int, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	GetCount         atomic.Int64
	GetErrors        atomic.Int64
	GetTotalNanos    atomic.Int64
	SetCount         atomic.Int64
	SetErrors        atomic.Int64
	DeleteCount      atomic.Int64
	DeleteErrors     atomic.Int64
	FindCount        atomic.Int64
	FindErrors       atomic.Int64
	FindResults      atomic.Int64
	FindTotalNanos   atomic.Int64
	SliceCount       atomic.Int64
	SliceErrors      atomic.Int64
	CommitCount      atomic.Int64
	CommitErrors     atomic.Int64
	CommitSets       atomic.Int64
	CommitDeletes    atomic.Int64
	CommitTotalNanos atomic.Int64
}

// RecordGet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGet(duration time.Duration, err error) {
	b.GetCount.Add(1)
	b.GetTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.GetErrors.Add(1)
	}
}

// RecordSet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSet(duration time.Duration, err error) {
	b.SetCount.Add(1)
	if err != nil {
		b.SetErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(duration time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordFind implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFind(results int, duration time.Duration, err error) {
	b.FindCount.Add(1)
	b.FindResults.Add(int64(results))
	b.FindTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FindErrors.Add(1)
	}
}

// RecordSlice implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSlice(duration time.Duration, err error) {
	b.SliceCount.Add(1)
	if err != nil {
		b.SliceErrors.Add(1)
	}
}

// RecordCommit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCommit(sets, deletes int, duration time.Duration, err error) {
	b.CommitCount.Add(1)
	b.CommitSets.Add(int64(sets))
	b.CommitDeletes.Add(int64(deletes))
	b.CommitTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CommitErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		GetCount:       b.GetCount.Load(),
		GetErrors:      b.GetErrors.Load(),
		GetAvgNanos:    b.getAvgGetNanos(),
		SetCount:       b.SetCount.Load(),
		SetErrors:      b.SetErrors.Load(),
		DeleteCount:    b.DeleteCount.Load(),
		DeleteErrors:   b.DeleteErrors.Load(),
		FindCount:      b.FindCount.Load(),
		FindErrors:     b.FindErrors.Load(),
		FindResults:    b.FindResults.Load(),
		FindAvgNanos:   b.getAvgFindNanos(),
		SliceCount:     b.SliceCount.Load(),
		SliceErrors:    b.SliceErrors.Load(),
		CommitCount:    b.CommitCount.Load(),
		CommitErrors:   b.CommitErrors.Load(),
		CommitSets:     b.CommitSets.Load(),
		CommitDeletes:  b.CommitDeletes.Load(),
		CommitAvgNanos: b.getAvgCommitNanos(),
	}
}

func (b *BasicMetricsCollector) getAvgGetNanos() int64 {
	count := b.GetCount.Load()
	if count == 0 {
		return 0
	}
	return b.GetTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgFindNanos() int64 {
	count := b.FindCount.Load()
	if count == 0 {
		return 0
	}
	return b.FindTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgCommitNanos() int64 {
	count := b.CommitCount.Load()
	if count == 0 {
		return 0
	}
	return b.CommitTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	GetCount       int64
	GetErrors      int64
	GetAvgNanos    int64
	SetCount       int64
	SetErrors      int64
	DeleteCount    int64
	DeleteErrors   int64
	FindCount      int64
	FindErrors     int64
	FindResults    int64
	FindAvgNanos   int64
	SliceCount     int64
	SliceErrors    int64
	CommitCount    int64
	CommitErrors   int64
	CommitSets     int64
	CommitDeletes  int64
	CommitAvgNanos int64
}
