package app

import (
	"sync/atomic"
	"time"
)

// Metrics counts session activity.
type Metrics struct {
	// Scan timing
	scanCount   atomic.Uint64
	scanTotalNs atomic.Int64
	scanMinNs   atomic.Int64
	scanMaxNs   atomic.Int64

	// Write-back outcomes
	synced   atomic.Uint64
	unsynced atomic.Uint64
	toggled  atomic.Uint64
	dropped  atomic.Uint64

	enhanced atomic.Uint64
	submits  atomic.Uint64
	reloads  atomic.Uint64
	writes   atomic.Uint64
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max int64 so the first scan will be smaller
	m.scanMinNs.Store(1<<63 - 1)
	return m
}

// RecordScan records the duration of one scan.
func (m *Metrics) RecordScan(duration time.Duration) {
	ns := duration.Nanoseconds()

	m.scanCount.Add(1)
	m.scanTotalNs.Add(ns)

	for {
		old := m.scanMinNs.Load()
		if ns >= old || m.scanMinNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.scanMaxNs.Load()
		if ns <= old || m.scanMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordSync records a reconcile outcome.
func (m *Metrics) RecordSync(ok bool) {
	if ok {
		m.synced.Add(1)
		return
	}
	m.unsynced.Add(1)
}

// RecordToggle records a checkbox write-back outcome.
func (m *Metrics) RecordToggle(ok bool) {
	if ok {
		m.toggled.Add(1)
		return
	}
	m.dropped.Add(1)
}

// RecordEnhanced records a newly enhanced container.
func (m *Metrics) RecordEnhanced() { m.enhanced.Add(1) }

// RecordSubmit records a form submission.
func (m *Metrics) RecordSubmit() { m.submits.Add(1) }

// RecordReload records a source reload from disk.
func (m *Metrics) RecordReload() { m.reloads.Add(1) }

// RecordWrite records a write to a source buffer.
func (m *Metrics) RecordWrite() { m.writes.Add(1) }

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	scans := m.scanCount.Load()

	var avg time.Duration
	if scans > 0 {
		avg = time.Duration(m.scanTotalNs.Load() / int64(scans))
	}
	minNs := m.scanMinNs.Load()
	if minNs == 1<<63-1 {
		minNs = 0
	}

	return MetricsSnapshot{
		Scans:      scans,
		AvgScan:    avg,
		MinScan:    time.Duration(minNs),
		MaxScan:    time.Duration(m.scanMaxNs.Load()),
		Synced:     m.synced.Load(),
		Unsynced:   m.unsynced.Load(),
		Toggled:    m.toggled.Load(),
		Dropped:    m.dropped.Load(),
		Containers: m.enhanced.Load(),
		Submits:    m.submits.Load(),
		Reloads:    m.reloads.Load(),
		Writes:     m.writes.Load(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.scanCount.Store(0)
	m.scanTotalNs.Store(0)
	m.scanMinNs.Store(1<<63 - 1)
	m.scanMaxNs.Store(0)
	m.synced.Store(0)
	m.unsynced.Store(0)
	m.toggled.Store(0)
	m.dropped.Store(0)
	m.enhanced.Store(0)
	m.submits.Store(0)
	m.reloads.Store(0)
	m.writes.Store(0)
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Scans      uint64
	AvgScan    time.Duration
	MinScan    time.Duration
	MaxScan    time.Duration
	Synced     uint64
	Unsynced   uint64
	Toggled    uint64
	Dropped    uint64
	Containers uint64
	Submits    uint64
	Reloads    uint64
	Writes     uint64
}

// SyncRate returns the percentage of reconciles that found a match.
func (s MetricsSnapshot) SyncRate() float64 {
	total := s.Synced + s.Unsynced
	if total == 0 {
		return 0
	}
	return float64(s.Synced) / float64(total) * 100
}

// ComponentStats are the counters kept by the sync components themselves.
type ComponentStats struct {
	// Scheduler
	Notifications uint64
	Coalesced     uint64

	// Debounced syncs that fired on their timer or were flushed early
	Fired   uint64
	Flushed uint64

	// Reconciliation engine
	Reconciled uint64
	Unmatched  uint64

	// Checkbox mapper
	Toggled uint64
	Dropped uint64

	// Submit guard
	GuardFlushes uint64
	GuardSynced  uint64
}
