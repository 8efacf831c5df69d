package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	fetchesTotal  atomic.Uint64
	fetchErrors   atomic.Uint64
	viewsComputed atomic.Uint64
	iconsSynced   atomic.Uint64
	iconErrors    atomic.Uint64

	// Latency tracking (view computation)
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	recordsHeld   atomic.Int64
	activeClients atomic.Int32
	lastFetchUnix atomic.Int64
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordFetch records a successful market fetch and the resulting list size.
func (m *Metrics) RecordFetch(records int) {
	m.fetchesTotal.Add(1)
	m.recordsHeld.Store(int64(records))
	m.lastFetchUnix.Store(time.Now().Unix())
}

// RecordFetchError records a failed market fetch.
func (m *Metrics) RecordFetchError() {
	m.fetchErrors.Add(1)
}

// RecordView records a view computation with latency.
func (m *Metrics) RecordView(latencyNs int64) {
	m.viewsComputed.Add(1)
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)
}

// RecordIcon records an icon sync result.
func (m *Metrics) RecordIcon(err error) {
	if err != nil {
		m.iconErrors.Add(1)
		return
	}
	m.iconsSynced.Add(1)
}

// IncrementClients increments active WebSocket clients by 1.
func (m *Metrics) IncrementClients() {
	m.activeClients.Add(1)
}

// DecrementClients decrements active WebSocket clients by 1.
func (m *Metrics) DecrementClients() {
	m.activeClients.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	FetchesTotal     uint64    `json:"fetches_total"`
	FetchErrors      uint64    `json:"fetch_errors"`
	ViewsComputed    uint64    `json:"views_computed"`
	AvgViewLatencyNs int64     `json:"avg_view_latency_ns"`
	IconsSynced      uint64    `json:"icons_synced"`
	IconErrors       uint64    `json:"icon_errors"`
	RecordsHeld      int64     `json:"records_held"`
	ActiveClients    int32     `json:"active_clients"`
	LastFetch        time.Time `json:"last_fetch,omitzero"`
	Timestamp        time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	var lastFetch time.Time
	if ts := m.lastFetchUnix.Load(); ts > 0 {
		lastFetch = time.Unix(ts, 0)
	}

	return MetricsSnapshot{
		FetchesTotal:     m.fetchesTotal.Load(),
		FetchErrors:      m.fetchErrors.Load(),
		ViewsComputed:    m.viewsComputed.Load(),
		AvgViewLatencyNs: avgLatency,
		IconsSynced:      m.iconsSynced.Load(),
		IconErrors:       m.iconErrors.Load(),
		RecordsHeld:      m.recordsHeld.Load(),
		ActiveClients:    m.activeClients.Load(),
		LastFetch:        lastFetch,
		Timestamp:        time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.fetchesTotal.Store(0)
	m.fetchErrors.Store(0)
	m.viewsComputed.Store(0)
	m.iconsSynced.Store(0)
	m.iconErrors.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.recordsHeld.Store(0)
	m.activeClients.Store(0)
	m.lastFetchUnix.Store(0)
}
