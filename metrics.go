package zbd

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the latency histogram buckets in nanoseconds.
// Buckets cover from 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks performance and operational statistics for the zone
// adaptation layer: how many blocks were adjusted, how often zones had to
// be reset or searched around, and how latency of those decisions behaves.
type Metrics struct {
	// Adjustment counters, one per I/O direction zbd_adjust_block handles.
	ReadAdjustments  atomic.Uint64
	WriteAdjustments atomic.Uint64
	TrimAdjustments  atomic.Uint64
	SyncAdjustments  atomic.Uint64

	// Byte counters for accepted adjustments.
	ReadBytes  atomic.Uint64
	WriteBytes atomic.Uint64

	// Error counters.
	ReadErrors  atomic.Uint64
	WriteErrors atomic.Uint64

	// Zone-state event counters.
	ResetsIssued     atomic.Uint64 // zone resets recorded, one per zone
	ZoneFullTriggers atomic.Uint64 // times zbd_zone_full forced a reset
	FindZoneFallback atomic.Uint64 // times zbd_find_zone had to search
	EOFDecisions     atomic.Uint64 // times an adjustment resulted in io_u_eof
	UnalignedWrites  atomic.Uint64 // writes that hit EIO/EREMOTEIO

	// Performance tracking.
	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64

	// Latency histogram buckets (cumulative counts).
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	// Lifecycle.
	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordRead records a read-direction adjustment.
func (m *Metrics) RecordRead(bytes uint64, latencyNs uint64, success bool) {
	m.ReadAdjustments.Add(1)
	if success {
		m.ReadBytes.Add(bytes)
	} else {
		m.ReadErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordWrite records a write-direction adjustment.
func (m *Metrics) RecordWrite(bytes uint64, latencyNs uint64, success bool) {
	m.WriteAdjustments.Add(1)
	if success {
		m.WriteBytes.Add(bytes)
	} else {
		m.WriteErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordTrim records a trim/discard-direction adjustment.
func (m *Metrics) RecordTrim(latencyNs uint64) {
	m.TrimAdjustments.Add(1)
	m.recordLatency(latencyNs)
}

// RecordSync records a flush/sync-direction adjustment.
func (m *Metrics) RecordSync(latencyNs uint64) {
	m.SyncAdjustments.Add(1)
	m.recordLatency(latencyNs)
}

// RecordReset records one zone having been reset.
func (m *Metrics) RecordReset() {
	m.ResetsIssued.Add(1)
}

// RecordZoneFull records a zone-full-triggered reset, ported from zbd.c's
// zbd_zone_full check in zbd_adjust_block's write path.
func (m *Metrics) RecordZoneFull() {
	m.ZoneFullTriggers.Add(1)
}

// RecordFindZoneFallback records zbd_find_zone having to search for
// another zone to satisfy a read.
func (m *Metrics) RecordFindZoneFallback() {
	m.FindZoneFallback.Add(1)
}

// RecordEOF records an adjustment ending in io_u_eof.
func (m *Metrics) RecordEOF() {
	m.EOFDecisions.Add(1)
}

// RecordUnalignedWrite records a write that failed with an errno
// zbd_unaligned_write classifies as a write-pointer desync.
func (m *Metrics) RecordUnalignedWrite() {
	m.UnalignedWrites.Add(1)
}

// recordLatency records operation latency and updates the histogram.
func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)

	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop marks the adaptation layer as stopped.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	ReadAdjustments  uint64
	WriteAdjustments uint64
	TrimAdjustments  uint64
	SyncAdjustments  uint64

	ReadBytes  uint64
	WriteBytes uint64

	ReadErrors  uint64
	WriteErrors uint64

	ResetsIssued     uint64
	ZoneFullTriggers uint64
	FindZoneFallback uint64
	EOFDecisions     uint64
	UnalignedWrites  uint64

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	TotalOps   uint64
	TotalBytes uint64
	ErrorRate  float64
}

// Snapshot creates a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		ReadAdjustments:  m.ReadAdjustments.Load(),
		WriteAdjustments: m.WriteAdjustments.Load(),
		TrimAdjustments:  m.TrimAdjustments.Load(),
		SyncAdjustments:  m.SyncAdjustments.Load(),
		ReadBytes:        m.ReadBytes.Load(),
		WriteBytes:       m.WriteBytes.Load(),
		ReadErrors:       m.ReadErrors.Load(),
		WriteErrors:      m.WriteErrors.Load(),
		ResetsIssued:     m.ResetsIssued.Load(),
		ZoneFullTriggers: m.ZoneFullTriggers.Load(),
		FindZoneFallback: m.FindZoneFallback.Load(),
		EOFDecisions:     m.EOFDecisions.Load(),
		UnalignedWrites:  m.UnalignedWrites.Load(),
	}

	snap.TotalOps = snap.ReadAdjustments + snap.WriteAdjustments + snap.TrimAdjustments + snap.SyncAdjustments
	snap.TotalBytes = snap.ReadBytes + snap.WriteBytes

	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	totalErrors := snap.ReadErrors + snap.WriteErrors
	if snap.TotalOps > 0 {
		snap.ErrorRate = float64(totalErrors) / float64(snap.TotalOps) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile
// (0.0-1.0) using linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}

	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset resets all metrics counters (useful for testing).
func (m *Metrics) Reset() {
	m.ReadAdjustments.Store(0)
	m.WriteAdjustments.Store(0)
	m.TrimAdjustments.Store(0)
	m.SyncAdjustments.Store(0)
	m.ReadBytes.Store(0)
	m.WriteBytes.Store(0)
	m.ReadErrors.Store(0)
	m.WriteErrors.Store(0)
	m.ResetsIssued.Store(0)
	m.ZoneFullTriggers.Store(0)
	m.FindZoneFallback.Store(0)
	m.EOFDecisions.Store(0)
	m.UnalignedWrites.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable metrics collection.
type Observer interface {
	ObserveRead(bytes uint64, latencyNs uint64, success bool)
	ObserveWrite(bytes uint64, latencyNs uint64, success bool)
	ObserveTrim(latencyNs uint64)
	ObserveSync(latencyNs uint64)
	ObserveReset()
	ObserveEOF()
}

// NoOpObserver is a no-op implementation of Observer.
type NoOpObserver struct{}

func (NoOpObserver) ObserveRead(uint64, uint64, bool)  {}
func (NoOpObserver) ObserveWrite(uint64, uint64, bool) {}
func (NoOpObserver) ObserveTrim(uint64)                {}
func (NoOpObserver) ObserveSync(uint64)                {}
func (NoOpObserver) ObserveReset()                     {}
func (NoOpObserver) ObserveEOF()                        {}

// MetricsObserver implements Observer using the built-in Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given metrics.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveRead(bytes uint64, latencyNs uint64, success bool) {
	o.metrics.RecordRead(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveWrite(bytes uint64, latencyNs uint64, success bool) {
	o.metrics.RecordWrite(bytes, latencyNs, success)
}

func (o *MetricsObserver) ObserveTrim(latencyNs uint64) {
	o.metrics.RecordTrim(latencyNs)
}

func (o *MetricsObserver) ObserveSync(latencyNs uint64) {
	o.metrics.RecordSync(latencyNs)
}

func (o *MetricsObserver) ObserveReset() {
	o.metrics.RecordReset()
}

func (o *MetricsObserver) ObserveEOF() {
	o.metrics.RecordEOF()
}

// Compile-time interface checks.
var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
