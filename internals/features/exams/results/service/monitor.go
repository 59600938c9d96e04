// file: internals/features/exams/results/service/monitor.go
package service

import (
	"log"
	"sync"
	"time"
)

/* =========================================================
   PERFORMANCE MONITOR
   Ring buffer kecil & bounded, advisory only:
   - aman hilang saat restart
   - TIDAK pernah dipakai untuk correctness
   Dashboard agregat baca dari exam_results (provenance),
   bukan dari ring ini.
========================================================= */

// Bucket latency (ms)
const (
	BucketFast     = "<=15ms"
	BucketGood     = "<=25ms"
	BucketOK       = "<=50ms"
	BucketSlow     = "<=100ms"
	BucketVerySlow = ">100ms"
)

// Outcome terminal satu submission
const (
	OutcomeStored         = "stored"
	OutcomeFallbackStored = "fallback_stored"
	OutcomeRejected       = "rejected"
	OutcomeError          = "error"
)

type SubmissionMetric struct {
	RequestID    string    `json:"request_id"`
	TotalMs      int64     `json:"total_ms"`
	ValidationMs int64     `json:"validation_ms"`
	StorageMs    int64     `json:"storage_ms"`
	Outcome      string    `json:"outcome"`
	Bucket       string    `json:"bucket"`
	At           time.Time `json:"at"`
}

type MonitorSnapshot struct {
	WindowCount  int            `json:"window_count"`
	Buckets      map[string]int `json:"buckets"`
	Outcomes     map[string]int `json:"outcomes"`
	AvgTotalMs   float64        `json:"avg_total_ms"`
	FallbackRate float64        `json:"fallback_rate"`
}

type PerformanceMonitor struct {
	mu    sync.Mutex
	ring  []SubmissionMetric
	next  int
	count int
}

// NewPerformanceMonitor membuat monitor dengan window bounded.
// Eviction: ring buffer — entry tertua tertimpa saat penuh.
func NewPerformanceMonitor(windowSize int) *PerformanceMonitor {
	if windowSize <= 0 {
		windowSize = 200
	}
	return &PerformanceMonitor{ring: make([]SubmissionMetric, windowSize)}
}

func (m *PerformanceMonitor) Record(metric SubmissionMetric) {
	if metric.At.IsZero() {
		metric.At = time.Now()
	}
	metric.Bucket = ClassifyLatency(metric.TotalMs)

	m.mu.Lock()
	m.ring[m.next] = metric
	m.next = (m.next + 1) % len(m.ring)
	if m.count < len(m.ring) {
		m.count++
	}
	windowAvg, recentAvg := m.averagesLocked()
	m.mu.Unlock()

	log.Printf("[MONITOR] req=%s outcome=%s bucket=%s total=%dms validasi=%dms storage=%dms",
		metric.RequestID, metric.Outcome, metric.Bucket, metric.TotalMs, metric.ValidationMs, metric.StorageMs)

	// Regression warning: rata-rata 20 submission terakhir memburuk jauh
	// dibanding rata-rata window. Advisory — cuma log.
	if windowAvg > 0 && recentAvg > 1.5*windowAvg && m.Count() >= 40 {
		log.Printf("[MONITOR] ⚠️ regresi performa: recent avg %.1fms vs window avg %.1fms", recentAvg, windowAvg)
	}
}

// Count jumlah entry yang terisi di window
func (m *PerformanceMonitor) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

func (m *PerformanceMonitor) Snapshot() MonitorSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MonitorSnapshot{
		WindowCount: m.count,
		Buckets:     make(map[string]int),
		Outcomes:    make(map[string]int),
	}

	var sum int64
	fallbacks := 0
	for i := 0; i < m.count; i++ {
		entry := m.ring[i]
		snap.Buckets[entry.Bucket]++
		snap.Outcomes[entry.Outcome]++
		sum += entry.TotalMs
		if entry.Outcome == OutcomeFallbackStored {
			fallbacks++
		}
	}
	if m.count > 0 {
		snap.AvgTotalMs = float64(sum) / float64(m.count)
		snap.FallbackRate = float64(fallbacks) / float64(m.count)
	}
	return snap
}

// averagesLocked: (avg seluruh window, avg 20 terakhir). Caller pegang lock.
func (m *PerformanceMonitor) averagesLocked() (float64, float64) {
	if m.count == 0 {
		return 0, 0
	}

	var sum int64
	for i := 0; i < m.count; i++ {
		sum += m.ring[i].TotalMs
	}
	windowAvg := float64(sum) / float64(m.count)

	recentN := 20
	if recentN > m.count {
		recentN = m.count
	}
	var recentSum int64
	for i := 0; i < recentN; i++ {
		idx := (m.next - 1 - i + len(m.ring)*2) % len(m.ring)
		recentSum += m.ring[idx].TotalMs
	}
	recentAvg := float64(recentSum) / float64(recentN)

	return windowAvg, recentAvg
}

func ClassifyLatency(totalMs int64) string {
	switch {
	case totalMs <= 15:
		return BucketFast
	case totalMs <= 25:
		return BucketGood
	case totalMs <= 50:
		return BucketOK
	case totalMs <= 100:
		return BucketSlow
	default:
		return BucketVerySlow
	}
}
