package boot

import (
	"runtime"
	"sync"
	"time"
)

// MemorySample is one point-in-time reading of process memory usage.
type MemorySample struct {
	Timestamp time.Time `json:"timestamp"`
	HeapAlloc uint64    `json:"heap_alloc"`
	HeapSys   uint64    `json:"heap_sys"`
	NumGC     uint32    `json:"num_gc"`
}

// Health is the advisory verdict of a memory trend check. It never blocks
// boot; callers may log or alert on a degraded trend.
type Health struct {
	Healthy         bool    `json:"healthy"`
	Current         uint64  `json:"current"`
	Peak            uint64  `json:"peak"`
	TrailingAverage float64 `json:"trailing_average"`
	Note            string  `json:"note,omitempty"`
}

// trailingWindow is the number of recent samples averaged by HealthCheck.
const trailingWindow = 8

// MemoryMonitor samples memory usage around the boot sequence and grades the
// trend. Samples are bounded; the oldest are dropped first.
type MemoryMonitor struct {
	mu      sync.Mutex
	samples []MemorySample
	peak    uint64
	limit   int
}

// NewMemoryMonitor constructs a monitor retaining at most limit samples.
func NewMemoryMonitor(limit int) *MemoryMonitor {
	if limit <= 0 {
		limit = 64
	}
	return &MemoryMonitor{limit: limit}
}

// Sample records the current memory usage and returns the reading.
func (m *MemoryMonitor) Sample() MemorySample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	sample := MemorySample{Timestamp: time.Now(), HeapAlloc: ms.HeapAlloc, HeapSys: ms.HeapSys, NumGC: ms.NumGC}

	m.mu.Lock()
	m.samples = append(m.samples, sample)
	if len(m.samples) > m.limit {
		m.samples = m.samples[len(m.samples)-m.limit:]
	}
	if sample.HeapAlloc > m.peak {
		m.peak = sample.HeapAlloc
	}
	m.mu.Unlock()

	return sample
}

// Samples returns a copy of the retained samples, oldest first.
func (m *MemoryMonitor) Samples() []MemorySample {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MemorySample, len(m.samples))
	copy(out, m.samples)
	return out
}

// Peak returns the highest heap allocation observed.
func (m *MemoryMonitor) Peak() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}

// HealthCheck compares current usage against the peak and the trailing
// average. The trend is degraded when current usage exceeds 1.25x the
// trailing average while sitting above 90% of the observed peak. The verdict
// is advisory only.
func (m *MemoryMonitor) HealthCheck() Health {
	current := m.Sample()

	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.samples)
	window := trailingWindow
	if window > n {
		window = n
	}
	var sum float64
	for _, s := range m.samples[n-window:] {
		sum += float64(s.HeapAlloc)
	}
	avg := sum / float64(window)

	h := Health{
		Healthy:         true,
		Current:         current.HeapAlloc,
		Peak:            m.peak,
		TrailingAverage: avg,
	}

	if float64(current.HeapAlloc) > avg*1.25 && float64(current.HeapAlloc) > float64(m.peak)*0.9 {
		h.Healthy = false
		h.Note = "heap usage trending above trailing average near observed peak"
	}

	return h
}
