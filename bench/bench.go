// Package bench provides performance instrumentation for the coordination
// core: named, timed benchmarks keyed by opaque ids, aggregate latency
// statistics and structured reports. Benchmarks observe operations without
// altering their outcomes.
package bench

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/htafolla/strray/core"
	"github.com/htafolla/strray/logging"
)

// defaultHistorySize bounds retained results; older entries are evicted.
const defaultHistorySize = 1000

// Result is one completed benchmark. Duration is always >= 0 and Error is
// present iff Success is false.
type Result struct {
	ID        string         `json:"id"`
	Operation string         `json:"operation"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Duration  time.Duration  `json:"duration"`
	Success   bool           `json:"success"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type openBenchmark struct {
	id        string
	operation string
	start     time.Time
	metadata  map[string]any
}

// TrackerOptions configures a Tracker.
type TrackerOptions struct {
	// HistorySize bounds the number of retained results.
	HistorySize int
	// Logger receives debug entries for benchmark lifecycle.
	Logger logging.Logger
}

// Tracker opens and closes benchmarks. Concurrent open benchmarks are
// independent entries keyed by id, so nested and parallel measurements never
// interfere. Completed results live in a bounded LRU history.
type Tracker struct {
	mu      sync.Mutex
	open    map[string]openBenchmark
	history *lru.Cache[string, Result]
	logger  logging.Logger
}

// NewTracker constructs a Tracker with optional overrides.
func NewTracker(optFns ...func(o *TrackerOptions)) *Tracker {
	opts := TrackerOptions{HistorySize: defaultHistorySize, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = defaultHistorySize
	}

	// lru.New only errors on non-positive sizes, which are normalized above.
	history, _ := lru.New[string, Result](opts.HistorySize)

	return &Tracker{open: map[string]openBenchmark{}, history: history, logger: opts.Logger}
}

// Start opens a timer for the named operation and returns its benchmark id.
func (t *Tracker) Start(operation string, metadata map[string]any) string {
	id := core.NewID()

	t.mu.Lock()
	t.open[id] = openBenchmark{id: id, operation: operation, start: time.Now(), metadata: metadata}
	t.mu.Unlock()

	t.logger.Debug("benchmark started operation=%s benchmark_id=%s", operation, id)

	return id
}

// End closes the benchmark, computing a non-negative duration. Unknown ids
// return an error; the result history is untouched in that case.
func (t *Tracker) End(id string, success bool, benchErr error) (Result, error) {
	now := time.Now()

	t.mu.Lock()
	ob, ok := t.open[id]
	if !ok {
		t.mu.Unlock()
		return Result{}, fmt.Errorf("benchmark %s not found", id)
	}
	delete(t.open, id)

	dur := now.Sub(ob.start)
	if dur < 0 {
		dur = 0
	}

	res := Result{
		ID:        id,
		Operation: ob.operation,
		StartTime: ob.start,
		EndTime:   now,
		Duration:  dur,
		Success:   success,
		Metadata:  ob.metadata,
	}
	if !success && benchErr != nil {
		res.Error = benchErr.Error()
	}

	t.history.Add(id, res)
	t.mu.Unlock()

	t.logger.Debug("benchmark completed operation=%s benchmark_id=%s duration=%s success=%t", ob.operation, id, dur, success)

	return res, nil
}

// Record inserts an externally measured result, useful for sub-timings
// captured by specialized flows.
func (t *Tracker) Record(res Result) {
	if res.ID == "" {
		res.ID = core.NewID()
	}
	if res.Duration < 0 {
		res.Duration = 0
	}
	t.mu.Lock()
	t.history.Add(res.ID, res)
	t.mu.Unlock()
}

// Results returns retained results matching the filter (nil matches all), in
// insertion order oldest first.
func (t *Tracker) Results(filter func(Result) bool) []Result {
	t.mu.Lock()
	values := t.history.Values()
	t.mu.Unlock()

	if filter == nil {
		return values
	}
	out := make([]Result, 0, len(values))
	for _, r := range values {
		if filter(r) {
			out = append(out, r)
		}
	}
	return out
}

// OpenCount returns the number of benchmarks currently running.
func (t *Tracker) OpenCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open)
}
