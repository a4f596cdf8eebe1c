package bench

import (
	"math"
	"sort"
	"time"
)

// Stats are aggregate latency statistics over a result set. Percentiles use
// the nearest-rank method over the sorted duration sequence; the median of an
// even-sized set is the mean of the two middle values (fixed tie rule).
// Throughput is count divided by the wall-clock span covered by the set.
type Stats struct {
	Count      int           `json:"count"`
	Successes  int           `json:"successes"`
	Failures   int           `json:"failures"`
	Mean       time.Duration `json:"mean"`
	Median     time.Duration `json:"median"`
	P95        time.Duration `json:"p95"`
	P99        time.Duration `json:"p99"`
	Min        time.Duration `json:"min"`
	Max        time.Duration `json:"max"`
	Throughput float64       `json:"throughput"` // operations per second
}

// Metrics computes aggregate statistics over the retained results matching
// the filter (nil matches all).
func (t *Tracker) Metrics(filter func(Result) bool) Stats {
	return CalculateStats(t.Results(filter))
}

// CalculateStats aggregates an explicit result set.
func CalculateStats(results []Result) Stats {
	if len(results) == 0 {
		return Stats{}
	}

	durations := make([]time.Duration, 0, len(results))
	var (
		total     time.Duration
		successes int
		spanStart = results[0].StartTime
		spanEnd   = results[0].EndTime
	)
	for _, r := range results {
		durations = append(durations, r.Duration)
		total += r.Duration
		if r.Success {
			successes++
		}
		if r.StartTime.Before(spanStart) {
			spanStart = r.StartTime
		}
		if r.EndTime.After(spanEnd) {
			spanEnd = r.EndTime
		}
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	n := len(durations)
	stats := Stats{
		Count:     n,
		Successes: successes,
		Failures:  n - successes,
		Mean:      total / time.Duration(n),
		Median:    median(durations),
		P95:       nearestRank(durations, 95),
		P99:       nearestRank(durations, 99),
		Min:       durations[0],
		Max:       durations[n-1],
	}

	if span := spanEnd.Sub(spanStart); span > 0 {
		stats.Throughput = float64(n) / span.Seconds()
	} else {
		stats.Throughput = float64(n)
	}

	return stats
}

// median returns the middle value, averaging the two central values for
// even-sized sets. Input must be sorted and non-empty.
func median(sorted []time.Duration) time.Duration {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// nearestRank returns the p-th percentile using the nearest-rank method:
// the value at rank ceil(p/100 * n). Input must be sorted and non-empty.
func nearestRank(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	rank := int(math.Ceil(p / 100 * float64(n)))
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	return sorted[rank-1]
}
