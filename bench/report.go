package bench

import (
	"fmt"
	"sort"
	"time"
)

// Report is a structured, read-only view over the retained benchmark history,
// broken down per operation. Safe to generate at any time.
type Report struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Overall     Stats            `json:"overall"`
	Operations  map[string]Stats `json:"operations"`
}

// GenerateReport aggregates the full history into per-operation statistics.
func (t *Tracker) GenerateReport() Report {
	results := t.Results(nil)

	byOp := map[string][]Result{}
	for _, r := range results {
		byOp[r.Operation] = append(byOp[r.Operation], r)
	}

	ops := make(map[string]Stats, len(byOp))
	for op, rs := range byOp {
		ops[op] = CalculateStats(rs)
	}

	return Report{GeneratedAt: time.Now().UTC(), Overall: CalculateStats(results), Operations: ops}
}

// Budget declares a latency ceiling for one operation. Mean and P95 ceilings
// of zero are ignored.
type Budget struct {
	Operation string
	MaxMean   time.Duration
	MaxP95    time.Duration
}

// CheckBudgets gates a report against declared budgets, returning one
// violation string per exceeded ceiling. An empty return means all budgets
// hold. Operations without recorded results are skipped.
func (r Report) CheckBudgets(budgets []Budget) []string {
	var violations []string
	for _, b := range budgets {
		stats, ok := r.Operations[b.Operation]
		if !ok {
			continue
		}
		if b.MaxMean > 0 && stats.Mean > b.MaxMean {
			violations = append(violations, fmt.Sprintf("operation %s mean %v exceeds budget %v", b.Operation, stats.Mean, b.MaxMean))
		}
		if b.MaxP95 > 0 && stats.P95 > b.MaxP95 {
			violations = append(violations, fmt.Sprintf("operation %s p95 %v exceeds budget %v", b.Operation, stats.P95, b.MaxP95))
		}
	}
	sort.Strings(violations)
	return violations
}
