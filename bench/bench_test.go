package bench

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htafolla/strray/boot"
	"github.com/htafolla/strray/migration"
	"github.com/htafolla/strray/state"
)

// resultWithDuration fabricates a completed result for statistics tests.
func resultWithDuration(op string, d time.Duration, success bool) Result {
	start := time.Now()
	return Result{
		Operation: op,
		StartTime: start,
		EndTime:   start.Add(d),
		Duration:  d,
		Success:   success,
	}
}

func TestTracker_StartEnd(t *testing.T) {
	tr := NewTracker()

	id := tr.Start("delegation", map[string]any{"job_id": "j1"})
	require.NotEmpty(t, id)
	assert.Equal(t, 1, tr.OpenCount())

	res, err := tr.End(id, true, nil)
	require.NoError(t, err)
	assert.Equal(t, "delegation", res.Operation)
	assert.True(t, res.Success)
	assert.GreaterOrEqual(t, res.Duration, time.Duration(0))
	assert.Equal(t, 0, tr.OpenCount())

	history := tr.Results(nil)
	require.Len(t, history, 1)
	assert.Equal(t, id, history[0].ID)
}

func TestTracker_EndUnknownID(t *testing.T) {
	tr := NewTracker()
	_, err := tr.End("no-such-benchmark", true, nil)
	assert.Error(t, err)
	assert.Empty(t, tr.Results(nil))
}

func TestTracker_EndCapturesError(t *testing.T) {
	tr := NewTracker()
	id := tr.Start("delegation", nil)

	res, err := tr.End(id, false, fmt.Errorf("agent boom"))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "agent boom", res.Error)
}

func TestTracker_ConcurrentOpenBenchmarksAreIndependent(t *testing.T) {
	tr := NewTracker()

	ids := make([]string, 8)
	for i := range ids {
		ids[i] = tr.Start(fmt.Sprintf("op-%d", i), nil)
	}
	assert.Equal(t, 8, tr.OpenCount())

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := tr.End(id, true, nil)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 0, tr.OpenCount())
	assert.Len(t, tr.Results(nil), 8)
}

func TestTracker_HistoryIsBounded(t *testing.T) {
	tr := NewTracker(func(o *TrackerOptions) { o.HistorySize = 5 })

	for i := 0; i < 12; i++ {
		tr.Record(resultWithDuration(fmt.Sprintf("op-%d", i), time.Millisecond, true))
	}

	history := tr.Results(nil)
	require.Len(t, history, 5)
	// Oldest entries are evicted first.
	assert.Equal(t, "op-7", history[0].Operation)
	assert.Equal(t, "op-11", history[4].Operation)
}

func TestTracker_ResultsFilter(t *testing.T) {
	tr := NewTracker()
	tr.Record(resultWithDuration("delegation", time.Millisecond, true))
	tr.Record(resultWithDuration("boot-sequence", time.Millisecond, true))
	tr.Record(resultWithDuration("delegation", time.Millisecond, false))

	delegations := tr.Results(func(r Result) bool { return r.Operation == "delegation" })
	assert.Len(t, delegations, 2)
}

func TestCalculateStats_TenStepLadder(t *testing.T) {
	// Durations 10ms..100ms in 10ms steps pin down the percentile and
	// median rules exactly.
	results := make([]Result, 0, 10)
	for i := 1; i <= 10; i++ {
		results = append(results, resultWithDuration("op", time.Duration(i)*10*time.Millisecond, true))
	}

	stats := CalculateStats(results)

	assert.Equal(t, 10, stats.Count)
	assert.Equal(t, 10, stats.Successes)
	assert.Equal(t, 0, stats.Failures)
	assert.Equal(t, 55*time.Millisecond, stats.Mean)
	// Even-sized set: median is the mean of the two middle values.
	assert.Equal(t, 55*time.Millisecond, stats.Median)
	// Nearest rank: ceil(0.95*10)=10 and ceil(0.99*10)=10, both the max.
	assert.Equal(t, 100*time.Millisecond, stats.P95)
	assert.Equal(t, 100*time.Millisecond, stats.P99)
	assert.Equal(t, 10*time.Millisecond, stats.Min)
	assert.Equal(t, 100*time.Millisecond, stats.Max)
	assert.Greater(t, stats.Throughput, 0.0)
}

func TestCalculateStats_OddMedianAndFailures(t *testing.T) {
	results := []Result{
		resultWithDuration("op", 10*time.Millisecond, true),
		resultWithDuration("op", 30*time.Millisecond, false),
		resultWithDuration("op", 20*time.Millisecond, true),
	}

	stats := CalculateStats(results)

	assert.Equal(t, 20*time.Millisecond, stats.Median)
	assert.Equal(t, 2, stats.Successes)
	assert.Equal(t, 1, stats.Failures)
}

func TestCalculateStats_Empty(t *testing.T) {
	assert.Equal(t, Stats{}, CalculateStats(nil))
}

func TestGenerateReport_PerOperationBreakdown(t *testing.T) {
	tr := NewTracker()
	tr.Record(resultWithDuration("delegation", 10*time.Millisecond, true))
	tr.Record(resultWithDuration("delegation", 20*time.Millisecond, true))
	tr.Record(resultWithDuration("state-ops", 5*time.Millisecond, true))

	report := tr.GenerateReport()

	assert.Equal(t, 3, report.Overall.Count)
	require.Contains(t, report.Operations, "delegation")
	require.Contains(t, report.Operations, "state-ops")
	assert.Equal(t, 2, report.Operations["delegation"].Count)
	assert.Equal(t, 15*time.Millisecond, report.Operations["delegation"].Mean)
}

func TestReport_CheckBudgets(t *testing.T) {
	tr := NewTracker()
	tr.Record(resultWithDuration("delegation", 40*time.Millisecond, true))
	tr.Record(resultWithDuration("delegation", 60*time.Millisecond, true))

	report := tr.GenerateReport()

	violations := report.CheckBudgets([]Budget{
		{Operation: "delegation", MaxMean: 10 * time.Millisecond},
		{Operation: "delegation", MaxP95: time.Second},
		{Operation: "unmeasured", MaxMean: time.Nanosecond},
	})

	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], "mean")

	assert.Empty(t, report.CheckBudgets([]Budget{
		{Operation: "delegation", MaxMean: time.Second},
	}))
}

func TestBenchmarkStateOps_LeavesStoreUntouched(t *testing.T) {
	tr := NewTracker()
	store := state.NewStore()
	store.Set("keep", "me")

	res := tr.BenchmarkStateOps(store, 50)

	assert.True(t, res.Success)
	assert.Equal(t, "state-ops", res.Operation)
	assert.Equal(t, 1, store.Len())

	v, ok := store.GetString("keep")
	require.True(t, ok)
	assert.Equal(t, "me", v)
}

func TestBenchmarkMigrationValidation_RecordsCheckSubTimings(t *testing.T) {
	tr := NewTracker()
	store := state.NewStore()
	store.Set("config:old", "v1")
	v := migration.NewValidator(store)

	plan := migration.Plan{
		ID:       "plan-bench",
		Steps:    []migration.Step{{SourceKey: "config:old", TargetKey: "config:new"}},
		Snapshot: map[string]any{"config:old": "v1"},
	}

	res, benchRes := tr.BenchmarkMigrationValidation(v, plan)

	assert.True(t, res.Valid)
	assert.True(t, benchRes.Success)
	assert.Equal(t, "migration-validation", benchRes.Operation)

	checks := tr.Results(func(r Result) bool {
		return r.Operation == "migration-check:plan" || r.Operation == "migration-check:rollback"
	})
	assert.Len(t, checks, 2)
}

func TestBenchmarkBootSequence_RecordsPhaseSubTimings(t *testing.T) {
	tr := NewTracker()
	orch := boot.New(boot.SequenceConfig{AgentLoading: true}, func(o *boot.Options) {
		o.AgentLoaders = []boot.AgentLoader{
			func(ctx context.Context) (string, error) { return "architect", nil },
		}
	})

	bootRes, benchRes := tr.BenchmarkBootSequence(context.Background(), orch)

	assert.True(t, bootRes.Success)
	assert.True(t, benchRes.Success)
	assert.Equal(t, "boot-sequence", benchRes.Operation)

	phases := tr.Results(func(r Result) bool {
		return len(r.Operation) > len("boot-phase:") && r.Operation[:len("boot-phase:")] == "boot-phase:"
	})
	// One sub-timing per enabled phase: state store, delegation,
	// orchestrator and agent loading.
	assert.Len(t, phases, 4)
}
