package bench

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/htafolla/strray/boot"
	"github.com/htafolla/strray/core"
	"github.com/htafolla/strray/delegate"
	"github.com/htafolla/strray/migration"
	"github.com/htafolla/strray/state"
)

// BenchmarkBootSequence runs the boot orchestrator under a benchmark,
// additionally recording one sub-timing per executed phase. The boot outcome
// is returned unaltered.
func (t *Tracker) BenchmarkBootSequence(ctx context.Context, orch *boot.Orchestrator) (boot.Result, Result) {
	id := t.Start("boot-sequence", nil)
	bootRes := orch.Run(ctx)

	var seqErr error
	if len(bootRes.Errors) > 0 {
		seqErr = fmt.Errorf("%s", strings.Join(bootRes.Errors, "; "))
	}
	benchRes, _ := t.End(id, bootRes.Success, seqErr)

	for _, p := range bootRes.Phases {
		if !p.Enabled {
			continue
		}
		end := time.Now()
		sub := Result{
			Operation: "boot-phase:" + string(p.Phase),
			StartTime: end.Add(-p.Duration),
			EndTime:   end,
			Duration:  p.Duration,
			Success:   p.Succeeded,
			Error:     p.Err,
		}
		t.Record(sub)
	}

	return bootRes, benchRes
}

// BenchmarkDelegation executes a delegation plan under a benchmark, recording
// one sub-timing per agent invocation. The execution result is returned
// unaltered.
func (t *Tracker) BenchmarkDelegation(ctx context.Context, d *delegate.Delegator, plan delegate.Plan, req delegate.Request) (delegate.ExecutionResult, Result) {
	id := t.Start("delegation", map[string]any{"job_id": plan.JobID, "strategy": string(plan.Strategy)})
	execRes := d.ExecuteDelegation(ctx, plan, req)

	var execErr error
	if len(execRes.Errors) > 0 {
		execErr = fmt.Errorf("%s", strings.Join(execRes.Errors, "; "))
	}
	benchRes, _ := t.End(id, len(execRes.Errors) == 0, execErr)

	for _, r := range execRes.Results {
		sub := Result{
			Operation: "delegation-agent:" + r.Agent,
			StartTime: r.Timestamp,
			EndTime:   r.Timestamp.Add(r.Duration),
			Duration:  r.Duration,
			Success:   r.Success,
			Error:     r.Error,
			Metadata:  map[string]any{"job_id": plan.JobID},
		}
		t.Record(sub)
	}

	return execRes, benchRes
}

// BenchmarkMigrationValidation validates a migration plan under a benchmark,
// recording the pre-execution and rollback checks as separate sub-timings.
// The validation outcome is returned unaltered.
func (t *Tracker) BenchmarkMigrationValidation(v *migration.Validator, plan migration.Plan) (migration.Result, Result) {
	id := t.Start("migration-validation", map[string]any{"plan_id": plan.ID, "steps": len(plan.Steps)})

	planStart := time.Now()
	res := v.ValidatePlan(plan)
	t.Record(Result{
		Operation: "migration-check:plan",
		StartTime: planStart,
		EndTime:   time.Now(),
		Duration:  time.Since(planStart),
		Success:   res.Valid,
		Metadata:  map[string]any{"plan_id": plan.ID},
	})

	rbStart := time.Now()
	rb := v.ValidateRollback(plan)
	t.Record(Result{
		Operation: "migration-check:rollback",
		StartTime: rbStart,
		EndTime:   time.Now(),
		Duration:  time.Since(rbStart),
		Success:   rb.CanRollback,
		Metadata:  map[string]any{"plan_id": plan.ID},
	})

	var valErr error
	if !res.Valid {
		valErr = fmt.Errorf("%s", strings.Join(res.Errors, "; "))
	}
	benchRes, _ := t.End(id, res.Valid, valErr)

	return res, benchRes
}

// BenchmarkStateOps measures a write/read/delete sweep over the shared state
// store, leaving the store exactly as it was found.
func (t *Tracker) BenchmarkStateOps(store *state.Store, entries int) Result {
	if entries <= 0 {
		entries = 100
	}

	id := t.Start("state-ops", map[string]any{"entries": entries})

	prefix := "bench:" + core.NewID() + ":"
	for i := 0; i < entries; i++ {
		store.Set(fmt.Sprintf("%s%d", prefix, i), i)
	}
	for i := 0; i < entries; i++ {
		store.Get(fmt.Sprintf("%s%d", prefix, i))
	}
	for i := 0; i < entries; i++ {
		store.Delete(fmt.Sprintf("%s%d", prefix, i))
	}

	res, _ := t.End(id, true, nil)
	return res
}
