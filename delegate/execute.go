package delegate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/htafolla/strray/complexity"
	"github.com/htafolla/strray/core"
)

// ExecuteDelegation runs a delegation plan. It always resolves with an
// ExecutionResult: per-agent failures are captured into Errors, orchestration
// concerns into Issues, and partial results are preserved. The caller awaits
// the full fan-out; there are no partial or streaming results.
func (d *Delegator) ExecuteDelegation(ctx context.Context, plan Plan, req Request) ExecutionResult {
	start := time.Now()
	limiter := core.NewInvocationLimiter(d.maxInvocations)

	res := ExecutionResult{JobID: plan.JobID, Strategy: plan.Strategy, Errors: []string{}}

	d.sink.Emit(core.NewRecord("delegate", "delegation-started", "pending").
		WithJob(plan.JobID, req.SessionID).
		WithMetadata(map[string]any{"strategy": string(plan.Strategy), "agents": len(plan.Agents)}))

	switch plan.Strategy {
	case complexity.StrategyMultiAgent:
		res.Results, res.Errors = d.runFanOut(ctx, plan, req, plan.Agents, limiter)
		winner, issues := resolveConflict(plan, res.Results)
		res.Resolved = winner
		res.Issues = append(res.Issues, issues...)
	case complexity.StrategyOrchestratorLed:
		res.Results, res.Errors, res.Issues = d.runOrchestrated(ctx, plan, req, limiter)
	default:
		res.Results, res.Errors = d.runSingle(ctx, plan, req, limiter)
	}

	res.Duration = time.Since(start)

	outcome := "success"
	if len(res.Errors) > 0 {
		outcome = "partial-failure"
	}
	d.sink.Emit(core.NewRecord("delegate", "delegation-completed", outcome).
		WithJob(plan.JobID, req.SessionID).
		WithMetadata(map[string]any{
			"strategy": string(plan.Strategy),
			"results":  len(res.Results),
			"errors":   len(res.Errors),
			"duration": res.Duration.String(),
		}))
	d.logger.Info("delegation completed job_id=%s strategy=%s results=%d errors=%d duration=%s",
		plan.JobID, plan.Strategy, len(res.Results), len(res.Errors), res.Duration)

	return res
}

// runSingle invokes exactly one agent and surfaces its result or error.
func (d *Delegator) runSingle(ctx context.Context, plan Plan, req Request, limiter *core.InvocationLimiter) ([]core.AgentResult, []string) {
	if len(plan.Agents) == 0 {
		return nil, []string{"plan names no agents"}
	}

	task := d.taskFor(req, plan, plan.Agents[0])
	result := d.invoke(ctx, plan, req, task, plan.Agents[0], limiter)

	var errs []string
	if !result.Success {
		errs = append(errs, fmt.Sprintf("agent %s: %s", result.Agent, result.Error))
	}
	return []core.AgentResult{result}, errs
}

// runFanOut invokes the agent list concurrently, bounded by the configured
// maximum. Results come back in plan order regardless of completion order; a
// failing agent never aborts dispatched siblings.
func (d *Delegator) runFanOut(ctx context.Context, plan Plan, req Request, agents []string, limiter *core.InvocationLimiter) ([]core.AgentResult, []string) {
	results := make([]core.AgentResult, len(agents))
	sem := semaphore.NewWeighted(d.maxConcurrent)

	var wg sync.WaitGroup
	for i, name := range agents {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = core.NewFailureResult(name, fmt.Sprintf("dispatch cancelled: %v", err))
				return
			}
			defer sem.Release(1)

			task := d.taskFor(req, plan, name)
			results[i] = d.invoke(ctx, plan, req, task, name, limiter)
		}(i, name)
	}
	wg.Wait()

	var errs []string
	for _, r := range results {
		if !r.Success {
			errs = append(errs, fmt.Sprintf("agent %s: %s", r.Agent, r.Error))
		}
	}
	return results, errs
}

// runOrchestrated treats the delegation as a multi-phase plan: the request's
// declared sub-tasks (or one synthesized per agent) execute in dependency
// order, batch by batch, each batch bounded like a fan-out. Blocked and
// circular dependencies surface as issues rather than aborting the run.
func (d *Delegator) runOrchestrated(ctx context.Context, plan Plan, req Request, limiter *core.InvocationLimiter) ([]core.AgentResult, []string, []string) {
	tasks := req.SubTasks
	if len(tasks) == 0 {
		tasks = make([]core.Task, 0, len(plan.Agents))
		for _, name := range plan.Agents {
			t := core.NewTask(name, req.Description)
			t.Metadata["agent"] = name
			tasks = append(tasks, t)
		}
	}

	var (
		results   []core.AgentResult
		errs      []string
		issues    []string
		completed = map[string]bool{} // task ID -> succeeded
		done      = map[string]bool{} // task ID -> finished (any outcome)
	)

	remaining := make([]core.Task, len(tasks))
	copy(remaining, tasks)

	for len(remaining) > 0 {
		var batch, blocked []core.Task
		for _, t := range remaining {
			switch {
			case dependenciesSatisfied(t, completed, done):
				batch = append(batch, t)
			case dependenciesFailed(t, completed, done):
				blocked = append(blocked, t)
			}
		}

		// Tasks whose dependency failed can never run; report and drop them.
		for _, t := range blocked {
			issues = append(issues, fmt.Sprintf("task %s blocked by failed dependency", t.Name))
			done[t.ID] = true
		}

		if len(batch) == 0 && len(blocked) == 0 {
			issues = append(issues, fmt.Sprintf("circular dependency detected among %d remaining tasks", len(remaining)))
			break
		}

		if len(batch) > 0 {
			batchAgents := make([]string, len(batch))
			for i, t := range batch {
				batchAgents[i] = d.agentForTask(t, plan, i)
			}

			batchResults := make([]core.AgentResult, len(batch))
			sem := semaphore.NewWeighted(d.maxConcurrent)
			var wg sync.WaitGroup
			for i, t := range batch {
				wg.Add(1)
				go func(i int, t core.Task) {
					defer wg.Done()
					if err := sem.Acquire(ctx, 1); err != nil {
						batchResults[i] = core.NewFailureResult(batchAgents[i], fmt.Sprintf("dispatch cancelled: %v", err))
						return
					}
					defer sem.Release(1)
					t.JobID = plan.JobID
					t.SessionID = req.SessionID
					batchResults[i] = d.invoke(ctx, plan, req, t, batchAgents[i], limiter)
				}(i, t)
			}
			wg.Wait()

			for i, r := range batchResults {
				results = append(results, r)
				done[batch[i].ID] = true
				completed[batch[i].ID] = r.Success
				if !r.Success {
					errs = append(errs, fmt.Sprintf("task %s agent %s: %s", batch[i].Name, r.Agent, r.Error))
				}
			}
		}

		next := remaining[:0]
		for _, t := range remaining {
			if !done[t.ID] {
				next = append(next, t)
			}
		}
		remaining = next
	}

	_, conflictIssues := resolveConflict(plan, results)
	issues = append(issues, conflictIssues...)

	return results, errs, issues
}

func dependenciesSatisfied(t core.Task, completed, done map[string]bool) bool {
	for _, dep := range t.Dependencies {
		if !done[dep] || !completed[dep] {
			return false
		}
	}
	return true
}

func dependenciesFailed(t core.Task, completed, done map[string]bool) bool {
	for _, dep := range t.Dependencies {
		if done[dep] && !completed[dep] {
			return true
		}
	}
	return false
}

// agentForTask resolves the assignee for a sub-task: an explicit "agent"
// metadata entry wins if registered, else plan agents are assigned round-robin.
func (d *Delegator) agentForTask(t core.Task, plan Plan, idx int) string {
	if name, ok := t.Metadata["agent"].(string); ok {
		if _, registered := d.registry.Get(name); registered {
			return name
		}
	}
	if len(plan.Agents) == 0 {
		return ""
	}
	return plan.Agents[idx%len(plan.Agents)]
}

// taskFor builds the task handed to one agent of a single/multi delegation.
func (d *Delegator) taskFor(req Request, plan Plan, agent string) core.Task {
	t := core.NewTask(agent, req.Description)
	t.JobID = plan.JobID
	t.SessionID = req.SessionID
	for k, v := range req.Metadata {
		t.Metadata[k] = v
	}
	t.Metadata["agent"] = agent
	return t
}

// invoke runs one agent invocation with retry and timeout bookkeeping. A
// timeout is recorded as a failure outcome for this task; the in-flight call
// is left to drain on its own rather than being forcibly interrupted.
func (d *Delegator) invoke(ctx context.Context, plan Plan, req Request, task core.Task, agentName string, limiter *core.InvocationLimiter) core.AgentResult {
	if err := limiter.Increment(); err != nil {
		return d.record(plan, req, core.NewFailureResult(agentName, err.Error()), 0)
	}

	reg, ok := d.registry.Get(agentName)
	if !ok {
		return d.record(plan, req, core.NewFailureResult(agentName, fmt.Sprintf("agent %s not registered", agentName)), 0)
	}

	start := time.Now()

	var result core.AgentResult
	attempts := 1 + d.retryLimit
	for attempt := 1; attempt <= attempts; attempt++ {
		result = d.executeOnce(ctx, reg.Agent, task)
		if result.Success {
			break
		}
		if attempt < attempts {
			select {
			case <-ctx.Done():
				attempt = attempts
			case <-time.After(d.retryDelay * time.Duration(attempt)):
			}
		}
	}

	return d.record(plan, req, result, time.Since(start))
}

// executeOnce performs a single bounded invocation.
func (d *Delegator) executeOnce(ctx context.Context, agent core.Agent, task core.Task) core.AgentResult {
	taskCtx, cancel := context.WithTimeout(ctx, d.taskTimeout)
	defer cancel()

	type outcome struct {
		result core.AgentResult
		err    error
	}
	ch := make(chan outcome, 1)

	go func() {
		r, err := agent.Execute(taskCtx, task)
		ch <- outcome{result: r, err: err}
	}()

	select {
	case out := <-ch:
		if out.err != nil {
			return core.NewFailureResult(agent.Name(), out.err.Error())
		}
		if out.result.Agent == "" {
			out.result.Agent = agent.Name()
		}
		return out.result
	case <-taskCtx.Done():
		return core.NewFailureResult(agent.Name(), "task timed out")
	}
}

// record finalizes one invocation: duration, state-store write for downstream
// correlation and a structured telemetry record.
func (d *Delegator) record(plan Plan, req Request, result core.AgentResult, dur time.Duration) core.AgentResult {
	result.Duration = dur

	if d.store != nil {
		d.store.Set(fmt.Sprintf("delegation:%s:%s", plan.JobID, result.Agent), result)
	}

	outcome := "success"
	if !result.Success {
		outcome = "failure"
	}
	d.sink.Emit(core.NewRecord("delegate", "agent-invocation", outcome).
		WithJob(plan.JobID, req.SessionID).
		WithMetadata(map[string]any{"agent": result.Agent, "duration": dur.String()}))

	d.logger.Debug("agent invocation recorded job_id=%s agent=%s success=%t duration=%s", plan.JobID, result.Agent, result.Success, dur)

	return result
}

// resolveConflict applies the deterministic conflict rule: among successful
// results with distinct payloads, the highest-priority agent wins, ties
// broken by plan order. An equal-priority conflict still resolves (by order)
// but is reported as an issue.
func resolveConflict(plan Plan, results []core.AgentResult) (*core.AgentResult, []string) {
	successes := make([]core.AgentResult, 0, len(results))
	for _, r := range results {
		if r.Success {
			successes = append(successes, r)
		}
	}
	if len(successes) == 0 {
		return nil, nil
	}

	// Plan-order rank; unknown agents (orchestrated sub-tasks outside the
	// plan list) sort after known ones.
	rank := func(agent string) int {
		for i, name := range plan.Agents {
			if name == agent {
				return i
			}
		}
		return len(plan.Agents)
	}

	distinct := map[string]struct{}{}
	for _, r := range successes {
		distinct[fmt.Sprintf("%v", r.Data)] = struct{}{}
	}

	winner := successes[0]
	for _, r := range successes[1:] {
		switch {
		case plan.Priorities[r.Agent] > plan.Priorities[winner.Agent]:
			winner = r
		case plan.Priorities[r.Agent] == plan.Priorities[winner.Agent] && rank(r.Agent) < rank(winner.Agent):
			winner = r
		}
	}

	var issues []string
	if len(distinct) > 1 {
		for _, r := range successes {
			if r.Agent != winner.Agent &&
				plan.Priorities[r.Agent] == plan.Priorities[winner.Agent] &&
				fmt.Sprintf("%v", r.Data) != fmt.Sprintf("%v", winner.Data) {
				issues = append(issues, fmt.Sprintf("agents %s and %s disagree at equal priority; resolved by plan order", winner.Agent, r.Agent))
			}
		}
	}

	w := winner
	return &w, issues
}
