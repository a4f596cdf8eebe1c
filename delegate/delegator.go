package delegate

import (
	"fmt"
	"time"

	"github.com/htafolla/strray/complexity"
	"github.com/htafolla/strray/core"
	"github.com/htafolla/strray/logging"
	"github.com/htafolla/strray/state"
)

// Request is a unit of work submitted for delegation.
type Request struct {
	// Description is the natural-language statement of the work; the
	// analyzer classifies its operation type from it.
	Description string
	// Context carries the explicit, tagged operation context.
	Context complexity.OperationContext
	// SessionID correlates telemetry records; optional.
	SessionID string
	// SubTasks optionally declares an explicit decomposition with
	// dependencies, honored by the orchestrator-led strategy.
	SubTasks []core.Task
	// Metadata is attached to every task spawned from this request.
	Metadata map[string]any
}

// Plan is the routing decision derived from a request. It is deterministic
// given identical request content and scorer thresholds; only JobID varies.
type Plan struct {
	JobID      string              `json:"job_id"`
	Strategy   complexity.Strategy `json:"strategy"`
	Agents     []string            `json:"agents"`
	Priorities map[string]int      `json:"priorities"`
	Complexity complexity.Score    `json:"complexity"`
	Metrics    complexity.Metrics  `json:"metrics"`
}

// ExecutionResult aggregates the outcome of an executed delegation. Errors
// holds one entry per failed agent invocation; Issues holds orchestration
// concerns (blocked tasks, circular dependencies, priority-tied conflicts)
// that surfaced without aborting the run.
type ExecutionResult struct {
	JobID    string              `json:"job_id"`
	Strategy complexity.Strategy `json:"strategy"`
	Results  []core.AgentResult  `json:"results"`
	Resolved *core.AgentResult   `json:"resolved,omitempty"`
	Errors   []string            `json:"errors"`
	Issues   []string            `json:"issues,omitempty"`
	Duration time.Duration       `json:"duration"`
}

// workflowPatterns maps an operation type to its preferred agent lineup.
// Lineups are consulted in order and topped up from the registry when the
// estimated agent count exceeds the pattern length.
var workflowPatterns = map[complexity.OperationType][]string{
	complexity.OpRefactor: {"architect", "refactorer", "test-architect"},
	complexity.OpCreate:   {"architect", "code-reviewer", "test-architect"},
	complexity.OpDebug:    {"bug-triage-specialist", "code-reviewer", "test-architect"},
	complexity.OpAnalyze:  {"security-auditor", "enforcer", "code-reviewer"},
	complexity.OpTest:     {"test-architect", "code-reviewer"},
	complexity.OpModify:   {"code-reviewer", "test-architect"},
}

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// MaxConcurrent bounds the agent fan-out for multi-agent and
	// orchestrator-led strategies.
	MaxConcurrent int64
	// MaxInvocations caps total agent invocations per delegation.
	MaxInvocations int
	// RetryLimit is the number of retries after a failed invocation.
	RetryLimit int
	// RetryDelay is the base backoff between retries, scaled by attempt.
	RetryDelay time.Duration
	// TaskTimeout bounds a single agent invocation; expiry is recorded as a
	// failure outcome for that task, never a forced interrupt of siblings.
	TaskTimeout time.Duration
	// Scorer supplies complexity scoring and threshold configuration.
	Scorer *complexity.Scorer
	// Store receives per-invocation results for downstream correlation.
	Store *state.Store
	// Sink receives structured telemetry records.
	Sink core.TelemetrySink
	// Logger receives debug/info entries.
	Logger logging.Logger
}

// Delegator analyzes and executes delegations. Safe for concurrent use.
type Delegator struct {
	registry       *Registry
	scorer         *complexity.Scorer
	store          *state.Store
	sink           core.TelemetrySink
	logger         logging.Logger
	maxConcurrent  int64
	maxInvocations int
	retryLimit     int
	retryDelay     time.Duration
	taskTimeout    time.Duration
}

// New constructs a Delegator with optional overrides.
func New(registry *Registry, optFns ...func(o *Options)) *Delegator {
	opts := Options{
		MaxConcurrent:  3,
		MaxInvocations: 100,
		RetryLimit:     1,
		RetryDelay:     50 * time.Millisecond,
		TaskTimeout:    30 * time.Second,
		Scorer:         complexity.NewScorer(),
		Store:          state.NewStore(),
		Sink:           core.NoOpSink{},
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Delegator{
		registry:       registry,
		scorer:         opts.Scorer,
		store:          opts.Store,
		sink:           opts.Sink,
		logger:         opts.Logger,
		maxConcurrent:  opts.MaxConcurrent,
		maxInvocations: opts.MaxInvocations,
		retryLimit:     opts.RetryLimit,
		retryDelay:     opts.RetryDelay,
		taskTimeout:    opts.TaskTimeout,
	}
}

// Scorer exposes the threshold configuration for read accessors.
func (d *Delegator) Scorer() *complexity.Scorer { return d.scorer }

// AnalyzeDelegation derives the delegation plan for a request: complexity
// metrics, composite score, strategy and the ordered agent set. Given
// identical request content and thresholds the returned strategy and agents
// are identical on repeated calls.
func (d *Delegator) AnalyzeDelegation(req Request) (Plan, error) {
	if d.registry.Len() == 0 {
		return Plan{}, fmt.Errorf("no agents registered")
	}

	metrics := complexity.Analyze(req.Description, req.Context)
	score := d.scorer.Score(metrics)

	agents := d.selectAgents(metrics.OperationType, score)

	priorities := make(map[string]int, len(agents))
	for _, name := range agents {
		if reg, ok := d.registry.Get(name); ok {
			priorities[name] = reg.Priority
		}
	}

	plan := Plan{
		JobID:      core.NewID(),
		Strategy:   score.RecommendedStrategy,
		Agents:     agents,
		Priorities: priorities,
		Complexity: score,
		Metrics:    metrics,
	}

	d.logger.Debug("delegation analyzed job_id=%s strategy=%s agents=%d score=%.2f level=%s",
		plan.JobID, plan.Strategy, len(plan.Agents), score.Score, score.Level)

	return plan, nil
}

// selectAgents builds the ordered agent set: pattern agents present in the
// registry first, then registration order fills the remainder up to the
// estimated agent count. Single-agent plans keep exactly one agent.
func (d *Delegator) selectAgents(op complexity.OperationType, score complexity.Score) []string {
	want := score.EstimatedAgents
	if score.RecommendedStrategy == complexity.StrategySingleAgent {
		want = 1
	}

	agents := make([]string, 0, want)
	picked := map[string]struct{}{}

	for _, name := range workflowPatterns[op] {
		if len(agents) >= want {
			break
		}
		if _, ok := d.registry.Get(name); !ok {
			continue
		}
		if _, dup := picked[name]; dup {
			continue
		}
		picked[name] = struct{}{}
		agents = append(agents, name)
	}

	for _, name := range d.registry.Names() {
		if len(agents) >= want {
			break
		}
		if _, dup := picked[name]; dup {
			continue
		}
		picked[name] = struct{}{}
		agents = append(agents, name)
	}

	return agents
}
