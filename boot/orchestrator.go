package boot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/htafolla/strray/core"
	"github.com/htafolla/strray/logging"
)

// Phase names one discrete initialization step in the fixed boot sequence.
type Phase string

const (
	// PhaseStateStore initializes the shared state store. Fatal on failure.
	PhaseStateStore Phase = "state-store"
	// PhaseDelegation initializes the delegation system's dependencies.
	PhaseDelegation Phase = "delegation"
	// PhaseOrchestrator loads the orchestrator agent.
	PhaseOrchestrator Phase = "orchestrator"
	// PhaseSession initializes session management.
	PhaseSession Phase = "session-management"
	// PhaseProcessors activates background processors.
	PhaseProcessors Phase = "processor-activation"
	// PhaseAgentLoading loads execution agents.
	PhaseAgentLoading Phase = "agent-loading"
	// PhaseEnforcement enables enforcement.
	PhaseEnforcement Phase = "enforcement"
	// PhaseCodex activates codex compliance checking.
	PhaseCodex Phase = "codex-compliance"
)

// TerminalState is the final state of a completed sequence.
type TerminalState string

const (
	// StateBooted means the sequence ran every phase to completion.
	StateBooted TerminalState = "booted"
	// StateAborted means a fatal phase failure cut the sequence short.
	StateAborted TerminalState = "aborted"
)

// SequenceConfig gates the optional boot phases. The state store, delegation
// and orchestrator phases always run; a false switch skips its phase without
// failing the sequence.
type SequenceConfig struct {
	SessionManagement   bool `json:"session_management"`
	ProcessorActivation bool `json:"processor_activation"`
	AgentLoading        bool `json:"agent_loading"`
	EnableEnforcement   bool `json:"enable_enforcement"`
	CodexValidation     bool `json:"codex_validation"`
}

// PhaseOutcome records one phase's execution for sub-timing capture.
type PhaseOutcome struct {
	Phase     Phase         `json:"phase"`
	Enabled   bool          `json:"enabled"`
	Succeeded bool          `json:"succeeded"`
	Duration  time.Duration `json:"duration"`
	Err       string        `json:"error,omitempty"`
}

// Result is the outcome of one boot sequence run. Success is true iff every
// enabled phase succeeded; disabled phases leave their booleans false without
// contributing an error entry.
type Result struct {
	Success                 bool           `json:"success"`
	OrchestratorLoaded      bool           `json:"orchestrator_loaded"`
	SessionManagementActive bool           `json:"session_management_active"`
	ProcessorsActivated     bool           `json:"processors_activated"`
	EnforcementEnabled      bool           `json:"enforcement_enabled"`
	CodexComplianceActive   bool           `json:"codex_compliance_active"`
	AgentsLoaded            []string       `json:"agents_loaded"`
	Errors                  []string       `json:"errors"`
	Phases                  []PhaseOutcome `json:"phases"`
	Terminal                TerminalState  `json:"terminal"`
}

// PhaseFunc performs one boot phase. A nil PhaseFunc is a successful no-op.
type PhaseFunc func(ctx context.Context) error

// AgentLoader loads one agent, returning its identifier.
type AgentLoader func(ctx context.Context) (string, error)

// Options holds phase implementations and configuration overrides. Phases
// default to successful no-ops so embedders only wire what they use.
type Options struct {
	InitStateStore     PhaseFunc
	InitDelegation     PhaseFunc
	LoadOrchestrator   PhaseFunc
	InitSession        PhaseFunc
	ActivateProcessors PhaseFunc
	EnableEnforcement  PhaseFunc
	ActivateCodex      PhaseFunc
	AgentLoaders       []AgentLoader

	// MemorySampleLimit bounds retained memory samples.
	MemorySampleLimit int

	Sink   core.TelemetrySink
	Logger logging.Logger
}

// Orchestrator drives the boot sequence. Each phase runs to completion before
// the next begins; later phases assume earlier ones are active or
// deliberately inactive. Safe for concurrent Status reads.
type Orchestrator struct {
	cfg     SequenceConfig
	opts    Options
	monitor *MemoryMonitor

	mu   sync.RWMutex
	last *Result
}

// New constructs an Orchestrator for the given sequence configuration.
func New(cfg SequenceConfig, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		MemorySampleLimit: 64,
		Sink:              core.NoOpSink{},
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Orchestrator{cfg: cfg, opts: opts, monitor: NewMemoryMonitor(opts.MemorySampleLimit)}
}

// Monitor exposes the advisory memory monitor.
func (o *Orchestrator) Monitor() *MemoryMonitor { return o.monitor }

// SetAgentLoaders replaces the agent loaders used by the next run. Embedders
// whose agent set is not known at construction time bind loaders just before
// booting.
func (o *Orchestrator) SetAgentLoaders(loaders ...AgentLoader) {
	o.mu.Lock()
	o.opts.AgentLoaders = loaders
	o.mu.Unlock()
}

// Status returns the last computed Result without re-running the sequence.
// The boolean reports whether a sequence has run.
func (o *Orchestrator) Status() (Result, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.last == nil {
		return Result{}, false
	}
	return *o.last, true
}

// Run executes the boot sequence. It never returns an error: failures are
// captured into the Result. Only a state store initialization failure aborts
// the sequence; every other phase failure is recorded and skipped.
func (o *Orchestrator) Run(ctx context.Context) Result {
	res := Result{AgentsLoaded: []string{}, Errors: []string{}, Terminal: StateBooted}

	o.monitor.Sample()

	// State store first: nothing downstream can proceed without state.
	if ok := o.runPhase(ctx, &res, PhaseStateStore, true, o.opts.InitStateStore, nil); !ok {
		res.Success = false
		res.Terminal = StateAborted
		o.finish(&res)
		return res
	}

	o.runPhase(ctx, &res, PhaseDelegation, true, o.opts.InitDelegation, nil)
	o.runPhase(ctx, &res, PhaseOrchestrator, true, o.opts.LoadOrchestrator, &res.OrchestratorLoaded)
	o.runPhase(ctx, &res, PhaseSession, o.cfg.SessionManagement, o.opts.InitSession, &res.SessionManagementActive)
	o.runPhase(ctx, &res, PhaseProcessors, o.cfg.ProcessorActivation, o.opts.ActivateProcessors, &res.ProcessorsActivated)
	o.runAgentLoading(ctx, &res)
	o.runPhase(ctx, &res, PhaseEnforcement, o.cfg.EnableEnforcement, o.opts.EnableEnforcement, &res.EnforcementEnabled)
	o.runPhase(ctx, &res, PhaseCodex, o.cfg.CodexValidation, o.opts.ActivateCodex, &res.CodexComplianceActive)

	res.Success = true
	for _, p := range res.Phases {
		if p.Enabled && !p.Succeeded {
			res.Success = false
			break
		}
	}

	o.finish(&res)
	return res
}

// runPhase executes one gated phase, recording its outcome. Disabled phases
// are skipped without an error entry. The returned bool reports success.
func (o *Orchestrator) runPhase(ctx context.Context, res *Result, phase Phase, enabled bool, fn PhaseFunc, flag *bool) bool {
	if !enabled {
		res.Phases = append(res.Phases, PhaseOutcome{Phase: phase, Enabled: false})
		o.opts.Logger.Debug("boot phase skipped phase=%s", phase)
		return false
	}

	start := time.Now()
	var err error
	if fn != nil {
		err = fn(ctx)
	}
	dur := time.Since(start)

	o.monitor.Sample()

	outcome := PhaseOutcome{Phase: phase, Enabled: true, Succeeded: err == nil, Duration: dur}
	if err != nil {
		outcome.Err = err.Error()
		res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", phase, err))
	} else if flag != nil {
		*flag = true
	}
	res.Phases = append(res.Phases, outcome)

	o.emitPhase(phase, dur, err)
	return err == nil
}

// runAgentLoading loads agents one by one, continuing past individual
// failures. The phase fails only when every loader fails.
func (o *Orchestrator) runAgentLoading(ctx context.Context, res *Result) {
	if !o.cfg.AgentLoading {
		res.Phases = append(res.Phases, PhaseOutcome{Phase: PhaseAgentLoading, Enabled: false})
		o.opts.Logger.Debug("boot phase skipped phase=%s", PhaseAgentLoading)
		return
	}

	o.mu.RLock()
	loaders := o.opts.AgentLoaders
	o.mu.RUnlock()

	start := time.Now()
	failures := 0
	for _, loader := range loaders {
		name, err := loader(ctx)
		if err != nil {
			failures++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: agent %s failed to load: %v", PhaseAgentLoading, name, err))
			continue
		}
		res.AgentsLoaded = append(res.AgentsLoaded, name)
	}
	dur := time.Since(start)

	o.monitor.Sample()

	succeeded := len(loaders) == 0 || failures < len(loaders)
	outcome := PhaseOutcome{Phase: PhaseAgentLoading, Enabled: true, Succeeded: succeeded, Duration: dur}
	if !succeeded {
		outcome.Err = "all agent loaders failed"
	}
	res.Phases = append(res.Phases, outcome)

	var phaseErr error
	if !succeeded {
		phaseErr = fmt.Errorf("all agent loaders failed")
	}
	o.emitPhase(PhaseAgentLoading, dur, phaseErr)
}

func (o *Orchestrator) emitPhase(phase Phase, dur time.Duration, err error) {
	outcome := "success"
	md := map[string]any{"duration": dur.String()}
	if err != nil {
		outcome = "failure"
		md["error"] = err.Error()
	}
	o.opts.Sink.Emit(core.NewRecord("boot", string(phase), outcome).WithMetadata(md))
	o.opts.Logger.Debug("boot phase completed phase=%s duration=%s success=%t", phase, dur, err == nil)
}

func (o *Orchestrator) finish(res *Result) {
	o.monitor.Sample()

	o.mu.Lock()
	snapshot := *res
	o.last = &snapshot
	o.mu.Unlock()

	outcome := "success"
	if !res.Success {
		outcome = "failure"
	}
	o.opts.Sink.Emit(core.NewRecord("boot", "sequence-completed", outcome).WithMetadata(map[string]any{
		"terminal":      string(res.Terminal),
		"errors":        len(res.Errors),
		"agents_loaded": len(res.AgentsLoaded),
	}))
	o.opts.Logger.Info("boot sequence completed success=%t terminal=%s errors=%d", res.Success, res.Terminal, len(res.Errors))
}
