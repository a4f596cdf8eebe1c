// Package strray provides a high-level façade over the coordination core:
// boot sequencing, complexity-scored delegation, shared state, migration
// validation and performance instrumentation. Most applications interact
// with this package by:
//  1. Creating a StrRay via New() (optionally overriding default services)
//  2. Registering one or more execution agents
//  3. Booting the subsystems (Boot) and delegating work (Delegate)
//
// The façade wires the boot orchestrator's phases to the real components
// while keeping setup ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a
// structured logger and a durable telemetry sink.
package strray

import (
	"context"
	"fmt"

	"github.com/htafolla/strray/bench"
	"github.com/htafolla/strray/boot"
	"github.com/htafolla/strray/complexity"
	"github.com/htafolla/strray/core"
	"github.com/htafolla/strray/delegate"
	"github.com/htafolla/strray/logging"
	"github.com/htafolla/strray/migration"
	"github.com/htafolla/strray/state"
)

// Options configures the StrRay instance.
type Options struct {
	// BootConfig gates the optional boot phases.
	BootConfig boot.SequenceConfig

	// MaxConcurrentAgents bounds the delegation fan-out.
	MaxConcurrentAgents int64

	// Thresholds seeds the complexity scorer; assumed already validated.
	Thresholds complexity.Thresholds

	// Store is the shared state store (defaults to a fresh in-memory store).
	Store *state.Store

	// Registry holds the execution agents.
	Registry *delegate.Registry

	// Tracker records performance benchmarks.
	Tracker *bench.Tracker

	// Sink receives structured telemetry records (defaults to NoOp).
	Sink core.TelemetrySink

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// StrRay is the high-level façade aggregating the coordination components.
type StrRay struct {
	store        *state.Store
	scorer       *complexity.Scorer
	registry     *delegate.Registry
	delegator    *delegate.Delegator
	orchestrator *boot.Orchestrator
	validator    *migration.Validator
	snapshots    *migration.SnapshotStore
	tracker      *bench.Tracker
	logger       logging.Logger
}

// New creates a StrRay instance with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *StrRay {
	opts := Options{
		BootConfig: boot.SequenceConfig{
			SessionManagement:   true,
			ProcessorActivation: true,
			AgentLoading:        true,
			EnableEnforcement:   true,
			CodexValidation:     true,
		},
		MaxConcurrentAgents: 3,
		Thresholds:          complexity.DefaultThresholds(),
		Store:               state.NewStore(),
		Registry:            delegate.NewRegistry(),
		Tracker:             bench.NewTracker(),
		Sink:                core.NoOpSink{},
		Logger:              logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	scorer := complexity.NewScorer(func(o *complexity.ScorerOptions) {
		o.Thresholds = opts.Thresholds
	})

	delegator := delegate.New(opts.Registry, func(o *delegate.Options) {
		o.MaxConcurrent = opts.MaxConcurrentAgents
		o.Scorer = scorer
		o.Store = opts.Store
		o.Sink = opts.Sink
		o.Logger = opts.Logger
	})

	s := &StrRay{
		store:     opts.Store,
		scorer:    scorer,
		registry:  opts.Registry,
		delegator: delegator,
		validator: migration.NewValidator(opts.Store, func(o *migration.ValidatorOptions) {
			o.Logger = opts.Logger
		}),
		snapshots: migration.NewSnapshotStore(),
		tracker:   opts.Tracker,
		logger:    opts.Logger,
	}
	s.orchestrator = boot.New(opts.BootConfig, func(o *boot.Options) {
		o.Sink = opts.Sink
		o.Logger = opts.Logger
		o.InitStateStore = s.initStateStore
		o.InitDelegation = s.initDelegation
		o.LoadOrchestrator = s.loadOrchestrator
		o.InitSession = s.initSession
		o.ActivateProcessors = s.activateProcessors
		o.EnableEnforcement = s.enableEnforcement
		o.ActivateCodex = s.activateCodex
	})

	return s
}

// RegisterAgent adds an agent to the delegation registry.
func (s *StrRay) RegisterAgent(a core.Agent, optFns ...func(o *delegate.RegisterOptions)) error {
	return s.registry.Register(a, optFns...)
}

// Boot runs the full boot sequence under a benchmark, returning the result.
// Agent loaders are bound from the registry at boot time so agents registered
// after New() are still loaded.
func (s *StrRay) Boot(ctx context.Context) boot.Result {
	s.orchestrator.SetAgentLoaders(s.agentLoaders()...)
	res, _ := s.tracker.BenchmarkBootSequence(ctx, s.orchestrator)
	return res
}

// BootStatus returns the last boot result without re-running the sequence.
func (s *StrRay) BootStatus() (boot.Result, bool) { return s.orchestrator.Status() }

// Delegate analyzes a request and executes the resulting plan under a
// benchmark. Analysis errors (no registered agents) surface as an error;
// execution failures are captured inside the ExecutionResult.
func (s *StrRay) Delegate(ctx context.Context, req delegate.Request) (delegate.Plan, delegate.ExecutionResult, error) {
	plan, err := s.delegator.AnalyzeDelegation(req)
	if err != nil {
		return delegate.Plan{}, delegate.ExecutionResult{}, err
	}
	execRes, _ := s.tracker.BenchmarkDelegation(ctx, s.delegator, plan, req)
	return plan, execRes, nil
}

// ValidateMigration runs the pre-execution plan validation under a benchmark.
func (s *StrRay) ValidateMigration(plan migration.Plan) migration.Result {
	res, _ := s.tracker.BenchmarkMigrationValidation(s.validator, plan)
	return res
}

// Thresholds returns the current complexity thresholds.
func (s *StrRay) Thresholds() complexity.Thresholds { return s.scorer.Thresholds() }

// SetThresholds merges a partial threshold update, rejecting updates that
// break the strictly-increasing invariant.
func (s *StrRay) SetThresholds(patch complexity.ThresholdPatch) (complexity.Thresholds, error) {
	return s.scorer.SetThresholds(patch)
}

// Report aggregates the benchmark history into a structured report.
func (s *StrRay) Report() bench.Report { return s.tracker.GenerateReport() }

// Store exposes the shared state store.
func (s *StrRay) Store() *state.Store { return s.store }

// Validator exposes the migration validator bound to the shared store.
func (s *StrRay) Validator() *migration.Validator { return s.validator }

// Snapshots exposes the pre-migration snapshot store.
func (s *StrRay) Snapshots() *migration.SnapshotStore { return s.snapshots }

// MemoryHealth runs the advisory memory trend check.
func (s *StrRay) MemoryHealth() boot.Health { return s.orchestrator.Monitor().HealthCheck() }

// Boot phase wiring. Each phase marks its activation in the shared store so
// later phases (and external automation) can observe what is active.

func (s *StrRay) initStateStore(context.Context) error {
	if s.store == nil {
		return fmt.Errorf("state store not configured")
	}
	s.store.Set("boot:state-store", true)
	return nil
}

func (s *StrRay) initDelegation(context.Context) error {
	if s.registry == nil {
		return fmt.Errorf("agent registry not configured")
	}
	s.store.Set("boot:delegation", true)
	return nil
}

func (s *StrRay) loadOrchestrator(context.Context) error {
	s.store.Set("boot:orchestrator", true)
	return nil
}

func (s *StrRay) initSession(context.Context) error {
	scope := s.store.Scoped("session")
	scope.Set("initialized", true)
	return nil
}

func (s *StrRay) activateProcessors(context.Context) error {
	s.store.Set("boot:processors", true)
	return nil
}

func (s *StrRay) enableEnforcement(context.Context) error {
	s.store.Set("boot:enforcement", true)
	return nil
}

func (s *StrRay) activateCodex(context.Context) error {
	s.store.Set("boot:codex", true)
	return nil
}

// agentLoaders marks each registered agent loaded in the shared store,
// yielding the identifier list the boot result accumulates.
func (s *StrRay) agentLoaders() []boot.AgentLoader {
	names := s.registry.Names()
	loaders := make([]boot.AgentLoader, 0, len(names))
	for _, name := range names {
		name := name
		loaders = append(loaders, func(context.Context) (string, error) {
			if _, ok := s.registry.Get(name); !ok {
				return name, fmt.Errorf("agent %s missing from registry", name)
			}
			s.store.Set("agent:"+name, "loaded")
			return name, nil
		})
	}
	return loaders
}
