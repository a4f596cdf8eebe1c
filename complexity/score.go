package complexity

import (
	"fmt"
	"math"
	"sync"
)

// Level partitions the score axis into strictly ordered, gapless bands.
type Level string

const (
	// LevelSimple covers trivial operations handled by a single agent.
	LevelSimple Level = "simple"
	// LevelModerate covers routine operations handled by a single agent.
	LevelModerate Level = "moderate"
	// LevelComplex covers operations needing coordinated multi-agent work.
	LevelComplex Level = "complex"
	// LevelEnterprise covers operations needing orchestrator-led decomposition.
	LevelEnterprise Level = "enterprise"
)

// Strategy is the delegation routing policy derived from a Level.
type Strategy string

const (
	// StrategySingleAgent routes the work to exactly one agent.
	StrategySingleAgent Strategy = "single-agent"
	// StrategyMultiAgent fans the work out to a bounded agent set.
	StrategyMultiAgent Strategy = "multi-agent"
	// StrategyOrchestratorLed decomposes the work into dependency-ordered sub-tasks.
	StrategyOrchestratorLed Strategy = "orchestrator-led"
)

// Thresholds are the strictly increasing score boundaries separating levels.
// A score strictly below Simple is simple, below Moderate is moderate, below
// Complex is complex, everything else is enterprise. The Enterprise bound
// caps adaptive tuning so boundaries cannot run away.
type Thresholds struct {
	Simple     float64 `json:"simple"`
	Moderate   float64 `json:"moderate"`
	Complex    float64 `json:"complex"`
	Enterprise float64 `json:"enterprise"`
}

// DefaultThresholds returns the seed boundaries used when none are configured.
func DefaultThresholds() Thresholds {
	return Thresholds{Simple: 10, Moderate: 25, Complex: 50, Enterprise: 100}
}

// Validate reports an error unless the boundaries are non-negative and
// strictly increasing.
func (t Thresholds) Validate() error {
	if t.Simple < 0 {
		return fmt.Errorf("threshold simple must be non-negative, got %v", t.Simple)
	}
	if !(t.Simple < t.Moderate && t.Moderate < t.Complex && t.Complex < t.Enterprise) {
		return fmt.Errorf("thresholds must be strictly increasing: simple=%v moderate=%v complex=%v enterprise=%v",
			t.Simple, t.Moderate, t.Complex, t.Enterprise)
	}
	return nil
}

// ThresholdPatch is a partial threshold update; nil fields keep the current value.
type ThresholdPatch struct {
	Simple     *float64
	Moderate   *float64
	Complex    *float64
	Enterprise *float64
}

// Weights scale the contribution of each metric to the composite score.
type Weights struct {
	File       float64
	Change     float64
	Type       float64
	Dependency float64
}

// DefaultWeights returns the seed weighting.
func DefaultWeights() Weights {
	return Weights{File: 1.0, Change: 3.0, Type: 1.5, Dependency: 2.0}
}

// riskMultiplier scales the composite score upward for riskier operations.
// Every multiplier is >= 1 so risk never lowers a score.
var riskMultiplier = map[RiskLevel]float64{
	RiskLow:      1.0,
	RiskMedium:   1.25,
	RiskHigh:     1.5,
	RiskCritical: 2.0,
}

// Score is the composite assessment handed to the delegator. Level is fully
// determined by the numeric score via the Scorer's thresholds, and
// RecommendedStrategy is fully determined by Level.
type Score struct {
	Score               float64  `json:"score"`
	Level               Level    `json:"level"`
	RecommendedStrategy Strategy `json:"recommended_strategy"`
	EstimatedAgents     int      `json:"estimated_agents"`
	Reasoning           []string `json:"reasoning"`
}

// Observation is one historical outcome used for adaptive threshold tuning.
type Observation struct {
	Level             Level
	EstimatedDuration float64
	ActualDuration    float64
}

// ScorerOptions configures a Scorer.
type ScorerOptions struct {
	Weights    Weights
	Thresholds Thresholds
}

// Scorer computes composite scores against an explicit, mutable-by-API-only
// threshold configuration. Safe for concurrent use.
type Scorer struct {
	mu         sync.RWMutex
	weights    Weights
	thresholds Thresholds
}

// NewScorer constructs a Scorer with optional overrides. Invalid threshold
// overrides are ignored in favor of the defaults.
func NewScorer(optFns ...func(o *ScorerOptions)) *Scorer {
	opts := ScorerOptions{Weights: DefaultWeights(), Thresholds: DefaultThresholds()}
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := opts.Thresholds.Validate(); err != nil {
		opts.Thresholds = DefaultThresholds()
	}
	return &Scorer{weights: opts.Weights, thresholds: opts.Thresholds}
}

// Thresholds returns a copy of the current boundaries.
func (s *Scorer) Thresholds() Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds
}

// SetThresholds merges a partial update with the current thresholds. Updates
// that would break the strictly-increasing invariant are rejected and the
// prior thresholds retained.
func (s *Scorer) SetThresholds(patch ThresholdPatch) (Thresholds, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.thresholds
	if patch.Simple != nil {
		next.Simple = *patch.Simple
	}
	if patch.Moderate != nil {
		next.Moderate = *patch.Moderate
	}
	if patch.Complex != nil {
		next.Complex = *patch.Complex
	}
	if patch.Enterprise != nil {
		next.Enterprise = *patch.Enterprise
	}

	if err := next.Validate(); err != nil {
		return s.thresholds, fmt.Errorf("threshold update rejected: %w", err)
	}

	s.thresholds = next
	return next, nil
}

// UpdateThresholds adjusts boundaries based on observed outcomes. A level
// whose actual durations consistently overrun its estimates gets its boundary
// lowered (classifying similar work upward); consistent underruns raise it.
// Adjustments that would break the invariant are rejected wholesale and the
// prior thresholds retained.
func (s *Scorer) UpdateThresholds(observations []Observation) (Thresholds, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(observations) == 0 {
		return s.thresholds, nil
	}

	ratios := map[Level][]float64{}
	for _, ob := range observations {
		if ob.EstimatedDuration <= 0 {
			continue
		}
		ratios[ob.Level] = append(ratios[ob.Level], ob.ActualDuration/ob.EstimatedDuration)
	}

	next := s.thresholds
	adjust := func(bound *float64, level Level) {
		rs, ok := ratios[level]
		if !ok {
			return
		}
		sum := 0.0
		for _, r := range rs {
			sum += r
		}
		mean := sum / float64(len(rs))
		switch {
		case mean > 1.2:
			*bound *= 0.9
		case mean < 0.8:
			*bound *= 1.1
		}
	}
	adjust(&next.Simple, LevelSimple)
	adjust(&next.Moderate, LevelModerate)
	adjust(&next.Complex, LevelComplex)
	adjust(&next.Enterprise, LevelEnterprise)

	if err := next.Validate(); err != nil {
		return s.thresholds, fmt.Errorf("adaptive threshold update rejected: %w", err)
	}

	s.thresholds = next
	return next, nil
}

// Score computes the composite complexity assessment for the given metrics.
//
// The numeric score is a weighted sum of file count, log-damped change
// volume, operation type weight and dependency count, multiplied by the risk
// multiplier. The score is monotonically non-decreasing in file count, change
// volume and dependencies.
func (s *Scorer) Score(m Metrics) Score {
	s.mu.RLock()
	w := s.weights
	t := s.thresholds
	s.mu.RUnlock()

	raw := w.File*float64(m.FileCount) +
		w.Change*math.Log1p(float64(m.ChangeVolume)) +
		w.Type*operationWeight[m.OperationType] +
		w.Dependency*float64(m.Dependencies)

	mult, ok := riskMultiplier[m.RiskLevel]
	if !ok {
		mult = 1.0
	}
	score := raw * mult

	level := levelFor(score, t)
	strategy := strategyFor(level)

	reasoning := make([]string, 0, 6)
	if m.FileCount > 0 {
		reasoning = append(reasoning, fmt.Sprintf("%d files referenced contribute %.1f", m.FileCount, w.File*float64(m.FileCount)))
	}
	if m.ChangeVolume > 0 {
		reasoning = append(reasoning, fmt.Sprintf("change volume %d contributes %.1f", m.ChangeVolume, w.Change*math.Log1p(float64(m.ChangeVolume))))
	}
	reasoning = append(reasoning, fmt.Sprintf("operation type %s carries weight %.1f", m.OperationType, operationWeight[m.OperationType]))
	if m.Dependencies > 0 {
		reasoning = append(reasoning, fmt.Sprintf("%d dependent modules contribute %.1f", m.Dependencies, w.Dependency*float64(m.Dependencies)))
	}
	if mult > 1.0 {
		reasoning = append(reasoning, fmt.Sprintf("risk level %s multiplies score by %.2f", m.RiskLevel, mult))
	}
	reasoning = append(reasoning, fmt.Sprintf("score %.1f classified %s, strategy %s", score, level, strategy))

	return Score{
		Score:               score,
		Level:               level,
		RecommendedStrategy: strategy,
		EstimatedAgents:     estimateAgents(strategy, m.Dependencies),
		Reasoning:           reasoning,
	}
}

// levelFor maps a score onto its band: the first boundary the score is
// strictly below names the level, else enterprise.
func levelFor(score float64, t Thresholds) Level {
	switch {
	case score < t.Simple:
		return LevelSimple
	case score < t.Moderate:
		return LevelModerate
	case score < t.Complex:
		return LevelComplex
	default:
		return LevelEnterprise
	}
}

func strategyFor(level Level) Strategy {
	switch level {
	case LevelSimple, LevelModerate:
		return StrategySingleAgent
	case LevelComplex:
		return StrategyMultiAgent
	default:
		return StrategyOrchestratorLed
	}
}

// estimateAgents sizes the agent set per strategy: always 1 for single-agent,
// a small count scaling with dependencies for multi-agent, larger for
// orchestrator-led. Never less than 1.
func estimateAgents(strategy Strategy, deps int) int {
	switch strategy {
	case StrategySingleAgent:
		return 1
	case StrategyMultiAgent:
		n := 2 + deps/4
		if n > 4 {
			n = 4
		}
		return n
	default:
		n := 5 + deps/5
		if n > 8 {
			n = 8
		}
		return n
	}
}
