package migration

import (
	"fmt"

	"github.com/htafolla/strray/logging"
	"github.com/htafolla/strray/state"
)

// largePayloadBytes is the advisory size above which a string or byte payload
// draws a warning.
const largePayloadBytes = 1 << 20

// Result is the outcome of a pre-execution plan validation. Errors block
// execution; warnings do not.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ResultCheck is the outcome of a post-execution validation.
type ResultCheck struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// Rollback reports whether a plan can be rolled back and, when it cannot, why.
type Rollback struct {
	CanRollback bool   `json:"can_rollback"`
	Reason      string `json:"reason,omitempty"`
}

// ValidatorOptions configures a Validator.
type ValidatorOptions struct {
	Logger logging.Logger
}

// Validator checks migration plans against the shared state store.
type Validator struct {
	store  *state.Store
	logger logging.Logger
}

// NewValidator constructs a Validator bound to the given store.
func NewValidator(store *state.Store, optFns ...func(o *ValidatorOptions)) *Validator {
	opts := ValidatorOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Validator{store: store, logger: opts.Logger}
}

// ValidatePlan performs the structural pre-execution checks: every source key
// must exist, targets must not collide with existing keys unless the step is
// marked overwrite-safe, and the declared target shape must be deterministic
// (no duplicate or empty targets). Advisory concerns become warnings.
func (v *Validator) ValidatePlan(plan Plan) Result {
	res := Result{Errors: []string{}, Warnings: []string{}}

	if len(plan.Steps) == 0 {
		res.Errors = append(res.Errors, "plan declares no steps")
	}

	targets := map[string]struct{}{}
	for i, step := range plan.Steps {
		if step.SourceKey == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: empty source key", i))
			continue
		}
		if step.TargetKey == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: empty target key", i))
			continue
		}

		value, ok := v.store.Get(step.SourceKey)
		if !ok {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: source key %q does not exist", i, step.SourceKey))
		} else if payloadSize(value) > largePayloadBytes {
			res.Warnings = append(res.Warnings, fmt.Sprintf("step %d: payload for %q exceeds %d bytes", i, step.SourceKey, largePayloadBytes))
		}

		if _, dup := targets[step.TargetKey]; dup {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: duplicate target key %q makes the target shape nondeterministic", i, step.TargetKey))
		}
		targets[step.TargetKey] = struct{}{}

		if _, exists := v.store.Get(step.TargetKey); exists && !step.Overwrite {
			res.Errors = append(res.Errors, fmt.Sprintf("step %d: target key %q already exists and step is not overwrite-safe", i, step.TargetKey))
		}
	}

	res.Valid = len(res.Errors) == 0
	v.logger.Debug("migration plan validated plan_id=%s valid=%t errors=%d warnings=%d", plan.ID, res.Valid, len(res.Errors), len(res.Warnings))
	return res
}

// ValidateResult performs the post-execution check. A reported failure is
// never valid and the issues explain the discrepancy between the plan's
// intent and the actual store contents. A reported success spot-checks that
// every declared target key is present.
func (v *Validator) ValidateResult(plan Plan, success bool) ResultCheck {
	check := ResultCheck{Issues: []string{}}

	if !success {
		check.Valid = false
		for _, key := range plan.TargetKeys() {
			if _, ok := v.store.Get(key); !ok {
				check.Issues = append(check.Issues, fmt.Sprintf("target key %q declared by plan %s is absent after failed execution", key, plan.ID))
			}
		}
		if len(check.Issues) == 0 {
			check.Issues = append(check.Issues, fmt.Sprintf("plan %s reported failure despite all target keys being present", plan.ID))
		}
		return check
	}

	for _, key := range plan.TargetKeys() {
		if _, ok := v.store.Get(key); !ok {
			check.Issues = append(check.Issues, fmt.Sprintf("target key %q missing after reported success", key))
		}
	}
	check.Valid = len(check.Issues) == 0
	return check
}

// ValidateRollback reports whether the plan recorded a pre-migration snapshot
// for every key it touches: each source key, and the current value of any
// occupied target an overwrite-safe step would clobber. Absence of any
// snapshot entry yields CanRollback=false with an explanatory reason; the
// validator never guesses.
func (v *Validator) ValidateRollback(plan Plan) Rollback {
	if len(plan.Snapshot) == 0 {
		return Rollback{CanRollback: false, Reason: "plan recorded no pre-migration snapshot"}
	}

	for _, step := range plan.Steps {
		if _, ok := plan.Snapshot[step.SourceKey]; !ok {
			return Rollback{CanRollback: false, Reason: fmt.Sprintf("snapshot missing touched key %q", step.SourceKey)}
		}
		if !step.Overwrite {
			continue
		}
		if _, occupied := v.store.Get(step.TargetKey); !occupied {
			continue
		}
		if _, ok := plan.Snapshot[step.TargetKey]; !ok {
			return Rollback{CanRollback: false, Reason: fmt.Sprintf("snapshot missing overwritten target key %q", step.TargetKey)}
		}
	}

	return Rollback{CanRollback: true}
}

// payloadSize estimates the byte size of advisory-checked payloads. Only
// string and byte-slice values are sized; other shapes are assumed small.
func payloadSize(v any) int {
	switch p := v.(type) {
	case string:
		return len(p)
	case []byte:
		return len(p)
	default:
		return 0
	}
}
