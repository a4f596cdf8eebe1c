package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htafolla/strray/state"
)

func seededStore(entries map[string]any) *state.Store {
	s := state.NewStore()
	s.SetAll(entries)
	return s
}

func TestValidatePlan_Valid(t *testing.T) {
	store := seededStore(map[string]any{"config:old": "value"})
	v := NewValidator(store)

	res := v.ValidatePlan(Plan{
		ID:    "plan-1",
		Steps: []Step{{SourceKey: "config:old", TargetKey: "config:new"}},
	})

	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestValidatePlan_EmptyPlan(t *testing.T) {
	v := NewValidator(state.NewStore())

	res := v.ValidatePlan(Plan{ID: "plan-empty"})

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "no steps")
}

func TestValidatePlan_MissingSourceKey(t *testing.T) {
	v := NewValidator(state.NewStore())

	res := v.ValidatePlan(Plan{
		ID:    "plan-2",
		Steps: []Step{{SourceKey: "ghost", TargetKey: "dest"}},
	})

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], `source key "ghost" does not exist`)
}

func TestValidatePlan_EmptyKeys(t *testing.T) {
	v := NewValidator(seededStore(map[string]any{"a": 1}))

	res := v.ValidatePlan(Plan{
		ID: "plan-3",
		Steps: []Step{
			{SourceKey: "", TargetKey: "dest"},
			{SourceKey: "a", TargetKey: ""},
		},
	})

	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 2)
}

func TestValidatePlan_DuplicateTarget(t *testing.T) {
	store := seededStore(map[string]any{"a": 1, "b": 2})
	v := NewValidator(store)

	res := v.ValidatePlan(Plan{
		ID: "plan-4",
		Steps: []Step{
			{SourceKey: "a", TargetKey: "dest"},
			{SourceKey: "b", TargetKey: "dest"},
		},
	})

	assert.False(t, res.Valid)
	found := false
	for _, e := range res.Errors {
		if strings.Contains(e, "duplicate target key") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidatePlan_UnsafeCollision(t *testing.T) {
	store := seededStore(map[string]any{"a": 1, "dest": "occupied"})
	v := NewValidator(store)

	res := v.ValidatePlan(Plan{
		ID:    "plan-5",
		Steps: []Step{{SourceKey: "a", TargetKey: "dest"}},
	})

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "not overwrite-safe")
}

func TestValidatePlan_OverwriteAllowsCollision(t *testing.T) {
	store := seededStore(map[string]any{"a": 1, "dest": "occupied"})
	v := NewValidator(store)

	res := v.ValidatePlan(Plan{
		ID:    "plan-6",
		Steps: []Step{{SourceKey: "a", TargetKey: "dest", Overwrite: true}},
	})

	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestValidatePlan_LargePayloadWarnsWithoutBlocking(t *testing.T) {
	big := strings.Repeat("x", largePayloadBytes+1)
	store := seededStore(map[string]any{"blob": big})
	v := NewValidator(store)

	res := v.ValidatePlan(Plan{
		ID:    "plan-7",
		Steps: []Step{{SourceKey: "blob", TargetKey: "blob:moved"}},
	})

	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "exceeds")
}

func TestValidateResult_SuccessWithTargetsPresent(t *testing.T) {
	store := seededStore(map[string]any{"dest": "moved"})
	v := NewValidator(store)

	check := v.ValidateResult(Plan{
		ID:    "plan-8",
		Steps: []Step{{SourceKey: "a", TargetKey: "dest"}},
	}, true)

	assert.True(t, check.Valid)
	assert.Empty(t, check.Issues)
}

func TestValidateResult_SuccessWithMissingTarget(t *testing.T) {
	v := NewValidator(state.NewStore())

	check := v.ValidateResult(Plan{
		ID:    "plan-9",
		Steps: []Step{{SourceKey: "a", TargetKey: "dest"}},
	}, true)

	assert.False(t, check.Valid)
	require.Len(t, check.Issues, 1)
	assert.Contains(t, check.Issues[0], "missing after reported success")
}

func TestValidateResult_FailureNeverValid(t *testing.T) {
	// Even with every target present, a reported failure stays invalid.
	store := seededStore(map[string]any{"dest": "moved"})
	v := NewValidator(store)

	check := v.ValidateResult(Plan{
		ID:    "plan-10",
		Steps: []Step{{SourceKey: "a", TargetKey: "dest"}},
	}, false)

	assert.False(t, check.Valid)
	require.NotEmpty(t, check.Issues)
	assert.Contains(t, check.Issues[0], "reported failure")
}

func TestValidateRollback_NoSnapshot(t *testing.T) {
	v := NewValidator(state.NewStore())

	rb := v.ValidateRollback(Plan{
		ID:    "plan-11",
		Steps: []Step{{SourceKey: "a", TargetKey: "dest"}},
	})

	assert.False(t, rb.CanRollback)
	assert.NotEmpty(t, rb.Reason)
}

func TestValidateRollback_IncompleteSnapshot(t *testing.T) {
	v := NewValidator(state.NewStore())

	rb := v.ValidateRollback(Plan{
		ID: "plan-12",
		Steps: []Step{
			{SourceKey: "a", TargetKey: "dest-a"},
			{SourceKey: "b", TargetKey: "dest-b"},
		},
		Snapshot: map[string]any{"a": 1},
	})

	assert.False(t, rb.CanRollback)
	assert.Contains(t, rb.Reason, `"b"`)
}

func TestValidateRollback_CompleteSnapshot(t *testing.T) {
	v := NewValidator(state.NewStore())

	rb := v.ValidateRollback(Plan{
		ID:       "plan-13",
		Steps:    []Step{{SourceKey: "a", TargetKey: "dest"}},
		Snapshot: map[string]any{"a": 1},
	})

	assert.True(t, rb.CanRollback)
	assert.Empty(t, rb.Reason)
}

func TestValidateRollback_OverwrittenTargetRequiresSnapshot(t *testing.T) {
	// "dest" is occupied and the step clobbers it; a snapshot that only
	// covers the source cannot restore the overwritten value.
	store := seededStore(map[string]any{"a": 1, "dest": "occupied"})
	v := NewValidator(store)

	plan := Plan{
		ID:       "plan-14",
		Steps:    []Step{{SourceKey: "a", TargetKey: "dest", Overwrite: true}},
		Snapshot: map[string]any{"a": 1},
	}

	rb := v.ValidateRollback(plan)
	assert.False(t, rb.CanRollback)
	assert.Contains(t, rb.Reason, `"dest"`)

	plan.Snapshot["dest"] = "occupied"
	assert.True(t, v.ValidateRollback(plan).CanRollback)
}

func TestValidateRollback_VacantOverwriteTarget(t *testing.T) {
	// An overwrite-safe step whose target holds no value destroys nothing,
	// so the source snapshot alone suffices.
	store := seededStore(map[string]any{"a": 1})
	v := NewValidator(store)

	rb := v.ValidateRollback(Plan{
		ID:       "plan-15",
		Steps:    []Step{{SourceKey: "a", TargetKey: "dest", Overwrite: true}},
		Snapshot: map[string]any{"a": 1},
	})

	assert.True(t, rb.CanRollback)
}

func TestPlan_TouchedKeysIncludeOverwriteTargets(t *testing.T) {
	p := Plan{
		Steps: []Step{
			{SourceKey: "a", TargetKey: "x", Overwrite: true},
			{SourceKey: "b", TargetKey: "y"},
		},
	}

	assert.Equal(t, []string{"a", "x", "b"}, p.TouchedKeys())
}

func TestPlan_TouchedAndTargetKeysDedupe(t *testing.T) {
	p := Plan{
		Steps: []Step{
			{SourceKey: "a", TargetKey: "x"},
			{SourceKey: "a", TargetKey: "y"},
			{SourceKey: "b", TargetKey: "y"},
		},
	}

	assert.Equal(t, []string{"a", "b"}, p.TouchedKeys())
	assert.Equal(t, []string{"x", "y"}, p.TargetKeys())
}
