package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotStore_CaptureGetDelete(t *testing.T) {
	store := seededStore(map[string]any{"a": 1, "b": "two"})
	ss := NewSnapshotStore()

	snap := ss.Capture("plan-1", store, []string{"a", "b", "missing"})
	assert.Equal(t, map[string]any{"a": 1, "b": "two"}, snap)

	got, err := ss.Get("plan-1")
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	require.NoError(t, ss.Delete("plan-1"))
	_, err = ss.Get("plan-1")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestSnapshotStore_GetUnknownPlan(t *testing.T) {
	ss := NewSnapshotStore()
	_, err := ss.Get("nope")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
	assert.ErrorIs(t, ss.Delete("nope"), ErrSnapshotNotFound)
}

func TestSnapshotStore_ReturnsCopies(t *testing.T) {
	store := seededStore(map[string]any{"a": 1})
	ss := NewSnapshotStore()

	first := ss.Capture("plan-1", store, []string{"a"})
	first["a"] = "mutated"

	got, err := ss.Get("plan-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got["a"])
}

func TestSnapshotStore_EnablesRollbackValidation(t *testing.T) {
	store := seededStore(map[string]any{"config:old": "v1"})
	ss := NewSnapshotStore()

	plan := Plan{
		ID:    "plan-rb",
		Steps: []Step{{SourceKey: "config:old", TargetKey: "config:new"}},
	}
	plan.Snapshot = ss.Capture(plan.ID, store, plan.TouchedKeys())

	rb := NewValidator(store).ValidateRollback(plan)
	assert.True(t, rb.CanRollback)
}

func TestSnapshotStore_CapturesOverwrittenTargets(t *testing.T) {
	store := seededStore(map[string]any{"config:old": "v1", "config:new": "stale"})
	ss := NewSnapshotStore()

	plan := Plan{
		ID:    "plan-ow",
		Steps: []Step{{SourceKey: "config:old", TargetKey: "config:new", Overwrite: true}},
	}
	plan.Snapshot = ss.Capture(plan.ID, store, plan.TouchedKeys())

	assert.Equal(t, "stale", plan.Snapshot["config:new"])
	assert.True(t, NewValidator(store).ValidateRollback(plan).CanRollback)
}
