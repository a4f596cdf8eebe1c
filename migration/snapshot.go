package migration

import (
	"fmt"
	"sync"

	"github.com/htafolla/strray/state"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a plan ID.
var ErrSnapshotNotFound = fmt.Errorf("snapshot not found")

// SnapshotStore keeps pre-migration snapshots keyed by plan ID. It is a
// volatile, process-local store safe for concurrent access; returned maps are
// copies to prevent external mutation.
type SnapshotStore struct {
	mu    sync.RWMutex
	snaps map[string]map[string]any
}

// NewSnapshotStore constructs an empty snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snaps: map[string]map[string]any{}}
}

// Capture records the current value of every listed key from the store and
// associates the snapshot with the plan ID. Missing keys are skipped, which
// later fails rollback validation for plans touching them.
func (ss *SnapshotStore) Capture(planID string, store *state.Store, keys []string) map[string]any {
	snap := map[string]any{}
	for _, k := range keys {
		if v, ok := store.Get(k); ok {
			snap[k] = v
		}
	}

	ss.mu.Lock()
	ss.snaps[planID] = snap
	ss.mu.Unlock()

	return copySnapshot(snap)
}

// Get returns the snapshot for a plan ID or ErrSnapshotNotFound.
func (ss *SnapshotStore) Get(planID string) (map[string]any, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	snap, ok := ss.snaps[planID]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return copySnapshot(snap), nil
}

// Delete removes the snapshot for a plan ID.
func (ss *SnapshotStore) Delete(planID string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if _, ok := ss.snaps[planID]; !ok {
		return ErrSnapshotNotFound
	}
	delete(ss.snaps, planID)
	return nil
}

func copySnapshot(snap map[string]any) map[string]any {
	out := make(map[string]any, len(snap))
	for k, v := range snap {
		out[k] = v
	}
	return out
}
