// Package migration validates proposed relocations and transformations of
// shared state before and after execution. Validators report structured
// pass/fail results as data; they never mutate the plan or the store and
// never panic on malformed input.
package migration

// Step relocates one state entry. Transform optionally names a declared
// transformation applied to the value in flight; an empty Transform copies
// the value verbatim. Overwrite marks the step safe to clobber an existing
// target key.
type Step struct {
	SourceKey string `json:"source_key"`
	TargetKey string `json:"target_key"`
	Transform string `json:"transform,omitempty"`
	Overwrite bool   `json:"overwrite,omitempty"`
}

// Plan is a declarative description of a state migration. Snapshot holds the
// pre-migration value of every touched key; rollback is only possible when
// the snapshot is complete.
type Plan struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Steps    []Step         `json:"steps"`
	Snapshot map[string]any `json:"snapshot,omitempty"`
}

// TouchedKeys returns the distinct keys the plan reads or may destroy, in
// step order: every source key, plus the target key of each overwrite-safe
// step. Capturing a snapshot over these keys preserves every pre-migration
// value a rollback would need.
func (p Plan) TouchedKeys() []string {
	seen := map[string]struct{}{}
	keys := make([]string, 0, len(p.Steps))
	add := func(key string) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	for _, s := range p.Steps {
		add(s.SourceKey)
		if s.Overwrite {
			add(s.TargetKey)
		}
	}
	return keys
}

// TargetKeys returns the distinct target keys the plan writes, in step order.
func (p Plan) TargetKeys() []string {
	seen := map[string]struct{}{}
	keys := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		if _, ok := seen[s.TargetKey]; ok {
			continue
		}
		seen[s.TargetKey] = struct{}{}
		keys = append(keys, s.TargetKey)
	}
	return keys
}
