package state

import "strings"

// Scoped is a prefix-restricted view over a Store. All keys are transparently
// namespaced, so two scopes with distinct prefixes never collide. The view
// shares the underlying store's locking discipline.
type Scoped struct {
	store  *Store
	prefix string
}

// Get returns the value and existence flag for a scoped key.
func (sc *Scoped) Get(key string) (any, bool) { return sc.store.Get(sc.prefix + key) }

// Set stores a scoped key/value pair.
func (sc *Scoped) Set(key string, value any) { sc.store.Set(sc.prefix+key, value) }

// Delete removes a scoped key, reporting whether it was present.
func (sc *Scoped) Delete(key string) bool { return sc.store.Delete(sc.prefix + key) }

// Keys returns the scope's keys with the prefix stripped, in lexical order.
func (sc *Scoped) Keys() []string {
	all := sc.store.Keys()
	keys := make([]string, 0, len(all))
	for _, k := range all {
		if strings.HasPrefix(k, sc.prefix) {
			keys = append(keys, strings.TrimPrefix(k, sc.prefix))
		}
	}
	return keys
}

// Clear removes all keys within the scope, leaving other entries untouched.
func (sc *Scoped) Clear() {
	for _, k := range sc.Keys() {
		sc.store.Delete(sc.prefix + k)
	}
}
