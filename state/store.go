// Package state implements the shared mutable state store used by the boot
// orchestrator, the delegator and the migration validator. Values are opaque
// payloads keyed by string; the store lives for the duration of the process
// unless explicitly cleared.
package state

import (
	"sort"
	"sync"
	"time"
)

// Store is a process-lifetime key/value store safe for concurrent access.
// All accesses to a key are serialized through the store-level lock so
// concurrent agents never lose updates. Snapshot and Keys return defensive
// copies to avoid external mutation.
type Store struct {
	mu      sync.RWMutex
	data    map[string]any
	created time.Time
	updated time.Time
}

// NewStore constructs an empty store.
func NewStore() *Store {
	now := time.Now()
	return &Store{data: map[string]any{}, created: now, updated: now}
}

// Get returns the value and existence flag for a key.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// GetString returns the value for key if it is a string.
func (s *Store) GetString(key string) (string, bool) {
	v, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// GetInt returns the value for key if it is an int.
func (s *Store) GetInt(key string) (int, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

// Set stores a key/value pair, updating the modification timestamp.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	s.updated = time.Now()
}

// SetAll merges the provided key/value pairs into the store atomically.
func (s *Store) SetAll(delta map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range delta {
		s.data[k] = v
	}
	s.updated = time.Now()
}

// Delete removes a key, reporting whether it was present.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	delete(s.data, key)
	if ok {
		s.updated = time.Now()
	}
	return ok
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = map[string]any{}
	s.updated = time.Now()
}

// Keys returns all keys in lexical order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Snapshot returns a shallow copy of the current contents.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[string]any, len(s.data))
	for k, v := range s.data {
		snap[k] = v
	}
	return snap
}

// Updated returns the time of the last mutation.
func (s *Store) Updated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}

// Scoped returns a view of the store restricted to keys under the given
// prefix. Session-scoped state uses Scoped("session:" + id).
func (s *Store) Scoped(prefix string) *Scoped {
	return &Scoped{store: s, prefix: prefix + ":"}
}
