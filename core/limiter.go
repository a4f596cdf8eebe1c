package core

import (
	"fmt"
	"sync"
)

// InvocationLimiter enforces a maximum number of agent invocations per job.
type InvocationLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewInvocationLimiter creates a new limiter with a max number of invocations.
// If max == 0, unlimited invocations are allowed.
func NewInvocationLimiter(max int) *InvocationLimiter {
	return &InvocationLimiter{max: max}
}

// Increment increases the invocation counter and returns an error if the
// limit is exceeded.
func (il *InvocationLimiter) Increment() error {
	il.mu.Lock()
	defer il.mu.Unlock()

	il.count++
	if il.max > 0 && il.count > il.max {
		return fmt.Errorf("exceeded max agent invocations: %d", il.max)
	}

	return nil
}

// Count returns the current number of invocations made.
func (il *InvocationLimiter) Count() int {
	il.mu.Lock()
	defer il.mu.Unlock()

	return il.count
}

// Remaining returns how many invocations are left before hitting the limit.
func (il *InvocationLimiter) Remaining() int {
	il.mu.Lock()
	defer il.mu.Unlock()

	if il.max == 0 {
		return -1 // unlimited
	}

	return il.max - il.count
}
