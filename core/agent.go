package core

import "context"

// Agent is the execution contract consumed by the delegator. Implementations
// receive a Task and return an AgentResult describing the outcome.
//
// Implementations must:
//   - Respect context cancellation for graceful shutdown
//   - Return a non-nil result even on failure (Success=false plus Error)
//   - Be safe for concurrent invocation; the delegator may fan out to the
//     same agent from multiple goroutines
//
// A returned error is treated by the delegator as equivalent to a failed
// result; it never aborts sibling invocations.
type Agent interface {
	Name() string
	Execute(ctx context.Context, task Task) (AgentResult, error)
}
