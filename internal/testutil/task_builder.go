package testutil

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/htafolla/strray/core"
)

// TaskBuilder provides a fluent helper for constructing tasks in tests.
// Example:
//
//	task := NewTaskBuilder("review").DependsOn("design").Agent("code-reviewer").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type TaskBuilder struct {
	id       string
	name     string
	desc     string
	priority core.TaskPriority
	deps     []string
	metadata map[string]any
}

// NewTaskBuilder creates a builder for a task with the given name. The task
// ID defaults to the name so dependency wiring stays readable in tests.
func NewTaskBuilder(name string) *TaskBuilder {
	return &TaskBuilder{id: name, name: name, desc: name, priority: core.PriorityMedium, metadata: map[string]any{}}
}

// ID overrides the task ID (chainable).
func (b *TaskBuilder) ID(id string) *TaskBuilder { b.id = id; return b }

// Description sets the task description (chainable).
func (b *TaskBuilder) Description(d string) *TaskBuilder { b.desc = d; return b }

// Priority sets the task priority (chainable).
func (b *TaskBuilder) Priority(p core.TaskPriority) *TaskBuilder { b.priority = p; return b }

// DependsOn appends dependency task IDs (chainable).
func (b *TaskBuilder) DependsOn(ids ...string) *TaskBuilder {
	b.deps = append(b.deps, ids...)
	return b
}

// Agent pins the task to a named agent via metadata (chainable).
func (b *TaskBuilder) Agent(name string) *TaskBuilder { b.metadata["agent"] = name; return b }

// Meta sets a metadata entry (chainable).
func (b *TaskBuilder) Meta(k string, v any) *TaskBuilder { b.metadata[k] = v; return b }

// Build assembles the task.
func (b *TaskBuilder) Build() core.Task {
	return core.Task{
		ID:           b.id,
		Name:         b.name,
		Description:  b.desc,
		Priority:     b.priority,
		Dependencies: b.deps,
		Metadata:     b.metadata,
	}
}

// StubAgent is a minimal core.Agent for tests. ExecuteFn may be nil, in which
// case every invocation succeeds with Data set to the agent name.
type StubAgent struct {
	AgentName string
	Delay     time.Duration
	ExecuteFn func(ctx context.Context, task core.Task) (core.AgentResult, error)

	calls atomic.Int64
}

// Name returns the agent identifier.
func (a *StubAgent) Name() string { return a.AgentName }

// Calls returns the number of invocations observed so far.
func (a *StubAgent) Calls() int64 { return a.calls.Load() }

// Execute runs the stubbed behavior, honoring the configured delay and
// context cancellation.
func (a *StubAgent) Execute(ctx context.Context, task core.Task) (core.AgentResult, error) {
	a.calls.Add(1)

	if a.Delay > 0 {
		select {
		case <-time.After(a.Delay):
		case <-ctx.Done():
			return core.NewFailureResult(a.AgentName, ctx.Err().Error()), nil
		}
	}

	if a.ExecuteFn != nil {
		return a.ExecuteFn(ctx, task)
	}
	return core.NewSuccessResult(a.AgentName, a.AgentName), nil
}
