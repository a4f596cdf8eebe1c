package delegate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htafolla/strray/complexity"
	"github.com/htafolla/strray/internal/testutil"
)

func newTestRegistry(t *testing.T, names ...string) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, name := range names {
		require.NoError(t, r.Register(&testutil.StubAgent{AgentName: name}))
	}
	return r
}

// simpleRequest scores below the moderate threshold: single-agent.
func simpleRequest() Request {
	return Request{
		Description: "adjust log message",
		Context: complexity.OperationContext{Files: []complexity.FileChange{
			{Path: "logger.go", Added: 2},
		}},
	}
}

// complexRequest is large and risky enough for orchestrator-led routing.
func complexRequest() Request {
	return Request{
		Description: "refactor the ingestion pipeline",
		Context: complexity.OperationContext{Files: []complexity.FileChange{
			{Path: "pipeline/reader.go", Added: 300, Removed: 120, Modules: []string{"reader", "parser", "writer", "metrics", "config"}},
			{Path: "pipeline/writer.go", Added: 250, Removed: 80, Modules: []string{"writer", "batch"}},
			{Path: "pipeline/parser.go", Added: 180, Modules: []string{"parser", "tokens"}},
		}},
	}
}

func TestRegistry_RegisterDuplicateFails(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&testutil.StubAgent{AgentName: "architect"}))
	assert.Error(t, r.Register(&testutil.StubAgent{AgentName: "architect"}))
	assert.Equal(t, []string{"architect"}, r.Names())
}

func TestAnalyzeDelegation_NoAgents(t *testing.T) {
	d := New(NewRegistry())
	_, err := d.AnalyzeDelegation(simpleRequest())
	assert.Error(t, err)
}

func TestAnalyzeDelegation_Deterministic(t *testing.T) {
	r := newTestRegistry(t, "architect", "refactorer", "test-architect", "code-reviewer")
	d := New(r)

	first, err := d.AnalyzeDelegation(complexRequest())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		next, err := d.AnalyzeDelegation(complexRequest())
		require.NoError(t, err)
		assert.Equal(t, first.Strategy, next.Strategy)
		assert.Equal(t, first.Agents, next.Agents)
		assert.Equal(t, first.Complexity.Level, next.Complexity.Level)
	}
}

func TestAnalyzeDelegation_SingleAgentForSimpleWork(t *testing.T) {
	r := newTestRegistry(t, "code-reviewer", "architect")
	d := New(r)

	plan, err := d.AnalyzeDelegation(simpleRequest())
	require.NoError(t, err)

	assert.Equal(t, complexity.StrategySingleAgent, plan.Strategy)
	assert.Len(t, plan.Agents, 1)
	assert.Equal(t, 1, plan.Complexity.EstimatedAgents)
}

func TestAnalyzeDelegation_PatternAgentsPreferred(t *testing.T) {
	// Registration order deliberately differs from the refactor pattern
	// lineup; pattern order must win.
	r := newTestRegistry(t, "code-reviewer", "test-architect", "refactorer", "architect")
	d := New(r)

	plan, err := d.AnalyzeDelegation(complexRequest())
	require.NoError(t, err)
	require.NotEmpty(t, plan.Agents)

	assert.Equal(t, "architect", plan.Agents[0])
}

func TestAnalyzeDelegation_TopsUpFromRegistryOrder(t *testing.T) {
	// Only one pattern agent registered; remainder fills in registration order.
	r := newTestRegistry(t, "alpha", "beta", "refactorer")
	d := New(r)

	plan, err := d.AnalyzeDelegation(complexRequest())
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(plan.Agents), 2)
	assert.Equal(t, "refactorer", plan.Agents[0])
	assert.Equal(t, "alpha", plan.Agents[1])
}
