package core

import "time"

// AgentResult is the outcome of a single agent invocation. Error is set iff
// Success is false. Data carries the agent's payload and is compared during
// conflict resolution, so agents addressing the same concern should return
// comparable shapes.
type AgentResult struct {
	Agent     string         `json:"agent"`
	Success   bool           `json:"success"`
	Data      any            `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
	Duration  time.Duration  `json:"duration"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewSuccessResult builds a successful result for the given agent.
func NewSuccessResult(agent string, data any) AgentResult {
	return AgentResult{Agent: agent, Success: true, Data: data, Timestamp: time.Now().UTC()}
}

// NewFailureResult builds a failed result carrying the error message.
func NewFailureResult(agent, errMsg string) AgentResult {
	return AgentResult{Agent: agent, Success: false, Error: errMsg, Timestamp: time.Now().UTC()}
}
