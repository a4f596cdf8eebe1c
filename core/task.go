package core

// TaskPriority orders tasks and breaks conflicts between disagreeing agents.
type TaskPriority int

const (
	// PriorityLow marks background or advisory work.
	PriorityLow TaskPriority = iota
	// PriorityMedium is the default priority for delegated tasks.
	PriorityMedium
	// PriorityHigh marks work that should win conflict resolution.
	PriorityHigh
	// PriorityCritical marks work tied to sensitive areas (security, state).
	PriorityCritical
)

// String returns the string representation of the priority.
func (p TaskPriority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Task is the unit of work handed to an agent. Dependencies reference other
// task IDs within the same delegation and are honored by the orchestrator-led
// execution path; they are ignored for single and multi strategies.
type Task struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Priority     TaskPriority   `json:"priority"`
	Dependencies []string       `json:"dependencies,omitempty"`
	SessionID    string         `json:"session_id,omitempty"`
	JobID        string         `json:"job_id,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// NewTask creates a task with a generated ID and medium priority.
func NewTask(name, description string) Task {
	return Task{
		ID:          NewID(),
		Name:        name,
		Description: description,
		Priority:    PriorityMedium,
		Metadata:    map[string]any{},
	}
}
