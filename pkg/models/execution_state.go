package models

import (
	"time"
)

// ExecutionStatus defines the container executor's state machine:
// idle → running → {completed, failed}, with running → paused as a
// cooperative, externally-triggered transition.
type ExecutionStatus string

const (
	ExecutionStatusIdle      ExecutionStatus = "idle"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusPaused    ExecutionStatus = "paused"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// ExecutionState is the mutable run record of a container instance. It is
// owned exclusively by the container executor, which serializes all
// mutations; listeners only ever see snapshots.
type ExecutionState struct {
	ContainerID   string          `json:"container_id"`
	ContainerType ContainerType   `json:"container_type,omitempty"`
	ExecutionID   string          `json:"execution_id"`
	WorkflowID    string          `json:"workflow_id,omitempty"`
	Status        ExecutionStatus `json:"status"`

	// A child id appears in at most one of the three sets at any instant,
	// scoped to the current iteration or batch.
	ActiveChildren    map[string]bool `json:"active_children"`
	CompletedChildren map[string]bool `json:"completed_children"`
	FailedChildren    map[string]bool `json:"failed_children"`

	CurrentIteration int `json:"current_iteration,omitempty"`
	TotalIterations  int `json:"total_iterations,omitempty"`

	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Metrics     ContainerMetrics `json:"metrics"`
}

// NewExecutionState creates an idle state for a container invocation.
func NewExecutionState(containerID, executionID, workflowID string) *ExecutionState {
	return &ExecutionState{
		ContainerID:       containerID,
		ExecutionID:       executionID,
		WorkflowID:        workflowID,
		Status:            ExecutionStatusIdle,
		ActiveChildren:    make(map[string]bool),
		CompletedChildren: make(map[string]bool),
		FailedChildren:    make(map[string]bool),
	}
}

// Snapshot returns a deep copy safe to hand to listeners.
func (s *ExecutionState) Snapshot() ExecutionState {
	snapshot := *s
	snapshot.ActiveChildren = copyChildSet(s.ActiveChildren)
	snapshot.CompletedChildren = copyChildSet(s.CompletedChildren)
	snapshot.FailedChildren = copyChildSet(s.FailedChildren)

	if s.CompletedAt != nil {
		completedAt := *s.CompletedAt
		snapshot.CompletedAt = &completedAt
	}

	return snapshot
}

// ChildStarted marks a child as in-flight.
func (s *ExecutionState) ChildStarted(childID string) {
	delete(s.CompletedChildren, childID)
	delete(s.FailedChildren, childID)
	s.ActiveChildren[childID] = true
}

// ChildSucceeded moves a child from active to completed.
func (s *ExecutionState) ChildSucceeded(childID string) {
	delete(s.ActiveChildren, childID)
	s.CompletedChildren[childID] = true
}

// ChildFailed moves a child from active to failed.
func (s *ExecutionState) ChildFailed(childID string) {
	delete(s.ActiveChildren, childID)
	s.FailedChildren[childID] = true
}

// BeginIteration records iteration progress and resets the per-iteration
// child sets. A child id may reappear across iterations but never in more
// than one set at once.
func (s *ExecutionState) BeginIteration(current, total int) {
	s.CurrentIteration = current
	s.TotalIterations = total
	s.ActiveChildren = make(map[string]bool)
	s.CompletedChildren = make(map[string]bool)
	s.FailedChildren = make(map[string]bool)
}

// IsTerminal reports whether the state machine has reached a final status.
func (s *ExecutionState) IsTerminal() bool {
	return s.Status == ExecutionStatusCompleted || s.Status == ExecutionStatusFailed
}

func copyChildSet(set map[string]bool) map[string]bool {
	copied := make(map[string]bool, len(set))
	for id := range set {
		copied[id] = true
	}

	return copied
}
