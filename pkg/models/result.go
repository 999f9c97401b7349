package models

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionResult is the value a container run returns to its caller. The
// error list always contains every captured child-level error; the success
// flag is the only policy-weighted signal.
type ExecutionResult struct {
	Success    bool             `json:"success"`
	Output     []any            `json:"output"`
	DurationMs int64            `json:"duration_ms"`
	Iterations int              `json:"iterations,omitempty"`
	Errors     []string         `json:"errors,omitempty"`
	Metrics    ContainerMetrics `json:"metrics"`
}

// ExecutionRecord is the archived form of a terminal container run, stored
// by the analytics collaborator that consumes execution events.
type ExecutionRecord struct {
	ID          string           `json:"id"`
	ContainerID string           `json:"container_id"`
	ExecutionID string           `json:"execution_id"`
	WorkflowID  string           `json:"workflow_id,omitempty"`
	Status      ExecutionStatus  `json:"status"`
	Success     bool             `json:"success"`
	Output      []any            `json:"output,omitempty"`
	Errors      []string         `json:"errors,omitempty"`
	Iterations  int              `json:"iterations,omitempty"`
	Metrics     ContainerMetrics `json:"metrics"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt time.Time        `json:"completed_at"`
}

// NewExecutionRecord builds an archive record from a terminal state and its
// result.
func NewExecutionRecord(state ExecutionState, result *ExecutionResult) *ExecutionRecord {
	record := &ExecutionRecord{
		ID:          uuid.New().String(),
		ContainerID: state.ContainerID,
		ExecutionID: state.ExecutionID,
		WorkflowID:  state.WorkflowID,
		Status:      state.Status,
		StartedAt:   state.StartedAt,
		CompletedAt: time.Now().UTC(),
	}

	if state.CompletedAt != nil {
		record.CompletedAt = *state.CompletedAt
	}

	if result != nil {
		record.Success = result.Success
		record.Output = result.Output
		record.Errors = result.Errors
		record.Iterations = result.Iterations
		record.Metrics = result.Metrics
	}

	return record
}
