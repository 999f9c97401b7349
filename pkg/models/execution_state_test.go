package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExecutionState(t *testing.T) {
	state := NewExecutionState("c1", "exec-1", "wf-1")

	assert.Equal(t, "c1", state.ContainerID)
	assert.Equal(t, "exec-1", state.ExecutionID)
	assert.Equal(t, "wf-1", state.WorkflowID)
	assert.Equal(t, ExecutionStatusIdle, state.Status)
	assert.Empty(t, state.ActiveChildren)
	assert.False(t, state.IsTerminal())
}

func TestChildSetTransitions(t *testing.T) {
	state := NewExecutionState("c1", "exec-1", "")

	state.ChildStarted("a")
	assert.True(t, state.ActiveChildren["a"])

	state.ChildSucceeded("a")
	assert.False(t, state.ActiveChildren["a"])
	assert.True(t, state.CompletedChildren["a"])

	// Restarting a finished child pulls it back into the active set only.
	state.ChildStarted("a")
	assert.True(t, state.ActiveChildren["a"])
	assert.False(t, state.CompletedChildren["a"])

	state.ChildFailed("a")
	assert.False(t, state.ActiveChildren["a"])
	assert.True(t, state.FailedChildren["a"])
}

func TestBeginIterationResetsChildSets(t *testing.T) {
	state := NewExecutionState("c1", "exec-1", "")

	state.ChildStarted("a")
	state.ChildSucceeded("a")
	state.ChildStarted("b")
	state.ChildFailed("b")

	state.BeginIteration(2, 5)

	assert.Equal(t, 2, state.CurrentIteration)
	assert.Equal(t, 5, state.TotalIterations)
	assert.Empty(t, state.ActiveChildren)
	assert.Empty(t, state.CompletedChildren)
	assert.Empty(t, state.FailedChildren)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	state := NewExecutionState("c1", "exec-1", "")
	state.ChildStarted("a")

	completedAt := time.Now().UTC()
	stamped := completedAt
	state.CompletedAt = &stamped

	snapshot := state.Snapshot()

	state.ChildSucceeded("a")
	state.ChildStarted("b")
	*state.CompletedAt = completedAt.Add(time.Hour)

	assert.True(t, snapshot.ActiveChildren["a"])
	assert.False(t, snapshot.ActiveChildren["b"])
	assert.Empty(t, snapshot.CompletedChildren)
	require.NotNil(t, snapshot.CompletedAt)
	assert.Equal(t, completedAt, *snapshot.CompletedAt)
}

func TestIsTerminal(t *testing.T) {
	state := NewExecutionState("c1", "exec-1", "")

	for status, terminal := range map[ExecutionStatus]bool{
		ExecutionStatusIdle:      false,
		ExecutionStatusRunning:   false,
		ExecutionStatusPaused:    false,
		ExecutionStatusCompleted: true,
		ExecutionStatusFailed:    true,
	} {
		state.Status = status
		assert.Equal(t, terminal, state.IsTerminal(), "status %s", status)
	}
}

func TestNewExecutionRecordFromState(t *testing.T) {
	state := NewExecutionState("c1", "exec-1", "wf-1")
	state.Status = ExecutionStatusCompleted
	state.StartedAt = time.Now().UTC().Add(-time.Minute)

	completedAt := time.Now().UTC()
	state.CompletedAt = &completedAt

	result := &ExecutionResult{
		Success:    true,
		Output:     []any{"one"},
		Iterations: 3,
		Metrics:    ContainerMetrics{TotalExecutions: 3},
	}

	record := NewExecutionRecord(state.Snapshot(), result)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "c1", record.ContainerID)
	assert.Equal(t, "exec-1", record.ExecutionID)
	assert.Equal(t, "wf-1", record.WorkflowID)
	assert.Equal(t, ExecutionStatusCompleted, record.Status)
	assert.True(t, record.Success)
	assert.Equal(t, []any{"one"}, record.Output)
	assert.Equal(t, 3, record.Iterations)
	assert.Equal(t, int64(3), record.Metrics.TotalExecutions)
	assert.Equal(t, completedAt, record.CompletedAt)
}
